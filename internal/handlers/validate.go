package handlers

import (
	"strings"
	"unicode/utf8"
)

// Validation limits for admin form fields.
const (
	maxTitleLen   = 300
	maxSlugLen    = 300
	maxContentLen = 100_000
	maxNameLen    = 200
)

// validateTitleSlug checks the shared title/slug inputs of the section
// and category forms and returns the first error found.
func validateTitleSlug(title, slug string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Title is required."
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 300 characters)."
	}
	if utf8.RuneCountInString(slug) > maxSlugLen {
		return "Slug is too long (max 300 characters)."
	}
	return ""
}

// validateNews checks the news form inputs and returns the first error found.
func validateNews(title, content string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Title is required."
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 300 characters)."
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return "Body is too long (max 100,000 characters)."
	}
	return ""
}

// validateName checks the subdivision name input.
func validateName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Name is required."
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "Name is too long (max 200 characters)."
	}
	return ""
}
