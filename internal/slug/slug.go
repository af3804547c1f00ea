// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug derives URL path segments from section and category
// titles.
package slug

import (
	"regexp"
	"strings"
)

var (
	// stripChars matches anything that isn't a lowercase letter, digit,
	// space, or hyphen.
	stripChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	// squeezeHyphens collapses hyphen runs into one.
	squeezeHyphens = regexp.MustCompile(`-{2,}`)
)

// Generate turns a title into a URL-friendly slug.
// Example: "Foreign Affairs: Europe" → "foreign-affairs-europe"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = stripChars.ReplaceAllString(result, "")
	result = strings.ReplaceAll(result, " ", "-")
	result = squeezeHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	return result
}
