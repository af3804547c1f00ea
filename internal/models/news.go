// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// News is a published item. CategoryID is nil for uncategorized,
// section-level news. AuthorID and SubdivisionID are optional references
// that survive the deletion of their referent (SET NULL).
type News struct {
	ID            int64     `json:"id"`
	SectionID     int64     `json:"section_id"`
	CategoryID    *int64    `json:"category_id,omitempty"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	AuthorID      *int64    `json:"author_id,omitempty"`
	SubdivisionID *int64    `json:"subdivision_id,omitempty"`
	SortOrder     int       `json:"sort_order"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Presentation fields, not persisted.
	SectionTitle  string     `json:"-"`
	SectionSlug   string     `json:"-"`
	CategoryTitle string     `json:"-"`
	Files         []NewsFile `json:"files,omitempty"`
}

// NewsFile is a downloadable attachment on a news item. S3Key points at
// the stored blob; Filename is the display name shown to readers and
// defaults to the stored object name when left empty on upload.
type NewsFile struct {
	ID          int64     `json:"id"`
	NewsID      int64     `json:"news_id"`
	S3Key       string    `json:"s3_key"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}
