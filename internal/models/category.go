// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Category is a node in a section-scoped tree used to organize news items.
// ParentID is nil for root categories. The slug is unique only within the
// scope of (section, parent), so the same slug may recur at different
// depths or in different sections.
type Category struct {
	ID          int64     `json:"id"`
	SectionID   int64     `json:"section_id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	ParentID    *int64    `json:"parent_id,omitempty"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Presentation fields, not persisted.
	Children     []Category `json:"children,omitempty"`
	Depth        int        `json:"-"`
	NewsCount    int        `json:"news_count,omitempty"`
	SectionTitle string     `json:"-"`
}

// IsRoot returns true for top-level categories.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}
