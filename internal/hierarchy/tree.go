// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package hierarchy resolves slug paths against the section-scoped
// category tree and enumerates subtrees. It operates on an in-memory
// arena of category records indexed by id, so tree walks are map lookups
// and a corrupted parent chain can never hang a request.
package hierarchy

import (
	"sort"
	"strings"

	"newsdesk/internal/models"
)

// TitleSeparator joins ancestor titles in a full title path.
const TitleSeparator = " / "

// Tree is an immutable snapshot of the category hierarchy. Build one
// from a flat category list with NewTree; it is safe for concurrent
// reads.
type Tree struct {
	byID     map[int64]*models.Category
	children map[int64][]*models.Category // parent id -> children
	roots    map[int64][]*models.Category // section id -> root categories
}

// NewTree builds a Tree from a flat list of categories. Children and
// roots are sorted by title for stable iteration.
func NewTree(cats []models.Category) *Tree {
	t := &Tree{
		byID:     make(map[int64]*models.Category, len(cats)),
		children: make(map[int64][]*models.Category),
		roots:    make(map[int64][]*models.Category),
	}

	for i := range cats {
		c := &cats[i]
		t.byID[c.ID] = c
	}
	for _, c := range t.byID {
		if c.ParentID == nil {
			t.roots[c.SectionID] = append(t.roots[c.SectionID], c)
			continue
		}
		t.children[*c.ParentID] = append(t.children[*c.ParentID], c)
	}

	byTitle := func(s []*models.Category) {
		sort.Slice(s, func(i, j int) bool { return s[i].Title < s[j].Title })
	}
	for _, s := range t.children {
		byTitle(s)
	}
	for _, s := range t.roots {
		byTitle(s)
	}

	return t
}

// Get returns the category with the given id, or nil if absent.
func (t *Tree) Get(id int64) *models.Category {
	return t.byID[id]
}

// Roots returns the top-level categories of a section, sorted by title.
func (t *Tree) Roots(sectionID int64) []*models.Category {
	return t.roots[sectionID]
}

// Children returns the direct children of a category, sorted by title.
func (t *Tree) Children(id int64) []*models.Category {
	return t.children[id]
}

// Resolve walks slug segments left to right, scoped to a section. At
// each step the unique (section, slug, current parent) triple is looked
// up; the walk fails at the first unmatched segment, never partially
// succeeding past it. Returns the deepest resolved category.
func (t *Tree) Resolve(sectionID int64, segments []string) (*models.Category, bool) {
	var current *models.Category
	matched := false

	for _, seg := range segments {
		if seg == "" {
			continue
		}

		var scope []*models.Category
		if current == nil {
			scope = t.roots[sectionID]
		} else {
			scope = t.children[current.ID]
		}

		var next *models.Category
		for _, c := range scope {
			if c.Slug == seg && c.SectionID == sectionID {
				next = c
				break
			}
		}
		if next == nil {
			return nil, false
		}
		current = next
		matched = true
	}

	if !matched {
		return nil, false
	}
	return current, true
}

// FullTitlePath walks parent links from the category to the root and
// returns the ancestor titles joined with " / ", root first. Returns ""
// for an unknown id. A visited guard stops the walk if the data ever
// contains a parent cycle.
func (t *Tree) FullTitlePath(id int64) string {
	return strings.Join(t.pathParts(id, func(c *models.Category) string { return c.Title }), TitleSeparator)
}

// FullSlugPath is the slug-based variant of FullTitlePath, joined with
// "/" — it reconstructs the canonical URL path below the section.
func (t *Tree) FullSlugPath(id int64) string {
	return strings.Join(t.pathParts(id, func(c *models.Category) string { return c.Slug }), "/")
}

// pathParts collects one field per ancestor, root first.
func (t *Tree) pathParts(id int64, field func(*models.Category) string) []string {
	c := t.byID[id]
	if c == nil {
		return nil
	}

	var parts []string
	visited := make(map[int64]bool)
	for c != nil && !visited[c.ID] {
		visited[c.ID] = true
		parts = append(parts, field(c))
		if c.ParentID == nil {
			break
		}
		c = t.byID[*c.ParentID]
	}

	// Reverse in place: the walk produced leaf-to-root order.
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return parts
}

// DescendantIDs returns the ids of the category and all of its
// transitive children. The starting id is always included, even when it
// is unknown to the tree, so callers can use the result directly as a
// scope filter. Enumeration is iterative with an explicit work list and
// a visited set, so a cyclic parent chain terminates instead of looping.
func (t *Tree) DescendantIDs(id int64) []int64 {
	ids := []int64{id}
	visited := map[int64]bool{id: true}

	queue := []int64{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, child := range t.children[current] {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			ids = append(ids, child.ID)
			queue = append(queue, child.ID)
		}
	}

	return ids
}

// FlatBySection returns a section's categories ordered depth-first with
// Depth set for indentation. Useful for <select> dropdowns and the
// statistics category picker.
func (t *Tree) FlatBySection(sectionID int64) []models.Category {
	var result []models.Category
	visited := make(map[int64]bool)

	var walk func(cats []*models.Category, depth int)
	walk = func(cats []*models.Category, depth int) {
		for _, c := range cats {
			if visited[c.ID] {
				continue
			}
			visited[c.ID] = true
			copied := *c
			copied.Depth = depth
			result = append(result, copied)
			walk(t.children[c.ID], depth+1)
		}
	}
	walk(t.roots[sectionID], 0)

	return result
}
