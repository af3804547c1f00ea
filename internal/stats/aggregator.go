// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package stats computes the on-demand statistics rollup: global totals,
// per-section and per-category breakdowns over the full descendant
// subtree, and cross-cutting subdivision counts, all filtered by an
// optional date range.
package stats

import (
	"errors"
	"time"

	"newsdesk/internal/hierarchy"
	"newsdesk/internal/models"
	"newsdesk/internal/store"
)

// ErrNotFound is returned when a selected section or category does not
// exist.
var ErrNotFound = errors.New("stats: not found")

// dateLayout is the wire format of the statistics date filter.
const dateLayout = "2006-01-02"

// Options selects the rollup scope. StartDate and EndDate are raw form
// values in YYYY-MM-DD form; malformed values silently disable the date
// filter (both bounds) rather than failing the request. CategoryID, when
// set, takes precedence over SectionID for the selection block.
type Options struct {
	StartDate  string
	EndDate    string
	SectionID  *int64
	CategoryID *int64
}

// Rollup is the aggregated result. The global block is always present;
// Selection is nil unless a section or category was chosen.
type Rollup struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	// Site-wide totals for the period. UniqueVisitors is always
	// computed over all view statistics in range, never narrowed by the
	// selection — a long-standing behavior the UI depends on.
	TotalNews      int `json:"total_news"`
	TotalViews     int `json:"total_views"`
	TotalDownloads int `json:"total_downloads"`
	UniqueVisitors int `json:"unique_visitors"`

	Subdivisions []store.SubdivisionCount `json:"subdivisions,omitempty"`

	Selection *Selection `json:"selection,omitempty"`
}

// Selection holds the four counts for the chosen section or category
// subtree, plus its breakdowns.
type Selection struct {
	Label          string `json:"label"` // section title or full category title path
	NewsCount      int    `json:"news_count"`
	FilesCount     int    `json:"files_count"`
	ViewsCount     int    `json:"views_count"`
	DownloadsCount int    `json:"downloads_count"`

	// Categories is filled only for a section selection: one rollup per
	// top-level category, each covering its full subtree.
	Categories []CategoryRollup `json:"categories,omitempty"`

	Subdivisions []store.SubdivisionCount `json:"subdivisions,omitempty"`
}

// CategoryRollup is the per-top-level-category block of a section
// selection.
type CategoryRollup struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	FullPath       string `json:"full_path"`
	NewsCount      int    `json:"news_count"`
	FilesCount     int    `json:"files_count"`
	ViewsCount     int    `json:"views_count"`
	DownloadsCount int    `json:"downloads_count"`

	Subdivisions []store.SubdivisionCount `json:"subdivisions,omitempty"`
}

// Aggregator wires the stat queries to the category hierarchy.
type Aggregator struct {
	stats      *store.StatStore
	sections   *store.SectionStore
	categories *store.CategoryStore
}

// NewAggregator returns an Aggregator over the given stores.
func NewAggregator(stats *store.StatStore, sections *store.SectionStore, categories *store.CategoryStore) *Aggregator {
	return &Aggregator{stats: stats, sections: sections, categories: categories}
}

// parseRange turns the raw form dates into a half-open [from, to) pair.
// The upper bound is the end date plus one day, making the end date
// inclusive at day granularity regardless of time-of-day. If either
// value is present but malformed, the whole filter is dropped.
func parseRange(startDate, endDate string) (from, to *time.Time) {
	if startDate != "" {
		t, err := time.Parse(dateLayout, startDate)
		if err != nil {
			return nil, nil
		}
		from = &t
	}
	if endDate != "" {
		t, err := time.Parse(dateLayout, endDate)
		if err != nil {
			return nil, nil
		}
		exclusive := t.AddDate(0, 0, 1)
		to = &exclusive
	}
	return from, to
}

// Aggregate produces the rollup for the given options.
func (a *Aggregator) Aggregate(opts Options) (*Rollup, error) {
	from, to := parseRange(opts.StartDate, opts.EndDate)
	period := store.Scope{From: from, To: to}

	rollup := &Rollup{StartDate: opts.StartDate, EndDate: opts.EndDate}

	var err error
	if rollup.TotalNews, err = a.stats.CountNews(period); err != nil {
		return nil, err
	}
	if rollup.TotalViews, err = a.stats.CountViews(period); err != nil {
		return nil, err
	}
	if rollup.TotalDownloads, err = a.stats.CountDownloads(period); err != nil {
		return nil, err
	}
	if rollup.UniqueVisitors, err = a.stats.CountUniqueVisitors(from, to); err != nil {
		return nil, err
	}
	if rollup.Subdivisions, err = a.stats.SubdivisionBreakdown(period); err != nil {
		return nil, err
	}

	switch {
	case opts.CategoryID != nil:
		rollup.Selection, err = a.aggregateCategory(*opts.CategoryID, from, to)
	case opts.SectionID != nil:
		rollup.Selection, err = a.aggregateSection(*opts.SectionID, from, to)
	}
	if err != nil {
		return nil, err
	}

	return rollup, nil
}

// aggregateSection scopes the four counts to one section and adds a
// rollup per top-level category, each spanning its full subtree.
func (a *Aggregator) aggregateSection(sectionID int64, from, to *time.Time) (*Selection, error) {
	section, err := a.sections.FindByID(sectionID)
	if err != nil {
		return nil, err
	}
	if section == nil {
		return nil, ErrNotFound
	}

	cats, err := a.categories.ListBySection(sectionID)
	if err != nil {
		return nil, err
	}
	tree := hierarchy.NewTree(cats)

	scope := store.Scope{From: from, To: to, SectionID: &sectionID}
	sel, err := a.countSelection(section.Title, scope)
	if err != nil {
		return nil, err
	}

	for _, root := range tree.Roots(sectionID) {
		cr, err := a.countCategory(tree, root, from, to)
		if err != nil {
			return nil, err
		}
		sel.Categories = append(sel.Categories, *cr)
	}

	return sel, nil
}

// aggregateCategory scopes the counts to a category's descendant id set.
func (a *Aggregator) aggregateCategory(categoryID int64, from, to *time.Time) (*Selection, error) {
	category, err := a.categories.FindByID(categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrNotFound
	}

	cats, err := a.categories.ListBySection(category.SectionID)
	if err != nil {
		return nil, err
	}
	tree := hierarchy.NewTree(cats)

	scope := store.Scope{From: from, To: to, CategoryIDs: tree.DescendantIDs(categoryID)}
	return a.countSelection(tree.FullTitlePath(categoryID), scope)
}

// countCategory produces the rollup of one top-level category subtree.
func (a *Aggregator) countCategory(tree *hierarchy.Tree, root *models.Category, from, to *time.Time) (*CategoryRollup, error) {
	scope := store.Scope{From: from, To: to, CategoryIDs: tree.DescendantIDs(root.ID)}

	sel, err := a.countSelection("", scope)
	if err != nil {
		return nil, err
	}

	return &CategoryRollup{
		ID:             root.ID,
		Title:          root.Title,
		FullPath:       tree.FullTitlePath(root.ID),
		NewsCount:      sel.NewsCount,
		FilesCount:     sel.FilesCount,
		ViewsCount:     sel.ViewsCount,
		DownloadsCount: sel.DownloadsCount,
		Subdivisions:   sel.Subdivisions,
	}, nil
}

// countSelection runs the four counts plus the subdivision breakdown for
// one scope.
func (a *Aggregator) countSelection(label string, scope store.Scope) (*Selection, error) {
	sel := &Selection{Label: label}

	var err error
	if sel.NewsCount, err = a.stats.CountNews(scope); err != nil {
		return nil, err
	}
	if sel.FilesCount, err = a.stats.CountFiles(scope); err != nil {
		return nil, err
	}
	if sel.ViewsCount, err = a.stats.CountViews(scope); err != nil {
		return nil, err
	}
	if sel.DownloadsCount, err = a.stats.CountDownloads(scope); err != nil {
		return nil, err
	}
	if sel.Subdivisions, err = a.stats.SubdivisionBreakdown(scope); err != nil {
		return nil, err
	}
	return sel, nil
}
