// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package tracker records visitor analytics: a middleware that logs
// every public GET page view with a best-effort classification of what
// was viewed, and a helper that logs file downloads. Recording is
// fire-and-forget; a failed insert never affects the response.
package tracker

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"newsdesk/internal/models"
	"newsdesk/internal/store"
)

// skipPrefixes lists path prefixes excluded from view tracking. Downloads
// have their own statistic and must not double-count as page views.
var skipPrefixes = []string{
	"/admin",
	"/static",
	"/download",
	"/health",
	"/favicon.ico",
}

// Tracker classifies request paths against the section/category
// hierarchy and persists view and download statistics.
type Tracker struct {
	stats      *store.StatStore
	sections   *store.SectionStore
	categories *store.CategoryStore
	news       *store.NewsStore
}

// New returns a Tracker over the given stores.
func New(stats *store.StatStore, sections *store.SectionStore, categories *store.CategoryStore, news *store.NewsStore) *Tracker {
	return &Tracker{stats: stats, sections: sections, categories: categories, news: news}
}

// Middleware records a view statistic for every GET request outside the
// excluded prefixes. The response is served first; recording happens
// afterwards so a slow or failing insert cannot delay the page.
func (t *Tracker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)

		if r.Method != http.MethodGet || t.skip(r.URL.Path) {
			return
		}
		t.recordView(r)
	})
}

func (t *Tracker) skip(path string) bool {
	for _, p := range skipPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// recordView classifies the path and inserts the view row. Any failure
// along the way is logged and swallowed: the row is still written with
// whatever references could be resolved.
func (t *Tracker) recordView(r *http.Request) {
	v := &models.ViewStatistic{
		IPAddress: ClientIP(r),
		UserAgent: r.UserAgent(),
		Path:      r.URL.Path,
	}
	t.classify(v, r.URL.Path)

	if err := t.stats.InsertView(v); err != nil {
		slog.Error("record page view", "path", v.Path, "error", err)
	}
}

// classify fills in the section/category/news references for a path.
// The home page stays unclassified; /news/{id} resolves through the
// news item, and an unknown id falls back to the section-slug walk (a
// section may legitimately be slugged "news"); anything else is
// treated as a section slug followed by a category slug path. The
// category walk is all-or-nothing: if any segment fails to resolve the
// row stays section-only.
func (t *Tracker) classify(v *models.ViewStatistic, path string) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return
	}

	if segments[0] == "news" && len(segments) >= 2 && t.classifyNews(v, segments[1]) {
		return
	}

	section, err := t.sections.FindBySlug(segments[0])
	if err != nil {
		slog.Error("classify view: find section", "slug", segments[0], "error", err)
		return
	}
	if section == nil {
		return
	}
	v.SectionID = &section.ID

	var parentID *int64
	for _, slug := range segments[1:] {
		category, err := t.categories.FindBySlug(section.ID, slug, parentID)
		if err != nil {
			slog.Error("classify view: find category", "slug", slug, "error", err)
		}
		if err != nil || category == nil {
			v.CategoryID = nil
			return
		}
		v.CategoryID = &category.ID
		parentID = &category.ID
	}
}

// classifyNews reports whether the id segment resolved to a news item.
func (t *Tracker) classifyNews(v *models.ViewStatistic, rawID string) bool {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return false
	}
	item, err := t.news.FindByID(id)
	if err != nil {
		slog.Error("classify view: find news", "id", id, "error", err)
		return false
	}
	if item == nil {
		return false
	}
	v.NewsID = &item.ID
	v.SectionID = &item.SectionID
	v.CategoryID = item.CategoryID
	return true
}

// TrackDownload records one download of the given file. Failures are
// logged and swallowed so the download itself always proceeds.
func (t *Tracker) TrackDownload(file *models.NewsFile, r *http.Request) {
	d := &models.DownloadStatistic{
		NewsFileID: file.ID,
		IPAddress:  ClientIP(r),
		UserAgent:  r.UserAgent(),
	}
	if err := t.stats.InsertDownload(d); err != nil {
		slog.Error("record download", "file_id", file.ID, "error", err)
	}
}

// ClientIP extracts the visitor address, honoring the first entry of
// X-Forwarded-For when a proxy added it.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// splitPath breaks a URL path into its non-empty segments.
func splitPath(path string) []string {
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}
