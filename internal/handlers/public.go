// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"newsdesk/internal/cache"
	"newsdesk/internal/hierarchy"
	"newsdesk/internal/markdown"
	"newsdesk/internal/models"
	"newsdesk/internal/quotes"
	"newsdesk/internal/render"
	"newsdesk/internal/stats"
	"newsdesk/internal/storage"
	"newsdesk/internal/store"
	"newsdesk/internal/tracker"
)

const latestNewsCount = 5

// Public groups handlers for the reader-facing site. Section, category,
// news, and archive pages are checked against the Valkey page cache
// before rendering and stored on miss. The homepage is rendered fresh on
// every request so the quote ticker reshuffles.
type Public struct {
	renderer        *render.Renderer
	pageCache       *cache.PageCache
	sections        *store.SectionStore
	categories      *store.CategoryStore
	news            *store.NewsStore
	files           *store.NewsFileStore
	stats           *stats.Aggregator
	quotes          *quotes.Rotator
	storage         *storage.Client
	tracker         *tracker.Tracker
	archivePageSize int
}

// NewPublic creates a new Public handler group. storageClient may be nil
// when S3 is not configured; downloads then return 503.
func NewPublic(
	renderer *render.Renderer,
	pageCache *cache.PageCache,
	sections *store.SectionStore,
	categories *store.CategoryStore,
	news *store.NewsStore,
	files *store.NewsFileStore,
	aggregator *stats.Aggregator,
	rotator *quotes.Rotator,
	storageClient *storage.Client,
	trk *tracker.Tracker,
	archivePageSize int,
) *Public {
	return &Public{
		renderer:        renderer,
		pageCache:       pageCache,
		sections:        sections,
		categories:      categories,
		news:            news,
		files:           files,
		stats:           aggregator,
		quotes:          rotator,
		storage:         storageClient,
		tracker:         trk,
		archivePageSize: archivePageSize,
	}
}

// serveHTML writes a rendered page.
func serveHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(body)
}

// render executes a public template with the shared chrome (shuffled
// ticker quotes) and serves it, optionally caching under key.
func (p *Public) render(w http.ResponseWriter, ctx context.Context, key, name, title string, data map[string]any) {
	body, err := p.renderer.Public(name, &render.PublicData{
		Title:  title,
		Quotes: p.quotes.Shuffled(),
		Year:   time.Now().Year(),
		Data:   data,
	})
	if err != nil {
		slog.Error("render public page failed", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if key != "" {
		p.pageCache.Set(ctx, key, body)
	}
	serveHTML(w, body)
}

// Home renders the homepage: the latest news plus the section list.
// Never cached, so each request gets a freshly shuffled ticker.
func (p *Public) Home(w http.ResponseWriter, r *http.Request) {
	latest, err := p.news.ListLatest(latestNewsCount)
	if err != nil {
		slog.Error("list latest news failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	sections, err := p.sections.List()
	if err != nil {
		slog.Error("list sections failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	p.render(w, r.Context(), "", "index", "Home", map[string]any{
		"News":     latest,
		"Sections": sections,
	})
}

// Section renders a section page: its root categories with news counts
// and the uncategorized news attached directly to the section.
func (p *Public) Section(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := cache.PathKey(r.URL.Path)
	if cached, ok := p.pageCache.Get(ctx, key); ok {
		serveHTML(w, cached)
		return
	}

	slugParam := chi.URLParam(r, "section")
	section, err := p.sections.FindBySlug(slugParam)
	if err != nil {
		slog.Error("find section by slug failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if section == nil {
		http.NotFound(w, r)
		return
	}

	roots, err := p.categories.ListRoots(section.ID)
	if err != nil {
		slog.Error("list root categories failed", "error", err, "section", section.ID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	items, err := p.news.ListUncategorized(section.ID)
	if err != nil {
		slog.Error("list uncategorized news failed", "error", err, "section", section.ID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	p.render(w, ctx, key, "section", section.Title, map[string]any{
		"Section":    section,
		"Categories": roots,
		"News":       items,
	})
}

// Category renders a category page addressed by its full slug path under
// a section, e.g. /world/europe/balkans/. The path must resolve exactly;
// a dangling segment is a 404.
func (p *Public) Category(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := cache.PathKey(r.URL.Path)
	if cached, ok := p.pageCache.Get(ctx, key); ok {
		serveHTML(w, cached)
		return
	}

	slugParam := chi.URLParam(r, "section")
	section, err := p.sections.FindBySlug(slugParam)
	if err != nil {
		slog.Error("find section by slug failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if section == nil {
		http.NotFound(w, r)
		return
	}

	segments := splitSlugPath(chi.URLParam(r, "*"))
	if len(segments) == 0 {
		http.NotFound(w, r)
		return
	}

	cats, err := p.categories.ListBySection(section.ID)
	if err != nil {
		slog.Error("list categories failed", "error", err, "section", section.ID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	tree := hierarchy.NewTree(cats)
	category, ok := tree.Resolve(section.ID, segments)
	if !ok {
		http.NotFound(w, r)
		return
	}

	items, err := p.news.ListByCategory(category.ID)
	if err != nil {
		slog.Error("list news by category failed", "error", err, "category", category.ID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	p.render(w, ctx, key, "category", category.Title, map[string]any{
		"Section":   section,
		"Category":  category,
		"Children":  tree.Children(category.ID),
		"TitlePath": tree.FullTitlePath(category.ID),
		"SlugPath":  tree.FullSlugPath(category.ID),
		"News":      items,
	})
}

// News renders a single news item with its rendered Markdown body and
// attachment list.
func (p *Public) News(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := cache.PathKey(r.URL.Path)
	if cached, ok := p.pageCache.Get(ctx, key); ok {
		serveHTML(w, cached)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	item, err := p.news.FindByID(id)
	if err != nil {
		slog.Error("find news failed", "error", err, "id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if item == nil {
		http.NotFound(w, r)
		return
	}

	body, err := markdown.ToHTML(item.Content)
	if err != nil {
		slog.Error("render news body failed", "error", err, "id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	attachments, err := p.files.ListByNews(id)
	if err != nil {
		slog.Error("list news files failed", "error", err, "id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	p.render(w, ctx, key, "news", item.Title, map[string]any{
		"News":  item,
		"Body":  body,
		"Files": attachments,
	})
}

// Search runs a substring search over news titles and bodies, optionally
// narrowed to one section. Never cached.
func (p *Public) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	sectionSlug := r.URL.Query().Get("section")

	sections, err := p.sections.List()
	if err != nil {
		slog.Error("list sections failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"Query":       query,
		"SectionSlug": sectionSlug,
		"Sections":    sections,
		"Results":     []models.News(nil),
	}
	if query != "" {
		found, err := p.news.Search(query, sectionSlug, nil)
		if err != nil {
			slog.Error("search news failed", "error", err, "query", query)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		data["Results"] = found
	}

	p.render(w, r.Context(), "", "search", "Search", data)
}

// Archive renders one page of the full news archive, newest first.
func (p *Public) Archive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page = n
		}
	}

	key := "archive/" + strconv.Itoa(page)
	if cached, ok := p.pageCache.Get(ctx, key); ok {
		serveHTML(w, cached)
		return
	}

	total, err := p.news.Count()
	if err != nil {
		slog.Error("count news failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	totalPages := (total + p.archivePageSize - 1) / p.archivePageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	items, err := p.news.ListPage(p.archivePageSize, (page-1)*p.archivePageSize)
	if err != nil {
		slog.Error("list news page failed", "error", err, "page", page)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"News":       items,
		"Page":       page,
		"TotalPages": totalPages,
	}
	if page > 1 {
		data["PrevPage"] = page - 1
	}
	if page < totalPages {
		data["NextPage"] = page + 1
	}

	p.render(w, ctx, key, "archive", "Archive", data)
}

// Statistics renders the public statistics rollup with its filter form.
// Query-dependent, so never cached.
func (p *Public) Statistics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := stats.Options{
		StartDate:  q.Get("start_date"),
		EndDate:    q.Get("end_date"),
		SectionID:  parseIDParam(q.Get("section_id")),
		CategoryID: parseIDParam(q.Get("category_id")),
	}

	rollup, err := p.stats.Aggregate(opts)
	if err != nil {
		if errors.Is(err, stats.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("statistics rollup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sections, err := p.sections.List()
	if err != nil {
		slog.Error("list sections failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	allCats, err := p.categories.List()
	if err != nil {
		slog.Error("list categories failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	tree := hierarchy.NewTree(allCats)
	dropdown := flattenCategories(tree, sections)

	p.render(w, r.Context(), "", "statistics", "Statistics", map[string]any{
		"Rollup":           rollup,
		"Sections":         sections,
		"Categories":       dropdown,
		"SelectedSection":  opts.SectionID,
		"SelectedCategory": opts.CategoryID,
	})
}

// Download records the download and redirects to a short-lived presigned
// URL for the stored object. Tracking failures never block the download.
func (p *Public) Download(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	file, err := p.files.FindByID(id)
	if err != nil {
		slog.Error("find news file failed", "error", err, "id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if file == nil {
		http.NotFound(w, r)
		return
	}

	p.tracker.TrackDownload(file, r)

	if p.storage == nil {
		http.Error(w, "File storage is not configured", http.StatusServiceUnavailable)
		return
	}

	url, err := p.storage.DownloadURL(r.Context(), file.S3Key)
	if err != nil {
		slog.Error("presign download failed", "error", err, "key", file.S3Key)
		url = p.storage.FileURL(file.S3Key)
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// splitSlugPath breaks a wildcard URL remainder into slug segments.
func splitSlugPath(raw string) []string {
	var segments []string
	for _, s := range strings.Split(raw, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// parseIDParam parses an optional numeric query parameter.
func parseIDParam(raw string) *int64 {
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

// flattenCategories builds the depth-annotated category list for the
// statistics dropdown, grouped by section in section list order.
func flattenCategories(tree *hierarchy.Tree, sections []models.Section) []models.Category {
	var flat []models.Category
	for _, sec := range sections {
		flat = append(flat, tree.FlatBySection(sec.ID)...)
	}
	return flat
}
