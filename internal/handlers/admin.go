// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the Newsdesk site.
// Handlers are grouped by concern (admin, public, auth) and receive
// their dependencies through the handler struct.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"newsdesk/internal/cache"
	"newsdesk/internal/hierarchy"
	"newsdesk/internal/middleware"
	"newsdesk/internal/models"
	"newsdesk/internal/render"
	"newsdesk/internal/slug"
	"newsdesk/internal/storage"
	"newsdesk/internal/store"
)

const (
	maxUploadBytes     = 64 << 20
	recentDownloadRows = 20
)

// Admin groups all admin panel HTTP handlers and their dependencies.
type Admin struct {
	renderer      *render.Renderer
	sections      *store.SectionStore
	categories    *store.CategoryStore
	news          *store.NewsStore
	files         *store.NewsFileStore
	subdivisions  *store.SubdivisionStore
	users         *store.UserStore
	stats         *store.StatStore
	storageClient *storage.Client
	pageCache     *cache.PageCache
}

// NewAdmin creates a new Admin handler group with the given dependencies.
// storageClient may be nil if S3 is not configured.
func NewAdmin(
	renderer *render.Renderer,
	sections *store.SectionStore,
	categories *store.CategoryStore,
	news *store.NewsStore,
	files *store.NewsFileStore,
	subdivisions *store.SubdivisionStore,
	users *store.UserStore,
	stats *store.StatStore,
	storageClient *storage.Client,
	pageCache *cache.PageCache,
) *Admin {
	return &Admin{
		renderer:      renderer,
		sections:      sections,
		categories:    categories,
		news:          news,
		files:         files,
		subdivisions:  subdivisions,
		users:         users,
		stats:         stats,
		storageClient: storageClient,
		pageCache:     pageCache,
	}
}

// invalidate purges the whole public page cache. Section, category, and
// news writes all ripple through listings, breadcrumbs, and counts, so a
// full purge is the only safe choice.
func (a *Admin) invalidate(ctx context.Context) {
	a.pageCache.InvalidateAll(ctx)
}

// parseID extracts a numeric id from the URL.
func parseID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// Dashboard renders the admin dashboard with live counts.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	newsCount, _ := a.news.Count()
	sections, _ := a.sections.List()
	viewCount, _ := a.stats.CountViews(store.Scope{})
	downloadCount, _ := a.stats.CountDownloads(store.Scope{})
	recent, err := a.stats.RecentDownloads(recentDownloadRows)
	if err != nil {
		slog.Error("recent downloads failed", "error", err)
	}

	a.renderer.Page(w, r, "dashboard", &render.PageData{
		Title:   "Dashboard",
		Section: "dashboard",
		Data: map[string]any{
			"NewsCount":       newsCount,
			"SectionCount":    len(sections),
			"ViewCount":       viewCount,
			"DownloadCount":   downloadCount,
			"RecentDownloads": recent,
		},
	})
}

// --- Sections CRUD ---

// SectionsList renders the section management page.
func (a *Admin) SectionsList(w http.ResponseWriter, r *http.Request) {
	sections, err := a.sections.List()
	if err != nil {
		slog.Error("list sections failed", "error", err)
	}

	a.renderer.Page(w, r, "sections", &render.PageData{
		Title:   "Sections",
		Section: "sections",
		Data:    map[string]any{"Sections": sections},
	})
}

// SectionNew renders the new section form.
func (a *Admin) SectionNew(w http.ResponseWriter, r *http.Request) {
	a.renderer.Page(w, r, "section_form", &render.PageData{
		Title:   "New Section",
		Section: "sections",
		Data:    map[string]any{},
	})
}

// SectionEdit renders the edit section form.
func (a *Admin) SectionEdit(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	section, err := a.sections.FindByID(id)
	if err != nil || section == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	a.renderer.Page(w, r, "section_form", &render.PageData{
		Title:   "Edit Section",
		Section: "sections",
		Data:    map[string]any{"Section": section},
	})
}

// SectionCreate handles the new section form submission.
func (a *Admin) SectionCreate(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.FormValue("title"))
	sectionSlug := strings.TrimSpace(r.FormValue("slug"))
	description := r.FormValue("description")

	if errMsg := validateTitleSlug(title, sectionSlug); errMsg != "" {
		a.renderer.Page(w, r, "section_form", &render.PageData{
			Title:   "New Section",
			Section: "sections",
			Data:    map[string]any{"Error": errMsg},
		})
		return
	}
	if sectionSlug == "" {
		sectionSlug = slug.Generate(title)
	}

	_, err := a.sections.Create(&models.Section{
		Title:       title,
		Slug:        sectionSlug,
		Description: description,
	})
	if err != nil {
		slog.Error("create section failed", "error", err)
		a.renderer.Page(w, r, "section_form", &render.PageData{
			Title:   "New Section",
			Section: "sections",
			Data:    map[string]any{"Error": "Failed to create. The slug may already exist."},
		})
		return
	}

	a.invalidate(r.Context())
	http.Redirect(w, r, "/admin/sections", http.StatusSeeOther)
}

// SectionUpdate handles the edit section form submission.
func (a *Admin) SectionUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	section, err := a.sections.FindByID(id)
	if err != nil || section == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	sectionSlug := strings.TrimSpace(r.FormValue("slug"))

	if errMsg := validateTitleSlug(title, sectionSlug); errMsg != "" {
		a.renderer.Page(w, r, "section_form", &render.PageData{
			Title:   "Edit Section",
			Section: "sections",
			Data:    map[string]any{"Section": section, "Error": errMsg},
		})
		return
	}

	section.Title = title
	section.Slug = sectionSlug
	if section.Slug == "" {
		section.Slug = slug.Generate(title)
	}
	section.Description = r.FormValue("description")

	if err := a.sections.Update(section); err != nil {
		slog.Error("update section failed", "error", err)
		a.renderer.Page(w, r, "section_form", &render.PageData{
			Title:   "Edit Section",
			Section: "sections",
			Data:    map[string]any{"Section": section, "Error": "Failed to update. The slug may already exist."},
		})
		return
	}

	a.invalidate(r.Context())
	http.Redirect(w, r, "/admin/sections", http.StatusSeeOther)
}

// SectionDelete removes a section and everything beneath it, then
// re-renders the list for the HTMX swap.
func (a *Admin) SectionDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	if err := a.sections.Delete(id); err != nil {
		slog.Error("delete section failed", "error", err, "id", id)
	}

	a.invalidate(r.Context())
	a.SectionsList(w, r)
}

// --- Categories CRUD ---

// flatCategories returns every category across all sections in tree
// order with Depth and SectionTitle filled in for display.
func (a *Admin) flatCategories() ([]models.Category, *hierarchy.Tree, error) {
	sections, err := a.sections.List()
	if err != nil {
		return nil, nil, err
	}
	all, err := a.categories.List()
	if err != nil {
		return nil, nil, err
	}

	tree := hierarchy.NewTree(all)
	var flat []models.Category
	for _, sec := range sections {
		for _, c := range tree.FlatBySection(sec.ID) {
			c.SectionTitle = sec.Title
			flat = append(flat, c)
		}
	}
	return flat, tree, nil
}

// CategoriesList renders the category management page, grouped by
// section with indentation showing the tree shape.
func (a *Admin) CategoriesList(w http.ResponseWriter, r *http.Request) {
	flat, _, err := a.flatCategories()
	if err != nil {
		slog.Error("list categories failed", "error", err)
	}

	a.renderer.Page(w, r, "categories", &render.PageData{
		Title:   "Categories",
		Section: "categories",
		Data:    map[string]any{"Categories": flat},
	})
}

// categoryFormData assembles the dropdown data for the category form.
// exclude removes a category and its subtree from the parent choices.
func (a *Admin) categoryFormData(exclude *int64) (map[string]any, error) {
	sections, err := a.sections.List()
	if err != nil {
		return nil, err
	}
	flat, tree, err := a.flatCategories()
	if err != nil {
		return nil, err
	}

	parents := flat
	if exclude != nil {
		blocked := make(map[int64]bool)
		for _, id := range tree.DescendantIDs(*exclude) {
			blocked[id] = true
		}
		parents = parents[:0:0]
		for _, c := range flat {
			if !blocked[c.ID] {
				parents = append(parents, c)
			}
		}
	}

	return map[string]any{
		"Sections": sections,
		"Parents":  parents,
	}, nil
}

// CategoryNew renders the new category form.
func (a *Admin) CategoryNew(w http.ResponseWriter, r *http.Request) {
	data, err := a.categoryFormData(nil)
	if err != nil {
		slog.Error("category form data failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "category_form", &render.PageData{
		Title:   "New Category",
		Section: "categories",
		Data:    data,
	})
}

// CategoryEdit renders the edit category form. The category's own
// subtree is excluded from the parent dropdown to keep the tree acyclic.
func (a *Admin) CategoryEdit(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	category, err := a.categories.FindByID(id)
	if err != nil || category == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	data, err := a.categoryFormData(&id)
	if err != nil {
		slog.Error("category form data failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	data["Category"] = category

	a.renderer.Page(w, r, "category_form", &render.PageData{
		Title:   "Edit Category",
		Section: "categories",
		Data:    data,
	})
}

// checkParent verifies that a chosen parent exists, lives in the same
// section, and (on update) is not the category itself or a descendant.
func (a *Admin) checkParent(parentID *int64, sectionID int64, selfID *int64) string {
	if parentID == nil {
		return ""
	}
	parent, err := a.categories.FindByID(*parentID)
	if err != nil || parent == nil {
		return "Parent category not found."
	}
	if parent.SectionID != sectionID {
		return "Parent category must belong to the selected section."
	}
	if selfID != nil {
		all, err := a.categories.List()
		if err != nil {
			return "Parent category could not be verified."
		}
		tree := hierarchy.NewTree(all)
		for _, id := range tree.DescendantIDs(*selfID) {
			if id == *parentID {
				return "A category cannot be moved under its own subtree."
			}
		}
	}
	return ""
}

// CategoryCreate handles the new category form submission.
func (a *Admin) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.FormValue("title"))
	catSlug := strings.TrimSpace(r.FormValue("slug"))
	sectionID := parseIDParam(r.FormValue("section_id"))
	parentID := parseIDParam(r.FormValue("parent_id"))

	renderError := func(msg string) {
		data, err := a.categoryFormData(nil)
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		data["Error"] = msg
		a.renderer.Page(w, r, "category_form", &render.PageData{
			Title:   "New Category",
			Section: "categories",
			Data:    data,
		})
	}

	if sectionID == nil {
		renderError("A section is required.")
		return
	}
	if errMsg := validateTitleSlug(title, catSlug); errMsg != "" {
		renderError(errMsg)
		return
	}
	if errMsg := a.checkParent(parentID, *sectionID, nil); errMsg != "" {
		renderError(errMsg)
		return
	}
	if catSlug == "" {
		catSlug = slug.Generate(title)
	}

	_, err := a.categories.Create(&models.Category{
		SectionID:   *sectionID,
		Title:       title,
		Slug:        catSlug,
		ParentID:    parentID,
		Description: r.FormValue("description"),
	})
	if err != nil {
		slog.Error("create category failed", "error", err)
		renderError("Failed to create. The slug may already exist at this level.")
		return
	}

	a.invalidate(r.Context())
	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

// CategoryUpdate handles the edit category form submission.
func (a *Admin) CategoryUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	category, err := a.categories.FindByID(id)
	if err != nil || category == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	catSlug := strings.TrimSpace(r.FormValue("slug"))
	sectionID := parseIDParam(r.FormValue("section_id"))
	parentID := parseIDParam(r.FormValue("parent_id"))

	renderError := func(msg string) {
		data, dataErr := a.categoryFormData(&id)
		if dataErr != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		data["Category"] = category
		data["Error"] = msg
		a.renderer.Page(w, r, "category_form", &render.PageData{
			Title:   "Edit Category",
			Section: "categories",
			Data:    data,
		})
	}

	if sectionID == nil {
		renderError("A section is required.")
		return
	}
	if errMsg := validateTitleSlug(title, catSlug); errMsg != "" {
		renderError(errMsg)
		return
	}
	if errMsg := a.checkParent(parentID, *sectionID, &id); errMsg != "" {
		renderError(errMsg)
		return
	}

	category.SectionID = *sectionID
	category.ParentID = parentID
	category.Title = title
	category.Slug = catSlug
	if category.Slug == "" {
		category.Slug = slug.Generate(title)
	}
	category.Description = r.FormValue("description")

	if err := a.categories.Update(category); err != nil {
		slog.Error("update category failed", "error", err)
		renderError("Failed to update. The slug may already exist at this level.")
		return
	}

	a.invalidate(r.Context())
	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

// CategoryDelete removes a category; children and news cascade with it.
func (a *Admin) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	if err := a.categories.Delete(id); err != nil {
		slog.Error("delete category failed", "error", err, "id", id)
	}

	a.invalidate(r.Context())
	a.CategoriesList(w, r)
}

// --- News CRUD ---

// NewsList renders the news management page, newest first.
func (a *Admin) NewsList(w http.ResponseWriter, r *http.Request) {
	items, err := a.news.Search("", "", nil)
	if err != nil {
		slog.Error("list news failed", "error", err)
	}

	a.renderer.Page(w, r, "news_list", &render.PageData{
		Title:   "News",
		Section: "news",
		Data:    map[string]any{"News": items},
	})
}

// newsFormData assembles the dropdown data for the news form.
func (a *Admin) newsFormData() (map[string]any, error) {
	sections, err := a.sections.List()
	if err != nil {
		return nil, err
	}
	flat, _, err := a.flatCategories()
	if err != nil {
		return nil, err
	}
	subdivisions, err := a.subdivisions.List()
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"Sections":     sections,
		"Categories":   flat,
		"Subdivisions": subdivisions,
	}, nil
}

// NewsNew renders the new news form.
func (a *Admin) NewsNew(w http.ResponseWriter, r *http.Request) {
	data, err := a.newsFormData()
	if err != nil {
		slog.Error("news form data failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "news_form", &render.PageData{
		Title:   "New News Item",
		Section: "news",
		Data:    data,
	})
}

// NewsEdit renders the edit news form with its attachments.
func (a *Admin) NewsEdit(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	item, err := a.news.FindByID(id)
	if err != nil || item == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	data, err := a.newsFormData()
	if err != nil {
		slog.Error("news form data failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	data["News"] = item

	attachments, err := a.files.ListByNews(id)
	if err != nil {
		slog.Error("list news files failed", "error", err, "id", id)
	}
	data["Files"] = attachments

	a.renderer.Page(w, r, "news_form", &render.PageData{
		Title:   "Edit News Item",
		Section: "news",
		Data:    data,
	})
}

// applyNewsForm parses and validates the news form into item. A category
// from a different section is logged and kept as submitted.
func (a *Admin) applyNewsForm(r *http.Request, item *models.News) string {
	title := strings.TrimSpace(r.FormValue("title"))
	content := r.FormValue("content")
	sectionID := parseIDParam(r.FormValue("section_id"))

	if sectionID == nil {
		return "A section is required."
	}
	if errMsg := validateNews(title, content); errMsg != "" {
		return errMsg
	}

	item.SectionID = *sectionID
	item.CategoryID = parseIDParam(r.FormValue("category_id"))
	item.SubdivisionID = parseIDParam(r.FormValue("subdivision_id"))
	item.Title = title
	item.Content = content

	if item.CategoryID != nil {
		category, err := a.categories.FindByID(*item.CategoryID)
		switch {
		case err != nil:
			slog.Error("category lookup failed", "error", err, "id", *item.CategoryID)
		case category == nil:
			slog.Warn("news references missing category", "category", *item.CategoryID)
		case category.SectionID != item.SectionID:
			slog.Warn("news category belongs to another section",
				"category", category.ID, "category_section", category.SectionID, "section", item.SectionID)
		}
	}
	return ""
}

// uploadAttachments stores every uploaded file in S3 and records it.
// Returns the first error; already stored files are kept.
func (a *Admin) uploadAttachments(ctx context.Context, newsID int64, r *http.Request) error {
	if r.MultipartForm == nil {
		return nil
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		return nil
	}
	if a.storageClient == nil {
		return fmt.Errorf("file storage is not configured")
	}

	for _, hdr := range headers {
		f, err := hdr.Open()
		if err != nil {
			return fmt.Errorf("open upload %s: %w", hdr.Filename, err)
		}

		key := storage.NewKey(hdr.Filename)
		contentType := hdr.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		err = a.storageClient.Upload(ctx, key, contentType, f, hdr.Size)
		f.Close()
		if err != nil {
			return fmt.Errorf("upload %s: %w", hdr.Filename, err)
		}

		_, err = a.files.Create(&models.NewsFile{
			NewsID:      newsID,
			S3Key:       key,
			Filename:    hdr.Filename,
			ContentType: contentType,
			SizeBytes:   hdr.Size,
		})
		if err != nil {
			return fmt.Errorf("record upload %s: %w", hdr.Filename, err)
		}
	}
	return nil
}

// NewsCreate handles the new news form submission, including uploads.
func (a *Admin) NewsCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	renderError := func(msg string) {
		data, err := a.newsFormData()
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		data["Error"] = msg
		a.renderer.Page(w, r, "news_form", &render.PageData{
			Title:   "New News Item",
			Section: "news",
			Data:    data,
		})
	}

	item := &models.News{}
	if errMsg := a.applyNewsForm(r, item); errMsg != "" {
		renderError(errMsg)
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	if sess != nil {
		item.AuthorID = &sess.UserID
	}

	created, err := a.news.Create(item)
	if err != nil {
		slog.Error("create news failed", "error", err)
		renderError("Failed to create news item.")
		return
	}

	if err := a.uploadAttachments(r.Context(), created.ID, r); err != nil {
		slog.Error("upload attachments failed", "error", err, "news", created.ID)
	}

	a.invalidate(r.Context())
	http.Redirect(w, r, "/admin/news", http.StatusSeeOther)
}

// NewsUpdate handles the edit news form submission, including uploads.
func (a *Admin) NewsUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	item, err := a.news.FindByID(id)
	if err != nil || item == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	renderError := func(msg string) {
		data, dataErr := a.newsFormData()
		if dataErr != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		data["News"] = item
		data["Error"] = msg
		a.renderer.Page(w, r, "news_form", &render.PageData{
			Title:   "Edit News Item",
			Section: "news",
			Data:    data,
		})
	}

	if errMsg := a.applyNewsForm(r, item); errMsg != "" {
		renderError(errMsg)
		return
	}

	if err := a.news.Update(item); err != nil {
		slog.Error("update news failed", "error", err)
		renderError("Failed to update news item.")
		return
	}

	if err := a.uploadAttachments(r.Context(), item.ID, r); err != nil {
		slog.Error("upload attachments failed", "error", err, "news", item.ID)
	}

	a.invalidate(r.Context())
	http.Redirect(w, r, "/admin/news", http.StatusSeeOther)
}

// NewsDelete removes a news item, its stored attachments, and their
// statistics, then re-renders the list for the HTMX swap.
func (a *Admin) NewsDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	// Best effort: remove blobs before the rows cascade away.
	if a.storageClient != nil {
		attachments, err := a.files.ListByNews(id)
		if err != nil {
			slog.Error("list news files failed", "error", err, "id", id)
		}
		for _, f := range attachments {
			if err := a.storageClient.Delete(r.Context(), f.S3Key); err != nil {
				slog.Error("delete stored file failed", "error", err, "key", f.S3Key)
			}
		}
	}

	if err := a.news.Delete(id); err != nil {
		slog.Error("delete news failed", "error", err, "id", id)
	}

	a.invalidate(r.Context())
	a.NewsList(w, r)
}

// FileDelete removes one attachment and sends the browser back to the
// owning news item's edit form.
func (a *Admin) FileDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	file, err := a.files.FindByID(id)
	if err != nil || file == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	if a.storageClient != nil {
		if err := a.storageClient.Delete(r.Context(), file.S3Key); err != nil {
			slog.Error("delete stored file failed", "error", err, "key", file.S3Key)
		}
	}
	if err := a.files.Delete(id); err != nil {
		slog.Error("delete news file failed", "error", err, "id", id)
	}

	a.invalidate(r.Context())

	redirectURL := fmt.Sprintf("/admin/news/%d", file.NewsID)
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", redirectURL)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, redirectURL, http.StatusSeeOther)
}

// --- Subdivisions ---

// SubdivisionsList renders the subdivision management page.
func (a *Admin) SubdivisionsList(w http.ResponseWriter, r *http.Request) {
	subdivisions, err := a.subdivisions.List()
	if err != nil {
		slog.Error("list subdivisions failed", "error", err)
	}

	a.renderer.Page(w, r, "subdivisions", &render.PageData{
		Title:   "Subdivisions",
		Section: "subdivisions",
		Data:    map[string]any{"Subdivisions": subdivisions},
	})
}

// SubdivisionCreate handles the inline add form.
func (a *Admin) SubdivisionCreate(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	if errMsg := validateName(name); errMsg != "" {
		subdivisions, _ := a.subdivisions.List()
		a.renderer.Page(w, r, "subdivisions", &render.PageData{
			Title:   "Subdivisions",
			Section: "subdivisions",
			Data:    map[string]any{"Subdivisions": subdivisions, "Error": errMsg},
		})
		return
	}

	sortOrder, _ := strconv.Atoi(r.FormValue("sort_order"))
	_, err := a.subdivisions.Create(&models.Subdivision{Name: name, SortOrder: sortOrder})
	if err != nil {
		slog.Error("create subdivision failed", "error", err)
	}

	http.Redirect(w, r, "/admin/subdivisions", http.StatusSeeOther)
}

// SubdivisionDelete removes a subdivision; news keeps running with the
// reference nulled out.
func (a *Admin) SubdivisionDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	if err := a.subdivisions.Delete(id); err != nil {
		slog.Error("delete subdivision failed", "error", err, "id", id)
	}

	a.SubdivisionsList(w, r)
}

// --- Users ---

// UsersList renders the user management page.
func (a *Admin) UsersList(w http.ResponseWriter, r *http.Request) {
	users, err := a.users.List()
	if err != nil {
		slog.Error("list users failed", "error", err)
	}

	a.renderer.Page(w, r, "users", &render.PageData{
		Title:   "Users",
		Section: "users",
		Data:    map[string]any{"Users": users},
	})
}

// UserResetTwoFA resets another user's 2FA, forcing re-setup on next login.
func (a *Admin) UserResetTwoFA(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	targetID, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	// Cannot reset your own 2FA.
	if sess != nil && targetID == sess.UserID {
		http.Error(w, "Cannot reset your own 2FA", http.StatusForbidden)
		return
	}

	if err := a.users.ResetTOTP(targetID); err != nil {
		slog.Error("reset 2fa failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if sess != nil {
		slog.Info("2fa reset by admin", "admin", sess.Email, "target_user", targetID)
	}
	a.UsersList(w, r)
}
