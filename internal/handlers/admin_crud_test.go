// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"newsdesk/internal/models"
)

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// postMultipart builds a multipart POST with form fields and optional
// in-memory attachments under the "files" field.
func postMultipart(t *testing.T, target string, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	for name, content := range files {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write(content)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// --- Dashboard ---

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)

	sess := testSession(testAuthorID(t, env.DB), "admin@newsdesk.local", "admin", true)
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	env.Admin.Dashboard(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	for _, want := range []string{"News items", "Sections", "Page views", "Downloads"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard should contain %q", want)
		}
	}
}

// --- Sections ---

// TestSectionCreate verifies a section is created with a generated slug
// when the slug field is left blank.
func TestSectionCreate(t *testing.T) {
	env := newTestEnv(t)

	cleanSections(t, env.DB, "test-create-desk")
	t.Cleanup(func() { cleanSections(t, env.DB, "test-create-desk") })

	form := url.Values{}
	form.Set("title", "Test Create Desk")
	form.Set("description", "A desk for tests")

	rec := httptest.NewRecorder()
	env.Admin.SectionCreate(rec, postForm("/admin/sections", form))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d (%s)", rec.Code, http.StatusSeeOther, rec.Body.String())
	}

	section, err := env.Sections.FindBySlug("test-create-desk")
	if err != nil {
		t.Fatalf("find section: %v", err)
	}
	if section == nil {
		t.Fatal("section should exist with the generated slug")
	}
	if section.Description != "A desk for tests" {
		t.Errorf("description: got %q", section.Description)
	}
}

func TestSectionCreate_EmptyTitle(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{}
	form.Set("title", "   ")

	rec := httptest.NewRecorder()
	env.Admin.SectionCreate(rec, postForm("/admin/sections", form))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (should re-render form)", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "Title is required") {
		t.Error("expected validation error in response body")
	}
}

func TestSectionUpdate(t *testing.T) {
	env := newTestEnv(t)

	section := mkTestSection(t, env, "Rename Me", "__test_rename_me")

	form := url.Values{}
	form.Set("title", "Renamed Desk")
	form.Set("slug", section.Slug)

	req := postForm("/admin/sections/"+itoa64(section.ID), form)
	req = withChiURLParam(req, "id", itoa64(section.ID))
	rec := httptest.NewRecorder()

	env.Admin.SectionUpdate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}

	updated, err := env.Sections.FindByID(section.ID)
	if err != nil || updated == nil {
		t.Fatalf("find section: %v", err)
	}
	if updated.Title != "Renamed Desk" {
		t.Errorf("title: got %q, want %q", updated.Title, "Renamed Desk")
	}
}

// TestSectionDelete verifies deletion re-renders the section list for
// the HTMX swap.
func TestSectionDelete(t *testing.T) {
	env := newTestEnv(t)

	section := mkTestSection(t, env, "Doomed Desk", "__test_doomed_desk")

	req := httptest.NewRequest(http.MethodDelete, "/admin/sections/"+itoa64(section.ID), nil)
	req = withChiURLParam(req, "id", itoa64(section.ID))
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()

	env.Admin.SectionDelete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}

	gone, err := env.Sections.FindByID(section.ID)
	if err != nil {
		t.Fatalf("find section: %v", err)
	}
	if gone != nil {
		t.Error("section should be deleted")
	}
	if strings.Contains(rec.Body.String(), "Doomed Desk") {
		t.Error("re-rendered list should not contain the deleted section")
	}
}

// --- Categories ---

func TestCategoryCreate(t *testing.T) {
	env := newTestEnv(t)

	section := mkTestSection(t, env, "Cat Create Desk", "__test_cat_create")
	parent, err := env.Categories.Create(&models.Category{
		SectionID: section.ID, Title: "Parent", Slug: "parent",
	})
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}

	form := url.Values{}
	form.Set("title", "Nested Child")
	form.Set("section_id", itoa64(section.ID))
	form.Set("parent_id", itoa64(parent.ID))

	rec := httptest.NewRecorder()
	env.Admin.CategoryCreate(rec, postForm("/admin/categories", form))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d (%s)", rec.Code, http.StatusSeeOther, rec.Body.String())
	}

	child, err := env.Categories.FindBySlug(section.ID, "nested-child", &parent.ID)
	if err != nil {
		t.Fatalf("find child: %v", err)
	}
	if child == nil {
		t.Fatal("child category should exist under the parent")
	}
}

// TestCategoryCreate_ParentSectionMismatch verifies a parent from a
// different section is rejected with a form error.
func TestCategoryCreate_ParentSectionMismatch(t *testing.T) {
	env := newTestEnv(t)

	sectionA := mkTestSection(t, env, "Mismatch A", "__test_mismatch_a")
	sectionB := mkTestSection(t, env, "Mismatch B", "__test_mismatch_b")
	foreign, err := env.Categories.Create(&models.Category{
		SectionID: sectionB.ID, Title: "Foreign", Slug: "foreign",
	})
	if err != nil {
		t.Fatalf("create foreign parent: %v", err)
	}

	form := url.Values{}
	form.Set("title", "Orphan")
	form.Set("section_id", itoa64(sectionA.ID))
	form.Set("parent_id", itoa64(foreign.ID))

	rec := httptest.NewRecorder()
	env.Admin.CategoryCreate(rec, postForm("/admin/categories", form))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (should re-render form)", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "must belong to the selected section") {
		t.Error("expected parent section mismatch error")
	}
}

// TestCategoryUpdate_RejectsOwnSubtree verifies a category cannot be
// re-parented under one of its own descendants.
func TestCategoryUpdate_RejectsOwnSubtree(t *testing.T) {
	env := newTestEnv(t)

	section := mkTestSection(t, env, "Cycle Desk", "__test_cycle_desk")
	root, err := env.Categories.Create(&models.Category{
		SectionID: section.ID, Title: "Root", Slug: "root",
	})
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	child, err := env.Categories.Create(&models.Category{
		SectionID: section.ID, Title: "Child", Slug: "child", ParentID: &root.ID,
	})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	form := url.Values{}
	form.Set("title", "Root")
	form.Set("slug", "root")
	form.Set("section_id", itoa64(section.ID))
	form.Set("parent_id", itoa64(child.ID))

	req := postForm("/admin/categories/"+itoa64(root.ID), form)
	req = withChiURLParam(req, "id", itoa64(root.ID))
	rec := httptest.NewRecorder()

	env.Admin.CategoryUpdate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (should re-render form)", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "own subtree") {
		t.Error("expected cycle rejection error")
	}

	unchanged, _ := env.Categories.FindByID(root.ID)
	if unchanged == nil || unchanged.ParentID != nil {
		t.Error("root category parent should be unchanged")
	}
}

func TestCategoryDelete(t *testing.T) {
	env := newTestEnv(t)

	section := mkTestSection(t, env, "Cat Delete Desk", "__test_cat_delete")
	category, err := env.Categories.Create(&models.Category{
		SectionID: section.ID, Title: "Doomed Category", Slug: "doomed",
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/admin/categories/"+itoa64(category.ID), nil)
	req = withChiURLParam(req, "id", itoa64(category.ID))
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()

	env.Admin.CategoryDelete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	gone, _ := env.Categories.FindByID(category.ID)
	if gone != nil {
		t.Error("category should be deleted")
	}
}

// --- News ---

// TestNewsCreate verifies a news item is created from the multipart form
// and picks up the author from the session.
func TestNewsCreate(t *testing.T) {
	env := newTestEnv(t)
	authorID := testAuthorID(t, env.DB)

	section := mkTestSection(t, env, "News Create Desk", "__test_news_create")
	cleanNews(t, env.DB, "__test created item")
	t.Cleanup(func() { cleanNews(t, env.DB, "__test created item") })

	req := postMultipart(t, "/admin/news", map[string]string{
		"title":      "__test created item",
		"content":    "Fresh **markdown** body.",
		"section_id": itoa64(section.ID),
	}, nil)
	sess := testSession(authorID, "admin@newsdesk.local", "admin", true)
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	env.Admin.NewsCreate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d (%s)", rec.Code, http.StatusSeeOther, rec.Body.String())
	}

	items, err := env.News.Search("__test created item", "", nil)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items: got %d, want 1", len(items))
	}
	if items[0].AuthorID == nil || *items[0].AuthorID != authorID {
		t.Error("author should be taken from the session")
	}
}

// TestNewsCreate_CategoryFromOtherSection verifies the mismatch is
// logged but the item is still saved as submitted.
func TestNewsCreate_CategoryFromOtherSection(t *testing.T) {
	env := newTestEnv(t)

	sectionA := mkTestSection(t, env, "News Mismatch A", "__test_news_mm_a")
	sectionB := mkTestSection(t, env, "News Mismatch B", "__test_news_mm_b")
	foreign, err := env.Categories.Create(&models.Category{
		SectionID: sectionB.ID, Title: "Foreign Cat", Slug: "foreign-cat",
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	req := postMultipart(t, "/admin/news", map[string]string{
		"title":       "__test mismatched item",
		"content":     "Body",
		"section_id":  itoa64(sectionA.ID),
		"category_id": itoa64(foreign.ID),
	}, nil)
	rec := httptest.NewRecorder()

	env.Admin.NewsCreate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d (%s)", rec.Code, http.StatusSeeOther, rec.Body.String())
	}

	items, err := env.News.Search("__test mismatched item", "", nil)
	if err != nil || len(items) != 1 {
		t.Fatalf("search: %v (%d items)", err, len(items))
	}
	if items[0].CategoryID == nil || *items[0].CategoryID != foreign.ID {
		t.Error("category reference should be stored as submitted")
	}
}

func TestNewsCreate_MissingTitle(t *testing.T) {
	env := newTestEnv(t)

	section := mkTestSection(t, env, "News Invalid Desk", "__test_news_invalid")

	req := postMultipart(t, "/admin/news", map[string]string{
		"title":      "",
		"content":    "Body",
		"section_id": itoa64(section.ID),
	}, nil)
	rec := httptest.NewRecorder()

	env.Admin.NewsCreate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (should re-render form)", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "Title is required") {
		t.Error("expected validation error in response body")
	}
}

func TestNewsUpdate(t *testing.T) {
	env := newTestEnv(t)

	section := mkTestSection(t, env, "News Update Desk", "__test_news_update")
	item, err := env.News.Create(&models.News{
		SectionID: section.ID, Title: "__test before update", Content: "Old",
	})
	if err != nil {
		t.Fatalf("create news: %v", err)
	}

	req := postMultipart(t, "/admin/news/"+itoa64(item.ID), map[string]string{
		"title":      "__test after update",
		"content":    "New body",
		"section_id": itoa64(section.ID),
	}, nil)
	req = withChiURLParam(req, "id", itoa64(item.ID))
	rec := httptest.NewRecorder()

	env.Admin.NewsUpdate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d (%s)", rec.Code, http.StatusSeeOther, rec.Body.String())
	}

	updated, err := env.News.FindByID(item.ID)
	if err != nil || updated == nil {
		t.Fatalf("find news: %v", err)
	}
	if updated.Title != "__test after update" || updated.Content != "New body" {
		t.Errorf("item not updated: %+v", updated)
	}
}

// TestNewsDelete verifies deletion removes the item and its file rows.
func TestNewsDelete(t *testing.T) {
	env := newTestEnv(t)

	section := mkTestSection(t, env, "News Delete Desk", "__test_news_delete")
	item, err := env.News.Create(&models.News{
		SectionID: section.ID, Title: "__test doomed item", Content: "Body",
	})
	if err != nil {
		t.Fatalf("create news: %v", err)
	}
	file, err := env.Files.Create(&models.NewsFile{
		NewsID: item.ID, S3Key: "attachments/doomed.txt", Filename: "doomed.txt",
	})
	if err != nil {
		t.Fatalf("create file: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/admin/news/"+itoa64(item.ID), nil)
	req = withChiURLParam(req, "id", itoa64(item.ID))
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()

	env.Admin.NewsDelete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	gone, _ := env.News.FindByID(item.ID)
	if gone != nil {
		t.Error("news item should be deleted")
	}
	goneFile, _ := env.Files.FindByID(file.ID)
	if goneFile != nil {
		t.Error("attachment rows should cascade with the news item")
	}
}

// TestFileDelete verifies one attachment can be removed and the browser
// is sent back to the owning news item.
func TestFileDelete(t *testing.T) {
	env := newTestEnv(t)

	section := mkTestSection(t, env, "File Delete Desk", "__test_file_delete")
	item, err := env.News.Create(&models.News{
		SectionID: section.ID, Title: "__test file owner", Content: "Body",
	})
	if err != nil {
		t.Fatalf("create news: %v", err)
	}
	file, err := env.Files.Create(&models.NewsFile{
		NewsID: item.ID, S3Key: "attachments/one.txt", Filename: "one.txt",
	})
	if err != nil {
		t.Fatalf("create file: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/admin/files/"+itoa64(file.ID), nil)
	req = withChiURLParam(req, "id", itoa64(file.ID))
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()

	env.Admin.FileDelete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("HX-Redirect"); got != "/admin/news/"+itoa64(item.ID) {
		t.Errorf("HX-Redirect: got %q", got)
	}
	gone, _ := env.Files.FindByID(file.ID)
	if gone != nil {
		t.Error("attachment should be deleted")
	}
}

// --- Subdivisions ---

func TestSubdivisionCreateAndDelete(t *testing.T) {
	env := newTestEnv(t)

	cleanSubdivisions(t, env.DB, "__test Economics")
	t.Cleanup(func() { cleanSubdivisions(t, env.DB, "__test Economics") })

	form := url.Values{}
	form.Set("name", "__test Economics")
	form.Set("sort_order", "5")

	rec := httptest.NewRecorder()
	env.Admin.SubdivisionCreate(rec, postForm("/admin/subdivisions", form))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}

	var id int64
	var sortOrder int
	err := env.DB.QueryRow("SELECT id, sort_order FROM subdivisions WHERE name = $1", "__test Economics").Scan(&id, &sortOrder)
	if err != nil {
		t.Fatalf("subdivision should exist: %v", err)
	}
	if sortOrder != 5 {
		t.Errorf("sort_order: got %d, want 5", sortOrder)
	}

	req := httptest.NewRequest(http.MethodDelete, "/admin/subdivisions/"+itoa64(id), nil)
	req = withChiURLParam(req, "id", itoa64(id))
	req.Header.Set("HX-Request", "true")
	rec = httptest.NewRecorder()

	env.Admin.SubdivisionDelete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("delete status: got %d, want %d", rec.Code, http.StatusOK)
	}
	gone, _ := env.Subdivisions.FindByID(id)
	if gone != nil {
		t.Error("subdivision should be deleted")
	}
}

func TestSubdivisionCreate_EmptyName(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{}
	form.Set("name", "  ")

	rec := httptest.NewRecorder()
	env.Admin.SubdivisionCreate(rec, postForm("/admin/subdivisions", form))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (should re-render)", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "Name is required") {
		t.Error("expected validation error in response body")
	}
}

// --- Users ---

func TestUserResetTwoFA_CannotResetSelf(t *testing.T) {
	env := newTestEnv(t)
	adminID := testAuthorID(t, env.DB)

	sess := testSession(adminID, "admin@newsdesk.local", "admin", true)
	req := httptest.NewRequest(http.MethodPost, "/admin/users/"+itoa64(adminID)+"/reset-2fa", nil)
	req = withChiURLParamAndSession(req, "id", itoa64(adminID), sess)
	rec := httptest.NewRecorder()

	env.Admin.UserResetTwoFA(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

// TestUserResetTwoFA_OtherUser verifies resetting another user clears
// their TOTP enrollment.
func TestUserResetTwoFA_OtherUser(t *testing.T) {
	env := newTestEnv(t)
	adminID := testAuthorID(t, env.DB)

	target, err := env.Users.Create("__test-reset@newsdesk.local", "password123", "Reset Target", models.RoleEditor)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() { env.Users.Delete(target.ID) })

	if err := env.Users.SetTOTPSecret(target.ID, "JBSWY3DPEHPK3PXP"); err != nil {
		t.Fatalf("set totp secret: %v", err)
	}
	if err := env.Users.EnableTOTP(target.ID); err != nil {
		t.Fatalf("enable totp: %v", err)
	}

	sess := testSession(adminID, "admin@newsdesk.local", "admin", true)
	req := httptest.NewRequest(http.MethodPost, "/admin/users/"+itoa64(target.ID)+"/reset-2fa", nil)
	req.Header.Set("HX-Request", "true")
	req = withChiURLParamAndSession(req, "id", itoa64(target.ID), sess)
	rec := httptest.NewRecorder()

	env.Admin.UserResetTwoFA(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}

	reset, err := env.Users.FindByID(target.ID)
	if err != nil || reset == nil {
		t.Fatalf("find user: %v", err)
	}
	if reset.TOTPEnabled || reset.TOTPSecret != nil {
		t.Error("target user's TOTP should be fully reset")
	}
}
