// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"newsdesk/internal/models"
)

// CategoryStore manages the section-scoped category trees in the database.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, section_id, title, slug, parent_id, description, created_at, updated_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(
		&c.ID, &c.SectionID, &c.Title, &c.Slug, &c.ParentID,
		&c.Description, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns every category across all sections, ordered by title.
// The result feeds hierarchy.NewTree.
func (s *CategoryStore) List() ([]models.Category, error) {
	rows, err := s.db.Query(`SELECT ` + categoryColumns + ` FROM categories ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return collectCategories(rows)
}

// ListBySection returns all categories of one section, ordered by title.
func (s *CategoryStore) ListBySection(sectionID int64) ([]models.Category, error) {
	rows, err := s.db.Query(`SELECT `+categoryColumns+` FROM categories WHERE section_id = $1 ORDER BY title`, sectionID)
	if err != nil {
		return nil, fmt.Errorf("list categories by section: %w", err)
	}
	return collectCategories(rows)
}

// ListRoots returns the top-level categories of a section with news counts,
// ordered by title. Used by the section page.
func (s *CategoryStore) ListRoots(sectionID int64) ([]models.Category, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.section_id, c.title, c.slug, c.parent_id, c.description,
		       c.created_at, c.updated_at,
		       COUNT(n.id) AS news_count
		FROM categories c
		LEFT JOIN news n ON n.category_id = c.id
		WHERE c.section_id = $1 AND c.parent_id IS NULL
		GROUP BY c.id
		ORDER BY c.title
	`, sectionID)
	if err != nil {
		return nil, fmt.Errorf("list root categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		var c models.Category
		err := rows.Scan(
			&c.ID, &c.SectionID, &c.Title, &c.Slug, &c.ParentID,
			&c.Description, &c.CreatedAt, &c.UpdatedAt, &c.NewsCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// ListChildren returns the direct children of a category, ordered by title.
func (s *CategoryStore) ListChildren(parentID int64) ([]models.Category, error) {
	rows, err := s.db.Query(`SELECT `+categoryColumns+` FROM categories WHERE parent_id = $1 ORDER BY title`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list child categories: %w", err)
	}
	return collectCategories(rows)
}

// collectCategories drains a category result set.
func collectCategories(rows *sql.Rows) ([]models.Category, error) {
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// FindByID retrieves a category by id. Returns nil if not found.
func (s *CategoryStore) FindByID(id int64) (*models.Category, error) {
	row := s.db.QueryRow(`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// FindBySlug looks up the unique (section, slug, parent) triple. A nil
// parentID matches root categories. Returns nil if not found — one step
// of a slug-path resolution.
func (s *CategoryStore) FindBySlug(sectionID int64, slug string, parentID *int64) (*models.Category, error) {
	var row *sql.Row
	if parentID == nil {
		row = s.db.QueryRow(`
			SELECT `+categoryColumns+` FROM categories
			WHERE section_id = $1 AND slug = $2 AND parent_id IS NULL
		`, sectionID, slug)
	} else {
		row = s.db.QueryRow(`
			SELECT `+categoryColumns+` FROM categories
			WHERE section_id = $1 AND slug = $2 AND parent_id = $3
		`, sectionID, slug, *parentID)
	}

	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by slug: %w", err)
	}
	return c, nil
}

// Create inserts a new category and returns it.
func (s *CategoryStore) Create(c *models.Category) (*models.Category, error) {
	row := s.db.QueryRow(`
		INSERT INTO categories (section_id, title, slug, parent_id, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+categoryColumns,
		c.SectionID, c.Title, c.Slug, c.ParentID, c.Description,
	)
	result, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return result, nil
}

// Update modifies an existing category.
func (s *CategoryStore) Update(c *models.Category) error {
	_, err := s.db.Exec(`
		UPDATE categories SET
			section_id = $1, title = $2, slug = $3, parent_id = $4,
			description = $5, updated_at = NOW()
		WHERE id = $6
	`, c.SectionID, c.Title, c.Slug, c.ParentID, c.Description, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// Delete removes a category. Subcategories and their news cascade with it.
func (s *CategoryStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
