// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"newsdesk/internal/models"
)

// SectionStore manages top-level sections in the database.
type SectionStore struct {
	db *sql.DB
}

// NewSectionStore returns a new SectionStore.
func NewSectionStore(db *sql.DB) *SectionStore {
	return &SectionStore{db: db}
}

const sectionColumns = `id, title, slug, description, created_at, updated_at`

// scanSection scans a row into a Section struct.
func scanSection(scanner interface{ Scan(...any) error }) (*models.Section, error) {
	var s models.Section
	err := scanner.Scan(&s.ID, &s.Title, &s.Slug, &s.Description, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns all sections ordered by title.
func (s *SectionStore) List() ([]models.Section, error) {
	rows, err := s.db.Query(`SELECT ` + sectionColumns + ` FROM sections ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	var items []models.Section
	for rows.Next() {
		sec, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		items = append(items, *sec)
	}
	return items, rows.Err()
}

// FindByID retrieves a section by id. Returns nil if not found.
func (s *SectionStore) FindByID(id int64) (*models.Section, error) {
	row := s.db.QueryRow(`SELECT `+sectionColumns+` FROM sections WHERE id = $1`, id)
	sec, err := scanSection(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find section by id: %w", err)
	}
	return sec, nil
}

// FindBySlug retrieves a section by its unique URL slug. Returns nil if not found.
func (s *SectionStore) FindBySlug(slug string) (*models.Section, error) {
	row := s.db.QueryRow(`SELECT `+sectionColumns+` FROM sections WHERE slug = $1`, slug)
	sec, err := scanSection(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find section by slug: %w", err)
	}
	return sec, nil
}

// Create inserts a new section and returns it.
func (s *SectionStore) Create(sec *models.Section) (*models.Section, error) {
	row := s.db.QueryRow(`
		INSERT INTO sections (title, slug, description)
		VALUES ($1, $2, $3)
		RETURNING `+sectionColumns,
		sec.Title, sec.Slug, sec.Description,
	)
	result, err := scanSection(row)
	if err != nil {
		return nil, fmt.Errorf("create section: %w", err)
	}
	return result, nil
}

// Update modifies an existing section.
func (s *SectionStore) Update(sec *models.Section) error {
	_, err := s.db.Exec(`
		UPDATE sections SET title = $1, slug = $2, description = $3, updated_at = NOW()
		WHERE id = $4
	`, sec.Title, sec.Slug, sec.Description, sec.ID)
	if err != nil {
		return fmt.Errorf("update section: %w", err)
	}
	return nil
}

// Delete removes a section. Categories and news cascade with it.
func (s *SectionStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM sections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	return nil
}
