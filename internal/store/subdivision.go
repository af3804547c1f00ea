// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"newsdesk/internal/models"
)

// SubdivisionStore manages organizational subdivisions.
type SubdivisionStore struct {
	db *sql.DB
}

// NewSubdivisionStore returns a new SubdivisionStore.
func NewSubdivisionStore(db *sql.DB) *SubdivisionStore {
	return &SubdivisionStore{db: db}
}

const subdivisionColumns = `id, name, sort_order, created_at`

// scanSubdivision scans a row into a Subdivision struct.
func scanSubdivision(scanner interface{ Scan(...any) error }) (*models.Subdivision, error) {
	var sd models.Subdivision
	err := scanner.Scan(&sd.ID, &sd.Name, &sd.SortOrder, &sd.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sd, nil
}

// List returns all subdivisions in manual sort order.
func (s *SubdivisionStore) List() ([]models.Subdivision, error) {
	rows, err := s.db.Query(`SELECT ` + subdivisionColumns + ` FROM subdivisions ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list subdivisions: %w", err)
	}
	defer rows.Close()

	var items []models.Subdivision
	for rows.Next() {
		sd, err := scanSubdivision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subdivision: %w", err)
		}
		items = append(items, *sd)
	}
	return items, rows.Err()
}

// FindByID retrieves a subdivision by id. Returns nil if not found.
func (s *SubdivisionStore) FindByID(id int64) (*models.Subdivision, error) {
	row := s.db.QueryRow(`SELECT `+subdivisionColumns+` FROM subdivisions WHERE id = $1`, id)
	sd, err := scanSubdivision(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find subdivision by id: %w", err)
	}
	return sd, nil
}

// Create inserts a new subdivision and returns it.
func (s *SubdivisionStore) Create(sd *models.Subdivision) (*models.Subdivision, error) {
	row := s.db.QueryRow(`
		INSERT INTO subdivisions (name, sort_order)
		VALUES ($1, $2)
		RETURNING `+subdivisionColumns,
		sd.Name, sd.SortOrder,
	)
	result, err := scanSubdivision(row)
	if err != nil {
		return nil, fmt.Errorf("create subdivision: %w", err)
	}
	return result, nil
}

// Update modifies an existing subdivision.
func (s *SubdivisionStore) Update(sd *models.Subdivision) error {
	_, err := s.db.Exec(`
		UPDATE subdivisions SET name = $1, sort_order = $2 WHERE id = $3
	`, sd.Name, sd.SortOrder, sd.ID)
	if err != nil {
		return fmt.Errorf("update subdivision: %w", err)
	}
	return nil
}

// Delete removes a subdivision. News referencing it fall back to NULL.
func (s *SubdivisionStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM subdivisions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subdivision: %w", err)
	}
	return nil
}
