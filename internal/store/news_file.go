// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"newsdesk/internal/models"
)

// NewsFileStore handles downloadable attachment records.
type NewsFileStore struct {
	db *sql.DB
}

// NewNewsFileStore creates a new NewsFileStore.
func NewNewsFileStore(db *sql.DB) *NewsFileStore {
	return &NewsFileStore{db: db}
}

const newsFileColumns = `id, news_id, s3_key, filename, content_type, size_bytes, created_at`

// scanNewsFile scans a row into a NewsFile struct.
func scanNewsFile(scanner interface{ Scan(...any) error }) (*models.NewsFile, error) {
	var f models.NewsFile
	err := scanner.Scan(
		&f.ID, &f.NewsID, &f.S3Key, &f.Filename,
		&f.ContentType, &f.SizeBytes, &f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Create inserts a new attachment record. An empty display filename
// defaults to the stored object key's base name.
func (s *NewsFileStore) Create(f *models.NewsFile) (*models.NewsFile, error) {
	if f.Filename == "" {
		f.Filename = f.S3Key
	}

	row := s.db.QueryRow(`
		INSERT INTO news_files (news_id, s3_key, filename, content_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+newsFileColumns,
		f.NewsID, f.S3Key, f.Filename, f.ContentType, f.SizeBytes,
	)
	result, err := scanNewsFile(row)
	if err != nil {
		return nil, fmt.Errorf("create news file: %w", err)
	}
	return result, nil
}

// FindByID retrieves an attachment by id. Returns nil if not found.
func (s *NewsFileStore) FindByID(id int64) (*models.NewsFile, error) {
	row := s.db.QueryRow(`SELECT `+newsFileColumns+` FROM news_files WHERE id = $1`, id)
	f, err := scanNewsFile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find news file by id: %w", err)
	}
	return f, nil
}

// ListByNews returns the attachments of a single news item, newest first.
func (s *NewsFileStore) ListByNews(newsID int64) ([]models.NewsFile, error) {
	rows, err := s.db.Query(`
		SELECT `+newsFileColumns+` FROM news_files
		WHERE news_id = $1 ORDER BY created_at DESC
	`, newsID)
	if err != nil {
		return nil, fmt.Errorf("list news files: %w", err)
	}
	defer rows.Close()

	var items []models.NewsFile
	for rows.Next() {
		f, err := scanNewsFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan news file: %w", err)
		}
		items = append(items, *f)
	}
	return items, rows.Err()
}

// AttachToNews loads the attachments for a batch of news items in one
// query and sets them on the matching items in place.
func (s *NewsFileStore) AttachToNews(news []models.News) error {
	if len(news) == 0 {
		return nil
	}

	ids := make([]int64, len(news))
	index := make(map[int64]*models.News, len(news))
	for i := range news {
		ids[i] = news[i].ID
		index[news[i].ID] = &news[i]
	}

	rows, err := s.db.Query(`
		SELECT `+newsFileColumns+` FROM news_files
		WHERE news_id = ANY($1) ORDER BY created_at DESC
	`, ids)
	if err != nil {
		return fmt.Errorf("load news files: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		f, err := scanNewsFile(rows)
		if err != nil {
			return fmt.Errorf("scan news file: %w", err)
		}
		if n, ok := index[f.NewsID]; ok {
			n.Files = append(n.Files, *f)
		}
	}
	return rows.Err()
}

// Delete removes an attachment record. Its download statistics cascade.
func (s *NewsFileStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM news_files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete news file: %w", err)
	}
	return nil
}
