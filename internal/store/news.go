// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"strings"

	"newsdesk/internal/models"
)

// NewsStore handles all news-related database operations.
type NewsStore struct {
	db *sql.DB
}

// NewNewsStore creates a new NewsStore with the given database connection.
func NewNewsStore(db *sql.DB) *NewsStore {
	return &NewsStore{db: db}
}

const newsColumns = `n.id, n.section_id, n.category_id, n.title, n.content,
	n.author_id, n.subdivision_id, n.sort_order, n.created_at, n.updated_at`

// newsSelect joins section and category titles for display.
const newsSelect = `
	SELECT ` + newsColumns + `,
	       s.title, s.slug, COALESCE(c.title, '')
	FROM news n
	JOIN sections s ON s.id = n.section_id
	LEFT JOIN categories c ON c.id = n.category_id`

// scanNews scans a joined news row.
func scanNews(scanner interface{ Scan(...any) error }) (*models.News, error) {
	var n models.News
	err := scanner.Scan(
		&n.ID, &n.SectionID, &n.CategoryID, &n.Title, &n.Content,
		&n.AuthorID, &n.SubdivisionID, &n.SortOrder, &n.CreatedAt, &n.UpdatedAt,
		&n.SectionTitle, &n.SectionSlug, &n.CategoryTitle,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// collectNews drains a news result set.
func collectNews(rows *sql.Rows) ([]models.News, error) {
	defer rows.Close()

	var items []models.News
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, fmt.Errorf("scan news: %w", err)
		}
		items = append(items, *n)
	}
	return items, rows.Err()
}

// ListLatest returns the most recent news across all sections.
func (s *NewsStore) ListLatest(limit int) ([]models.News, error) {
	rows, err := s.db.Query(newsSelect+` ORDER BY n.created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list latest news: %w", err)
	}
	return collectNews(rows)
}

// ListPage returns one page of the full archive, newest first.
func (s *NewsStore) ListPage(limit, offset int) ([]models.News, error) {
	rows, err := s.db.Query(newsSelect+` ORDER BY n.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list news page: %w", err)
	}
	return collectNews(rows)
}

// Count returns the total number of news items.
func (s *NewsStore) Count() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM news`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count news: %w", err)
	}
	return count, nil
}

// ListUncategorized returns a section's news that carry no category,
// in manual sort order then newest first.
func (s *NewsStore) ListUncategorized(sectionID int64) ([]models.News, error) {
	rows, err := s.db.Query(newsSelect+`
		WHERE n.section_id = $1 AND n.category_id IS NULL
		ORDER BY n.sort_order, n.created_at DESC
	`, sectionID)
	if err != nil {
		return nil, fmt.Errorf("list uncategorized news: %w", err)
	}
	return collectNews(rows)
}

// ListByCategory returns the news directly attached to one category
// (not its subtree), in manual sort order then newest first.
func (s *NewsStore) ListByCategory(categoryID int64) ([]models.News, error) {
	rows, err := s.db.Query(newsSelect+`
		WHERE n.category_id = $1
		ORDER BY n.sort_order, n.created_at DESC
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list news by category: %w", err)
	}
	return collectNews(rows)
}

// FindByID retrieves a news item by id. Returns nil if not found.
func (s *NewsStore) FindByID(id int64) (*models.News, error) {
	row := s.db.QueryRow(newsSelect+` WHERE n.id = $1`, id)
	n, err := scanNews(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find news by id: %w", err)
	}
	return n, nil
}

// Search filters news by a case-insensitive substring over title and
// content, optionally narrowed to a section slug and/or a category id.
// Results are newest first.
func (s *NewsStore) Search(query, sectionSlug string, categoryID *int64) ([]models.News, error) {
	var conds []string
	var args []any

	if query != "" {
		args = append(args, "%"+query+"%")
		p := fmt.Sprintf("$%d", len(args))
		conds = append(conds, `(n.title ILIKE `+p+` OR n.content ILIKE `+p+`)`)
	}
	if sectionSlug != "" {
		args = append(args, sectionSlug)
		conds = append(conds, fmt.Sprintf(`s.slug = $%d`, len(args)))
	}
	if categoryID != nil {
		args = append(args, *categoryID)
		conds = append(conds, fmt.Sprintf(`n.category_id = $%d`, len(args)))
	}

	q := newsSelect
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY n.created_at DESC`

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("search news: %w", err)
	}
	return collectNews(rows)
}

// Create inserts a new news item and returns it.
func (s *NewsStore) Create(n *models.News) (*models.News, error) {
	row := s.db.QueryRow(`
		INSERT INTO news (section_id, category_id, title, content, author_id, subdivision_id, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, section_id, category_id, title, content, author_id, subdivision_id, sort_order, created_at, updated_at
	`, n.SectionID, n.CategoryID, n.Title, n.Content, n.AuthorID, n.SubdivisionID, n.SortOrder)

	result := &models.News{}
	err := row.Scan(
		&result.ID, &result.SectionID, &result.CategoryID, &result.Title, &result.Content,
		&result.AuthorID, &result.SubdivisionID, &result.SortOrder, &result.CreatedAt, &result.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create news: %w", err)
	}
	return result, nil
}

// Update modifies an existing news item.
func (s *NewsStore) Update(n *models.News) error {
	_, err := s.db.Exec(`
		UPDATE news SET
			section_id = $1, category_id = $2, title = $3, content = $4,
			author_id = $5, subdivision_id = $6, sort_order = $7, updated_at = NOW()
		WHERE id = $8
	`, n.SectionID, n.CategoryID, n.Title, n.Content, n.AuthorID, n.SubdivisionID, n.SortOrder, n.ID)
	if err != nil {
		return fmt.Errorf("update news: %w", err)
	}
	return nil
}

// Delete removes a news item. Files and their download statistics
// cascade with it.
func (s *NewsStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM news WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete news: %w", err)
	}
	return nil
}
