// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"newsdesk/internal/models"
)

// StatStore records view/download statistics and answers the count
// queries behind the statistics rollup.
type StatStore struct {
	db *sql.DB
}

// NewStatStore returns a new StatStore.
func NewStatStore(db *sql.DB) *StatStore {
	return &StatStore{db: db}
}

// Scope narrows a count query. From is inclusive, To exclusive (the
// aggregator passes end date + 1 day). SectionID and CategoryIDs are
// alternative scopes; when CategoryIDs is set it takes precedence and is
// matched against the full descendant id set of the selected category.
type Scope struct {
	From        *time.Time
	To          *time.Time
	SectionID   *int64
	CategoryIDs []int64
}

// SubdivisionCount is one row of the per-subdivision news breakdown.
type SubdivisionCount struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	NewsCount int    `json:"news_count"`
}

// InsertView persists one tracked page view.
func (s *StatStore) InsertView(v *models.ViewStatistic) error {
	_, err := s.db.Exec(`
		INSERT INTO view_statistics (ip_address, user_agent, path, section_id, category_id, news_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, v.IPAddress, models.TruncateUserAgent(v.UserAgent), v.Path, v.SectionID, v.CategoryID, v.NewsID)
	if err != nil {
		return fmt.Errorf("insert view statistic: %w", err)
	}
	return nil
}

// InsertDownload persists one tracked file download. Every call inserts
// a fresh row — repeat downloads by the same client are all counted.
func (s *StatStore) InsertDownload(d *models.DownloadStatistic) error {
	_, err := s.db.Exec(`
		INSERT INTO download_statistics (news_file_id, ip_address, user_agent)
		VALUES ($1, $2, $3)
	`, d.NewsFileID, d.IPAddress, models.TruncateUserAgent(d.UserAgent))
	if err != nil {
		return fmt.Errorf("insert download statistic: %w", err)
	}
	return nil
}

// cond accumulates WHERE clauses with positional arguments.
type cond struct {
	clauses []string
	args    []any
}

func (c *cond) add(format string, arg any) {
	c.args = append(c.args, arg)
	c.clauses = append(c.clauses, fmt.Sprintf(format, len(c.args)))
}

func (c *cond) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// timeBounds appends the half-open date range over the given column.
func (c *cond) timeBounds(column string, from, to *time.Time) {
	if from != nil {
		c.add(column+" >= $%d", *from)
	}
	if to != nil {
		c.add(column+" < $%d", *to)
	}
}

// count runs a COUNT query assembled from a FROM clause and conditions.
func (s *StatStore) count(selectFrom string, c *cond, label string) (int, error) {
	var n int
	err := s.db.QueryRow(selectFrom+c.where(), c.args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", label, err)
	}
	return n, nil
}

// CountNews counts news items in scope, filtered by their creation time.
func (s *StatStore) CountNews(sc Scope) (int, error) {
	c := &cond{}
	c.timeBounds("n.created_at", sc.From, sc.To)
	if len(sc.CategoryIDs) > 0 {
		c.add("n.category_id = ANY($%d)", sc.CategoryIDs)
	} else if sc.SectionID != nil {
		c.add("n.section_id = $%d", *sc.SectionID)
	}
	return s.count(`SELECT COUNT(*) FROM news n`, c, "count news")
}

// CountFiles counts attachments in scope. The date range applies to the
// file's own creation time, not the owning news item's.
func (s *StatStore) CountFiles(sc Scope) (int, error) {
	c := &cond{}
	c.timeBounds("f.created_at", sc.From, sc.To)
	if len(sc.CategoryIDs) > 0 {
		c.add("n.category_id = ANY($%d)", sc.CategoryIDs)
	} else if sc.SectionID != nil {
		c.add("n.section_id = $%d", *sc.SectionID)
	}
	return s.count(`SELECT COUNT(*) FROM news_files f JOIN news n ON n.id = f.news_id`, c, "count files")
}

// CountViews counts tracked page views in scope by their own timestamp.
func (s *StatStore) CountViews(sc Scope) (int, error) {
	c := &cond{}
	c.timeBounds("v.created_at", sc.From, sc.To)
	if len(sc.CategoryIDs) > 0 {
		c.add("v.category_id = ANY($%d)", sc.CategoryIDs)
	} else if sc.SectionID != nil {
		c.add("v.section_id = $%d", *sc.SectionID)
	}
	return s.count(`SELECT COUNT(*) FROM view_statistics v`, c, "count views")
}

// CountDownloads counts tracked downloads in scope by download time,
// reaching the section/category through the file's owning news item.
func (s *StatStore) CountDownloads(sc Scope) (int, error) {
	c := &cond{}
	c.timeBounds("d.downloaded_at", sc.From, sc.To)
	if len(sc.CategoryIDs) > 0 {
		c.add("n.category_id = ANY($%d)", sc.CategoryIDs)
	} else if sc.SectionID != nil {
		c.add("n.section_id = $%d", *sc.SectionID)
	}
	return s.count(`
		SELECT COUNT(*) FROM download_statistics d
		JOIN news_files f ON f.id = d.news_file_id
		JOIN news n ON n.id = f.news_id`, c, "count downloads")
}

// CountUniqueVisitors counts distinct IP addresses over view statistics
// in the date range. Deliberately unscoped by section or category: it is
// a site-wide metric for the period.
func (s *StatStore) CountUniqueVisitors(from, to *time.Time) (int, error) {
	c := &cond{}
	c.timeBounds("created_at", from, to)
	return s.count(`SELECT COUNT(DISTINCT ip_address) FROM view_statistics`, c, "count unique visitors")
}

// SubdivisionBreakdown counts news per subdivision within the scope,
// sorted descending by count. Subdivisions with no matching news are
// omitted (the INNER JOIN guarantees this).
func (s *StatStore) SubdivisionBreakdown(sc Scope) ([]SubdivisionCount, error) {
	c := &cond{}
	c.timeBounds("n.created_at", sc.From, sc.To)
	if len(sc.CategoryIDs) > 0 {
		c.add("n.category_id = ANY($%d)", sc.CategoryIDs)
	} else if sc.SectionID != nil {
		c.add("n.section_id = $%d", *sc.SectionID)
	}

	query := `
		SELECT sd.id, sd.name, COUNT(n.id)
		FROM subdivisions sd
		JOIN news n ON n.subdivision_id = sd.id` + c.where() + `
		GROUP BY sd.id, sd.name
		ORDER BY COUNT(n.id) DESC, sd.sort_order, sd.name`

	rows, err := s.db.Query(query, c.args...)
	if err != nil {
		return nil, fmt.Errorf("subdivision breakdown: %w", err)
	}
	defer rows.Close()

	var items []SubdivisionCount
	for rows.Next() {
		var sc SubdivisionCount
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.NewsCount); err != nil {
			return nil, fmt.Errorf("scan subdivision count: %w", err)
		}
		items = append(items, sc)
	}
	return items, rows.Err()
}

// DownloadRecord is a download statistic joined with its filename, for
// the admin dashboard.
type DownloadRecord struct {
	models.DownloadStatistic
	Filename string `json:"filename"`
}

// RecentDownloads lists the latest download rows with their filenames.
func (s *StatStore) RecentDownloads(limit int) ([]DownloadRecord, error) {
	rows, err := s.db.Query(`
		SELECT d.id, d.news_file_id, d.ip_address, d.user_agent, d.downloaded_at, f.filename
		FROM download_statistics d
		JOIN news_files f ON f.id = d.news_file_id
		ORDER BY d.downloaded_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent downloads: %w", err)
	}
	defer rows.Close()

	var items []DownloadRecord
	for rows.Next() {
		var d DownloadRecord
		if err := rows.Scan(&d.ID, &d.NewsFileID, &d.IPAddress, &d.UserAgent, &d.DownloadedAt, &d.Filename); err != nil {
			return nil, fmt.Errorf("scan download statistic: %w", err)
		}
		items = append(items, d)
	}
	return items, rows.Err()
}
