package store

import (
	"testing"
	"time"

	"newsdesk/internal/models"
)

func utc(year int, month time.Month, day, hour, min, sec int) *time.Time {
	t := time.Date(year, month, day, hour, min, sec, 0, time.UTC)
	return &t
}

// TestInsertDownloadNoDeduplication verifies that every successful
// download call inserts exactly one row, even for identical repeat
// requests from the same client.
func TestInsertDownloadNoDeduplication(t *testing.T) {
	db := testDB(t)
	stats := NewStatStore(db)

	sec := mkSection(t, db, "Download Desk", "download-desk-stat-test")
	newsID := mkNews(t, db, sec, nil, "item with file", "2024-03-01T10:00:00Z")
	fileID := mkNewsFile(t, db, newsID, "report.pdf", "2024-03-01T10:00:00Z")

	d := &models.DownloadStatistic{
		NewsFileID: fileID,
		IPAddress:  "203.0.113.7",
		UserAgent:  "integration-test",
	}
	if err := stats.InsertDownload(d); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := stats.InsertDownload(d); err != nil {
		t.Fatalf("second insert: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM download_statistics WHERE news_file_id = $1`, fileID).Scan(&count); err != nil {
		t.Fatalf("count downloads: %v", err)
	}
	if count != 2 {
		t.Errorf("download rows = %d, want 2 (no deduplication)", count)
	}
}

// TestCountNewsDateBoundary pins the range semantics: the lower bound is
// inclusive and the upper bound (end date + 1 day, passed as To) is
// exclusive, so an item at 23:59:59 on the end date counts and one at
// midnight the next day does not.
func TestCountNewsDateBoundary(t *testing.T) {
	db := testDB(t)
	stats := NewStatStore(db)

	sec := mkSection(t, db, "Boundary Desk", "boundary-desk-stat-test")
	mkNews(t, db, sec, nil, "last second of january", "2024-01-31T23:59:59Z")
	mkNews(t, db, sec, nil, "first second of february", "2024-02-01T00:00:00Z")
	mkNews(t, db, sec, nil, "start of january", "2024-01-01T00:00:00Z")

	scope := Scope{
		From:      utc(2024, time.January, 1, 0, 0, 0),
		To:        utc(2024, time.February, 1, 0, 0, 0), // end 2024-01-31 + 1 day
		SectionID: &sec,
	}

	got, err := stats.CountNews(scope)
	if err != nil {
		t.Fatalf("count news: %v", err)
	}
	if got != 2 {
		t.Errorf("CountNews in range = %d, want 2 (end date inclusive at day granularity)", got)
	}
}

// TestCountFilesUsesFileTimestamp verifies that the files count filters
// on the attachment's own creation time, not the owning news item's.
func TestCountFilesUsesFileTimestamp(t *testing.T) {
	db := testDB(t)
	stats := NewStatStore(db)

	sec := mkSection(t, db, "File Time Desk", "file-time-desk-stat-test")
	// News created well before the queried range.
	newsID := mkNews(t, db, sec, nil, "old item", "2023-01-01T00:00:00Z")
	// One file inside the range, one outside.
	mkNewsFile(t, db, newsID, "inside.pdf", "2024-05-10T08:00:00Z")
	mkNewsFile(t, db, newsID, "outside.pdf", "2024-07-01T08:00:00Z")

	scope := Scope{
		From:      utc(2024, time.May, 1, 0, 0, 0),
		To:        utc(2024, time.June, 1, 0, 0, 0),
		SectionID: &sec,
	}

	got, err := stats.CountFiles(scope)
	if err != nil {
		t.Fatalf("count files: %v", err)
	}
	if got != 1 {
		t.Errorf("CountFiles = %d, want 1 (file timestamp governs)", got)
	}
}

// TestSubdivisionBreakdown verifies the sort-descending / omit-zero
// contract of the per-subdivision rollup.
func TestSubdivisionBreakdown(t *testing.T) {
	db := testDB(t)
	stats := NewStatStore(db)
	subs := NewSubdivisionStore(db)

	sec := mkSection(t, db, "Subdivision Desk", "subdivision-desk-stat-test")

	busy, err := subs.Create(&models.Subdivision{Name: "stat-test-busy"})
	if err != nil {
		t.Fatalf("create subdivision: %v", err)
	}
	quiet, err := subs.Create(&models.Subdivision{Name: "stat-test-quiet"})
	if err != nil {
		t.Fatalf("create subdivision: %v", err)
	}
	idle, err := subs.Create(&models.Subdivision{Name: "stat-test-idle"})
	if err != nil {
		t.Fatalf("create subdivision: %v", err)
	}
	t.Cleanup(func() {
		for _, id := range []int64{busy.ID, quiet.ID, idle.ID} {
			db.Exec(`DELETE FROM subdivisions WHERE id = $1`, id)
		}
	})

	tag := func(newsID, subdivisionID int64) {
		if _, err := db.Exec(`UPDATE news SET subdivision_id = $1 WHERE id = $2`, subdivisionID, newsID); err != nil {
			t.Fatalf("tag news: %v", err)
		}
	}
	tag(mkNews(t, db, sec, nil, "b1", "2024-04-01T00:00:00Z"), busy.ID)
	tag(mkNews(t, db, sec, nil, "b2", "2024-04-02T00:00:00Z"), busy.ID)
	tag(mkNews(t, db, sec, nil, "q1", "2024-04-03T00:00:00Z"), quiet.ID)

	breakdown, err := stats.SubdivisionBreakdown(Scope{SectionID: &sec})
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}

	if len(breakdown) != 2 {
		t.Fatalf("breakdown rows = %d, want 2 (zero-match subdivision omitted)", len(breakdown))
	}
	if breakdown[0].ID != busy.ID || breakdown[0].NewsCount != 2 {
		t.Errorf("breakdown[0] = %+v, want busy with 2", breakdown[0])
	}
	if breakdown[1].ID != quiet.ID || breakdown[1].NewsCount != 1 {
		t.Errorf("breakdown[1] = %+v, want quiet with 1", breakdown[1])
	}
}

// TestViewStatisticSetNullOnDelete verifies that deleting a referenced
// news item nulls the analytics reference instead of dropping the row.
func TestViewStatisticSetNullOnDelete(t *testing.T) {
	db := testDB(t)
	stats := NewStatStore(db)
	news := NewNewsStore(db)

	sec := mkSection(t, db, "Set Null Desk", "set-null-desk-stat-test")
	newsID := mkNews(t, db, sec, nil, "short-lived item", "2024-03-05T00:00:00Z")

	v := &models.ViewStatistic{
		IPAddress: "198.51.100.4",
		Path:      "/news/set-null-test/",
		SectionID: &sec,
		NewsID:    &newsID,
	}
	if err := stats.InsertView(v); err != nil {
		t.Fatalf("insert view: %v", err)
	}
	t.Cleanup(func() { db.Exec(`DELETE FROM view_statistics WHERE path = $1`, v.Path) })

	if err := news.Delete(newsID); err != nil {
		t.Fatalf("delete news: %v", err)
	}

	var gotNews *int64
	var gotSection *int64
	err := db.QueryRow(`
		SELECT news_id, section_id FROM view_statistics WHERE path = $1
	`, v.Path).Scan(&gotNews, &gotSection)
	if err != nil {
		t.Fatalf("reload view row: %v", err)
	}
	if gotNews != nil {
		t.Errorf("news_id = %v after delete, want NULL", *gotNews)
	}
	if gotSection == nil || *gotSection != sec {
		t.Errorf("section_id = %v, want %d (unrelated reference untouched)", gotSection, sec)
	}
}
