// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"newsdesk/internal/database"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "newsdesk")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "newsdesk")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// mkSection creates a section for a test and registers cleanup.
// Deleting the section cascades to its categories, news, and files.
func mkSection(t *testing.T, db *sql.DB, title, slug string) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(`
		INSERT INTO sections (title, slug) VALUES ($1, $2) RETURNING id
	`, title, slug).Scan(&id)
	if err != nil {
		t.Fatalf("create test section: %v", err)
	}
	t.Cleanup(func() { db.Exec(`DELETE FROM sections WHERE id = $1`, id) })
	return id
}

// mkCategory creates a category under the given section and parent.
func mkCategory(t *testing.T, db *sql.DB, sectionID int64, title, slug string, parentID *int64) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(`
		INSERT INTO categories (section_id, title, slug, parent_id)
		VALUES ($1, $2, $3, $4) RETURNING id
	`, sectionID, title, slug, parentID).Scan(&id)
	if err != nil {
		t.Fatalf("create test category: %v", err)
	}
	return id
}

// mkNews creates a news item with an explicit creation timestamp so date
// boundary behavior can be exercised.
func mkNews(t *testing.T, db *sql.DB, sectionID int64, categoryID *int64, title, createdAt string) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(`
		INSERT INTO news (section_id, category_id, title, created_at)
		VALUES ($1, $2, $3, $4::timestamptz) RETURNING id
	`, sectionID, categoryID, title, createdAt).Scan(&id)
	if err != nil {
		t.Fatalf("create test news: %v", err)
	}
	return id
}

// mkNewsFile creates an attachment with an explicit creation timestamp.
func mkNewsFile(t *testing.T, db *sql.DB, newsID int64, filename, createdAt string) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(`
		INSERT INTO news_files (news_id, s3_key, filename, created_at)
		VALUES ($1, $2, $3, $4::timestamptz) RETURNING id
	`, newsID, "test/"+filename, filename, createdAt).Scan(&id)
	if err != nil {
		t.Fatalf("create test news file: %v", err)
	}
	return id
}
