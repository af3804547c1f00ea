package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Seed populates the database with initial development data: a default
// admin user and a starter section so the public site has somewhere to
// hang content. The admin will be prompted to set up 2FA on first login
// (totp_enabled = false). Each piece is created only when its table is
// empty, so Seed is safe to run on every startup.
func Seed(db *sql.DB) error {
	if err := seedAdmin(db); err != nil {
		return err
	}
	return seedSections(db)
}

func seedAdmin(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	// 2FA is not enabled — the admin must set it up on first login.
	_, err = db.Exec(`
		INSERT INTO users (email, password_hash, display_name, role, totp_enabled)
		VALUES ($1, $2, $3, $4, $5)
	`, "admin@newsdesk.local", string(hash), "Admin", "admin", false)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", "admin@newsdesk.local",
		"password", "admin",
	)
	return nil
}

func seedSections(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sections").Scan(&count); err != nil {
		return fmt.Errorf("seed check sections: %w", err)
	}
	if count > 0 {
		return nil
	}

	_, err := db.Exec(`
		INSERT INTO sections (title, slug, description)
		VALUES ($1, $2, $3)
	`, "News", "news-desk", "General news")
	if err != nil {
		return fmt.Errorf("seed insert section: %w", err)
	}

	slog.Info("database seeded with starter section", "slug", "news-desk")
	return nil
}
