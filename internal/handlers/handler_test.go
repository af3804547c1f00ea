// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"newsdesk/internal/cache"
	"newsdesk/internal/database"
	"newsdesk/internal/middleware"
	"newsdesk/internal/quotes"
	"newsdesk/internal/render"
	"newsdesk/internal/session"
	"newsdesk/internal/stats"
	"newsdesk/internal/store"
	"newsdesk/internal/tracker"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "newsdesk")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "newsdesk")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		// Clean up test session and cache keys.
		for _, pattern := range []string{"session:*", "page:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB           *sql.DB
	Valkey       *redis.Client
	Renderer     *render.Renderer
	Sessions     *session.Store
	Sections     *store.SectionStore
	Categories   *store.CategoryStore
	News         *store.NewsStore
	Files        *store.NewsFileStore
	Subdivisions *store.SubdivisionStore
	Users        *store.UserStore
	Stats        *store.StatStore
	PageCache    *cache.PageCache
	Admin        *Admin
	Auth         *Auth
	Public       *Public
}

// newTestEnv creates a complete test environment with all handler dependencies.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	renderer, err := render.New(true)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	sessions := session.NewStore(vk, false)
	sections := store.NewSectionStore(db)
	categories := store.NewCategoryStore(db)
	news := store.NewNewsStore(db)
	files := store.NewNewsFileStore(db)
	subdivisions := store.NewSubdivisionStore(db)
	users := store.NewUserStore(db)
	statStore := store.NewStatStore(db)
	pageCache := cache.NewPageCache(vk, 1*time.Minute)

	aggregator := stats.NewAggregator(statStore, sections, categories)
	rotator := quotes.Load("")
	trk := tracker.New(statStore, sections, categories, news)

	admin := NewAdmin(renderer, sections, categories, news, files, subdivisions,
		users, statStore, nil, pageCache)
	auth := NewAuth(renderer, sessions, users)
	public := NewPublic(renderer, pageCache, sections, categories, news, files,
		aggregator, rotator, nil, trk, 100)

	return &testEnv{
		DB:           db,
		Valkey:       vk,
		Renderer:     renderer,
		Sessions:     sessions,
		Sections:     sections,
		Categories:   categories,
		News:         news,
		Files:        files,
		Subdivisions: subdivisions,
		Users:        users,
		Stats:        statStore,
		PageCache:    pageCache,
		Admin:        admin,
		Auth:         auth,
		Public:       public,
	}
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// testSession creates a session.Data for testing.
func testSession(userID int64, email, role string, twoFADone bool) *session.Data {
	return &session.Data{
		UserID:      userID,
		Email:       email,
		DisplayName: "Test User",
		Role:        role,
		TwoFADone:   twoFADone,
	}
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withChiParams adds several chi URL parameters given as key/value pairs.
func withChiParams(r *http.Request, pairs ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(pairs); i += 2 {
		rctx.URLParams.Add(pairs[i], pairs[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// itoa64 formats an id for URL parameters.
func itoa64(id int64) string {
	return strconv.FormatInt(id, 10)
}

// withChiURLParamAndSession adds both chi URL param and session to a request.
func withChiURLParamAndSession(r *http.Request, key, value string, sess *session.Data) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.SessionKey, sess)
	return r.WithContext(ctx)
}

// testAuthorID returns a valid user ID for news creation.
func testAuthorID(t *testing.T, db *sql.DB) int64 {
	t.Helper()
	var id int64
	if err := db.QueryRow("SELECT id FROM users LIMIT 1").Scan(&id); err != nil {
		t.Fatalf("no users in database, run seed first: %v", err)
	}
	return id
}

// cleanSections removes test sections by slug; categories and news
// cascade with them.
func cleanSections(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, s := range slugs {
		db.Exec("DELETE FROM sections WHERE slug = $1", s)
	}
}

// cleanNews removes test news by title.
func cleanNews(t *testing.T, db *sql.DB, titles ...string) {
	t.Helper()
	for _, n := range titles {
		db.Exec("DELETE FROM news WHERE title = $1", n)
	}
}

// cleanSubdivisions removes test subdivisions by name.
func cleanSubdivisions(t *testing.T, db *sql.DB, names ...string) {
	t.Helper()
	for _, n := range names {
		db.Exec("DELETE FROM subdivisions WHERE name = $1", n)
	}
}
