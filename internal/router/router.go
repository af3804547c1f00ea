// Package router sets up all HTTP routes and middleware chains for the
// Newsdesk site. It organizes routes into public and admin groups with
// appropriate middleware stacks.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"newsdesk/internal/handlers"
	"newsdesk/internal/middleware"
	"newsdesk/internal/session"
	"newsdesk/internal/tracker"
	"newsdesk/web"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(sessionStore *session.Store, trk *tracker.Tracker, admin *handlers.Admin, auth *handlers.Auth, public *handlers.Public) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessionStore))

	// Health check — no auth, no CSRF, never tracked.
	r.Get("/health", healthHandler)

	// Static assets.
	staticFS, _ := fs.Sub(web.StaticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	loginLimiter := middleware.NewRateLimiter(middleware.LoginLimit, middleware.LoginWindow)

	// Admin routes — require authentication and CSRF protection.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.CSRF)

		// Auth pages — accessible without a session. Login submissions
		// are rate limited per IP.
		r.Get("/login", auth.LoginPage)
		r.With(loginLimiter.Middleware).Post("/login", auth.LoginSubmit)
		r.Post("/logout", auth.Logout)

		// 2FA — requires auth but NOT completed 2FA.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/2fa/setup", auth.TwoFASetupPage)
			r.Get("/2fa/verify", auth.TwoFAVerifyPage)
			r.Post("/2fa/verify", auth.TwoFAVerifySubmit)
		})

		// Authenticated + 2FA-verified admin area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			// Dashboard
			r.Get("/", admin.Dashboard)
			r.Get("/dashboard", admin.Dashboard)

			// Sections
			r.Route("/sections", func(r chi.Router) {
				r.Get("/", admin.SectionsList)
				r.Get("/new", admin.SectionNew)
				r.Post("/", admin.SectionCreate)
				r.Get("/{id}", admin.SectionEdit)
				r.Post("/{id}", admin.SectionUpdate)
				r.Delete("/{id}", admin.SectionDelete)
			})

			// Categories
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", admin.CategoriesList)
				r.Get("/new", admin.CategoryNew)
				r.Post("/", admin.CategoryCreate)
				r.Get("/{id}", admin.CategoryEdit)
				r.Post("/{id}", admin.CategoryUpdate)
				r.Delete("/{id}", admin.CategoryDelete)
			})

			// News, with multipart attachment uploads.
			r.Route("/news", func(r chi.Router) {
				r.Get("/", admin.NewsList)
				r.Get("/new", admin.NewsNew)
				r.Post("/", admin.NewsCreate)
				r.Get("/{id}", admin.NewsEdit)
				r.Post("/{id}", admin.NewsUpdate)
				r.Delete("/{id}", admin.NewsDelete)
			})
			r.Delete("/files/{id}", admin.FileDelete)

			// Subdivisions
			r.Route("/subdivisions", func(r chi.Router) {
				r.Get("/", admin.SubdivisionsList)
				r.Post("/", admin.SubdivisionCreate)
				r.Delete("/{id}", admin.SubdivisionDelete)
			})

			// User management — admin only
			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/", admin.UsersList)
				r.Post("/{id}/reset-2fa", admin.UserResetTwoFA)
			})
		})
	})

	// Public routes — view statistics are recorded by the tracker.
	r.Group(func(r chi.Router) {
		r.Use(trk.Middleware)

		r.Get("/", public.Home)
		r.Get("/search", public.Search)
		r.Get("/archive", public.Archive)
		r.Get("/statistics", public.Statistics)
		r.Get("/download/{id}", public.Download)
		r.Get("/news/{id}", public.News)
		r.Get("/{section}", public.Section)
		r.Get("/{section}/*", public.Category)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
