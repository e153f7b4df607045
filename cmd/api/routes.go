package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"librarium/internal/auth"
	"librarium/internal/catalog"
	"librarium/internal/config"
	"librarium/internal/httpx"
)

func newRouter(cfg *config.Config, log zerolog.Logger, rateLimit *httpx.RateLimitMiddleware, authHandler *auth.HTTPHandler, catalogHandler *catalog.HTTPHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(httpx.RequestIDMiddleware)
	r.Use(httpx.AccessLogMiddleware(log))
	r.Use(httpx.RecoveryMiddleware(log))
	r.Use(httpx.SecurityHeadersMiddleware)
	r.Use(httpx.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httpx.RequestSizeLimitMiddleware(cfg.Server.MaxBodyBytes))
	if rateLimit != nil {
		r.Use(rateLimit.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	requireAuth := httpx.AuthMiddleware(cfg.Auth.TokenSecret)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/restore", authHandler.Restore)
			r.With(requireAuth).Post("/logout", authHandler.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/books", func(r chi.Router) {
				r.Get("/", catalogHandler.ListBooks)
				r.Post("/", catalogHandler.AddBook)
				r.Get("/lookup/{isbn}", catalogHandler.LookupISBN)
				r.Get("/{id}", catalogHandler.GetBook)
				r.Delete("/{id}", catalogHandler.RemoveBook)
			})

			r.Route("/collections", func(r chi.Router) {
				r.Get("/", catalogHandler.ListCollections)
				r.Post("/", catalogHandler.CreateCollection)
			})

			r.Get("/stats", catalogHandler.Statistics)
			r.Get("/dashboard", catalogHandler.Dashboard)
		})
	})

	return r
}
