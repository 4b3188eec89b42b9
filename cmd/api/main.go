package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/bookbuddy/bookbuddy-go/internal/config"
	"github.com/bookbuddy/bookbuddy-go/internal/handler"
	"github.com/bookbuddy/bookbuddy-go/internal/middleware"
	"github.com/bookbuddy/bookbuddy-go/internal/repository"
	"github.com/bookbuddy/bookbuddy-go/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := repository.NewDB(cfg.DatabaseDSN)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.Migrate(db); err != nil {
		slog.Error("database migration failed", "error", err)
		os.Exit(1)
	}

	userRepo := repository.NewUserRepository(db)
	bookRepo := repository.NewBookRepository(db)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiry)
	userService := service.NewUserService(userRepo)
	bookService := service.NewBookService(bookRepo)

	authHandler := handler.NewAuthHandler(authService, userService)
	userHandler := handler.NewUserHandler(userService)
	bookHandler := handler.NewBookHandler(bookService)

	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWTSecret, userRepo))
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, authenticated := middleware.UserIDFromContext(r.Context())
			handler.WriteHealth(w, authenticated)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(5, 10))
		r.Post("/api/v1/auth/register", authHandler.HandleRegister)
		r.Post("/api/v1/auth/login", authHandler.HandleLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(cfg.JWTSecret, userRepo))

		r.Post("/api/v1/auth/refresh", authHandler.HandleRefresh)

		r.Get("/api/v1/users/me", userHandler.HandleGetProfile)
		r.Put("/api/v1/users/me", userHandler.HandleUpdateProfile)
		r.Put("/api/v1/users/me/password", userHandler.HandleChangePassword)
		r.Delete("/api/v1/users/me", userHandler.HandleDeleteAccount)

		r.Post("/api/v1/books", bookHandler.HandleCreate)
		r.Get("/api/v1/books", bookHandler.HandleList)
		r.Get("/api/v1/books/search", bookHandler.HandleSearch)
		r.Get("/api/v1/books/stats", bookHandler.HandleStats)
		r.Get("/api/v1/books/status/{status}", bookHandler.HandleListByStatus)
		r.Get("/api/v1/books/genre/{genre}", bookHandler.HandleListByGenre)
		r.Get("/api/v1/books/{book_id}", bookHandler.HandleGet)
		r.Put("/api/v1/books/{book_id}", bookHandler.HandleUpdate)
		r.Patch("/api/v1/books/{book_id}/status", bookHandler.HandleUpdateStatus)
		r.Delete("/api/v1/books/{book_id}", bookHandler.HandleDelete)
		r.Delete("/api/v1/books", bookHandler.HandleDeleteAll)
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
