package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/04jhbickford/tactical-risk/internal/auth"
	"github.com/04jhbickford/tactical-risk/internal/config"
	"github.com/04jhbickford/tactical-risk/internal/handler"
	"github.com/04jhbickford/tactical-risk/internal/logger"
	"github.com/04jhbickford/tactical-risk/internal/middleware"
	"github.com/04jhbickford/tactical-risk/internal/repository/postgres"
	redisrepo "github.com/04jhbickford/tactical-risk/internal/repository/redis"
	"github.com/04jhbickford/tactical-risk/internal/service"
)

func main() {
	logger.Init()
	cfg := config.Load()
	log.Info().Str("databaseURL", cfg.DatabaseURL).Msg("Config loaded")

	// Database
	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()

	// Redis
	redisClient, err := redisrepo.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	// Repos
	userRepo := postgres.NewUserRepo(db)
	sessionRepo := postgres.NewSessionRepo(db)
	saveRepo := postgres.NewSaveRepo(db)

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)

	// WebSocket hub
	wsHub := handler.NewHub()

	// Services
	sessionSvc := service.NewSessionService(sessionRepo, saveRepo, userRepo, redisClient, wsHub, cfg.JoinWait)

	// Handlers
	authHandler := handler.NewAuthHandler(jwtMgr, userRepo)
	userHandler := handler.NewUserHandler(userRepo)
	sessionHandler := handler.NewSessionHandler(sessionSvc, wsHub, jwtMgr)
	wsHandler := handler.NewWSHandler(wsHub, jwtMgr, sessionSvc)

	// Router
	mux := http.NewServeMux()
	authMw := auth.Middleware(jwtMgr)

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth (public)
	mux.HandleFunc("POST /auth/guest", authHandler.GuestLogin)
	mux.HandleFunc("POST /auth/refresh", authHandler.RefreshToken)

	// Protected API routes
	api := http.NewServeMux()
	api.HandleFunc("GET /users/me", userHandler.GetMe)
	api.HandleFunc("PATCH /users/me", userHandler.UpdateMe)
	api.HandleFunc("GET /users/{id}", userHandler.GetUser)
	api.HandleFunc("POST /sessions", sessionHandler.CreateSession)
	api.HandleFunc("GET /sessions", sessionHandler.ListSessions)
	api.HandleFunc("GET /sessions/{id}", sessionHandler.GetSession)
	api.HandleFunc("POST /sessions/{id}/join", sessionHandler.JoinSession)
	api.HandleFunc("POST /sessions/{id}/start", sessionHandler.StartSession)
	api.HandleFunc("POST /sessions/{id}/rejoin", sessionHandler.RejoinToken)
	api.HandleFunc("GET /sessions/{id}/state", sessionHandler.GetState)
	api.HandleFunc("DELETE /sessions/{id}", sessionHandler.DeleteSession)
	api.HandleFunc("POST /sessions/{id}/saves", sessionHandler.CreateSave)
	api.HandleFunc("GET /sessions/{id}/saves", sessionHandler.ListSaves)
	api.HandleFunc("POST /sessions/{id}/saves/{saveId}/load", sessionHandler.LoadSave)

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", authMw(api)))

	// WebSocket (auth via query param, not middleware)
	mux.HandleFunc("GET /api/v1/ws", wsHandler.ServeWS)

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Logger, middleware.CORS("*"), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}
