package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"journal-server/internal/config"
	"journal-server/internal/handler"
	"journal-server/internal/middleware"
	"journal-server/internal/repository"
	"journal-server/internal/service"
	"journal-server/internal/websocket"
	"journal-server/pkg/logger"

	"github.com/gorilla/mux"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level)
	defer logger.Log.Sync()

	manager, err := repository.NewPostgresManager(cfg.Database.DSN())
	if err != nil {
		logger.Sugar.Fatalw("failed to connect to database", "error", err)
	}
	defer manager.Close()

	wsManager := websocket.NewManager(
		cfg.WebSocket.MaxConnPerUser,
		cfg.WebSocket.WriteWait,
		cfg.WebSocket.PongWait,
		cfg.WebSocket.PingPeriod,
	)
	go wsManager.Run()

	authService := service.NewAuthService(manager, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.RefreshTokenExpiration)
	userService := service.NewUserService(manager)
	entryService := service.NewEntryService(manager, wsManager)
	draftService := service.NewDraftService(manager, cfg.Drafts.Retention)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go draftService.RunSweep(sweepCtx, cfg.Drafts.SweepInterval)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	entryHandler := handler.NewEntryHandler(entryService)
	draftHandler := handler.NewDraftHandler(draftService)
	wsHandler := handler.NewWebSocketHandler(wsManager, cfg.JWT.Secret,
		cfg.WebSocket.ReadBufferSize, cfg.WebSocket.WriteBufferSize)

	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORSMiddleware(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/refresh", authHandler.Refresh).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST", "OPTIONS")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.JWT.Secret))

	protected.HandleFunc("/users/me", userHandler.GetMe).Methods("GET", "OPTIONS")
	protected.HandleFunc("/users/me", userHandler.UpdateMe).Methods("PUT", "OPTIONS")

	protected.HandleFunc("/entries", entryHandler.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/entries", entryHandler.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/entries/{id}", entryHandler.Get).Methods("GET", "OPTIONS")
	protected.HandleFunc("/entries/{id}", entryHandler.Update).Methods("POST", "OPTIONS")
	protected.HandleFunc("/entries/{id}", entryHandler.Delete).Methods("DELETE", "OPTIONS")
	protected.HandleFunc("/entries/{id}/versions", entryHandler.ListVersions).Methods("GET", "OPTIONS")
	protected.HandleFunc("/entries/{id}/conflict", entryHandler.GetConflict).Methods("GET", "OPTIONS")
	protected.HandleFunc("/entries/{id}/conflict", entryHandler.ResolveConflict).Methods("POST", "OPTIONS")

	protected.HandleFunc("/drafts", draftHandler.Save).Methods("POST", "OPTIONS")
	protected.HandleFunc("/drafts", draftHandler.Get).Methods("GET", "OPTIONS")
	protected.HandleFunc("/drafts", draftHandler.Discard).Methods("DELETE", "OPTIONS")

	r.HandleFunc("/ws", wsHandler.HandleConnection)

	r.HandleFunc("/health", healthHandler(manager)).Methods("GET")
	r.HandleFunc("/", rootHandler).Methods("GET")

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Sugar.Infow("starting journal server", "addr", addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar.Fatalw("server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Sugar.Info("shutting down server")
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar.Fatalw("server forced to shutdown", "error", err)
	}

	logger.Sugar.Info("server stopped gracefully")
}

func healthHandler(m *repository.PostgresManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := m.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","service":"journal-server"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"journal-server"}`))
	}
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message":"Journal Server API","version":"1.0.0","endpoints":{"/api/v1/auth/register":"POST","/api/v1/auth/login":"POST","/api/v1/entries":"GET/POST (protected)","/api/v1/drafts":"GET/POST/DELETE (protected)"}}`))
}
