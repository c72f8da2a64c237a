package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/auth"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/cache"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/config"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/reporting"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/server"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/service"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/storage/sqlite"
	"github.com/HamzaArc/friendly-savings-circle-sub000/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	// Query cache invalidated by store change events
	queryCache := cache.New()
	stopCache := queryCache.Subscribe(store.Events())
	defer stopCache()

	// Auth stack
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store)

	// Domain services
	authSvc := service.NewAuthService(authenticator, jwtManager, store)
	groupSvc := service.NewGroupService(store, queryCache)
	cycleSvc := service.NewCycleService(store)
	notificationSvc := service.NewNotificationService(store, queryCache)
	reportSvc := reporting.NewService(store)

	srv := server.New(authSvc, groupSvc, cycleSvc, notificationSvc, reportSvc, jwtManager, store.Events())

	routes := srv.Routes()
	mux := http.NewServeMux()
	mux.Handle("/api/", routes)
	mux.Handle("/ws", routes)
	mux.Handle("/metrics", routes)
	mux.Handle("/healthz", routes)

	// Serve the built frontend for everything else
	staticDir, err := filepath.Abs(cfg.StaticPath)
	if err != nil {
		slog.Error("Failed to resolve static path", "error", err)
		os.Exit(1)
	}
	slog.Info("Serving static files", "path", staticDir)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(staticDir, filepath.Clean(urlPath))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			// SPA routing: unknown paths fall back to index.html
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}
		http.ServeFile(w, r, filePath)
	})

	// Wrap with h2c for HTTP/2 without TLS
	handler := h2c.NewHandler(mux, &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		slog.Info("Server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}
}
