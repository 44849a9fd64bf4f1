// Package main is the entry point for the Rate Copy Manager server.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rate-copy-manager/backend/internal/api"
	"github.com/rate-copy-manager/backend/internal/copier"
	"github.com/rate-copy-manager/backend/internal/pms"
	"github.com/rate-copy-manager/backend/internal/storage"
	"github.com/rate-copy-manager/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// Defaults to "dev" when not provided.
var version = "dev"

func main() {
	// Parse command-line flags
	addr := flag.String("addr", ":8098", "HTTP server address")
	dataDir := flag.String("data", "", "Data directory for the SQLite submission history (empty disables it)")
	staticDir := flag.String("static", "./static", "Directory for static frontend files")
	sessionTTL := flag.Duration("session-ttl", 30*time.Minute, "Idle time after which a session expires")
	historyRetention := flag.Duration("history-retention", 90*24*time.Hour, "How long submission history rows are kept")
	healthCheck := flag.Bool("health-check", false, "Run health check and exit")
	flag.Parse()

	// Health check mode for Docker HEALTHCHECK
	if *healthCheck {
		if err := runHealthCheck(*addr); err != nil {
			log.Fatalf("Health check failed: %v", err)
		}
		os.Exit(0)
	}

	// Optional .env for local development; absence is fine.
	godotenv.Load()

	// Allow overriding version via environment (e.g., injected by container build/runtime)
	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}

	log.Printf("Starting Rate Copy Manager (version: %s)...", version)

	pmsConfig, err := pms.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load PMS configuration: %v", err)
	}
	client := pms.NewClient(pmsConfig)
	log.Printf("PMS API base URL: %s", pmsConfig.BaseURL)

	// The submission history database is optional; without a data
	// directory the server runs fully in memory.
	var db *storage.DB
	var history *storage.HistoryRepository
	if *dataDir != "" {
		if err := os.MkdirAll(*dataDir, 0o755); err != nil {
			log.Fatalf("Failed to create data directory %q: %v", *dataDir, err)
		}
		dbPath := *dataDir + "/rate-copy-manager.db"
		db, err = storage.NewDB(dbPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()

		if err := storage.RunMigrations(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Println("Database migrations complete")

		history = storage.NewHistoryRepository(db)
	} else {
		log.Println("No data directory configured, submission history disabled")
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize session store and cleanup jobs
	sessions := copier.NewStore(*sessionTTL)
	janitor := copier.NewJanitor(sessions, history, *historyRetention)
	janitor.Start()

	// Initialize HTTP router
	router := api.NewRouter(client, sessions, hub, db, history, *staticDir)

	// Create HTTP server. The write timeout must cover a full sequential
	// submission run, which makes one upstream call per operation.
	server := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("Server listening on %s", *addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	janitor.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	url := "http://localhost" + addr + "/api/health"
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return http.ErrAbortHandler
	}
	return nil
}
