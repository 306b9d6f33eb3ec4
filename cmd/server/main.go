package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"excelbot-backend-go/internal/config"
	"excelbot-backend-go/internal/db"
	httpapi "excelbot-backend-go/internal/http"
	"excelbot-backend-go/internal/migrations"
	"excelbot-backend-go/internal/services"
	"excelbot-backend-go/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	cleanupLogs, err := setupLogger(cfg.LogDir, cfg.LogRetentionDays)
	if err != nil {
		log.Printf("logger setup failed: %v", err)
	} else {
		defer cleanupLogs()
	}

	security, err := services.OpenSecurityLog(cfg.LogDir)
	if err != nil {
		log.Printf("security log: %v", err)
	}
	defer security.Close()

	stores, err := buildStores(cfg)
	if err != nil {
		log.Fatalf("stores: %v", err)
	}
	if err := store.SeedKnowledge(context.Background(), stores.Knowledge); err != nil {
		log.Fatalf("seed knowledge: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := services.NewChatHub()
	go hub.Run(ctx)

	server := httpapi.NewServer(cfg, stores, security, hub)
	if !cfg.Hardened() {
		if err := server.Accounts.EnsureDemoUser(ctx); err != nil {
			log.Printf("demo user: %v", err)
		}
	}
	stopSweep := server.Sessions.Sweep(time.Minute)
	defer stopSweep()

	addr := ":8080"
	if value := os.Getenv("PORT"); value != "" {
		addr = ":" + value
	}
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Router(),
	}

	go func() {
		log.Printf("listening on %s (profile=%s)", addr, cfg.Profile)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)
	log.Printf("shutdown complete")
}

// buildStores picks persistence by configuration: Postgres when DATABASE_URL
// is set, otherwise the in-memory stores that back the demo profile.
func buildStores(cfg config.Config) (httpapi.Stores, error) {
	if cfg.DatabaseURL == "" {
		return httpapi.Stores{
			Users:     store.NewMemoryUserStore(),
			Knowledge: store.NewMemoryKnowledgeStore(),
			Chat:      store.NewMemoryChatStore(),
		}, nil
	}
	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return httpapi.Stores{}, services.WrapError(err, "open database")
	}
	if err := migrations.Apply(database, "migrations"); err != nil {
		return httpapi.Stores{}, services.WrapError(err, "apply migrations")
	}
	return httpapi.Stores{
		Users:     &store.PostgresUserStore{DB: database},
		Knowledge: &store.PostgresKnowledgeStore{DB: database},
		Chat:      &store.PostgresChatStore{DB: database},
	}, nil
}

func setupLogger(logDir string, retentionDays int) (func(), error) {
	if retentionDays < 1 {
		retentionDays = 1
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	currentDate := time.Now().Format("2006-01-02")
	file, err := openLogFile(logDir, currentDate)
	if err != nil {
		return nil, err
	}
	log.SetOutput(io.MultiWriter(os.Stdout, file))
	cleanupOldLogs(logDir, retentionDays)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				date := time.Now().Format("2006-01-02")
				mu.Lock()
				if date != currentDate {
					newFile, err := openLogFile(logDir, date)
					if err == nil {
						log.SetOutput(io.MultiWriter(os.Stdout, newFile))
						_ = file.Close()
						file = newFile
						currentDate = date
						cleanupOldLogs(logDir, retentionDays)
					}
				}
				mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		cancel()
		mu.Lock()
		_ = file.Close()
		mu.Unlock()
	}, nil
}

func openLogFile(logDir, date string) (*os.File, error) {
	filename := filepath.Join(logDir, fmt.Sprintf("app-%s.log", date))
	return os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

func cleanupOldLogs(logDir string, retentionDays int) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -(retentionDays - 1))
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() {
			continue
		}
		if !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		datePart := strings.TrimSuffix(strings.TrimPrefix(name, "app-"), ".log")
		logDate, err := time.Parse("2006-01-02", datePart)
		if err != nil {
			continue
		}
		if logDate.Before(cutoff) {
			_ = os.Remove(filepath.Join(logDir, name))
		}
	}
}
