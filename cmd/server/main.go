package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"recipedia/internal/config"
	"recipedia/internal/db"
	applog "recipedia/internal/log"
	"recipedia/internal/server"
	"recipedia/internal/storage"
	"recipedia/internal/token"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	if err := applog.SetLevel(cfg.Logging.Level); err != nil {
		log.Fatalf("invalid log level: %v", err)
	}

	database, err := db.Configure(cfg.Database)
	if err != nil {
		log.Fatalf("database setup failed: %v", err)
	}

	tokens, err := token.NewManager(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatalf("token manager setup failed: %v", err)
	}

	images, mediaDir, err := buildImageStore(cfg.Storage)
	if err != nil {
		log.Fatalf("image storage setup failed: %v", err)
	}

	srv := server.New(server.Config{
		Addr:     cfg.Server.Addr,
		Database: database,
		Tokens:   tokens,
		Images:   images,
		MediaDir: mediaDir,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server encountered an error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	<-sigCh

	applog.Info(context.Background(), "shutting down http server")
	if err := srv.Stop(); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
}

// buildImageStore selects the storage backend. The disk backend also exposes
// its root over /media/ so stored keys resolve to URLs.
func buildImageStore(cfg config.StorageConfig) (storage.Store, string, error) {
	switch cfg.Backend {
	case "minio":
		store, err := storage.NewMinio(context.Background(), cfg.Minio)
		return store, "", err
	default:
		store, err := storage.NewDisk(cfg.DiskRoot)
		return store, cfg.DiskRoot, err
	}
}
