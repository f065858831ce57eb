package main

import (
	"context"
	"os"
	"time"

	"examvault/internal/activities"
	"examvault/internal/config"
	"examvault/internal/logger"
	"examvault/internal/objstore"
	"examvault/internal/storage"
	"examvault/internal/workflows"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	log, err := logger.New(os.Getenv("EXAMVAULT_LOG_MODE"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		log.Fatal("failed to dial temporal", "err", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: cfg.WorkerConcurrency,
	})
	workflows.Register(w)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatal("failed to connect to postgres", "err", err)
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatal("failed to ensure schema", "err", err)
	}

	store, err := objstore.New(cfg)
	if err != nil {
		log.Fatal("failed to build object store", "err", err)
	}
	a, err := activities.New(cfg, log, db, store)
	if err != nil {
		log.Fatal("failed to build activities", "err", err)
	}
	activities.Register(w, a)

	log.Info("examvault worker listening", "temporal", cfg.TemporalAddress, "queue", cfg.TemporalTaskQueue, "concurrency", cfg.WorkerConcurrency)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal("worker exited", "err", err)
	}
}
