package main

import (
	"net/http"
	"os"

	"examvault/internal/api"
	"examvault/internal/config"
	"examvault/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	log, err := logger.New(os.Getenv("EXAMVAULT_LOG_MODE"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	srv, err := api.NewServer(cfg, log)
	if err != nil {
		log.Fatal("failed to start api server", "err", err)
	}
	defer srv.Close()

	log.Info("examvault api listening", "addr", cfg.APIAddr, "extract_provider", cfg.ExtractProvider, "embed_provider", cfg.EmbedProvider)
	if err := http.ListenAndServe(cfg.APIAddr, srv.Routes()); err != nil {
		log.Fatal("api server exited", "err", err)
	}
}
