package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"sekretarz/internal/app"
	"sekretarz/internal/config"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Printf("loaded environment from .env")
	}

	cfg := config.Load()
	srv := app.NewGatewayServer(cfg)

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.GatewayPort)
	log.Printf("folder/file gateway listening on %s backend=%s", addr, cfg.DriveBaseURL)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatalf("listen failed: %v", err)
	}
}
