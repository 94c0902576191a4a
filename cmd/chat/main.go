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
	srv, err := app.NewChatServer(cfg)
	if err != nil {
		log.Fatalf("init chat server failed: %v", err)
	}
	defer srv.Close()

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.ChatPort)
	log.Printf("chat dispatcher listening on %s model=%s", addr, cfg.GeminiModel)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatalf("listen failed: %v", err)
	}
}
