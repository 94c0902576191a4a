package app

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	cronv3 "github.com/robfig/cron/v3"

	transport "sekretarz/internal/app/http"
	"sekretarz/internal/config"
	"sekretarz/internal/domain"
	"sekretarz/internal/gemini"
	"sekretarz/internal/memory"
	"sekretarz/internal/service/chat"
	"sekretarz/internal/service/ports"
	"sekretarz/internal/webfetch"
)

// ChatServer is the chat dispatcher: slash-commands, model dispatch
// and webhook ingestion over a bounded per-session transcript.
type ChatServer struct {
	cfg   config.Config
	chat  *chat.Service
	store ports.MemoryStore

	cron      *cronv3.Cron
	closeOnce sync.Once
}

func NewChatServer(cfg config.Config) (*ChatServer, error) {
	var store ports.MemoryStore
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		store = memory.NewRedisStore(client, cfg.HistoryMaxPerSession, cfg.HistoryRetention)
		log.Printf("chat memory backend=redis addr=%s", cfg.RedisAddr)
	} else {
		store = memory.NewInProcessStore(cfg.HistoryMaxPerSession)
		log.Printf("chat memory backend=inprocess max_per_session=%d", cfg.HistoryMaxPerSession)
	}

	if cfg.GeminiAPIKey == "" {
		log.Printf("GEMINI_API_KEY is not set; model calls degrade to a fixed error reply")
	}

	srv := &ChatServer{
		cfg:   cfg,
		store: store,
		chat: chat.NewService(chat.Dependencies{
			Memory:             store,
			Model:              gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel),
			Fetcher:            webfetch.NewClient(),
			SystemInstructions: cfg.SystemInstructions,
		}),
	}
	if err := srv.startRetentionSweep(); err != nil {
		return nil, err
	}
	return srv, nil
}

// NewChatServerWithService injects a preassembled service and store;
// used by tests.
func NewChatServerWithService(cfg config.Config, svc *chat.Service, store ports.MemoryStore) *ChatServer {
	return &ChatServer{cfg: cfg, chat: svc, store: store}
}

// startRetentionSweep schedules the time-bound half of the memory
// budget: entries older than the retention window are dropped on the
// configured cron spec.
func (s *ChatServer) startRetentionSweep() error {
	if s.cfg.HistoryRetention <= 0 {
		return nil
	}
	s.cron = cronv3.New()
	_, err := s.cron.AddFunc(s.cfg.HistorySweepSpec, func() {
		cutoff := time.Now().Add(-s.cfg.HistoryRetention)
		removed, err := s.store.PruneBefore(context.Background(), cutoff)
		if err != nil {
			log.Printf("memory sweep failed: %v", err)
			return
		}
		if removed > 0 {
			log.Printf("memory sweep removed=%d cutoff=%s", removed, cutoff.Format(time.RFC3339))
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *ChatServer) Close() {
	s.closeOnce.Do(func() {
		if s.cron != nil {
			s.cron.Stop()
		}
	})
}

func (s *ChatServer) Handler() http.Handler {
	return transport.NewChatRouter(transport.ChatHandlers{
		Version: handleVersion,
		Healthz: handleHealthz,
		Index:   s.handleIndex,
		Agent:   s.handleAgent,
		Webhook: s.handleWebhook,
		Socket:  s.handleSocket,
	})
}

func (s *ChatServer) handleAgent(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Nieprawidłowy JSON w żądaniu"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Pole 'message' jest wymagane"})
		return
	}

	reply, err := s.chat.HandleMessage(r.Context(), req.SessionID, req.Message)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, domain.ChatResponse{OK: true, Type: reply.Type, Response: reply.Response})
}

func (s *ChatServer) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Nieprawidłowy JSON w żądaniu"})
		return
	}
	sessionID, _ := payload["session_id"].(string)

	sessionID, summary := s.chat.HandleWebhook(r.Context(), sessionID, payload)
	writeJSON(w, http.StatusOK, domain.WebhookResponse{
		OK:            true,
		Message:       "Webhook zapisany w pamięci sesji",
		SessionID:     sessionID,
		GeminiSummary: summary,
	})
}
