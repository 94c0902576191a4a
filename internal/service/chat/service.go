// Package chat implements the chat dispatcher: slash-commands checked
// before any model call, model dispatch with recent history, and
// webhook ingestion. Every inbound message and every produced response
// is appended to the session transcript.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"sekretarz/internal/domain"
	"sekretarz/internal/gemini"
	"sekretarz/internal/memory"
	"sekretarz/internal/service/ports"
)

const (
	ReplyTypeRemember   = "remember"
	ReplyTypeHistory    = "history"
	ReplyTypeFetch      = "fetch"
	ReplyTypeFetchError = "fetch_error"
	ReplyTypeGemini     = "gemini"

	DefaultSessionID = "default"
	WebhookSessionID = "webhook"

	historyLimit     = 50
	modelTurnLimit   = 20
	fetchBodyMaxRune = 4000

	noHistoryText    = "Brak historii dla tej sesji."
	missingKeyText   = "Brak skonfigurowanego klucza GEMINI_API_KEY – odpowiedzi modelu są wyłączone."
	webhookEventTag  = "[WEBHOOK EVENT]"
	rememberTag      = "[REMEMBER]"
	historyTimestamp = "2006-01-02 15:04:05"

	fetchInstruction   = "Streść zwięźle poniższą treść strony:"
	webhookInstruction = "Zinterpretuj poniższe zdarzenie webhook i opisz krótko, co oznacza:"
)

type Reply struct {
	Type     string
	Response string
}

type Dependencies struct {
	Memory  ports.MemoryStore
	Model   ports.Completer
	Fetcher ports.PageFetcher

	// SystemInstructions, when set, leads every model conversation.
	SystemInstructions string

	// Now stamps transcript entries; defaults to time.Now.
	Now func() time.Time
}

type Service struct {
	deps Dependencies
}

func NewService(deps Dependencies) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{deps: deps}
}

// HandleMessage runs one inbound chat message through command
// recognition and, failing that, model dispatch. The reply is computed
// against the transcript as it was before this call; the inbound
// message and the reply are appended afterwards.
func (s *Service) HandleMessage(ctx context.Context, sessionID, message string) (Reply, error) {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	message = strings.TrimSpace(message)

	reply, err := s.dispatch(ctx, sessionID, message)
	if err != nil {
		return Reply{}, err
	}

	s.append(ctx, sessionID, memory.RoleUser, message)
	s.append(ctx, sessionID, memory.RoleAssistant, reply.Response)
	return reply, nil
}

func (s *Service) dispatch(ctx context.Context, sessionID, message string) (Reply, error) {
	lowered := strings.ToLower(message)
	switch {
	case strings.HasPrefix(lowered, "/remember"):
		return s.handleRemember(ctx, sessionID, message), nil
	case strings.HasPrefix(lowered, "/history"):
		return s.handleHistory(ctx, sessionID)
	case strings.HasPrefix(lowered, "/fetch"):
		return s.handleFetch(ctx, message), nil
	default:
		return s.handleModel(ctx, sessionID, message), nil
	}
}

func (s *Service) handleRemember(ctx context.Context, sessionID, message string) Reply {
	text := strings.TrimSpace(message[len("/remember"):])
	s.append(ctx, sessionID, memory.RoleSystem, rememberTag+" "+text)
	return Reply{Type: ReplyTypeRemember, Response: "Zapamiętano: " + text}
}

func (s *Service) handleHistory(ctx context.Context, sessionID string) (Reply, error) {
	entries, err := s.deps.Memory.Recent(ctx, sessionID, historyLimit)
	if err != nil {
		return Reply{}, err
	}
	if len(entries) == 0 {
		return Reply{Type: ReplyTypeHistory, Response: noHistoryText}, nil
	}
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf("[%s] %s: %s",
			entry.Timestamp.Format(historyTimestamp), entry.Role, entry.Content))
	}
	return Reply{Type: ReplyTypeHistory, Response: strings.Join(lines, "\n")}, nil
}

func (s *Service) handleFetch(ctx context.Context, message string) Reply {
	rawURL := strings.TrimSpace(message[len("/fetch"):])
	body, err := s.deps.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return Reply{
			Type:     ReplyTypeFetchError,
			Response: fmt.Sprintf("Nie udało się pobrać '%s': %v", rawURL, err),
		}
	}
	if runes := []rune(body); len(runes) > fetchBodyMaxRune {
		body = string(runes[:fetchBodyMaxRune])
	}
	summary := s.complete(ctx, []domain.Turn{{
		Role: "user",
		Text: fetchInstruction + "\n\n" + body,
	}})
	return Reply{Type: ReplyTypeFetch, Response: summary}
}

func (s *Service) handleModel(ctx context.Context, sessionID, message string) Reply {
	entries, err := s.deps.Memory.Recent(ctx, sessionID, modelTurnLimit)
	if err != nil {
		log.Printf("chat: read history session=%s err=%v", sessionID, err)
		entries = nil
	}

	turns := make([]domain.Turn, 0, len(entries)+1)
	for _, entry := range entries {
		turns = append(turns, historyTurn(entry))
	}
	turns = append(turns, domain.Turn{Role: "user", Text: message})
	return Reply{Type: ReplyTypeGemini, Response: s.complete(ctx, turns)}
}

// historyTurn maps a transcript entry to the model API's role
// conventions: assistant entries become "model", everything else is
// presented as user input, webhook entries get a marker prefix.
func historyTurn(entry memory.Entry) domain.Turn {
	if entry.Role == memory.RoleAssistant {
		return domain.Turn{Role: "model", Text: entry.Content}
	}
	text := entry.Content
	if entry.Role == memory.RoleWebhook {
		text = webhookEventTag + " " + text
	}
	return domain.Turn{Role: "user", Text: text}
}

// HandleWebhook logs the payload as a webhook entry and, when asked,
// has the model interpret it. The summary is nil when interpretation
// was not requested.
func (s *Service) HandleWebhook(ctx context.Context, sessionID string, payload map[string]interface{}) (string, *string) {
	if sessionID == "" {
		sessionID = WebhookSessionID
	}
	pretty, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		pretty = []byte(fmt.Sprintf("%v", payload))
	}
	s.append(ctx, sessionID, memory.RoleWebhook, string(pretty))

	if !Truthy(payload["interpret_with_gemini"]) {
		return sessionID, nil
	}
	summary := s.complete(ctx, []domain.Turn{{
		Role: "user",
		Text: webhookInstruction + "\n\n" + string(pretty),
	}})
	s.append(ctx, sessionID, memory.RoleAssistant, summary)
	return sessionID, &summary
}

// complete is the single point where model failures become chat
// content: transport and HTTP errors come back as descriptive text in
// a success envelope instead of an HTTP error.
func (s *Service) complete(ctx context.Context, turns []domain.Turn) string {
	text, err := s.deps.Model.Complete(ctx, s.deps.SystemInstructions, turns)
	if err == nil {
		return text
	}
	if errors.Is(err, gemini.ErrMissingAPIKey) {
		return missingKeyText
	}
	return fmt.Sprintf("Błąd wywołania modelu: %v", err)
}

func (s *Service) append(ctx context.Context, sessionID, role, content string) {
	entry := memory.Entry{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: s.deps.Now(),
	}
	if err := s.deps.Memory.Append(ctx, entry); err != nil {
		log.Printf("chat: append session=%s role=%s err=%v", sessionID, role, err)
	}
}

// Truthy follows the loose semantics of the webhook flag: explicit
// booleans, non-zero numbers and non-empty strings all count.
func Truthy(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	default:
		return false
	}
}
