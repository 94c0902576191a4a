package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"sekretarz/internal/domain"
	"sekretarz/internal/gemini"
	"sekretarz/internal/memory"
)

type fakeModel struct {
	calls []modelCall
	reply string
	err   error
}

type modelCall struct {
	system string
	turns  []domain.Turn
}

func (f *fakeModel) Complete(_ context.Context, system string, turns []domain.Turn) (string, error) {
	f.calls = append(f.calls, modelCall{system: system, turns: turns})
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeFetcher struct {
	body string
	err  error
}

func (f *fakeFetcher) Fetch(context.Context, string) (string, error) {
	return f.body, f.err
}

type testEnv struct {
	svc   *Service
	store *memory.InProcessStore
	model *fakeModel
	fetch *fakeFetcher
	clock *fakeClock
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) tick() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store: memory.NewInProcessStore(0),
		model: &fakeModel{reply: "ok"},
		fetch: &fakeFetcher{},
		clock: &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	env.svc = NewService(Dependencies{
		Memory:  env.store,
		Model:   env.model,
		Fetcher: env.fetch,
		Now:     env.clock.tick,
	})
	return env
}

func TestRememberThenHistoryShowsEntry(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	reply, err := env.svc.HandleMessage(ctx, "s1", "/remember kod do bramy 4521")
	if err != nil {
		t.Fatalf("remember failed: %v", err)
	}
	if reply.Type != ReplyTypeRemember {
		t.Fatalf("type = %q, want remember", reply.Type)
	}
	if len(env.model.calls) != 0 {
		t.Fatalf("remember must not call the model")
	}

	history, err := env.svc.HandleMessage(ctx, "s1", "/history")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(history.Response, "[REMEMBER] kod do bramy 4521") {
		t.Fatalf("history should contain the remembered line, got:\n%s", history.Response)
	}
}

func TestHistoryEmptySession(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	reply, err := env.svc.HandleMessage(context.Background(), "s1", "/history")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if reply.Type != ReplyTypeHistory || reply.Response != "Brak historii dla tej sesji." {
		t.Fatalf("unexpected empty-history reply: %+v", reply)
	}
}

func TestHistoryCappedAtFiftyNewestLast(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	for i := 0; i < 60; i++ {
		env.svc.append(ctx, "s1", memory.RoleUser, fmt.Sprintf("wpis %02d", i))
	}

	reply, err := env.svc.HandleMessage(ctx, "s1", "/history")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	lines := strings.Split(reply.Response, "\n")
	if len(lines) != 50 {
		t.Fatalf("history returned %d lines, want 50", len(lines))
	}
	if !strings.HasSuffix(lines[0], "wpis 10") || !strings.HasSuffix(lines[49], "wpis 59") {
		t.Fatalf("history window wrong: first=%q last=%q", lines[0], lines[49])
	}
	for i := 1; i < len(lines); i++ {
		// "[2006-01-02 15:04:05] ..." — lexical order matches time order.
		if lines[i][:21] < lines[i-1][:21] {
			t.Fatalf("timestamps must be non-decreasing: %q then %q", lines[i-1], lines[i])
		}
	}
}

func TestCommandsMatchedCaseInsensitively(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	reply, err := env.svc.HandleMessage(context.Background(), "s1", "/History")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if reply.Type != ReplyTypeHistory {
		t.Fatalf("uppercased command should still match, got type %q", reply.Type)
	}
}

func TestFetchFailureBecomesFetchError(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.fetch.err = errors.New("dial tcp: connection refused")

	reply, err := env.svc.HandleMessage(context.Background(), "s1", "/fetch http://10.255.255.1/")
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if reply.Type != ReplyTypeFetchError {
		t.Fatalf("type = %q, want fetch_error", reply.Type)
	}
	if !strings.Contains(reply.Response, "connection refused") {
		t.Fatalf("failure reason should be embedded, got %q", reply.Response)
	}
	if len(env.model.calls) != 0 {
		t.Fatalf("failed fetch must not call the model")
	}
}

func TestFetchTruncatesBodyBeforeSummarizing(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.fetch.body = strings.Repeat("ż", 5000)
	env.model.reply = "streszczenie"

	reply, err := env.svc.HandleMessage(context.Background(), "s1", "/fetch https://example.com/")
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if reply.Type != ReplyTypeFetch || reply.Response != "streszczenie" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	sent := env.model.calls[0].turns[0].Text
	if got := len([]rune(sent)) - len([]rune(fetchInstruction+"\n\n")); got != 4000 {
		t.Fatalf("page content should be truncated to 4000 runes, got %d", got)
	}
}

func TestModelDispatchMapsRolesAndLimitsHistory(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		env.svc.append(ctx, "s1", memory.RoleUser, fmt.Sprintf("u%d", i))
	}
	env.svc.append(ctx, "s1", memory.RoleAssistant, "odpowiedź")
	env.svc.append(ctx, "s1", memory.RoleWebhook, `{"event":"deploy"}`)
	env.model.reply = "cześć"

	reply, err := env.svc.HandleMessage(ctx, "s1", "co słychać?")
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if reply.Type != ReplyTypeGemini || reply.Response != "cześć" {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	turns := env.model.calls[0].turns
	if len(turns) != 21 {
		t.Fatalf("expected 20 history turns plus the current message, got %d", len(turns))
	}
	last := turns[len(turns)-1]
	if last.Role != "user" || last.Text != "co słychać?" {
		t.Fatalf("current message must be the final turn, got %+v", last)
	}
	assistant := turns[len(turns)-3]
	if assistant.Role != "model" || assistant.Text != "odpowiedź" {
		t.Fatalf("assistant history should map to model role, got %+v", assistant)
	}
	webhook := turns[len(turns)-2]
	if webhook.Role != "user" || !strings.HasPrefix(webhook.Text, "[WEBHOOK EVENT] ") {
		t.Fatalf("webhook history should be user role with marker, got %+v", webhook)
	}
}

func TestModelDispatchAppendsBothTurns(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.model.reply = "dobrze"

	if _, err := env.svc.HandleMessage(ctx, "s1", "jak tam?"); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	entries, err := env.store.Recent(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected user+assistant entries, got %d", len(entries))
	}
	if entries[0].Role != memory.RoleUser || entries[0].Content != "jak tam?" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Role != memory.RoleAssistant || entries[1].Content != "dobrze" {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
}

func TestMissingAPIKeyBecomesFixedReplyText(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.model.err = gemini.ErrMissingAPIKey

	reply, err := env.svc.HandleMessage(context.Background(), "s1", "halo")
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if reply.Type != ReplyTypeGemini || reply.Response != missingKeyText {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestModelTransportErrorBecomesText(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.model.err = errors.New("context deadline exceeded")

	reply, err := env.svc.HandleMessage(context.Background(), "s1", "halo")
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if !strings.Contains(reply.Response, "context deadline exceeded") {
		t.Fatalf("transport failure should be reported as content, got %q", reply.Response)
	}
}

func TestWebhookWithoutInterpretationSkipsModel(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	sessionID, summary := env.svc.HandleWebhook(ctx, "", map[string]interface{}{"event": "deploy"})
	if sessionID != WebhookSessionID {
		t.Fatalf("session should default to webhook, got %q", sessionID)
	}
	if summary != nil {
		t.Fatalf("summary must be nil without interpret_with_gemini, got %q", *summary)
	}
	if len(env.model.calls) != 0 {
		t.Fatalf("model must not be called without interpret_with_gemini")
	}

	entries, _ := env.store.Recent(ctx, WebhookSessionID, 0)
	if len(entries) != 1 || entries[0].Role != memory.RoleWebhook {
		t.Fatalf("payload should be logged as a webhook entry, got %+v", entries)
	}
}

func TestWebhookInterpretationAppendsSummary(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.model.reply = "wdrożenie zakończone"

	_, summary := env.svc.HandleWebhook(ctx, "ops", map[string]interface{}{
		"event":                 "deploy",
		"interpret_with_gemini": true,
	})
	if summary == nil || *summary != "wdrożenie zakończone" {
		t.Fatalf("unexpected summary: %v", summary)
	}

	entries, _ := env.store.Recent(ctx, "ops", 0)
	if len(entries) != 2 || entries[1].Role != memory.RoleAssistant {
		t.Fatalf("interpretation should be appended as assistant, got %+v", entries)
	}
}

func TestTruthy(t *testing.T) {
	t.Parallel()

	truthy := []interface{}{true, float64(1), "yes", "false"}
	for _, v := range truthy {
		if !Truthy(v) {
			t.Fatalf("%v (%T) should be truthy", v, v)
		}
	}
	falsy := []interface{}{nil, false, float64(0), "", []interface{}{}}
	for _, v := range falsy {
		if Truthy(v) {
			t.Fatalf("%v (%T) should be falsy", v, v)
		}
	}
}
