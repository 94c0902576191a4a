// Package memory holds the chat dispatcher's per-session conversation
// log. The log is bounded: each session keeps at most a configured
// number of entries and a scheduled sweep can drop entries older than
// a retention window.
package memory

import (
	"context"
	"sync"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleWebhook   = "webhook"
)

const DefaultMaxPerSession = 500

// Entry is one turn of a session transcript. Entries are append-only;
// ordered by timestamp they form the session's history.
type Entry struct {
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// InProcessStore keeps transcripts in process memory, capped per
// session. Lost on restart by design.
type InProcessStore struct {
	mu            sync.Mutex
	maxPerSession int
	sessions      map[string][]Entry
}

func NewInProcessStore(maxPerSession int) *InProcessStore {
	if maxPerSession <= 0 {
		maxPerSession = DefaultMaxPerSession
	}
	return &InProcessStore{
		maxPerSession: maxPerSession,
		sessions:      map[string][]Entry{},
	}
}

func (s *InProcessStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := append(s.sessions[entry.SessionID], entry)
	if overflow := len(entries) - s.maxPerSession; overflow > 0 {
		entries = append([]Entry{}, entries[overflow:]...)
	}
	s.sessions[entry.SessionID] = entries
	return nil
}

// Recent returns up to limit newest entries, oldest first.
func (s *InProcessStore) Recent(_ context.Context, sessionID string, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.sessions[sessionID]
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// PruneBefore drops entries with a timestamp before cutoff and reports
// how many were removed. Sessions left empty are forgotten entirely.
func (s *InProcessStore) PruneBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for sessionID, entries := range s.sessions {
		kept := entries[:0:0]
		for _, entry := range entries {
			if entry.Timestamp.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, entry)
		}
		if len(kept) == 0 {
			delete(s.sessions, sessionID)
			continue
		}
		s.sessions[sessionID] = kept
	}
	return removed, nil
}
