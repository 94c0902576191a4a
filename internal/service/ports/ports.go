// Package ports holds the narrow interfaces the services depend on,
// so external collaborators can be swapped for fakes in tests.
package ports

import (
	"context"
	"time"

	"sekretarz/internal/domain"
	"sekretarz/internal/drive"
	"sekretarz/internal/memory"
)

// Drive is the storage backend: one generic action call plus the two
// name-resolution helpers built on top of it.
type Drive interface {
	Call(ctx context.Context, action string, params map[string]interface{}) (drive.Result, error)
	FindFolderByName(ctx context.Context, name string) (domain.Folder, error)
	FindFileInFolder(ctx context.Context, folderName, fileName string) (domain.Folder, domain.File, error)
}

// Completer turns a conversation into one model reply.
type Completer interface {
	Complete(ctx context.Context, system string, turns []domain.Turn) (string, error)
}

// MemoryStore is the bounded per-session conversation log.
type MemoryStore interface {
	Append(ctx context.Context, entry memory.Entry) error
	Recent(ctx context.Context, sessionID string, limit int) ([]memory.Entry, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// PageFetcher retrieves the body of an arbitrary URL for /fetch.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}
