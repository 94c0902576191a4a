// Package notes implements the folder/file gateway: it validates the
// intent request, resolves folder and file names to backend ids and
// relays the matching drive action.
package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"sekretarz/internal/domain"
	"sekretarz/internal/service/ports"
)

const DefaultNoteName = "notatka.txt"

type Intent string

const (
	IntentCreateFolder Intent = "create_folder"
	IntentListFolders  Intent = "list_folders"
	IntentSaveNote     Intent = "save_note"
	IntentListFiles    Intent = "list_files"
	IntentReadFile     Intent = "read_file"
	IntentUpdateFile   Intent = "update_file"
	IntentDeleteFile   Intent = "delete_file"
)

// ValidationError is a missing/empty-field or unknown-intent failure;
// the transport layer maps it to HTTP 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

type field struct {
	name string
	// presenceOnly fields accept an empty value as long as the key is
	// set; content behaves this way, names do not.
	presenceOnly bool
}

type intentSpec struct {
	required []field
	handle   func(ctx context.Context, s *Service, req domain.AgentRequest) (json.RawMessage, error)
}

// intentTable is the closed set of supported intents. Anything outside
// it is rejected before the backend is contacted.
var intentTable = map[Intent]intentSpec{
	IntentCreateFolder: {
		required: []field{{name: "folder"}},
		handle: func(ctx context.Context, s *Service, req domain.AgentRequest) (json.RawMessage, error) {
			return s.call(ctx, "create_folder", map[string]interface{}{"name": req.Folder})
		},
	},
	IntentListFolders: {
		handle: func(ctx context.Context, s *Service, _ domain.AgentRequest) (json.RawMessage, error) {
			return s.call(ctx, "list_folders", nil)
		},
	},
	IntentSaveNote: {
		required: []field{{name: "folder"}, {name: "content", presenceOnly: true}},
		handle: func(ctx context.Context, s *Service, req domain.AgentRequest) (json.RawMessage, error) {
			folder, err := s.deps.Drive.FindFolderByName(ctx, req.Folder)
			if err != nil {
				return nil, err
			}
			name := req.FileName
			if name == "" {
				name = DefaultNoteName
			}
			return s.call(ctx, "create_in_folder", map[string]interface{}{
				"folderId": folder.ID,
				"name":     name,
				"content":  *req.Content,
			})
		},
	},
	IntentListFiles: {
		required: []field{{name: "folder"}},
		handle: func(ctx context.Context, s *Service, req domain.AgentRequest) (json.RawMessage, error) {
			folder, err := s.deps.Drive.FindFolderByName(ctx, req.Folder)
			if err != nil {
				return nil, err
			}
			return s.call(ctx, "list_in_folder", map[string]interface{}{"folderId": folder.ID})
		},
	},
	IntentReadFile: {
		required: []field{{name: "folder"}, {name: "file_name"}},
		handle: func(ctx context.Context, s *Service, req domain.AgentRequest) (json.RawMessage, error) {
			_, file, err := s.deps.Drive.FindFileInFolder(ctx, req.Folder, req.FileName)
			if err != nil {
				return nil, err
			}
			return s.call(ctx, "read", map[string]interface{}{"fileId": file.ID})
		},
	},
	IntentUpdateFile: {
		required: []field{{name: "folder"}, {name: "file_name"}, {name: "content", presenceOnly: true}},
		handle: func(ctx context.Context, s *Service, req domain.AgentRequest) (json.RawMessage, error) {
			_, file, err := s.deps.Drive.FindFileInFolder(ctx, req.Folder, req.FileName)
			if err != nil {
				return nil, err
			}
			return s.call(ctx, "update", map[string]interface{}{
				"fileId":  file.ID,
				"content": *req.Content,
			})
		},
	},
	IntentDeleteFile: {
		required: []field{{name: "folder"}, {name: "file_name"}},
		handle: func(ctx context.Context, s *Service, req domain.AgentRequest) (json.RawMessage, error) {
			_, file, err := s.deps.Drive.FindFileInFolder(ctx, req.Folder, req.FileName)
			if err != nil {
				return nil, err
			}
			return s.call(ctx, "delete", map[string]interface{}{"fileId": file.ID})
		},
	},
}

type Dependencies struct {
	Drive ports.Drive
}

type Service struct {
	deps Dependencies
}

func NewService(deps Dependencies) *Service {
	return &Service{deps: deps}
}

// Dispatch routes one request by its intent. On success the returned
// payload is the backend's JSON verbatim; failures are either a
// *ValidationError, a *drive.StatusError or a transport error.
func (s *Service) Dispatch(ctx context.Context, req domain.AgentRequest) (json.RawMessage, error) {
	if s == nil || s.deps.Drive == nil {
		return nil, errors.New("notes: drive backend is not configured")
	}

	spec, ok := intentTable[Intent(req.Intent)]
	if !ok {
		return nil, &ValidationError{Message: fmt.Sprintf("Nieznany intent: %s", req.Intent)}
	}
	if err := validateRequired(req, spec.required); err != nil {
		return nil, err
	}
	return spec.handle(ctx, s, req)
}

func (s *Service) call(ctx context.Context, action string, params map[string]interface{}) (json.RawMessage, error) {
	res, err := s.deps.Drive.Call(ctx, action, params)
	if err != nil {
		return nil, err
	}
	return res.Raw, nil
}

// validateRequired rejects the request when any required field is
// absent. The message always lists the intent's full required set,
// the way the backend's callers expect it.
func validateRequired(req domain.AgentRequest, required []field) error {
	for _, f := range required {
		if fieldMissing(req, f) {
			return &ValidationError{Message: requiredFieldsMessage(required)}
		}
	}
	return nil
}

func fieldMissing(req domain.AgentRequest, f field) bool {
	switch f.name {
	case "folder":
		return req.Folder == ""
	case "file_name":
		return req.FileName == ""
	case "content":
		if f.presenceOnly {
			return req.Content == nil
		}
		return req.Content == nil || *req.Content == ""
	default:
		return true
	}
}

func requiredFieldsMessage(required []field) string {
	if len(required) == 1 {
		return fmt.Sprintf("Brak pola '%s'", required[0].name)
	}
	names := make([]string, 0, len(required))
	for _, f := range required {
		names = append(names, "'"+f.name+"'")
	}
	return "Wymagane pola: " + strings.Join(names, ", ")
}
