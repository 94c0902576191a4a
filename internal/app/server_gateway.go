package app

import (
	"encoding/json"
	"errors"
	"net/http"

	transport "sekretarz/internal/app/http"
	"sekretarz/internal/config"
	"sekretarz/internal/domain"
	"sekretarz/internal/drive"
	"sekretarz/internal/service/notes"
)

// GatewayServer is the folder/file gateway: one POST /agent endpoint
// dispatching on the request's intent.
type GatewayServer struct {
	cfg   config.Config
	notes *notes.Service
}

func NewGatewayServer(cfg config.Config) *GatewayServer {
	return &GatewayServer{
		cfg: cfg,
		notes: notes.NewService(notes.Dependencies{
			Drive: drive.NewClient(cfg.DriveBaseURL),
		}),
	}
}

// NewGatewayServerWithService injects a preassembled service; used by
// tests to mount a fake drive backend.
func NewGatewayServerWithService(cfg config.Config, svc *notes.Service) *GatewayServer {
	return &GatewayServer{cfg: cfg, notes: svc}
}

func (s *GatewayServer) Handler() http.Handler {
	return transport.NewGatewayRouter(transport.GatewayHandlers{
		Version: handleVersion,
		Healthz: handleHealthz,
		Agent:   s.handleAgent,
	})
}

func (s *GatewayServer) handleAgent(w http.ResponseWriter, r *http.Request) {
	var req domain.AgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, domain.ErrorBody{
			Status:  "error",
			Message: "Nieprawidłowy JSON w żądaniu",
		})
		return
	}

	raw, err := s.notes.Dispatch(r.Context(), req)
	if err == nil {
		writeRaw(w, http.StatusOK, raw)
		return
	}

	var validation *notes.ValidationError
	if errors.As(err, &validation) {
		writeJSON(w, http.StatusBadRequest, domain.ErrorBody{Status: "error", Message: validation.Message})
		return
	}
	var backend *drive.StatusError
	if errors.As(err, &backend) {
		// Resolution misses and backend-reported failures surface the
		// backend's envelope unchanged.
		writeRaw(w, http.StatusBadRequest, backend.Raw)
		return
	}
	writeJSON(w, http.StatusBadGateway, domain.ErrorBody{
		Status:  "error",
		Message: "Błąd połączenia z backendem: " + err.Error(),
	})
}
