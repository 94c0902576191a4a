// Package transport wires the chi routers for both services. Handlers
// are injected as plain http.HandlerFuncs so the app layer owns all
// behavior and tests can mount fakes.
package transport

import (
	"fmt"
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"sekretarz/internal/observability"
)

type GatewayHandlers struct {
	Version stdhttp.HandlerFunc
	Healthz stdhttp.HandlerFunc
	Agent   stdhttp.HandlerFunc
}

type ChatHandlers struct {
	Version stdhttp.HandlerFunc
	Healthz stdhttp.HandlerFunc
	Index   stdhttp.HandlerFunc
	Agent   stdhttp.HandlerFunc
	Webhook stdhttp.HandlerFunc
	Socket  stdhttp.HandlerFunc
}

func NewGatewayRouter(handlers GatewayHandlers) stdhttp.Handler {
	r := newBaseRouter()
	r.Get("/version", mustHandler("version", handlers.Version))
	r.Get("/healthz", mustHandler("healthz", handlers.Healthz))
	r.Post("/agent", mustHandler("agent", handlers.Agent))
	return r
}

func NewChatRouter(handlers ChatHandlers) stdhttp.Handler {
	r := newBaseRouter()
	r.Get("/version", mustHandler("version", handlers.Version))
	r.Get("/healthz", mustHandler("healthz", handlers.Healthz))
	r.Get("/", mustHandler("index", handlers.Index))
	r.Post("/agent", mustHandler("agent", handlers.Agent))
	r.Post("/webhook", mustHandler("webhook", handlers.Webhook))
	r.Get("/ws", mustHandler("socket", handlers.Socket))
	return r
}

func newBaseRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(observability.RequestID)
	r.Use(observability.Logging)
	r.Use(observability.CORS)
	return r
}

func mustHandler(name string, handler stdhttp.HandlerFunc) stdhttp.HandlerFunc {
	if handler != nil {
		return handler
	}
	panic(fmt.Sprintf("transport router missing handler: %s", name))
}
