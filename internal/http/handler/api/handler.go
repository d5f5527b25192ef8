package api

import (
	"net/http"

	"github.com/bornholm/taskmarket/internal/core/model"
	"github.com/bornholm/taskmarket/internal/core/service"
	"github.com/bornholm/taskmarket/internal/http/middleware/authz"
)

// EventSource exposes the stream of registry events to the SSE endpoint.
type EventSource interface {
	Subscribe() (<-chan model.Event, func())
}

type Handler struct {
	registry *service.Registry
	events   EventSource
	mux      *http.ServeMux
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func NewHandler(registry *service.Registry, events EventSource) *Handler {
	h := &Handler{
		registry: registry,
		events:   events,
		mux:      &http.ServeMux{},
	}

	assertUser := authz.Middleware(nil, authz.Has(authz.RoleUser))
	assertOwner := authz.Middleware(nil, authz.Has(authz.RoleOwner))

	h.mux.Handle("POST /tasks", assertUser(http.HandlerFunc(h.handleCreateTask)))
	h.mux.Handle("GET /tasks", assertUser(http.HandlerFunc(h.handleListTasks)))
	h.mux.Handle("GET /tasks/{taskID}", assertUser(http.HandlerFunc(h.handleGetTask)))
	h.mux.Handle("POST /tasks/{taskID}/accept", assertUser(http.HandlerFunc(h.handleAcceptTask)))
	h.mux.Handle("POST /tasks/{taskID}/confirm", assertUser(http.HandlerFunc(h.handleConfirmTask)))
	h.mux.Handle("POST /tasks/{taskID}/cancel", assertUser(http.HandlerFunc(h.handleCancelTask)))

	h.mux.Handle("GET /users/{userID}/tasks", assertUser(http.HandlerFunc(h.handleGetUserTasks)))

	h.mux.Handle("GET /market", assertUser(http.HandlerFunc(h.handleGetMarket)))
	h.mux.Handle("PUT /market/fee", assertOwner(http.HandlerFunc(h.handleUpdateFee)))
	h.mux.Handle("POST /market/withdraw", assertOwner(http.HandlerFunc(h.handleEmergencyWithdraw)))
	h.mux.Handle("GET /market/ledger", assertOwner(http.HandlerFunc(h.handleQueryLedger)))

	h.mux.Handle("GET /events", assertUser(http.HandlerFunc(h.handleEvents)))

	return h
}

var _ http.Handler = &Handler{}
