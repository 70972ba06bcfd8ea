package handlers

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/Dosada05/club-scheduler/live"
	"github.com/Dosada05/club-scheduler/services"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub            *live.Hub
	sessionService services.SessionService
	upgrader       websocket.Upgrader
}

// NewWebSocketHandler accepts connections from allowedOrigins; "*" allows any.
func NewWebSocketHandler(hub *live.Hub, ss services.SessionService, allowedOrigins []string) *WebSocketHandler {
	h := &WebSocketHandler{hub: hub, sessionService: ss}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// ServeWs subscribes the client to session events: /ws/sessions/{sessionID}
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	sessionID, err := getIDFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if _, err := h.sessionService.GetByID(r.Context(), sessionID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		slog.WarnContext(r.Context(), "websocket upgrade failed", slog.Int("session_id", sessionID), slog.Any("error", err))
		return
	}
	if !h.hub.Attach(conn, sessionID) {
		slog.WarnContext(r.Context(), "websocket rejected, hub stopped", slog.Int("session_id", sessionID))
	}
}
