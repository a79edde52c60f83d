// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package notify

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/trinhvq/mentora/internal/platform/apperr"
	"github.com/trinhvq/mentora/internal/platform/middleware"
	requestutil "github.com/trinhvq/mentora/internal/platform/request"
	"github.com/trinhvq/mentora/internal/platform/respond"
	"github.com/trinhvq/mentora/internal/platform/sec"
)

// # Connection Tuning

const (
	// handshakeTimeout bounds the websocket upgrade negotiation.
	handshakeTimeout = 10 * time.Second

	// writeTimeout bounds each frame write to a client.
	writeTimeout = 5 * time.Second

	// pingInterval is how often idle connections are probed. Must be
	// shorter than readTimeout so healthy clients never time out.
	pingInterval = 30 * time.Second

	// readTimeout is the pong deadline; a client silent past it is dropped.
	readTimeout = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	HandshakeTimeout: handshakeTimeout,
	// Origin enforcement happens in the CORS middleware ahead of this
	// handler; browsers send credentialed upgrades same-origin only.
	CheckOrigin: func(*http.Request) bool { return true },
}

// # Handler Implementation

// Handler exposes the live change feed over websocket.
type Handler struct {
	hub    *Hub
	logger *slog.Logger
}

// NewHandler constructs a new events [Handler].
func NewHandler(hub *Hub, logger *slog.Logger) *Handler {
	return &Handler{hub: hub, logger: logger}
}

// Routes returns a [chi.Router] exposing the websocket endpoint.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(user chi.Router) {
		user.Use(middleware.RequireAuth)
		user.Get("/", handler.streamEvents)
	})

	return router
}

/*
GET /api/v1/events?view=learner|mentor|admin.

Description: Upgrades to a websocket and streams change events scoped to
the caller. The view decides the filter: learner view delivers events for
sessions the caller learns in, mentor view for sessions they mentor (plus
their own profile), admin view delivers everything. The view must be backed
by the corresponding role. Default view is learner.

Delivery is best-effort: a client that stops reading loses events rather
than stalling the feed, and should re-fetch after reconnecting.

Response:
  - 101: Switching Protocols
  - 400: Validation: Unknown view
  - 401: ErrUnauthorized: Authentication required
  - 403: ErrForbidden: View not backed by a role
*/
func (handler *Handler) streamEvents(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view := request.URL.Query().Get("view")
	if view == "" {
		view = "learner"
	}

	filter, err := filterForView(claims, view)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Upgrade only after the filter is authorized, so rejected requests get
	// proper HTTP status codes instead of a dead socket.
	connection, err := upgrader.Upgrade(writer, request, nil)
	if err != nil {
		handler.logger.Warn("websocket_upgrade_failed", slog.Any("error", err))
		return
	}

	subscription := handler.hub.Subscribe(filter)
	handler.logger.Info("event_stream_opened",
		slog.String("user_id", claims.UserID),
		slog.String("view", view),
	)

	go handler.writePump(connection, subscription, claims.UserID)
	handler.readPump(connection, subscription)
}

// filterForView maps the requested view onto a hub filter, enforcing that
// the caller actually holds the backing role.
func filterForView(claims *sec.AuthClaims, view string) (Filter, error) {
	switch view {
	case "learner":
		if !claims.HasRole(sec.RoleLearner) {
			return Filter{}, apperr.Forbidden("Learner view requires the learner role")
		}
		return Filter{LearnerID: claims.UserID}, nil
	case "mentor":
		if !claims.HasRole(sec.RoleMentor) {
			return Filter{}, apperr.Forbidden("Mentor view requires the mentor role")
		}
		return Filter{MentorID: claims.UserID}, nil
	case "admin":
		if !claims.HasRole(sec.RoleAdmin) {
			return Filter{}, apperr.Forbidden("Admin view requires the admin role")
		}
		return Filter{Admin: true}, nil
	default:
		return Filter{}, apperr.ValidationError("Unknown view", apperr.FieldError{
			Field:   "view",
			Message: "Must be one of: learner, mentor, admin",
		})
	}
}

// writePump streams matched events and periodic pings until the
// subscription or the connection dies.
func (handler *Handler) writePump(connection *websocket.Conn, subscription *Subscription, userID string) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		subscription.Close()
		_ = connection.Close()
		handler.logger.Info("event_stream_closed", slog.String("user_id", userID))
	}()

	for {
		select {
		case event, ok := <-subscription.Events():
			if !ok {
				return
			}
			_ = connection.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := connection.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			if err := connection.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; the feed is one-way. Its job is to
// notice disconnects and refresh the pong deadline.
func (handler *Handler) readPump(connection *websocket.Conn, subscription *Subscription) {
	defer subscription.Close()

	_ = connection.SetReadDeadline(time.Now().Add(readTimeout))
	connection.SetPongHandler(func(string) error {
		return connection.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		if _, _, err := connection.ReadMessage(); err != nil {
			return
		}
	}
}
