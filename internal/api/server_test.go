// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package api_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trinhvq/mentora/internal/api"
	"github.com/trinhvq/mentora/internal/mentorship/mentor"
	"github.com/trinhvq/mentora/internal/mentorship/session"
	"github.com/trinhvq/mentora/internal/notify"
	"github.com/trinhvq/mentora/internal/platform/config"
	"github.com/trinhvq/mentora/internal/platform/sec"
	"github.com/trinhvq/mentora/internal/users/auth"
	"github.com/trinhvq/mentora/internal/users/role"
	"github.com/trinhvq/mentora/pkg/uuidv7"
)

// fakeVerifier maps bearer tokens to canned claims.
type fakeVerifier struct {
	claims map[string]*sec.AuthClaims
}

func (verifier *fakeVerifier) VerifyToken(tokenStr string) (*sec.AuthClaims, error) {
	if claims, ok := verifier.claims[tokenStr]; ok {
		return claims, nil
	}
	return nil, errors.New("token signature invalid")
}

// newTestServer assembles the full router with handler shells. Only routes
// that never reach a backing service are exercised here.
func newTestServer(t *testing.T, hub *notify.Hub, verifier *fakeVerifier) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	cfg := &config.Config{ServerPort: "0", Environment: "development"}

	liveness := func(writer http.ResponseWriter, _ *http.Request) { writer.WriteHeader(http.StatusOK) }

	server := api.NewServer(context.Background(), cfg, logger, verifier, api.Handlers{
		Liveness:  liveness,
		Readiness: liveness,
		Auth:      auth.NewHandler(nil),
		Role:      role.NewHandler(nil),
		Mentor:    mentor.NewHandler(nil, nil),
		Session:   session.NewHandler(nil),
		Events:    notify.NewHandler(hub, logger),
	})

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

/*
TestServer_Routing verifies the top-level mounts: health probes answer, REST
routes sit behind their auth gates, and the events stream upgrades and
delivers hub broadcasts end to end.

The events route is deliberately mounted outside the request-timeout group;
the streaming subtest holds a live subscription open through the full
middleware chain, which is exactly the path a request deadline would break.
*/
func TestServer_Routing(t *testing.T) {
	learnerID := uuidv7.Must()
	hub := notify.NewHub(slog.New(slog.DiscardHandler))
	verifier := &fakeVerifier{claims: map[string]*sec.AuthClaims{
		"learner-token": {UserID: learnerID, Roles: []string{"learner"}},
	}}
	ts := newTestServer(t, hub, verifier)

	t.Run("health_probe_answers", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("rest_routes_are_gated", func(t *testing.T) {
		// Anonymous hit on the admin-only session listing stops at the gate.
		resp, err := http.Get(ts.URL + "/api/v1/sessions")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("event_stream_delivers_broadcasts", func(t *testing.T) {
		wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/events?view=learner"
		header := http.Header{"Authorization": []string{"Bearer learner-token"}}

		connection, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
		require.NoError(t, err)
		defer connection.Close()
		assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

		require.Eventually(t, func() bool {
			return hub.SubscriberCount() == 1
		}, time.Second, 10*time.Millisecond)

		sessionID := uuidv7.Must()
		hub.Broadcast(notify.SessionEvent(sessionID, learnerID, uuidv7.Must()))

		require.NoError(t, connection.SetReadDeadline(time.Now().Add(time.Second)))
		var event notify.Event
		require.NoError(t, connection.ReadJSON(&event))
		assert.Equal(t, notify.EntitySession, event.EntityType)
		assert.Equal(t, sessionID, event.EntityID)
	})

	t.Run("event_stream_rejects_anonymous", func(t *testing.T) {
		wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/events"
		_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
