// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trinhvq/mentora/internal/platform/middleware"
	"github.com/trinhvq/mentora/internal/platform/sec"
)

// fakeVerifier maps token strings to canned claims.
type fakeVerifier struct {
	claims map[string]*sec.AuthClaims
}

func (verifier *fakeVerifier) VerifyToken(tokenStr string) (*sec.AuthClaims, error) {
	if claims, ok := verifier.claims[tokenStr]; ok {
		return claims, nil
	}
	return nil, errors.New("token signature invalid")
}

// okHandler records that the request made it through the middleware chain.
func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		*called = true
		writer.WriteHeader(http.StatusOK)
	})
}

/*
TestAuthenticate verifies header parsing and claim injection behavior.
*/
func TestAuthenticate(t *testing.T) {
	verifier := &fakeVerifier{claims: map[string]*sec.AuthClaims{
		"good-token": {UserID: "user-123", Username: "linh", Roles: []string{"learner"}},
	}}

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantNext   bool
	}{
		{
			name:       "no header passes through as anonymous",
			authHeader: "",
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name:       "malformed header is rejected",
			authHeader: "Basic abc123",
			wantStatus: http.StatusUnauthorized,
			wantNext:   false,
		},
		{
			name:       "invalid token is rejected",
			authHeader: "Bearer forged",
			wantStatus: http.StatusUnauthorized,
			wantNext:   false,
		},
		{
			name:       "valid token passes through",
			authHeader: "Bearer good-token",
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := middleware.Authenticate(verifier)(okHandler(&called))

			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				request.Header.Set("Authorization", tt.authHeader)
			}
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			assert.Equal(t, tt.wantNext, called)
		})
	}
}

/*
TestRequireAuth verifies that anonymous requests are blocked with 401.
*/
func TestRequireAuth(t *testing.T) {
	verifier := &fakeVerifier{claims: map[string]*sec.AuthClaims{
		"good-token": {UserID: "user-123", Roles: []string{"learner"}},
	}}

	t.Run("anonymous gets 401", func(t *testing.T) {
		called := false
		handler := middleware.Authenticate(verifier)(middleware.RequireAuth(okHandler(&called)))

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.False(t, called)
	})

	t.Run("authenticated passes", func(t *testing.T) {
		called := false
		handler := middleware.Authenticate(verifier)(middleware.RequireAuth(okHandler(&called)))

		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("Authorization", "Bearer good-token")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.True(t, called)
	})
}

/*
TestRequireRole verifies the 401-vs-403 split for role-gated routes.

Roles are a flat set: holding admin does not imply mentor, so each gate
checks literal membership.
*/
func TestRequireRole(t *testing.T) {
	verifier := &fakeVerifier{claims: map[string]*sec.AuthClaims{
		"learner-token": {UserID: "user-1", Roles: []string{"learner"}},
		"admin-token":   {UserID: "user-2", Roles: []string{"learner", "admin"}},
	}}

	tests := []struct {
		name       string
		token      string
		required   sec.Role
		wantStatus int
	}{
		{
			name:       "anonymous gets 401",
			token:      "",
			required:   sec.RoleMentor,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing role gets 403",
			token:      "learner-token",
			required:   sec.RoleMentor,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "admin does not imply mentor",
			token:      "admin-token",
			required:   sec.RoleMentor,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "matching role passes",
			token:      "admin-token",
			required:   sec.RoleAdmin,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := middleware.Authenticate(verifier)(
				middleware.RequireRole(tt.required)(okHandler(&called)),
			)

			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				request.Header.Set("Authorization", "Bearer "+tt.token)
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
		})
	}
}
