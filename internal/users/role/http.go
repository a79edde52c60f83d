// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package role

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/trinhvq/mentora/internal/platform/middleware"
	requestutil "github.com/trinhvq/mentora/internal/platform/request"
	"github.com/trinhvq/mentora/internal/platform/respond"
	"github.com/trinhvq/mentora/internal/platform/sec"
)

// # Handler Implementation

// Handler implements the HTTP layer for role resolution and administration.
type Handler struct {
	service *Service
}

// NewHandler constructs a new role [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with role endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(user chi.Router) {
		user.Use(middleware.RequireAuth)
		user.Get("/me", handler.getOwnRoles)
	})

	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(sec.RoleAdmin))
		admin.Get("/{userID}", handler.getAssignments)
		admin.Post("/{userID}", handler.grantRole)
		admin.Delete("/{userID}/{role}", handler.revokeRole)
	})

	return router
}

// # Role Endpoints

/*
GET /api/v1/roles/me.

Description: Returns the authenticated account's resolved role set.

Response:
  - 200: []Role: Roles held, possibly empty
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) getOwnRoles(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	roles, err := handler.service.Resolve(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, roles)
}

/*
GET /api/v1/roles/{userID}.

Description: Returns an account's assignments with grant times. Admin surface.

Response:
  - 200: []Assignment: Assignments in grant order
  - 403: ErrForbidden: Missing admin role
*/
func (handler *Handler) getAssignments(writer http.ResponseWriter, request *http.Request) {
	assignments, err := handler.service.Assignments(request.Context(), requestutil.ID(request, "userID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, assignments)
}

/*
POST /api/v1/roles/{userID}.

Description: Grants a role to an account. Granting an already-held role is
an idempotent success. Admins cannot grant themselves the admin role.

Request (Body):
  - role: string (learner|mentor|admin)

Response:
  - 204: Granted
  - 400: Validation: Unknown role
  - 403: ErrForbidden: Missing admin role, or self-escalation attempt
*/
func (handler *Handler) grantRole(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input struct {
		Role string `json:"role"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.service.AdminGrant(request.Context(), actorID, requestutil.ID(request, "userID"), sec.Role(input.Role))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
DELETE /api/v1/roles/{userID}/{role}.

Description: Revokes a role from an account. Revoking an absent role is an
idempotent success.

Response:
  - 204: Revoked
  - 400: Validation: Unknown role
  - 403: ErrForbidden: Missing admin role
*/
func (handler *Handler) revokeRole(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.service.AdminRevoke(
		request.Context(), actorID,
		requestutil.ID(request, "userID"),
		sec.Role(requestutil.Param(request, "role")),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
