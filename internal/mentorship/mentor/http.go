// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package mentor

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/trinhvq/mentora/internal/mentorship/stats"
	"github.com/trinhvq/mentora/internal/platform/middleware"
	requestutil "github.com/trinhvq/mentora/internal/platform/request"
	"github.com/trinhvq/mentora/internal/platform/respond"
	"github.com/trinhvq/mentora/internal/platform/sec"
	"github.com/trinhvq/mentora/internal/platform/validate"
	"github.com/trinhvq/mentora/pkg/pagination"
)

// # Routing Strategy
//
//   - Public (v1): Directory listing and profile detail (GET /mentors).
//   - Mentor: Onboarding and availability self-service.
//   - Admin: Verification and the unfiltered profile list.

// # Handler Implementation

// StatsProvider exposes the aggregation rollup for a profile.
type StatsProvider interface {
	Get(ctx context.Context, mentorID string) (*stats.Stats, error)
}

// Handler implements the HTTP layer for mentor directory operations.
type Handler struct {
	service *Service
	stats   StatsProvider
}

// NewHandler constructs a new mentor [Handler].
func NewHandler(service *Service, stats StatsProvider) *Handler {
	return &Handler{service: service, stats: stats}
}

// Routes returns a [chi.Router] configured with mentor endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// ## Public Discovery
	router.Get("/", handler.listBookable)
	router.Get("/{id}", handler.getMentor)
	router.Get("/{id}/stats", handler.getMentorStats)

	// ## Self-Service
	router.Group(func(user chi.Router) {
		user.Use(middleware.RequireAuth)
		user.Post("/", handler.createProfile)
	})
	router.Group(func(self chi.Router) {
		self.Use(middleware.RequireRole(sec.RoleMentor))
		self.Patch("/me/availability", handler.setAvailability)
	})

	// ## Administrative
	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(sec.RoleAdmin))
		admin.Get("/all", handler.listAll)
		admin.Patch("/{id}/verification", handler.setVerification)
	})

	return router
}

// # Directory Endpoints

/*
GET /api/v1/mentors.

Description: Lists every verified mentor in ranking order: best rating
first, unrated last, ties broken by session volume then ID.

Response:
  - 200: []Mentor: Directory listing
*/
func (handler *Handler) listBookable(writer http.ResponseWriter, request *http.Request) {
	mentors, err := handler.service.ListBookable(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, mentors)
}

/*
GET /api/v1/mentors/{id}.

Description: Retrieves one mentor profile by account ID.

Response:
  - 200: Mentor: Success
  - 404: ErrNotFound: No profile for this account
*/
func (handler *Handler) getMentor(writer http.ResponseWriter, request *http.Request) {
	record, err := handler.service.Get(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, record)
}

/*
GET /api/v1/mentors/{id}/stats.

Description: Returns the mentor's rollup computed fresh from session
history: total sessions across every status, average rating over rated
completed sessions (null until one exists), and earnings over completed
sessions at their booked prices.

Response:
  - 200: Stats: Aggregated rollup
  - 404: ErrNotFound: No profile for this account
*/
func (handler *Handler) getMentorStats(writer http.ResponseWriter, request *http.Request) {
	mentorID := requestutil.ID(request, "id")

	// Resolve the profile first so unknown mentors 404 instead of showing
	// an all-zero rollup.
	if _, err := handler.service.Get(request.Context(), mentorID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	rollup, err := handler.stats.Get(request.Context(), mentorID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, rollup)
}

/*
POST /api/v1/mentors.

Description: Onboards the authenticated account as a mentor. The new
profile starts unverified and available, and the account gains the mentor
role.

Request (Body):
  - expertise: []string (at least one tag)
  - languages: []string (optional)
  - years_experience: int
  - hourly_rate: float
  - bio: string (optional)

Response:
  - 201: Mentor: Created profile
  - 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: ErrUnauthorized: Authentication required
  - 409: CONFLICT: Account already has a profile
*/
func (handler *Handler) createProfile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input CreateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.service.CreateProfile(request.Context(), userID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, record)
}

/*
PATCH /api/v1/mentors/me/availability.

Description: Flips the authenticated mentor's own bookable toggle.

Request (Body):
  - is_available: bool

Response:
  - 200: Mentor: Profile after the update
  - 403: ErrForbidden: Missing mentor role
  - 404: ErrNotFound: No profile for this account
*/
func (handler *Handler) setAvailability(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input struct {
		IsAvailable *bool `json:"is_available"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if input.IsAvailable == nil {
		respond.Error(writer, request, validate.RequiredError(FieldIsAvailable, "This field is required"))
		return
	}

	record, err := handler.service.SetAvailability(request.Context(), userID, *input.IsAvailable)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, record)
}

/*
PATCH /api/v1/mentors/{id}/verification.

Description: Grants or revokes a mentor's verification. Admin surface.

Request (Body):
  - is_verified: bool

Response:
  - 200: Mentor: Profile after the update
  - 403: ErrForbidden: Missing admin role
  - 404: ErrNotFound: No profile for this account
*/
func (handler *Handler) setVerification(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input struct {
		IsVerified *bool `json:"is_verified"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if input.IsVerified == nil {
		respond.Error(writer, request, validate.RequiredError(FieldIsVerified, "This field is required"))
		return
	}

	record, err := handler.service.SetVerification(request.Context(), actorID, requestutil.ID(request, "id"), *input.IsVerified)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, record)
}

/*
GET /api/v1/mentors/all.

Description: Paginated list of every profile, verified or not. Admin surface.

Request:
  - limit: int
  - page: int

Response:
  - 200: []Mentor: Paginated list
  - 403: ErrForbidden: Missing admin role
*/
func (handler *Handler) listAll(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)

	mentors, total, err := handler.service.ListAll(request.Context(), paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, mentors, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}
