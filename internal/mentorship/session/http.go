// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package session

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/trinhvq/mentora/internal/platform/middleware"
	requestutil "github.com/trinhvq/mentora/internal/platform/request"
	"github.com/trinhvq/mentora/internal/platform/respond"
	"github.com/trinhvq/mentora/internal/platform/sec"
	"github.com/trinhvq/mentora/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for session lifecycle operations.
type Handler struct {
	service *Service
}

// NewHandler constructs a new session [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with session endpoints.
//
// Every route requires authentication; booking additionally requires the
// learner role, feedback likewise, and the firehose listing is admin-only.
// Transition authorization (which party may trigger which edge) lives in
// the service, because it depends on the session's owners, not on roles.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(user chi.Router) {
		user.Use(middleware.RequireAuth)
		user.Get("/{id}", handler.getSession)
		user.Patch("/{id}/status", handler.transitionSession)
	})

	router.Group(func(learner chi.Router) {
		learner.Use(middleware.RequireRole(sec.RoleLearner))
		learner.Post("/", handler.bookSession)
		learner.Get("/learning", handler.listAsLearner)
		learner.Post("/{id}/feedback", handler.submitFeedback)
	})

	router.Group(func(mentor chi.Router) {
		mentor.Use(middleware.RequireRole(sec.RoleMentor))
		mentor.Get("/mentoring", handler.listAsMentor)
	})

	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(sec.RoleAdmin))
		admin.Get("/", handler.listAllSessions)
	})

	return router
}

// # Session Endpoints

/*
POST /api/v1/sessions.

Description: Books a new pending session with a verified, available mentor.
The price is snapshotted from the mentor's current hourly rate.

Request (Body):
  - mentor_id: string (UUID)
  - duration_minutes: int (15-480)
  - scheduled_at: timestamp (optional requested slot)

Response:
  - 201: Session: Created pending session
  - 400: ErrInvalidJSON/Validation: Invalid input data
  - 403: ErrForbidden: Missing learner role
  - 422: SELF_BOOKING / MENTOR_UNAVAILABLE
*/
func (handler *Handler) bookSession(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input BookInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.service.Book(request.Context(), userID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, record)
}

/*
GET /api/v1/sessions/{id}.

Description: Retrieves one session. Visible to its learner, its mentor, and admins.

Response:
  - 200: Session: Success
  - 403: ErrForbidden: Not a party to the session
  - 404: ErrNotFound: Session not found
*/
func (handler *Handler) getSession(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.service.Get(request.Context(), claims, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, record)
}

/*
PATCH /api/v1/sessions/{id}/status.

Description: Moves a session through its lifecycle. Re-requesting the current
status is an idempotent no-op success; a lost race returns a conflict.

Request (Body):
  - status: string (pending|scheduled|completed|cancelled)
  - scheduled_at: timestamp (optional confirmed slot, set on accept)

Response:
  - 200: Session: Session after the transition
  - 403: ErrForbidden: Actor may not trigger this edge
  - 404: ErrNotFound: Session not found
  - 409: CONFLICT: Concurrent modification lost the race
  - 422: INVALID_TRANSITION: No such edge in the state machine
*/
func (handler *Handler) transitionSession(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input TransitionInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.service.Transition(request.Context(), userID, requestutil.ID(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, record)
}

/*
POST /api/v1/sessions/{id}/feedback.

Description: Records the learner's one-time rating (1-5) and optional review
for a completed session.

Request (Body):
  - rating: int (1-5)
  - review: string (optional)

Response:
  - 200: Session: Session carrying the feedback
  - 403: ErrForbidden: Actor is not the session's learner
  - 409: CONFLICT: Feedback already submitted
  - 422: NOT_COMPLETED: Session has not completed
*/
func (handler *Handler) submitFeedback(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input FeedbackInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.service.SubmitFeedback(request.Context(), userID, requestutil.ID(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, record)
}

/*
GET /api/v1/sessions/learning.

Description: Lists the authenticated learner's sessions, newest first.

Response:
  - 200: []Session: Success
*/
func (handler *Handler) listAsLearner(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessions, err := handler.service.ListAsLearner(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sessions)
}

/*
GET /api/v1/sessions/mentoring.

Description: Lists the authenticated mentor's sessions, newest first.

Response:
  - 200: []Session: Success
*/
func (handler *Handler) listAsMentor(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessions, err := handler.service.ListAsMentor(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sessions)
}

/*
GET /api/v1/sessions.

Description: Paginated firehose of every session. Admin surface.

Request:
  - limit: int
  - page: int

Response:
  - 200: []Session: Paginated list
  - 403: ErrForbidden: Missing admin role
*/
func (handler *Handler) listAllSessions(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)

	sessions, total, err := handler.service.ListAll(request.Context(), paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, sessions, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}
