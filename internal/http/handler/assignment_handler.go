package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/fabworks/workshop-api/internal/domain"
	"github.com/fabworks/workshop-api/internal/service"
	"go.uber.org/zap"
)

type AssignmentHandler struct {
	assignmentService *service.AssignmentService
	logger            *zap.Logger
}

func NewAssignmentHandler(assignmentService *service.AssignmentService, logger *zap.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentService: assignmentService,
		logger:            logger,
	}
}

// ListPending godoc
// @Summary List the caller's pending assignments
// @Description Invitations awaiting the fabricator's accept or decline
// @Tags Assignments
// @Produce json
// @Success 200 {array} domain.AssignmentDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /assignments/pending [get]
func (h *AssignmentHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.assignmentService.ListPendingForCurrentUser(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, assignments)
}

// ListHistory godoc
// @Summary List the caller's resolved assignments
// @Description Assignments the fabricator has already accepted or declined
// @Tags Assignments
// @Produce json
// @Success 200 {array} domain.AssignmentDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /assignments/history [get]
func (h *AssignmentHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.assignmentService.ListHistoryForCurrentUser(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, assignments)
}

// GetByID godoc
// @Summary Get assignment by ID
// @Description Visible to the invited fabricator, the project's supervisor and admins
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID" format(uuid)
// @Success 200 {object} domain.AssignmentDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /assignments/{id} [get]
func (h *AssignmentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid assignment ID: must be a valid UUID")
		return
	}

	assignment, err := h.assignmentService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, assignment)
}

// Accept godoc
// @Summary Accept an assignment
// @Description Accepts a pending invitation. The fabricator joins the project and the project moves to planning. A resolved assignment cannot be accepted again.
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID" format(uuid)
// @Param request body domain.RespondAssignmentRequest false "Optional response message"
// @Success 200 {object} domain.ProjectDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError "Only the invited fabricator may respond"
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Assignment already resolved"
// @Security BearerAuth
// @Router /assignments/{id}/accept [post]
func (h *AssignmentHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.assignmentService.Accept)
}

// Decline godoc
// @Summary Decline an assignment
// @Description Declines a pending invitation. A resolved assignment cannot be declined again.
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID" format(uuid)
// @Param request body domain.RespondAssignmentRequest false "Optional response message"
// @Success 200 {object} domain.ProjectDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError "Only the invited fabricator may respond"
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Assignment already resolved"
// @Security BearerAuth
// @Router /assignments/{id}/decline [post]
func (h *AssignmentHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.assignmentService.Decline)
}

// ListByProject godoc
// @Summary List a project's assignments
// @Description Full invitation history for the project. Requires admin or the project's supervisor.
// @Tags Assignments
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Success 200 {array} domain.AssignmentDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /projects/{id}/assignments [get]
func (h *AssignmentHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID: must be a valid UUID")
		return
	}

	assignments, err := h.assignmentService.ListByProject(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, assignments)
}

type respondFunc func(ctx context.Context, assignmentID uuid.UUID, response string) (*domain.ProjectDTO, error)

func (h *AssignmentHandler) respond(w http.ResponseWriter, r *http.Request, fn respondFunc) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid assignment ID: must be a valid UUID")
		return
	}

	// Response body is optional
	var req domain.RespondAssignmentRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			respondValidationError(w, err)
			return
		}
	}

	project, err := fn(r.Context(), id, req.Response)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, project)
}
