package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/fabworks/workshop-api/internal/domain"
	"github.com/fabworks/workshop-api/internal/service"
	"go.uber.org/zap"
)

type WorkLogHandler struct {
	workLogService *service.WorkLogService
	logger         *zap.Logger
}

func NewWorkLogHandler(workLogService *service.WorkLogService, logger *zap.Logger) *WorkLogHandler {
	return &WorkLogHandler{
		workLogService: workLogService,
		logger:         logger,
	}
}

// Record godoc
// @Summary Record work on a project
// @Description Appends a work-log entry and advances the project's progress. Progress never decreases and is capped at 100. Only accepted project members may log work.
// @Tags WorkLogs
// @Accept json
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Param request body domain.RecordWorkRequest true "Work log entry"
// @Success 201 {object} domain.RecordWorkResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError "Caller is not an accepted member of the project"
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Project is completed or cancelled"
// @Security BearerAuth
// @Router /projects/{id}/worklogs [post]
func (h *WorkLogHandler) Record(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID: must be a valid UUID")
		return
	}

	var req domain.RecordWorkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	result, err := h.workLogService.RecordWork(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// ListByProject godoc
// @Summary List a project's work logs
// @Description Visible to the project's manager and its accepted members
// @Tags WorkLogs
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Success 200 {array} domain.WorkLogDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /projects/{id}/worklogs [get]
func (h *WorkLogHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID: must be a valid UUID")
		return
	}

	workLogs, err := h.workLogService.ListByProject(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, workLogs)
}

// ListOwn godoc
// @Summary List the caller's work logs
// @Tags WorkLogs
// @Produce json
// @Success 200 {array} domain.WorkLogDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /worklogs/mine [get]
func (h *WorkLogHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	workLogs, err := h.workLogService.ListOwn(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, workLogs)
}

// ListMaterials godoc
// @Summary List materials used on a project
// @Description Material rows recorded alongside the project's work logs
// @Tags WorkLogs
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Success 200 {array} domain.MaterialDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /projects/{id}/materials [get]
func (h *WorkLogHandler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID: must be a valid UUID")
		return
	}

	materials, err := h.workLogService.ListMaterialsByProject(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, materials)
}
