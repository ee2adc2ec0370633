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

type RevenueHandler struct {
	revenueService *service.RevenueService
	logger         *zap.Logger
}

func NewRevenueHandler(revenueService *service.RevenueService, logger *zap.Logger) *RevenueHandler {
	return &RevenueHandler{
		revenueService: revenueService,
		logger:         logger,
	}
}

// Allocate godoc
// @Summary Allocate revenue to fabricators
// @Description Replaces the revenue allocations for the listed fabricators in one batch. The batch is rejected whole if the resulting total would exceed the project's revenue.
// @Tags Revenue
// @Accept json
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Param request body domain.AllocateRevenueRequest true "Allocations keyed by fabricator ID"
// @Success 200 {object} domain.ProjectDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 422 {object} domain.APIError "Batch exceeds project revenue; errors.excess carries the overage"
// @Security BearerAuth
// @Router /projects/{id}/revenue/allocations [put]
func (h *RevenueHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID: must be a valid UUID")
		return
	}

	var req domain.AllocateRevenueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	project, err := h.revenueService.Allocate(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, project)
}

// SplitEqually godoc
// @Summary Split revenue equally among fabricators
// @Description Divides the project revenue over all accepted fabricators, truncating each share to two decimals
// @Tags Revenue
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Success 200 {object} domain.ProjectDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 422 {object} domain.APIError "Project has no fabricators"
// @Security BearerAuth
// @Router /projects/{id}/revenue/split-equally [post]
func (h *RevenueHandler) SplitEqually(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID: must be a valid UUID")
		return
	}

	project, err := h.revenueService.SplitEqually(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, project)
}

// ClearAll godoc
// @Summary Clear all revenue allocations
// @Description Resets every fabricator's revenue allocation on the project to zero
// @Tags Revenue
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Success 200 {object} domain.ProjectDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /projects/{id}/revenue/allocations [delete]
func (h *RevenueHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID: must be a valid UUID")
		return
	}

	project, err := h.revenueService.ClearAll(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, project)
}

// ListByProject godoc
// @Summary List a project's revenue allocations
// @Tags Revenue
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Success 200 {array} domain.FabricatorBudgetDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /projects/{id}/revenue/allocations [get]
func (h *RevenueHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID: must be a valid UUID")
		return
	}

	budgets, err := h.revenueService.ListByProject(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, budgets)
}
