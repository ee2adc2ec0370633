package handler

import (
	"errors"
	"net/http"

	"github.com/fabworks/workshop-api/internal/auth"
	"github.com/fabworks/workshop-api/internal/mapper"
	"github.com/fabworks/workshop-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AuthHandler struct {
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

func NewAuthHandler(userRepo *repository.UserRepository, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userRepo: userRepo,
		logger:   logger,
	}
}

// Me godoc
// @Summary Get current authenticated user
// @Description Returns the user record behind the validated bearer token
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.UserDTO
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.userRepo.GetByID(r.Context(), userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("failed to load current user",
			zap.Error(err),
			zap.String("user_id", userCtx.UserID.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to load user")
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToUserDTO(user))
}
