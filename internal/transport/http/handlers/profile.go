package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/learnhub-client/internal/core/domain"
	"github.com/arklim/learnhub-client/internal/usecase"
)

// ProfileHandler exposes the current user's profile.
type ProfileHandler struct {
	manager *usecase.SessionManager
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(manager *usecase.SessionManager) *ProfileHandler {
	return &ProfileHandler{manager: manager}
}

// RegisterRoutes binds profile routes.
func (h *ProfileHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.get)
	r.PATCH("", h.update)
}

func (h *ProfileHandler) get(c *gin.Context) {
	profile := h.manager.CurrentUser()
	if profile == nil {
		c.JSON(http.StatusNotFound, NewErrorResponse(c, "profile not provisioned yet"))
		return
	}

	c.JSON(http.StatusOK, NewProfilePayload(profile))
}

func (h *ProfileHandler) update(c *gin.Context) {
	var req ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid profile payload"))
		return
	}

	update := domain.ProfileUpdate{
		FullName:    req.FullName,
		AvatarURL:   req.AvatarURL,
		Preferences: req.Preferences,
	}
	if update.IsEmpty() {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "no fields to update"))
		return
	}

	profile, err := h.manager.UpdateProfile(c.Request.Context(), update)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrNotAuthenticated, Status: http.StatusUnauthorized, Message: "authentication required"},
		}, http.StatusInternalServerError, "profile update failed")
		return
	}

	c.JSON(http.StatusOK, NewProfilePayload(profile))
}
