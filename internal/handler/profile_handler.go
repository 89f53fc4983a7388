package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/devscout-auth/internal/models"
	"github.com/noah-isme/devscout-auth/internal/service"
	appErrors "github.com/noah-isme/devscout-auth/pkg/errors"
	"github.com/noah-isme/devscout-auth/pkg/response"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	credentials *service.CredentialService
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(credentials *service.CredentialService) *ProfileHandler {
	return &ProfileHandler{credentials: credentials}
}

// UpdateAvatar godoc
// @Summary Update avatar
// @Tags Profile
// @Accept json
// @Produce json
// @Param payload body models.UpdateAvatarRequest true "Avatar URL"
// @Success 200 {object} UserResponse
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /profile/avatar [put]
func (h *ProfileHandler) UpdateAvatar(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidToken, "authentication required"))
		return
	}

	var req models.UpdateAvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	updated, err := h.credentials.UpdateAvatar(c.Request.Context(), user.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, response.Fields{"user": updated.Info()})
}
