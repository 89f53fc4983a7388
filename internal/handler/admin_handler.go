package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/devscout-auth/internal/service"
	"github.com/noah-isme/devscout-auth/pkg/response"
)

// AdminHandler exposes administrator actions.
type AdminHandler struct {
	auth *service.AuthService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(auth *service.AuthService) *AdminHandler {
	return &AdminHandler{auth: auth}
}

// RevokeSessions godoc
// @Summary Revoke user sessions
// @Description Ends every session of the given user. ADMIN only.
// @Tags Admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{id}/sessions [delete]
func (h *AdminHandler) RevokeSessions(c *gin.Context) {
	if err := h.auth.RevokeUserSessions(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil)
}
