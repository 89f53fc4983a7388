package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/devscout-auth/internal/models"
	"github.com/noah-isme/devscout-auth/internal/service"
	"github.com/noah-isme/devscout-auth/pkg/cookie"
	appErrors "github.com/noah-isme/devscout-auth/pkg/errors"
	"github.com/noah-isme/devscout-auth/pkg/response"
)

// AuthHandler wires HTTP endpoints to the auth services.
type AuthHandler struct {
	auth        *service.AuthService
	credentials *service.CredentialService
	resets      *service.PasswordResetService
	cookies     *cookie.Manager
	logger      *zap.Logger
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(auth *service.AuthService, credentials *service.CredentialService, resets *service.PasswordResetService, cookies *cookie.Manager, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: auth, credentials: credentials, resets: resets, cookies: cookies, logger: logger}
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate by username and password, set the session cookies
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.cookies.SetSession(c, res.Tokens.AccessToken, res.Tokens.RefreshToken)
	response.OK(c, response.Fields{
		"user":         res.User,
		"token":        res.Tokens.AccessToken,
		"refreshToken": res.Tokens.RefreshToken,
	})
}

// Register godoc
// @Summary Register account
// @Description Create a USER account
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	if _, err := h.credentials.Register(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, nil)
}

// Logout godoc
// @Summary Logout current session
// @Description Revoke the caller's session and clear both cookies
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	err := h.auth.Logout(c.Request.Context(), h.cookies.AccessToken(c), h.cookies.RefreshToken(c))
	h.cookies.ClearSession(c)
	if err != nil {
		h.logger.Error("logout revocation failed", zap.Error(err))
		response.Error(c, err)
		return
	}
	response.OK(c, nil)
}

// Verify godoc
// @Summary Current session
// @Description Returns the authenticated user, rotating the refresh token when the access token expired
// @Tags Authentication
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 401 {object} response.Envelope
// @Router /verify [get]
func (h *AuthHandler) Verify(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidToken, "authentication required"))
		return
	}
	response.OK(c, response.Fields{"user": user.Info()})
}

// ForgotPassword godoc
// @Summary Request reset code
// @Description Issue a six digit reset code and deliver it out of band
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.ForgotPasswordRequest true "Account email"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	res, err := h.resets.Request(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	fields := response.Fields{"message": "a reset code has been sent"}
	if res.Code != "" {
		fields["resetCode"] = res.Code
	}
	response.OK(c, fields)
}

// ResetPassword godoc
// @Summary Reset password
// @Description Redeem a reset code and replace the password; all sessions are revoked
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.ResetPasswordRequest true "Reset payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.resets.Redeem(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	h.cookies.ClearSession(c)
	response.OK(c, nil)
}

// LoginResponse documents the login body.
type LoginResponse struct {
	Success      bool            `json:"success"`
	User         models.UserInfo `json:"user"`
	Token        string          `json:"token"`
	RefreshToken string          `json:"refreshToken"`
}

// UserResponse documents bodies carrying the current user.
type UserResponse struct {
	Success bool            `json:"success"`
	User    models.UserInfo `json:"user"`
}
