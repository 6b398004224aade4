package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arklim/learnhub-client/internal/usecase"
	"github.com/arklim/learnhub-client/internal/validation"
)

// AuthHandler exposes the authentication surface of the session manager.
type AuthHandler struct {
	manager *usecase.SessionManager
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(manager *usecase.SessionManager) *AuthHandler {
	return &AuthHandler{manager: manager}
}

// RegisterRoutes binds authentication routes, applying optional middleware
// ahead of the credential-facing handlers.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, signInMiddlewares, signUpMiddlewares, resetMiddlewares []gin.HandlerFunc) {
	r.POST("/signup", append(append([]gin.HandlerFunc{}, signUpMiddlewares...), h.signUp)...)
	r.POST("/signin", append(append([]gin.HandlerFunc{}, signInMiddlewares...), h.signIn)...)
	r.POST("/signout", h.signOut)
	r.POST("/reset-password", append(append([]gin.HandlerFunc{}, resetMiddlewares...), h.resetPassword)...)
	r.GET("/session", h.state)
	r.GET("/user", h.currentUser)
}

func (h *AuthHandler) signUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid sign-up payload"))
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)

	if !validation.IsValidEmail(req.Email) {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid email address"))
		return
	}

	identity, err := h.manager.SignUp(c.Request.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		RespondWithAuthError(c, err, http.StatusBadRequest, "sign-up failed")
		return
	}

	c.JSON(http.StatusCreated, SignUpResponse{
		User:    NewIdentitySummary(identity),
		Message: "verification email sent",
	})
}

func (h *AuthHandler) signIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid sign-in payload"))
		return
	}

	if err := h.manager.SignIn(c.Request.Context(), strings.TrimSpace(req.Email), req.Password); err != nil {
		RespondWithAuthError(c, err, http.StatusUnauthorized, "sign-in failed")
		return
	}

	state := h.manager.Snapshot()
	c.JSON(http.StatusOK, AuthStateResponse{
		User:    NewProfilePayload(state.User),
		Session: NewSessionSummary(state.Session),
		Loading: state.Loading,
	})
}

func (h *AuthHandler) signOut(c *gin.Context) {
	if err := h.manager.SignOut(c.Request.Context()); err != nil {
		RespondWithAuthError(c, err, http.StatusBadGateway, "sign-out failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "signed out"})
}

func (h *AuthHandler) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid reset payload"))
		return
	}

	email := strings.TrimSpace(req.Email)
	if !validation.IsValidEmail(email) {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid email address"))
		return
	}

	if err := h.manager.ResetPassword(c.Request.Context(), email); err != nil {
		RespondWithAuthError(c, err, http.StatusBadRequest, "password reset failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password reset email sent"})
}

func (h *AuthHandler) state(c *gin.Context) {
	state := h.manager.Snapshot()
	c.JSON(http.StatusOK, AuthStateResponse{
		User:    NewProfilePayload(state.User),
		Session: NewSessionSummary(state.Session),
		Loading: state.Loading,
	})
}

// currentUser verifies the held token against the provider and returns the
// verified identity, provisioning the profile row when it is missing.
func (h *AuthHandler) currentUser(c *gin.Context) {
	identity, err := h.manager.GetCurrentUser(c.Request.Context())
	if err != nil {
		RespondWithAuthError(c, err, http.StatusUnauthorized, "fetch user failed")
		return
	}
	if identity == nil {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":    NewIdentitySummary(identity),
		"profile": NewProfilePayload(h.manager.CurrentUser()),
	})
}
