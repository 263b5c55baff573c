package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/soundshare-api/internal/constants"
	"github.com/yukikurage/soundshare-api/internal/dto"
	apierrors "github.com/yukikurage/soundshare-api/internal/errors"
	"github.com/yukikurage/soundshare-api/internal/middleware"
	"github.com/yukikurage/soundshare-api/internal/services"
)

const signupMessage = "Check your email to activate your account"

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Signup registers a new user. Spam and bot signups never get a session.
func (h *AuthHandler) Signup(c *gin.Context) {
	type SignupRequest struct {
		Login    string `json:"login" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Website  string `json:"website"` // honeypot
	}

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.Signup(c.Request.Context(), services.SignupInput{
		Login:     req.Login,
		Email:     req.Email,
		Password:  req.Password,
		Honeypot:  req.Website,
		RemoteIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referrer:  c.Request.Referer(),
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	switch result.Outcome {
	case services.SignupDeniedSpam:
		clearSession(c)
		c.JSON(http.StatusAccepted, dto.SignupResponse{
			Message: "Your account looks like spam to us and was not created. Contact support if this is a mistake.",
		})
	case services.SignupBot:
		c.JSON(http.StatusCreated, dto.SignupResponse{Message: signupMessage})
	default:
		userDTO := dto.ToUserDTO(*result.User)
		c.JSON(http.StatusCreated, dto.SignupResponse{Message: signupMessage, User: &userDTO})
	}
}

// Activate confirms the email address and logs the user in.
func (h *AuthHandler) Activate(c *gin.Context) {
	user, err := h.authService.Activate(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondAuthError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(constants.ContextKeyUserID, user.ID)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.JSON(http.StatusOK, dto.ToMeDTO(*user))
}

// Login authenticates a user and initializes the session.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Login    string `json:"login" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.Login(services.LoginInput{
		Login:    req.Login,
		Password: req.Password,
		RemoteIP: c.ClientIP(),
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(constants.ContextKeyUserID, user.ID)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.JSON(http.StatusOK, dto.ToMeDTO(*user))
}

// Logout removes the authentication session.
func (h *AuthHandler) Logout(c *gin.Context) {
	if !clearSession(c) {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the authenticated user. A session that outlived its
// account is cleared.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := h.authService.GetUser(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			clearSession(c)
			apierrors.Unauthorized(c, "Not authenticated")
			return
		}
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMeDTO(*user))
}

func clearSession(c *gin.Context) bool {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	return session.Save() == nil
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrInvalidLogin),
		errors.Is(err, services.ErrInvalidEmail):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrLoginTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c, err.Error())
	case errors.Is(err, services.ErrNotActivated):
		apierrors.NotActivated(c, "Please activate your account first")
	case errors.Is(err, services.ErrInvalidActivationToken):
		apierrors.NotFound(c, "Activation link is invalid or was already used")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrFailedToHashPassword),
		errors.Is(err, services.ErrFailedToCreateUser):
		apierrors.InternalError(c, "Failed to create account")
	default:
		apierrors.InternalError(c, "")
	}
}
