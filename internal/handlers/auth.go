package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crcsite/internal/middleware"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=32"`
}

func (h HandlerSet) RegisterAccount(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure(err.Error()))
		return
	}

	result, err := h.authService.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.log.Error().Err(err).Msg("register failed")
		c.JSON(http.StatusInternalServerError, failure("Internal server error"))
		return
	}
	if !result.Success {
		c.JSON(http.StatusBadRequest, failure(result.Message))
		return
	}

	c.JSON(http.StatusCreated, success(result.Message))
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates against the credential store and establishes a
// server-side session, returned to the browser as an HTTP-only cookie.
func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure(err.Error()))
		return
	}

	result, err := h.authService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.log.Error().Err(err).Msg("authenticate failed")
		c.JSON(http.StatusInternalServerError, failure("Internal server error"))
		return
	}
	if !result.Success {
		c.JSON(http.StatusUnauthorized, failure(result.Message))
		return
	}

	sessionID, err := h.sessions.Create(c.Request.Context(), result.User.Identity())
	if err != nil {
		h.log.Error().Err(err).Msg("create session failed")
		c.JSON(http.StatusInternalServerError, failure("Internal server error"))
		return
	}

	c.SetCookie(middleware.SessionCookie, sessionID, int(h.sessions.TTL().Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, success(result.Message))
}

func (h HandlerSet) Logout(c *gin.Context) {
	if id, err := c.Cookie(middleware.SessionCookie); err == nil && id != "" {
		if err := h.sessions.Delete(c.Request.Context(), id); err != nil {
			h.log.Error().Err(err).Msg("delete session failed")
		}
	}
	if identity, ok := middleware.CurrentIdentity(c); ok {
		h.log.Info().Str("email", identity.Email).Msg("successful logout")
	}

	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, success("Logged out successfully"))
}

type recoverRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h HandlerSet) Recover(c *gin.Context) {
	var req recoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure(err.Error()))
		return
	}

	result, err := h.authService.RequestRecovery(c.Request.Context(), req.Email)
	if err != nil {
		h.log.Error().Err(err).Msg("recovery request failed")
		c.JSON(http.StatusInternalServerError, failure("Internal server error"))
		return
	}
	if !result.Success {
		c.JSON(http.StatusBadRequest, failure(result.Message))
		return
	}

	c.JSON(http.StatusOK, success(result.Message))
}

type resetRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8,max=32"`
}

func (h HandlerSet) Reset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure(err.Error()))
		return
	}

	result, err := h.authService.ResetPassword(c.Request.Context(), req.Token, req.Password)
	if err != nil {
		h.log.Error().Err(err).Msg("password reset failed")
		c.JSON(http.StatusInternalServerError, failure("Internal server error"))
		return
	}
	if !result.Success {
		c.JSON(http.StatusBadRequest, failure(result.Message))
		return
	}

	c.JSON(http.StatusOK, success(result.Message))
}

type tokenResponse struct {
	baseResponse
	Token string `json:"token"`
}

// Token exchanges credentials for a bearer token carrying the user's
// roles. Both failure modes share the envelope; only the message
// differs, and never in a way that reveals whether the email exists.
func (h HandlerSet) Token(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure(err.Error()))
		return
	}

	result, err := h.authService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.log.Error().Err(err).Msg("authenticate failed")
		c.JSON(http.StatusInternalServerError, failure("Internal server error"))
		return
	}
	if !result.Success {
		c.JSON(http.StatusUnauthorized, failure(result.Message))
		return
	}

	token, err := h.authService.IssueAuthToken(result.User.Email, result.User.Roles)
	if err != nil {
		h.log.Error().Err(err).Msg("issue token failed")
		c.JSON(http.StatusInternalServerError, failure("Internal server error"))
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		baseResponse: success("Token generated successfully"),
		Token:        token,
	})
}
