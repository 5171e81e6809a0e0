package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crcsite/internal/middleware"
)

type accountRequest struct {
	Password string `json:"password" binding:"required,min=8,max=32"`
}

// ChangePassword updates the password of the account named by the
// bearer token's subject.
func (h HandlerSet) ChangePassword(c *gin.Context) {
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure(err.Error()))
		return
	}

	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		middleware.Deny(c)
		return
	}

	result, err := h.authService.ChangePassword(c.Request.Context(), identity.Email, req.Password)
	if err != nil {
		h.log.Error().Err(err).Msg("change password failed")
		c.JSON(http.StatusInternalServerError, failure("Internal server error"))
		return
	}
	if !result.Success {
		c.JSON(http.StatusBadRequest, failure(result.Message))
		return
	}

	c.JSON(http.StatusOK, success(result.Message))
}

// DeleteAccount removes the token subject's account and its role
// assignments.
func (h HandlerSet) DeleteAccount(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		middleware.Deny(c)
		return
	}

	result, err := h.authService.DeleteAccount(c.Request.Context(), identity.Email)
	if err != nil {
		h.log.Error().Err(err).Msg("delete account failed")
		c.JSON(http.StatusInternalServerError, failure("Internal server error"))
		return
	}
	if !result.Success {
		c.JSON(http.StatusBadRequest, failure(result.Message))
		return
	}

	c.JSON(http.StatusOK, success(result.Message))
}
