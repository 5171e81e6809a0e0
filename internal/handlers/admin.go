package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type adminUser struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Roles         []string  `json:"roles"`
	AuthFailCount int       `json:"authFailCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// AdminListUsers returns every registered user with roles and lockout
// state. Session-guarded, admin role required.
func (h HandlerSet) AdminListUsers(c *gin.Context) {
	users, err := h.authService.ListUsers(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list users failed")
		c.JSON(http.StatusInternalServerError, failure("Internal server error"))
		return
	}

	resp := make([]adminUser, 0, len(users))
	for _, user := range users {
		resp = append(resp, adminUser{
			ID:            user.ID,
			Email:         user.Email,
			Roles:         user.Roles,
			AuthFailCount: user.AuthFailCount,
			CreatedAt:     user.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"users":  resp,
	})
}

// AdminListRoles returns the role catalog.
func (h HandlerSet) AdminListRoles(c *gin.Context) {
	roles, err := h.roles.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list roles failed")
		c.JSON(http.StatusInternalServerError, failure("Internal server error"))
		return
	}

	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.Name)
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"roles":  names,
	})
}
