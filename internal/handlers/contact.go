package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crcsite/internal/middleware"
	"crcsite/internal/queue"
)

type contactRequest struct {
	Category string `json:"category"`
	Email    string `json:"email" binding:"omitempty,email"`
	First    string `json:"first" binding:"required,max=32"`
	Last     string `json:"last" binding:"required,max=32"`
	Message  string `json:"message" binding:"required,max=2048"`
}

// Contact accepts the public landing-page contact form and queues the
// message for delivery to the site owner.
func (h HandlerSet) Contact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure(err.Error()))
		return
	}

	h.enqueueContact(c, req, req.Email)
	c.JSON(http.StatusOK, success("Message submitted successfully"))
}

type messageRequest struct {
	Category string `json:"category"`
	First    string `json:"first" binding:"required,max=32"`
	Last     string `json:"last" binding:"required,max=32"`
	Message  string `json:"message" binding:"required,max=2048"`
}

// Message is the authenticated variant; the sender address comes from
// the bearer token, not the request body.
func (h HandlerSet) Message(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure(err.Error()))
		return
	}

	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		middleware.Deny(c)
		return
	}

	h.enqueueContact(c, contactRequest{
		Category: req.Category,
		First:    req.First,
		Last:     req.Last,
		Message:  req.Message,
	}, identity.Email)
	c.JSON(http.StatusOK, success("Message sent successfully"))
}

func (h HandlerSet) enqueueContact(c *gin.Context, req contactRequest, senderEmail string) {
	task := queue.Task{
		Type:     queue.TaskContactEmail,
		Email:    senderEmail,
		First:    req.First,
		Last:     req.Last,
		Category: req.Category,
		Message:  req.Message,
	}
	// Fire-and-forget: a stuck queue must not fail the request.
	if err := h.producer.Enqueue(c.Request.Context(), task); err != nil {
		h.log.Error().Err(err).Msg("enqueue contact message failed")
	}
}
