package handlers

import (
	"context"
	"errors"
	"net/http"

	"asterias/middleware"
	"asterias/models"
	"asterias/services/contact"
	"asterias/utils"

	"github.com/gin-gonic/gin"
)

type ContactSubmitter interface {
	Submit(ctx context.Context, req models.ContactRequest, ip string) (*models.Inquiry, error)
}

type ContactHandler struct {
	svc ContactSubmitter
}

func NewContactHandler(svc ContactSubmitter) *ContactHandler {
	return &ContactHandler{svc: svc}
}

// Submit accepts the contact form as JSON or as a plain form post.
func (h *ContactHandler) Submit(c *gin.Context) {
	var req models.ContactRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}
	inq, err := h.svc.Submit(c.Request.Context(), req, middleware.ClientIP(c))
	var ferr *contact.FieldError
	switch {
	case errors.Is(err, contact.ErrSpam):
		// Bots get the same answer as people.
		c.JSON(http.StatusAccepted, gin.H{"received": true})
	case errors.As(err, &ferr):
		utils.FieldError(c, ferr.Field, ferr.Message)
	case err != nil:
		utils.JSONError(c, http.StatusInternalServerError, "Failed to send message", err.Error())
	default:
		c.JSON(http.StatusAccepted, gin.H{"received": true, "id": inq.ID})
	}
}
