package handlers

import (
	"net/http"

	"github.com/pluzgi/chatbot-study-sub001/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ClickHandler struct {
	log *zap.Logger
}

func NewClickHandler(log *zap.Logger) *ClickHandler {
	return &ClickHandler{log: log}
}

// Increment bumps an anonymous UI counter. The event name must come from
// the declared set; everything else about the call is fire-and-forget.
func (h *ClickHandler) Increment(c *gin.Context) {
	if err := repository.IncrementClickCounter(c.Request.Context(), c.Param("event")); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
