package handlers

import (
	"net/http"

	"github.com/pluzgi/chatbot-study-sub001/internal/config"
	"github.com/pluzgi/chatbot-study-sub001/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StatsHandler struct {
	log *zap.Logger
}

func NewStatsHandler(log *zap.Logger) *StatsHandler {
	return &StatsHandler{log: log}
}

// ParticipantCount reports completed human participations against the
// configured recruitment goal. The landing page shows this number.
func (h *StatsHandler) ParticipantCount(c *gin.Context) {
	count, err := repository.CountCompleted(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  count,
		"target": config.Conf.Study.RecruitmentTarget,
	})
}
