package handlers

import (
	"net/http"
	"strings"

	"github.com/pluzgi/chatbot-study-sub001/internal/repository"
	"github.com/pluzgi/chatbot-study-sub001/internal/services"
	"github.com/pluzgi/chatbot-study-sub001/internal/study"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxChatMessageLen = 1000

type ChatHandler struct {
	log  *zap.Logger
	chat *services.ChatService
}

func NewChatHandler(log *zap.Logger, chat *services.ChatService) *ChatHandler {
	return &ChatHandler{log: log, chat: chat}
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

// Relay forwards one conversation turn to the hosted model, persists both
// sides, and returns the reply with the updated turn count. The turn count
// is what later gates the donation prompt.
func (h *ChatHandler) Relay(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" || len(message) > maxChatMessageLen {
		writeError(c, h.log, study.NewValidationError("message", "message must be 1-1000 characters"))
		return
	}

	id := c.Param("id")
	p, err := repository.GetParticipant(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if p.CurrentPhase != study.PhaseChatbot {
		writeError(c, h.log, study.NewValidationError("phase", "chat is only available during the chatbot phase"))
		return
	}

	history, err := repository.GetChatHistory(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	reply, err := h.chat.Reply(c.Request.Context(), history, message, p.Language)
	if err != nil {
		h.log.Error("Chat relay call failed", zap.String("participantID", id), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "chat_unavailable"})
		return
	}

	turns, err := repository.AppendChatTurn(c.Request.Context(), id, message, reply)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reply": reply,
		"turns": turns,
	})
}
