package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coreadability/coreadability-api/internal/handler/dto"
	"github.com/coreadability/coreadability-api/internal/middleware"
	"github.com/coreadability/coreadability-api/internal/service"
)

// ChatAsker answers a child's chat question
type ChatAsker interface {
	Ask(ctx context.Context, childID uint, sessionID, question, lastBotMessage string) (*service.ChatReply, error)
}

// ChatHandler proxies the child's chat to the backend after the genre heuristic
type ChatHandler struct {
	chat ChatAsker
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat ChatAsker) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Ask handles POST /api/chat
func (h *ChatHandler) Ask(c *gin.Context) {
	var req dto.TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	childID, _ := middleware.AccountID(c)
	reply, err := h.chat.Ask(c.Request.Context(), childID, req.SessionID, req.Text(), req.LastBotMessage)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}
