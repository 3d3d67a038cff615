package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/repository"
)

type ChatHandler interface {
	ListChats(c *gin.Context)
	GetChatByID(c *gin.Context)
}

type chatHandler struct {
	chatRepo repository.ChatRepository
	logger   *zap.Logger
}

func NewChatHandler(chatRepo repository.ChatRepository, logger *zap.Logger) ChatHandler {
	return &chatHandler{chatRepo: chatRepo, logger: logger}
}

// ListChats handles GET /api/chats. Every chat the bot has seen, with
// its moderation counters, busiest first.
func (h *chatHandler) ListChats(c *gin.Context) {
	chats, err := h.chatRepo.GetChatSummaries()
	if err != nil {
		h.logger.Error("Failed to list chats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve chats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats, "count": len(chats)})
}

// GetChatByID handles GET /api/chats/:id
func (h *chatHandler) GetChatByID(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.logger.Error("Invalid chat ID", zap.String("id", idStr), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat ID"})
		return
	}

	chat, err := h.chatRepo.GetChatByID(id)
	if err != nil {
		h.logger.Error("Failed to get chat", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve chat"})
		return
	}
	if chat == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat": chat})
}
