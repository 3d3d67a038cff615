package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/models"
)

type stubChatRepo struct {
	summaries    []*models.ChatSummary
	summariesErr error
	chat         *models.Chat
}

func (s *stubChatRepo) UpsertChat(telegramChatID int64, title, chatType string) (*models.Chat, error) {
	return nil, nil
}
func (s *stubChatRepo) GetChatByTelegramID(telegramChatID int64) (*models.Chat, error) {
	return nil, nil
}
func (s *stubChatRepo) GetChatByID(id int64) (*models.Chat, error) { return s.chat, nil }
func (s *stubChatRepo) GetChatSummaries() ([]*models.ChatSummary, error) {
	return s.summaries, s.summariesErr
}
func (s *stubChatRepo) SetAdminChat(telegramChatID, adminChatTelegramID int64) error { return nil }
func (s *stubChatRepo) IsBoundAdminChat(telegramChatID int64) (bool, error)          { return false, nil }
func (s *stubChatRepo) GetManagedChats(adminChatTelegramID int64) ([]*models.Chat, error) {
	return nil, nil
}

func chatsRouter(repo *stubChatRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewChatHandler(repo, zap.NewNop())
	r := gin.New()
	r.GET("/api/chats", h.ListChats)
	r.GET("/api/chats/:id", h.GetChatByID)
	return r
}

func TestListChats_WithCounters(t *testing.T) {
	last := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)
	repo := &stubChatRepo{summaries: []*models.ChatSummary{{
		Chat:          models.Chat{ID: 3, TelegramChatID: -100500, Title: "Барахолка", ChatType: "supergroup"},
		MessageCount:  42,
		ScamCount:     7,
		LastMessageAt: &last,
	}}}

	w := getJSON(chatsRouter(repo), "/api/chats")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
	assert.Contains(t, w.Body.String(), `"message_count":42`)
	assert.Contains(t, w.Body.String(), `"scam_count":7`)
	assert.Contains(t, w.Body.String(), "Барахолка")
}

func TestListChats_RepoError(t *testing.T) {
	repo := &stubChatRepo{summariesErr: errors.New("db down")}

	w := getJSON(chatsRouter(repo), "/api/chats")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetChatByID_NotFound(t *testing.T) {
	w := getJSON(chatsRouter(&stubChatRepo{}), "/api/chats/9")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetChatByID_BadID(t *testing.T) {
	w := getJSON(chatsRouter(&stubChatRepo{}), "/api/chats/abc")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetChatByID_Found(t *testing.T) {
	repo := &stubChatRepo{chat: &models.Chat{ID: 9, TelegramChatID: -100500, Title: "Чат", ChatType: "group"}}

	w := getJSON(chatsRouter(repo), "/api/chats/9")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"telegram_chat_id":-100500`)
}
