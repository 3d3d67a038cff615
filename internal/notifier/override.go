package notifier

import (
	"strings"

	"go.uber.org/zap"

	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/admin_chats"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/metrics"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/models"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/repository"
)

// CardEditor rewrites a previously sent card in place. The edit drops
// the review buttons. Implemented by the Telegram bot.
type CardEditor interface {
	EditCard(chatID int64, messageID int, text string) error
}

// Override is one button press on a scam card.
type Override struct {
	RecordID      int64
	AdminChatID   int64 // chat where the button was pressed
	CardMessageID int   // the card message, for the in-place edit
	Label         string // models.HumanLabelScam or models.HumanLabelNotScam
	Reviewer      Reviewer
}

// Reviewer is the admin who pressed the button.
type Reviewer struct {
	TelegramUserID int64
	Username       string
	FirstName      string
	LastName       string
}

// Result tells the transport how to answer the callback.
type Result struct {
	OK        bool
	Answer    string
	ShowAlert bool
}

// OverrideService applies human review decisions: authorization,
// idempotent label write, card redraw. It never touches strikes or
// re-runs enforcement.
type OverrideService struct {
	resolver *admin_chats.Resolver
	users    repository.UserRepository
	records  repository.RecordRepository
	editor   CardEditor
	metrics  metrics.Recorder
	logger   *zap.Logger
}

func NewOverrideService(
	resolver *admin_chats.Resolver,
	userRepo repository.UserRepository,
	recordRepo repository.RecordRepository,
	editor CardEditor,
	rec metrics.Recorder,
	logger *zap.Logger,
) *OverrideService {
	return &OverrideService{
		resolver: resolver,
		users:    userRepo,
		records:  recordRepo,
		editor:   editor,
		metrics:  rec,
		logger:   logger,
	}
}

// Apply runs one review decision. Repeated decisions on the same
// record simply overwrite each other: the last reviewer wins, and the
// card always shows what the database holds.
func (s *OverrideService) Apply(req *Override) Result {
	detail, err := s.records.GetRecordDetail(req.RecordID)
	if err != nil {
		s.logger.Error("Failed to load record for review",
			zap.Int64("record_id", req.RecordID), zap.Error(err))
		return Result{Answer: "Не удалось сохранить решение.", ShowAlert: true}
	}
	if detail == nil {
		return Result{Answer: "Запись уже не найдена в базе.", ShowAlert: true}
	}

	recordChat := &models.Chat{
		TelegramChatID:      detail.ChatTelegramID,
		AdminChatTelegramID: detail.AdminChatTelegramID,
	}
	if !s.resolver.CanReview(req.AdminChatID, recordChat) {
		return Result{Answer: "У этого админ-чата нет доступа к этой записи.", ShowAlert: true}
	}

	reviewer, err := s.users.UpsertUser(req.Reviewer.TelegramUserID, req.Reviewer.Username,
		req.Reviewer.FirstName, req.Reviewer.LastName)
	if err != nil {
		s.logger.Error("Failed to upsert reviewer",
			zap.Int64("record_id", req.RecordID),
			zap.Int64("reviewer_id", req.Reviewer.TelegramUserID),
			zap.Error(err))
		return Result{Answer: "Не удалось сохранить решение.", ShowAlert: true}
	}

	if err := s.records.SetHumanLabel(req.RecordID, req.Label, reviewer.ID); err != nil {
		s.logger.Error("Failed to save review decision",
			zap.Int64("record_id", req.RecordID),
			zap.String("label", req.Label),
			zap.Error(err))
		return Result{Answer: "Не удалось сохранить решение.", ShowAlert: true}
	}
	s.metrics.IncOverride(strings.ToLower(req.Label))

	s.redrawCard(req)

	answer := "Скам подтверждён."
	if req.Label == models.HumanLabelNotScam {
		answer = "Помечено как НЕ скам."
	}
	return Result{OK: true, Answer: answer}
}

// redrawCard re-renders the card from the stored record and edits the
// admin-chat message. Best-effort: the decision is already saved.
func (s *OverrideService) redrawCard(req *Override) {
	detail, err := s.records.GetRecordDetail(req.RecordID)
	if err != nil || detail == nil {
		s.logger.Warn("Failed to reload record for card redraw",
			zap.Int64("record_id", req.RecordID), zap.Error(err))
		return
	}

	text := CardFromDetail(detail).Render()
	if err := s.editor.EditCard(req.AdminChatID, req.CardMessageID, text); err != nil {
		s.logger.Warn("Failed to edit admin card text",
			zap.Int64("record_id", req.RecordID),
			zap.Int64("admin_chat_id", req.AdminChatID),
			zap.Error(err))
	}
}
