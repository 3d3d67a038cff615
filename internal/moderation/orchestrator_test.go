package moderation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/admin_chats"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/llm_client"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/metrics"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/models"
)

// memStore is an in-memory stand-in for all four repositories.
type memStore struct {
	chats   map[int64]*models.Chat // keyed by telegram chat id
	users   map[int64]*models.User // keyed by telegram user id
	members map[string]*models.ChatMember
	records []*models.ModerationRecord

	boundAdminChats map[int64]bool

	nextChatID int64
	nextUserID int64

	upsertChatErr error
	insertErr     error
	strikeErr     error
}

func newMemStore() *memStore {
	return &memStore{
		chats:           make(map[int64]*models.Chat),
		users:           make(map[int64]*models.User),
		members:         make(map[string]*models.ChatMember),
		boundAdminChats: make(map[int64]bool),
	}
}

func memberKey(chatID, userID int64) string {
	return fmt.Sprintf("%d:%d", chatID, userID)
}

func (s *memStore) UpsertChat(telegramChatID int64, title, chatType string) (*models.Chat, error) {
	if s.upsertChatErr != nil {
		return nil, s.upsertChatErr
	}
	if c, ok := s.chats[telegramChatID]; ok {
		c.Title = title
		c.ChatType = chatType
		return c, nil
	}
	s.nextChatID++
	c := &models.Chat{ID: s.nextChatID, TelegramChatID: telegramChatID, Title: title, ChatType: chatType}
	s.chats[telegramChatID] = c
	return c, nil
}

func (s *memStore) GetChatByTelegramID(telegramChatID int64) (*models.Chat, error) {
	return s.chats[telegramChatID], nil
}

func (s *memStore) GetChatByID(id int64) (*models.Chat, error) {
	for _, c := range s.chats {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (s *memStore) GetChatSummaries() ([]*models.ChatSummary, error) { return nil, nil }

func (s *memStore) SetAdminChat(telegramChatID, adminChatTelegramID int64) error { return nil }

func (s *memStore) IsBoundAdminChat(telegramChatID int64) (bool, error) {
	return s.boundAdminChats[telegramChatID], nil
}

func (s *memStore) GetManagedChats(adminChatTelegramID int64) ([]*models.Chat, error) {
	return nil, nil
}

func (s *memStore) UpsertUser(telegramUserID int64, username, firstName, lastName string) (*models.User, error) {
	if u, ok := s.users[telegramUserID]; ok {
		u.Username, u.FirstName, u.LastName = username, firstName, lastName
		return u, nil
	}
	s.nextUserID++
	u := &models.User{ID: s.nextUserID, TelegramUserID: telegramUserID,
		Username: username, FirstName: firstName, LastName: lastName}
	s.users[telegramUserID] = u
	return u, nil
}

func (s *memStore) GetUserByTelegramID(telegramUserID int64) (*models.User, error) {
	return s.users[telegramUserID], nil
}

func (s *memStore) EnsureMember(chatID, userID int64) (*models.ChatMember, error) {
	key := memberKey(chatID, userID)
	if m, ok := s.members[key]; ok {
		return m, nil
	}
	m := &models.ChatMember{ChatID: chatID, UserID: userID}
	s.members[key] = m
	return m, nil
}

func (s *memStore) GetMember(chatID, userID int64) (*models.ChatMember, error) {
	return s.members[memberKey(chatID, userID)], nil
}

func (s *memStore) IncrementStrikes(chatID, userID int64) (int, error) {
	if s.strikeErr != nil {
		return 0, s.strikeErr
	}
	m, _ := s.EnsureMember(chatID, userID)
	m.StrikeCount++
	now := time.Now().UTC()
	m.LastStrikeAt = &now
	return m.StrikeCount, nil
}

func (s *memStore) GetTopOffenders(chatIDs []int64, limit int) ([]*models.TopOffender, error) {
	return nil, nil
}

func (s *memStore) InsertRecord(rec *models.ModerationRecord) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	rec.ID = int64(len(s.records) + 1)
	s.records = append(s.records, rec)
	return nil
}

func (s *memStore) GetRecordByID(id int64) (*models.ModerationRecord, error)     { return nil, nil }
func (s *memStore) GetRecordDetail(id int64) (*models.RecordDetail, error)       { return nil, nil }
func (s *memStore) SetHumanLabel(recordID int64, label string, by int64) error   { return nil }
func (s *memStore) GetStats(chatIDs []int64) (*models.ModerationStats, error)    { return nil, nil }
func (s *memStore) GetTopScammers(c []int64, l int) ([]*models.TopScammer, error) { return nil, nil }
func (s *memStore) GetRecentScams(c []int64, l int) ([]*models.RecordDetail, error) {
	return nil, nil
}
func (s *memStore) GetRecentRecords(limit, offset int) ([]*models.RecordDetail, error) {
	return nil, nil
}

// fakeTransport records every enforcement call.
type fakeTransport struct {
	admins map[int64]bool

	deleted    []int64 // message ids
	notices    []string
	restricted []int64
	muteUntil  time.Time
	banned     []int64

	adminErr  error
	deleteErr error
}

func (f *fakeTransport) IsChatAdmin(chatID, userID int64) (bool, error) {
	if f.adminErr != nil {
		return false, f.adminErr
	}
	return f.admins[userID], nil
}

func (f *fakeTransport) SendMessageHTML(chatID int64, text string) error {
	f.notices = append(f.notices, text)
	return nil
}

func (f *fakeTransport) DeleteMessage(chatID int64, messageID int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeTransport) RestrictMember(chatID, userID int64, until time.Time) error {
	f.restricted = append(f.restricted, userID)
	f.muteUntil = until
	return nil
}

func (f *fakeTransport) BanMember(chatID, userID int64) error {
	f.banned = append(f.banned, userID)
	return nil
}

type fakeClassifier struct {
	result *llm_client.Result
	err    error
	calls  int
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (*llm_client.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakeNotifier struct {
	events []*ScamEvent
}

func (f *fakeNotifier) NotifyScam(ev *ScamEvent) {
	f.events = append(f.events, ev)
}

// pipeline bundles the orchestrator with its fakes for assertions.
type pipeline struct {
	orch       *Orchestrator
	store      *memStore
	transport  *fakeTransport
	classifier *fakeClassifier
	notifier   *fakeNotifier
}

func newPipeline(globals []int64, result *llm_client.Result, classifyErr error) *pipeline {
	store := newMemStore()
	transport := &fakeTransport{admins: make(map[int64]bool)}
	classifier := &fakeClassifier{result: result, err: classifyErr}
	notifier := &fakeNotifier{}
	resolver := admin_chats.NewResolver(store, globals, zap.NewNop())

	orch := NewOrchestrator(0.70, transport, classifier, resolver,
		store, store, store, store, notifier, metrics.NewRecorder(false), zap.NewNop())

	return &pipeline{orch: orch, store: store, transport: transport,
		classifier: classifier, notifier: notifier}
}

func scamVerdict(confidence float64) *llm_client.Result {
	return &llm_client.Result{
		Label:        "SCAM",
		Category:     "job_scam",
		Confidence:   confidence,
		Reason:       "обещание быстрых денег",
		ModelVersion: "gpt-test",
	}
}

func okVerdict() *llm_client.Result {
	return &llm_client.Result{
		Label:        "OK",
		Category:     "none",
		Confidence:   0.9,
		Reason:       "обычное сообщение",
		ModelVersion: "gpt-test",
	}
}

func groupMsg() *IncomingMessage {
	return &IncomingMessage{
		ChatID:    -500,
		ChatTitle: "Чат беженцев",
		ChatType:  "supergroup",
		MessageID: 77,
		Sender:    &Sender{TelegramUserID: 900, Username: "spammer", FirstName: "Спам"},
		Text:      "Заработок от 500$ в день, пиши в лс",
	}
}

func TestHandleMessage_EffectiveScam(t *testing.T) {
	p := newPipeline(nil, scamVerdict(0.93), nil)

	p.orch.HandleMessage(context.Background(), groupMsg())

	require.Len(t, p.store.records, 1)
	rec := p.store.records[0]
	assert.True(t, rec.IsScamEffective)
	assert.Nil(t, rec.SkippedReason)
	require.NotNil(t, rec.StrikeCount)
	assert.Equal(t, 1, *rec.StrikeCount)
	assert.Equal(t, "Заработок от 500$ в день, пиши в лс", rec.Text)

	assert.Equal(t, []int64{77}, p.transport.deleted)
	require.Len(t, p.transport.notices, 1)
	assert.Contains(t, p.transport.notices[0], "возможный скам")
	assert.Empty(t, p.transport.restricted)
	assert.Empty(t, p.transport.banned)

	require.Len(t, p.notifier.events, 1)
	ev := p.notifier.events[0]
	assert.Equal(t, 1, ev.StrikeCount)
	assert.Equal(t, int64(-500), ev.Chat.TelegramChatID)
	assert.Equal(t, int64(900), ev.User.TelegramUserID)
	assert.Equal(t, rec, ev.Record)
}

func TestHandleMessage_ThresholdBoundaryIsEffective(t *testing.T) {
	p := newPipeline(nil, scamVerdict(0.70), nil)

	p.orch.HandleMessage(context.Background(), groupMsg())

	require.Len(t, p.store.records, 1)
	assert.True(t, p.store.records[0].IsScamEffective)
	assert.Len(t, p.notifier.events, 1)
}

func TestHandleMessage_LowConfidenceScam(t *testing.T) {
	p := newPipeline(nil, scamVerdict(0.45), nil)

	p.orch.HandleMessage(context.Background(), groupMsg())

	require.Len(t, p.store.records, 1)
	rec := p.store.records[0]
	assert.False(t, rec.IsScamEffective)
	require.NotNil(t, rec.SkippedReason)
	assert.Equal(t, models.SkipReasonLowConfidence, *rec.SkippedReason)
	assert.Nil(t, rec.StrikeCount)

	// Stored but never enforced or announced.
	assert.Empty(t, p.transport.deleted)
	assert.Empty(t, p.transport.notices)
	assert.Empty(t, p.notifier.events)

	member := p.store.members[memberKey(1, 1)]
	require.NotNil(t, member)
	assert.Zero(t, member.StrikeCount)
}

func TestHandleMessage_OKVerdict(t *testing.T) {
	p := newPipeline(nil, okVerdict(), nil)

	p.orch.HandleMessage(context.Background(), groupMsg())

	require.Len(t, p.store.records, 1)
	rec := p.store.records[0]
	assert.False(t, rec.IsScamEffective)
	assert.Nil(t, rec.SkippedReason)
	assert.Nil(t, rec.StrikeCount)
	assert.Empty(t, p.transport.deleted)
	assert.Empty(t, p.notifier.events)
}

func TestHandleMessage_ClassifierErrorPersistsNothing(t *testing.T) {
	p := newPipeline(nil, nil, errors.New("timeout"))

	p.orch.HandleMessage(context.Background(), groupMsg())

	assert.Empty(t, p.store.records)
	assert.Empty(t, p.store.chats)
	assert.Empty(t, p.transport.deleted)
	assert.Empty(t, p.notifier.events)
}

func TestHandleMessage_InsertFailureAbortsEnforcement(t *testing.T) {
	p := newPipeline(nil, scamVerdict(0.95), nil)
	p.store.insertErr = errors.New("db down")

	p.orch.HandleMessage(context.Background(), groupMsg())

	assert.Empty(t, p.transport.deleted)
	assert.Empty(t, p.transport.notices)
	assert.Empty(t, p.notifier.events)
}

func TestHandleMessage_StrikeFailureAbortsEnforcement(t *testing.T) {
	p := newPipeline(nil, scamVerdict(0.95), nil)
	p.store.strikeErr = errors.New("db down")

	p.orch.HandleMessage(context.Background(), groupMsg())

	assert.Empty(t, p.store.records)
	assert.Empty(t, p.transport.deleted)
	assert.Empty(t, p.notifier.events)
}

func TestHandleMessage_SkipsPrivateChat(t *testing.T) {
	p := newPipeline(nil, scamVerdict(0.95), nil)
	msg := groupMsg()
	msg.ChatType = "private"

	p.orch.HandleMessage(context.Background(), msg)

	assert.Zero(t, p.classifier.calls)
	assert.Empty(t, p.store.records)
}

func TestHandleMessage_SkipsGlobalAdminChat(t *testing.T) {
	p := newPipeline([]int64{-500}, scamVerdict(0.95), nil)

	p.orch.HandleMessage(context.Background(), groupMsg())

	assert.Zero(t, p.classifier.calls)
}

func TestHandleMessage_SkipsBoundAdminChat(t *testing.T) {
	p := newPipeline(nil, scamVerdict(0.95), nil)
	p.store.boundAdminChats[-500] = true

	p.orch.HandleMessage(context.Background(), groupMsg())

	assert.Zero(t, p.classifier.calls)
}

func TestHandleMessage_SkipsBotSender(t *testing.T) {
	p := newPipeline(nil, scamVerdict(0.95), nil)
	msg := groupMsg()
	msg.Sender.IsBot = true

	p.orch.HandleMessage(context.Background(), msg)

	assert.Zero(t, p.classifier.calls)
}

func TestHandleMessage_SkipsServiceMessage(t *testing.T) {
	p := newPipeline(nil, scamVerdict(0.95), nil)
	msg := groupMsg()
	msg.Sender = nil

	p.orch.HandleMessage(context.Background(), msg)

	assert.Zero(t, p.classifier.calls)
}

func TestHandleMessage_SkipsEmptyText(t *testing.T) {
	p := newPipeline(nil, scamVerdict(0.95), nil)
	msg := groupMsg()
	msg.Text = ""

	p.orch.HandleMessage(context.Background(), msg)

	assert.Zero(t, p.classifier.calls)
}

func TestHandleMessage_SkipsChatAdmin(t *testing.T) {
	p := newPipeline(nil, scamVerdict(0.95), nil)
	p.transport.admins[900] = true

	p.orch.HandleMessage(context.Background(), groupMsg())

	assert.Zero(t, p.classifier.calls)
}

func TestHandleMessage_AdminLookupFailureFailsOpen(t *testing.T) {
	p := newPipeline(nil, okVerdict(), nil)
	p.transport.adminErr = errors.New("telegram down")

	p.orch.HandleMessage(context.Background(), groupMsg())

	assert.Equal(t, 1, p.classifier.calls)
}

func TestHandleMessage_SkipsGloballyWhitelistedUser(t *testing.T) {
	p := newPipeline(nil, scamVerdict(0.95), nil)
	p.store.users[900] = &models.User{ID: 1, TelegramUserID: 900, IsGlobalWhitelisted: true}

	p.orch.HandleMessage(context.Background(), groupMsg())

	assert.Zero(t, p.classifier.calls)
}

func TestHandleMessage_SkipsWhitelistedMember(t *testing.T) {
	p := newPipeline(nil, scamVerdict(0.95), nil)
	p.store.chats[-500] = &models.Chat{ID: 10, TelegramChatID: -500, ChatType: "supergroup"}
	p.store.users[900] = &models.User{ID: 3, TelegramUserID: 900}
	p.store.members[memberKey(10, 3)] = &models.ChatMember{ChatID: 10, UserID: 3, IsWhitelisted: true}

	p.orch.HandleMessage(context.Background(), groupMsg())

	assert.Zero(t, p.classifier.calls)
}

func TestHandleMessage_EscalationLadder(t *testing.T) {
	p := newPipeline(nil, scamVerdict(0.95), nil)

	// First strike: warning only.
	p.orch.HandleMessage(context.Background(), groupMsg())
	assert.Empty(t, p.transport.restricted)
	assert.Empty(t, p.transport.banned)

	// Second strike: 24h mute.
	p.orch.HandleMessage(context.Background(), groupMsg())
	assert.Equal(t, []int64{900}, p.transport.restricted)
	assert.WithinDuration(t, time.Now().UTC().Add(24*time.Hour), p.transport.muteUntil, time.Minute)
	assert.Empty(t, p.transport.banned)

	// Third strike: ban.
	p.orch.HandleMessage(context.Background(), groupMsg())
	assert.Equal(t, []int64{900}, p.transport.banned)

	require.Len(t, p.store.records, 3)
	assert.Equal(t, 3, *p.store.records[2].StrikeCount)
	assert.Len(t, p.transport.notices, 3)
	assert.Len(t, p.notifier.events, 3)
}

func TestHandleMessage_DeleteFailureStillEscalatesAndNotifies(t *testing.T) {
	p := newPipeline(nil, scamVerdict(0.95), nil)
	p.transport.deleteErr = errors.New("message is gone")

	p.orch.HandleMessage(context.Background(), groupMsg())

	assert.Len(t, p.transport.notices, 1)
	assert.Len(t, p.notifier.events, 1)
}

func TestSender_DisplayName(t *testing.T) {
	s := &Sender{TelegramUserID: 5, FirstName: "Иван", LastName: "Петров"}
	assert.Equal(t, "Иван Петров", s.DisplayName())

	s = &Sender{TelegramUserID: 5, Username: "ivan"}
	assert.Equal(t, "ivan", s.DisplayName())

	s = &Sender{TelegramUserID: 5}
	assert.Equal(t, "id 5", s.DisplayName())
}
