package chat

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tobiaswld/chatdesk/internal/db"
	"github.com/tobiaswld/chatdesk/internal/models"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 100
)

// ErrUpstream marks completion gateway failures so the HTTP layer can map
// them apart from persistence failures.
var ErrUpstream = errors.New("chat: completion gateway failed")

// Completer produces an assistant reply for a single user prompt.
type Completer interface {
	Complete(ctx context.Context, userText string) (string, error)
}

// Service orchestrates a chat turn: persist the user message, fetch a
// completion, persist the assistant reply.
type Service struct {
	store     db.MessageStore
	completer Completer
	logger    *zap.SugaredLogger
}

func NewService(store db.MessageStore, completer Completer, logger *zap.SugaredLogger) *Service {
	return &Service{store: store, completer: completer, logger: logger}
}

// SendMessage runs one chat turn and returns the assistant reply. The user
// message is persisted before the upstream call and is not rolled back when
// that call fails; a user message without a reply is an accepted state.
func (s *Service) SendMessage(ctx context.Context, userID, chatID, chatName, text string) (string, error) {
	userMsg := &models.Message{
		UserID:   userID,
		ChatID:   chatID,
		ChatName: chatName,
		Role:     models.RoleUser,
		Content:  text,
	}

	if err := s.store.InsertMessage(ctx, userMsg); err != nil {
		return "", fmt.Errorf("persist user message: %w", err)
	}

	s.logger.Infow("user message saved", "userId", userID, "chatId", chatID, "msgId", userMsg.ID)

	reply, err := s.completer.Complete(ctx, text)
	if err != nil {
		s.logger.Warnw("completion failed", "userId", userID, "chatId", chatID, "error", err)
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	assistantMsg := &models.Message{
		UserID:   userID,
		ChatID:   chatID,
		ChatName: chatName,
		Role:     models.RoleAssistant,
		Content:  reply,
	}

	if err := s.store.InsertMessage(ctx, assistantMsg); err != nil {
		return "", fmt.Errorf("persist assistant message: %w", err)
	}

	s.logger.Infow("assistant message saved", "userId", userID, "chatId", chatID, "msgId", assistantMsg.ID)

	return reply, nil
}

// ListMessages returns the newest messages of a conversation in ascending
// creation-time order, capped at maxMessageLimit.
func (s *Service) ListMessages(ctx context.Context, userID, chatID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}

	messages, err := s.store.ListMessages(ctx, userID, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	return messages, nil
}

// ListConversations returns the user's conversations with derived display
// name and last-updated time, newest first.
func (s *Service) ListConversations(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	summaries, err := s.store.ListConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	return summaries, nil
}
