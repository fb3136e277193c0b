package db

import (
	"context"
	"errors"

	"github.com/tobiaswld/chatdesk/internal/models"
)

var (
	ErrUsernameTaken = errors.New("db: username already in use")
	ErrEmailTaken    = errors.New("db: email already in use")
	ErrUserNotFound  = errors.New("db: user not found")
)

// UserStore is the credential persistence surface consumed by the auth service.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// MessageStore is the chat persistence surface consumed by the chat service.
type MessageStore interface {
	InsertMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, userID, chatID string, limit int) ([]models.Message, error)
	ListConversations(ctx context.Context, userID string) ([]models.ConversationSummary, error)
}
