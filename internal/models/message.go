package models

import "time"

// Message roles. A chat turn stores one message per role.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message owned by a user. Messages are insert-only;
// a conversation is the set of messages sharing a chat id.
type Message struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"-"`
	ChatID    string    `bson:"chat_id" json:"chatId"`
	ChatName  string    `bson:"chat_name" json:"chatName"`
	Role      string    `bson:"role" json:"role"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// ConversationSummary is derived from the newest message of each chat id; it
// is never stored as its own document.
type ConversationSummary struct {
	ChatID      string    `bson:"_id" json:"chatId"`
	ChatName    string    `bson:"chat_name" json:"chatName"`
	LastUpdated time.Time `bson:"last_updated" json:"lastUpdated"`
}
