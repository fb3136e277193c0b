package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/tobiaswld/chatdesk/internal/models"
	"github.com/tobiaswld/chatdesk/internal/utils"
)

// Mongo holds the document store backing the users and messages collections.
type Mongo struct {
	Client   *mongo.Client
	Database *mongo.Database
	Users    *mongo.Collection
	Messages *mongo.Collection
}

func NewMongo(ctx context.Context, cfg utils.MongoConfig) (*Mongo, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo: uri is required")
	}

	clientOpts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		clientOpts.SetServerSelectionTimeout(cfg.ConnectTimeout)
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeoutOrDefault(cfg.ConnectTimeout))
	defer cancel()

	client, err := mongo.Connect(dialCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, timeoutOrDefault(cfg.ConnectTimeout))
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(pingCtx)
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	database := client.Database(cfg.Database)
	store := &Mongo{
		Client:   client,
		Database: database,
		Users:    database.Collection("users"),
		Messages: database.Collection("messages"),
	}

	return store, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	if m == nil || m.Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return m.Client.Disconnect(ctx)
}

// EnsureIndexes creates the unique credential indexes and the conversation
// lookup index. Safe to call on every startup.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	if m == nil || m.Database == nil {
		return fmt.Errorf("mongo: database not initialised")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := m.Users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("username_unique"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
	})
	if err != nil {
		return fmt.Errorf("mongo: ensure user indexes: %w", err)
	}

	_, err = m.Messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "chat_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("mongo: ensure message index: %w", err)
	}

	return nil
}

func (m *Mongo) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	if _, err := m.Users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicateKeyError(err)
		}
		return fmt.Errorf("mongo: insert user: %w", err)
	}

	return nil
}

func (m *Mongo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	filter := bson.M{"email": strings.ToLower(strings.TrimSpace(email))}

	var user models.User
	if err := m.Users.FindOne(ctx, filter).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("mongo: find user: %w", err)
	}

	return &user, nil
}

func (m *Mongo) InsertMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	if _, err := m.Messages.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("mongo: insert message: %w", err)
	}

	return nil
}

// ListMessages returns the newest limit messages of a conversation, ordered by
// creation time ascending.
func (m *Mongo) ListMessages(ctx context.Context, userID, chatID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	filter := bson.M{"user_id": userID, "chat_id": chatID}
	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := m.Messages.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo: list messages: %w", err)
	}

	var newestFirst []models.Message
	if err := cursor.All(ctx, &newestFirst); err != nil {
		return nil, fmt.Errorf("mongo: decode messages: %w", err)
	}

	messages := make([]models.Message, len(newestFirst))
	for i, msg := range newestFirst {
		messages[len(newestFirst)-1-i] = msg
	}

	return messages, nil
}

// ListConversations derives one summary per chat id from the newest message of
// each, most recently updated first.
func (m *Mongo) ListConversations(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
		{{Key: "$group", Value: bson.M{
			"_id":          "$chat_id",
			"chat_name":    bson.M{"$first": "$chat_name"},
			"last_updated": bson.M{"$first": "$created_at"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "last_updated", Value: -1}}}},
	}

	cursor, err := m.Messages.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("mongo: list conversations: %w", err)
	}

	var summaries []models.ConversationSummary
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, fmt.Errorf("mongo: decode conversations: %w", err)
	}

	return summaries, nil
}

func duplicateKeyError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "email"):
		return ErrEmailTaken
	case strings.Contains(msg, "username"):
		return ErrUsernameTaken
	default:
		return ErrUsernameTaken
	}
}

func timeoutOrDefault(value time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return 10 * time.Second
}
