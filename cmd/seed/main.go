// Seeds a demo account for local development. Run once against an empty
// database:
//
//	go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/tobiaswld/chatdesk/internal/db"
	"github.com/tobiaswld/chatdesk/internal/models"
	"github.com/tobiaswld/chatdesk/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file loaded: %v", err)
	}

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("config: failed to load: %v", err)
	}

	ctx := context.Background()

	store, err := db.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		log.Fatalf("mongo: failed to connect: %v", err)
	}
	defer store.Close(context.Background())

	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatalf("mongo: ensure indexes: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("Demo1234!"), cfg.BcryptCost)
	if err != nil {
		log.Fatalf("bcrypt: %v", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     "demo",
		Email:        "demo@chatdesk.local",
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, db.ErrUsernameTaken) || errors.Is(err, db.ErrEmailTaken) {
			log.Println("demo user already present")
			return
		}
		log.Fatalf("seed user: %v", err)
	}

	log.Printf("seeded demo user %s (password Demo1234!)", user.Email)
}
