// Package store defines the persistence contracts and their in-memory and
// Postgres implementations. Handlers and services depend only on the
// interfaces, so tests and the demo profile run on the memory variant while
// the hardened profile uses Postgres.
package store

import (
	"context"
	"errors"

	"excelbot-backend-go/internal/knowledge"
	"excelbot-backend-go/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// MaxHistoryPerAuthor bounds the retained chat window per author; older
// messages are dropped on append.
const MaxHistoryPerAuthor = 50

// KnowledgeFilter narrows a Find call. Query matches name, description and
// keywords case-insensitively by substring. Zero Page/Limit fall back to
// page 1 with 20 items.
type KnowledgeFilter struct {
	Kind     string
	Category string
	Query    string
	Page     int
	Limit    int
}

func (f *KnowledgeFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
}

// KnowledgeStore is the read-mostly knowledge base. Results are ordered by
// votes descending with name ascending as the stable tiebreak.
type KnowledgeStore interface {
	Find(ctx context.Context, filter KnowledgeFilter) (items []knowledge.Entry, total int, err error)
	GetByName(ctx context.Context, kind, name string) (knowledge.Entry, error)
	List(ctx context.Context, kinds ...string) ([]knowledge.Entry, error)
	Insert(ctx context.Context, entry knowledge.Entry) (knowledge.Entry, error)
	Vote(ctx context.Context, name string, helpful bool) (int, error)
}

// UserStore persists identity records. Create fails with ErrConflict when the
// username or email is already taken. Users are never hard-deleted.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// ChatStore keeps per-author chat history bounded to MaxHistoryPerAuthor.
// Clear is idempotent.
type ChatStore interface {
	Append(ctx context.Context, msg models.ChatMessage) error
	History(ctx context.Context, author string) ([]models.ChatMessage, error)
	Clear(ctx context.Context, author string) error
}

// SeedKnowledge inserts the built-in entries, skipping names that already
// exist so restarts stay idempotent.
func SeedKnowledge(ctx context.Context, ks KnowledgeStore) error {
	for _, entry := range knowledge.Seed() {
		if _, err := ks.Insert(ctx, entry); err != nil {
			if errors.Is(err, ErrConflict) {
				continue
			}
			return err
		}
	}
	return nil
}
