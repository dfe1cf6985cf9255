package message

import (
	"context"
	"fmt"
	"time"

	"github.com/redmonkez12/whisper-api/internal/docstore"
)

// Collection holds message documents.
const Collection = "messages"

// Indexes lists the indexes the messages collection needs.
func Indexes() []docstore.Index {
	return []docstore.Index{
		{Collection: Collection, Field: "toUserId"},
	}
}

// Repository handles message persistence
type Repository struct {
	store docstore.Store
	now   func() time.Time
}

func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store, now: time.Now}
}

// Create stores m and fills in its id and creation time.
func (r *Repository) Create(ctx context.Context, m *Message) (*Message, error) {
	m.ID = ""
	m.CreatedAt = r.now().UTC()
	if m.IsAnonymous {
		m.FromUserID = ""
	}

	id, err := r.store.Insert(ctx, Collection, m)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	m.ID = id
	return m, nil
}

// ListByRecipient returns the messages addressed to userID, oldest first.
func (r *Repository) ListByRecipient(ctx context.Context, userID string) ([]Message, error) {
	raws, err := r.store.FindMany(ctx, Collection, docstore.Filter{"toUserId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return docstore.DecodeAll[Message](raws)
}
