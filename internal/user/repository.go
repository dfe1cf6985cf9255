package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redmonkez12/whisper-api/internal/docstore"
)

// Collection holds user documents.
const Collection = "users"

var (
	ErrNotFound                 = errors.New("user not found")
	ErrDuplicateEmailOrUsername = errors.New("email or username already exists")
)

// Indexes lists the indexes the users collection needs.
func Indexes() []docstore.Index {
	return []docstore.Index{
		{Collection: Collection, Field: "email", Unique: true},
		{Collection: Collection, Field: "username", Unique: true, Sparse: true},
	}
}

// Repository handles user data persistence
type Repository struct {
	store docstore.Store
	now   func() time.Time
}

func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store, now: time.Now}
}

// Create inserts a new user and returns it with its assigned id.
func (r *Repository) Create(ctx context.Context, u *User) (*User, error) {
	now := r.now().UTC()
	u.ID = ""
	u.CreatedAt = now
	u.UpdatedAt = now

	id, err := r.store.Insert(ctx, Collection, u)
	if err != nil {
		if docstore.IsDuplicateKey(err) {
			return nil, fmt.Errorf("%w: %w", ErrDuplicateEmailOrUsername, err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	u.ID = id
	return u, nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, docstore.Filter{"email": email}, "email")
}

// GetByUsername retrieves a user by username
func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.findOne(ctx, docstore.Filter{"username": username}, "username")
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	raw, err := r.store.FindByID(ctx, Collection, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return docstore.Decode[User](raw)
}

func (r *Repository) findOne(ctx context.Context, filter docstore.Filter, by string) (*User, error) {
	raw, err := r.store.FindOne(ctx, Collection, filter)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", by, err)
	}
	return docstore.Decode[User](raw)
}

// Update applies patch to the user and returns the updated record.
// updatedAt is always refreshed.
func (r *Repository) Update(ctx context.Context, id string, patch docstore.Patch) (*User, error) {
	if patch == nil {
		patch = docstore.Patch{}
	}
	patch["updatedAt"] = r.now().UTC()

	raw, err := r.store.UpdateByID(ctx, Collection, id, patch, docstore.UpdateOptions{ReturnUpdated: true})
	if err != nil {
		switch {
		case errors.Is(err, docstore.ErrNotFound):
			return nil, ErrNotFound
		case docstore.IsDuplicateKey(err):
			return nil, fmt.Errorf("%w: %w", ErrDuplicateEmailOrUsername, err)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return docstore.Decode[User](raw)
}

// Delete permanently removes the user.
func (r *Repository) Delete(ctx context.Context, id string) error {
	deleted, err := r.store.DeleteByID(ctx, Collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// SampleExcluding picks up to count users at random, never the one with
// excludeID.
func (r *Repository) SampleExcluding(ctx context.Context, excludeID string, count int) ([]User, error) {
	raws, err := r.store.SampleExcluding(ctx, Collection, excludeID, count)
	if err != nil {
		return nil, fmt.Errorf("failed to sample users: %w", err)
	}
	return docstore.DecodeAll[User](raws)
}
