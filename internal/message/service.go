package message

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redmonkez12/whisper-api/internal/user"
)

var (
	ErrMissingFields        = errors.New("required fields are missing")
	ErrSenderNotFound       = errors.New("sender not found")
	ErrNoRecipientAvailable = errors.New("no recipient available")
	ErrRecipientNotFound    = errors.New("recipient not found")
	ErrRecipientMismatch    = errors.New("toUserId does not match the path user id")
)

// Recipients is the slice of the user repository the message service needs.
type Recipients interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
	SampleExcluding(ctx context.Context, excludeID string, count int) ([]user.User, error)
}

type Service struct {
	repo  *Repository
	users Recipients
}

func NewService(repo *Repository, users Recipients) *Service {
	return &Service{repo: repo, users: users}
}

// SendAnonymous delivers body to a user picked uniformly at random among
// everyone but the sender. The sender is recorded only when anonymous is
// false.
func (s *Service) SendAnonymous(ctx context.Context, senderID, body string, anonymous bool) (*Message, error) {
	if senderID == "" || strings.TrimSpace(body) == "" {
		return nil, ErrMissingFields
	}
	if err := s.requireSender(ctx, senderID); err != nil {
		return nil, err
	}

	picked, err := s.users.SampleExcluding(ctx, senderID, 1)
	if err != nil {
		return nil, err
	}
	if len(picked) == 0 {
		return nil, ErrNoRecipientAvailable
	}
	if picked[0].ID == senderID {
		return nil, fmt.Errorf("sampler returned the sender %q", senderID)
	}

	return s.repo.Create(ctx, newMessage(senderID, picked[0].ID, body, anonymous))
}

// SendToUser delivers body to a specific user, who must exist.
func (s *Service) SendToUser(ctx context.Context, senderID, toUserID, body string, anonymous bool) (*Message, error) {
	if senderID == "" || toUserID == "" || strings.TrimSpace(body) == "" {
		return nil, ErrMissingFields
	}
	if err := s.requireSender(ctx, senderID); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByID(ctx, toUserID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}

	return s.repo.Create(ctx, newMessage(senderID, toUserID, body, anonymous))
}

// ListReceived returns every message addressed to userID in insertion order.
func (s *Service) ListReceived(ctx context.Context, userID string) ([]Message, error) {
	if userID == "" {
		return nil, ErrMissingFields
	}
	return s.repo.ListByRecipient(ctx, userID)
}

// requireSender rejects tokens that outlived their account.
func (s *Service) requireSender(ctx context.Context, senderID string) error {
	if _, err := s.users.GetByID(ctx, senderID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrSenderNotFound
		}
		return err
	}
	return nil
}

func newMessage(senderID, toUserID, body string, anonymous bool) *Message {
	m := &Message{
		ToUserID:    toUserID,
		IsAnonymous: anonymous,
		MessageBody: body,
	}
	if !anonymous {
		m.FromUserID = senderID
	}
	return m
}
