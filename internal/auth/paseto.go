package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

// PasetoService handles PASETO token creation and validation
// Uses v4.local (symmetric encryption with XChaCha20-Poly1305)
type PasetoService struct {
	symmetricKey paseto.V4SymmetricKey
	now          func() time.Time
}

func NewPasetoService(symmetricKey []byte) (*PasetoService, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &PasetoService{
		symmetricKey: key,
		now:          time.Now,
	}, nil
}

// CreateToken generates a v4.local token valid for SessionTTL.
func (s *PasetoService) CreateToken(userID, username string) (string, error) {
	now := s.now()

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetExpiration(now.Add(SessionTTL))
	token.SetJti(uuid.NewString())
	token.SetString("id", userID)
	token.SetString("username", username)

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// VerifyToken decrypts a v4.local token and returns its claims. Expiry is
// checked here rather than by parser rules so that expired tokens can be
// told apart from forged ones.
func (s *PasetoService) VerifyToken(tokenStr string) (*Claims, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return nil, invalidToken(errors.New("empty token"))
	}

	parser := paseto.MakeParser(nil)
	token, err := parser.ParseV4Local(s.symmetricKey, tokenStr, nil)
	if err != nil {
		return nil, invalidToken(err)
	}

	userID, err := token.GetString("id")
	if err != nil || userID == "" {
		return nil, invalidToken(err)
	}

	username, err := token.GetString("username")
	if err != nil || username == "" {
		return nil, invalidToken(err)
	}

	issuedAt, err := token.GetIssuedAt()
	if err != nil {
		return nil, invalidToken(err)
	}

	expiresAt, err := token.GetExpiration()
	if err != nil {
		return nil, invalidToken(err)
	}

	if !s.now().Before(expiresAt) {
		return nil, ErrExpiredToken
	}

	return &Claims{
		UserID:    userID,
		Username:  username,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}
