package auth

import (
	"errors"
	"time"
)

// SessionTTL is the fixed lifetime of every session token.
const SessionTTL = time.Hour

// TokenService issues and verifies session tokens.
// Implementations include PasetoService (PASETO v4.local) and JWTService (HS256).
type TokenService interface {
	CreateToken(userID, username string) (string, error)
	VerifyToken(tokenStr string) (*Claims, error)
}

// Claims is the typed payload carried by a session token.
type Claims struct {
	UserID    string    `json:"id"`
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// TokenKind tells an invalid token apart from an expired one.
type TokenKind int

const (
	TokenInvalid TokenKind = iota + 1
	TokenExpired
)

func (k TokenKind) String() string {
	switch k {
	case TokenInvalid:
		return "invalid token"
	case TokenExpired:
		return "token has expired"
	default:
		return "token error"
	}
}

// TokenError is returned by VerifyToken.
type TokenError struct {
	Kind TokenKind
	Err  error
}

func (e *TokenError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// Is matches any TokenError of the same kind.
func (e *TokenError) Is(target error) bool {
	t, ok := target.(*TokenError)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidToken = &TokenError{Kind: TokenInvalid}
	ErrExpiredToken = &TokenError{Kind: TokenExpired}
)

func invalidToken(err error) error {
	return &TokenError{Kind: TokenInvalid, Err: err}
}

// NewTokenService builds the token service for the configured strategy.
func NewTokenService(strategy string, jwtSecret, pasetoKey []byte) (TokenService, error) {
	switch strategy {
	case "jwt":
		svc, err := NewJWTService(jwtSecret)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case "paseto":
		svc, err := NewPasetoService(pasetoKey)
		if err != nil {
			return nil, err
		}
		return svc, nil
	default:
		return nil, errors.New("unknown token strategy: " + strategy)
	}
}
