package user

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/redmonkez12/whisper-api/internal/auth"
	"github.com/redmonkez12/whisper-api/internal/docstore"
)

var (
	ErrMissingFields    = errors.New("required fields are missing")
	ErrWrongPassword    = errors.New("wrong password")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrInvalidProfile   = errors.New("invalid profile data")
	ErrPasswordTooLong  = fmt.Errorf("password exceeds %d bytes", auth.MaxPasswordBytes)
)

// dateLayouts are accepted for dateOfBirth, most specific first.
var dateLayouts = []string{time.RFC3339, time.DateOnly}

// RegisterInput carries the registration payload.
type RegisterInput struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Gender         string `json:"gender,omitempty"`
	Location       string `json:"location,omitempty"`
	Biography      string `json:"biography,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	DateOfBirth    string `json:"dateOfBirth,omitempty"`
}

// ProfileUpdate lists the fields a user may change on their own record.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Username       *string `json:"username,omitempty"`
	Email          *string `json:"email,omitempty"`
	Password       *string `json:"password,omitempty"`
	Gender         *string `json:"gender,omitempty"`
	Location       *string `json:"location,omitempty"`
	Biography      *string `json:"biography,omitempty"`
	ProfilePicture *string `json:"profilePicture,omitempty"`
	DateOfBirth    *string `json:"dateOfBirth,omitempty"`
}

type Service struct {
	repo   *Repository
	hasher auth.PasswordHasher
	tokens auth.TokenService
}

func NewService(repo *Repository, hasher auth.PasswordHasher, tokens auth.TokenService) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
	}
}

// Register validates and stores a new user with a hashed password.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" || email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}

	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	if err := validateGender(in.Gender); err != nil {
		return nil, err
	}
	if err := validateBiography(in.Biography); err != nil {
		return nil, err
	}
	dob, err := parseDateOfBirth(in.DateOfBirth)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, &User{
		Username:       username,
		Email:          email,
		Password:       hash,
		Gender:         in.Gender,
		Location:       in.Location,
		Biography:      in.Biography,
		ProfilePicture: in.ProfilePicture,
		DateOfBirth:    dob,
	})
}

// Login checks the credentials and mints a session token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", ErrMissingFields
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	if !s.hasher.Verify(password, u.Password) {
		return "", ErrWrongPassword
	}

	token, err := s.tokens.CreateToken(u.ID, u.Username)
	if err != nil {
		return "", fmt.Errorf("failed to create session token: %w", err)
	}
	return token, nil
}

// GetProfile looks a user up by username, then by id.
func (s *Service) GetProfile(ctx context.Context, usernameOrID string) (*PublicProfile, error) {
	if usernameOrID == "" {
		return nil, ErrNotFound
	}

	u, err := s.repo.GetByUsername(ctx, usernameOrID)
	if errors.Is(err, ErrNotFound) {
		u, err = s.repo.GetByID(ctx, usernameOrID)
	}
	if err != nil {
		return nil, err
	}
	return u.Public(), nil
}

// UpdateProfile applies a self-service update. A new password is hashed
// before it is stored.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*User, error) {
	patch := docstore.Patch{}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return nil, ErrMissingFields
		}
		patch["username"] = username
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email == "" {
			return nil, ErrMissingFields
		}
		patch["email"] = email
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, ErrMissingFields
		}
		if err := validatePassword(*in.Password); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		patch["password"] = hash
	}
	if in.Gender != nil {
		if err := validateGender(*in.Gender); err != nil {
			return nil, err
		}
		patch["gender"] = *in.Gender
	}
	if in.Location != nil {
		patch["location"] = *in.Location
	}
	if in.Biography != nil {
		if err := validateBiography(*in.Biography); err != nil {
			return nil, err
		}
		patch["biography"] = *in.Biography
	}
	if in.ProfilePicture != nil {
		patch["profilePicture"] = *in.ProfilePicture
	}
	if in.DateOfBirth != nil {
		dob, err := parseDateOfBirth(*in.DateOfBirth)
		if err != nil {
			return nil, err
		}
		patch["dateOfBirth"] = dob
	}

	return s.repo.Update(ctx, userID, patch)
}

// ChangePassword replaces the password without asking for the old one.
func (s *Service) ChangePassword(ctx context.Context, userID, newPassword, repeat string) error {
	if newPassword == "" || repeat == "" {
		return ErrMissingFields
	}
	if newPassword != repeat {
		return ErrPasswordMismatch
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	_, err = s.repo.Update(ctx, userID, docstore.Patch{"password": hash})
	return err
}

// DeleteAccount removes the user record. Messages are left in place.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	return s.repo.Delete(ctx, userID)
}

func validatePassword(password string) error {
	if len(password) > auth.MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

func validateGender(gender string) error {
	if gender == "" || slices.Contains(Genders, gender) {
		return nil
	}
	return fmt.Errorf("%w: unknown gender %q", ErrInvalidProfile, gender)
}

func validateBiography(bio string) error {
	if utf8.RuneCountInString(bio) > MaxBiographyLength {
		return fmt.Errorf("%w: biography exceeds %d characters", ErrInvalidProfile, MaxBiographyLength)
	}
	return nil
}

// parseDateOfBirth returns nil for an empty value.
func parseDateOfBirth(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: dateOfBirth must be YYYY-MM-DD or RFC 3339", ErrInvalidProfile)
}
