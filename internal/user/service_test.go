package user

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/whisper-api/internal/auth"
	"github.com/redmonkez12/whisper-api/internal/docstore"
)

type testEnv struct {
	store   *docstore.MemoryStore
	repo    *Repository
	service *Service
	tokens  auth.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := docstore.NewMemoryStore()
	require.NoError(t, store.EnsureIndexes(context.Background(), Indexes()...))

	tokens, err := auth.NewJWTService([]byte("user-test-secret"))
	require.NoError(t, err)

	repo := NewRepository(store)
	return &testEnv{
		store:   store,
		repo:    repo,
		service: NewService(repo, auth.NewBcryptHasher(), tokens),
		tokens:  tokens,
	}
}

func (e *testEnv) register(t *testing.T, username, email, password string) *User {
	t.Helper()
	u, err := e.service.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return u
}

func ptr(s string) *string { return &s }

func TestRegisterThenLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := env.register(t, "alice", "alice@x.com", "pw123")
	assert.NotEmpty(t, created.ID)

	stored, err := env.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "pw123", stored.Password)
	assert.False(t, stored.CreatedAt.IsZero())

	token, err := env.service.Login(ctx, "alice@x.com", "pw123")
	require.NoError(t, err)

	claims, err := env.tokens.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice", "alice@x.com", "pw123")

	_, err := env.service.Login(ctx, "nobody@x.com", "pw123")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.service.Login(ctx, "alice@x.com", "wrong")
	assert.ErrorIs(t, err, ErrWrongPassword)

	_, err = env.service.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice", "alice@x.com", "pw123")

	_, err := env.service.Register(ctx, RegisterInput{Username: "alice2", Email: "alice@x.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrDuplicateEmailOrUsername)
	assert.True(t, docstore.IsDuplicateKey(err))

	_, err = env.service.Register(ctx, RegisterInput{Username: "alice", Email: "other@x.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrDuplicateEmailOrUsername)

	all, err := env.store.FindMany(ctx, Collection, docstore.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"missing username", RegisterInput{Email: "a@x.com", Password: "pw"}, ErrMissingFields},
		{"blank email", RegisterInput{Username: "a", Email: "  ", Password: "pw"}, ErrMissingFields},
		{"missing password", RegisterInput{Username: "a", Email: "a@x.com"}, ErrMissingFields},
		{"unknown gender", RegisterInput{Username: "a", Email: "a@x.com", Password: "pw", Gender: "robot"}, ErrInvalidProfile},
		{"long biography", RegisterInput{Username: "a", Email: "a@x.com", Password: "pw", Biography: strings.Repeat("é", 501)}, ErrInvalidProfile},
		{"bad date", RegisterInput{Username: "a", Email: "a@x.com", Password: "pw", DateOfBirth: "31/12/1990"}, ErrInvalidProfile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.service.Register(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	all, err := env.store.FindMany(ctx, Collection, docstore.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRegisterAcceptsProfileFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.service.Register(ctx, RegisterInput{
		Username:    "bob",
		Email:       "bob@x.com",
		Password:    "pw",
		Gender:      "prefer not to say",
		Biography:   strings.Repeat("b", MaxBiographyLength),
		DateOfBirth: "1990-04-01",
	})
	require.NoError(t, err)

	stored, err := env.repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.DateOfBirth)
	assert.True(t, time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC).Equal(*stored.DateOfBirth))
	assert.Equal(t, "prefer not to say", stored.Gender)
}

func TestGetProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.register(t, "alice", "alice@x.com", "pw123")

	byName, err := env.service.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", byName.Username)

	byID, err := env.service.GetProfile(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, byName, byID)

	_, err = env.service.GetProfile(ctx, "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.register(t, "alice", "alice@x.com", "pw123")

	updated, err := env.service.UpdateProfile(ctx, created.ID, ProfileUpdate{
		Location:    ptr("Prague"),
		Gender:      ptr("female"),
		Password:    ptr("newpass"),
		DateOfBirth: ptr("1991-02-03T10:00:00Z"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Prague", updated.Location)
	assert.Equal(t, "female", updated.Gender)
	assert.NotEqual(t, "newpass", updated.Password)
	assert.True(t, strings.HasPrefix(updated.Password, "$2"))
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	_, err = env.service.Login(ctx, "alice@x.com", "pw123")
	assert.ErrorIs(t, err, ErrWrongPassword)
	_, err = env.service.Login(ctx, "alice@x.com", "newpass")
	assert.NoError(t, err)
}

func TestUpdateProfileFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice", "alice@x.com", "pw123")
	env.register(t, "bob", "bob@x.com", "pw123")

	_, err := env.service.UpdateProfile(ctx, alice.ID, ProfileUpdate{Gender: ptr("robot")})
	assert.ErrorIs(t, err, ErrInvalidProfile)

	_, err = env.service.UpdateProfile(ctx, alice.ID, ProfileUpdate{Username: ptr(" ")})
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = env.service.UpdateProfile(ctx, alice.ID, ProfileUpdate{Username: ptr("bob")})
	assert.ErrorIs(t, err, ErrDuplicateEmailOrUsername)

	_, err = env.service.UpdateProfile(ctx, "missing-id", ProfileUpdate{Location: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice", "alice@x.com", "pw123")

	err := env.service.ChangePassword(ctx, alice.ID, "a", "b")
	assert.ErrorIs(t, err, ErrPasswordMismatch)
	_, err = env.service.Login(ctx, "alice@x.com", "pw123")
	require.NoError(t, err, "mismatch must not change the password")

	err = env.service.ChangePassword(ctx, alice.ID, "", "")
	assert.ErrorIs(t, err, ErrMissingFields)

	require.NoError(t, env.service.ChangePassword(ctx, alice.ID, "fresh", "fresh"))
	_, err = env.service.Login(ctx, "alice@x.com", "fresh")
	assert.NoError(t, err)

	err = env.service.ChangePassword(ctx, "missing-id", "x", "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice", "alice@x.com", "pw123")

	require.NoError(t, env.service.DeleteAccount(ctx, alice.ID))
	_, err := env.repo.GetByID(ctx, alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, env.service.DeleteAccount(ctx, alice.ID), ErrNotFound)
}

func TestRepositorySampleExcluding(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice", "alice@x.com", "pw")

	got, err := env.repo.SampleExcluding(ctx, alice.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, got)

	bob := env.register(t, "bob", "bob@x.com", "pw")
	for i := 0; i < 20; i++ {
		got, err = env.repo.SampleExcluding(ctx, alice.ID, 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, bob.ID, got[0].ID)
	}
}

func TestPasswordLengthLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tooLong := strings.Repeat("p", auth.MaxPasswordBytes+1)
	longest := strings.Repeat("p", auth.MaxPasswordBytes)

	_, err := env.service.Register(ctx, RegisterInput{Username: "carol", Email: "carol@x.com", Password: tooLong})
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	_, err = env.repo.GetByEmail(ctx, "carol@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	alice := env.register(t, "alice", "alice@x.com", longest)
	_, err = env.service.Login(ctx, "alice@x.com", longest)
	require.NoError(t, err)

	_, err = env.service.UpdateProfile(ctx, alice.ID, ProfileUpdate{Password: ptr(tooLong)})
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	err = env.service.ChangePassword(ctx, alice.ID, tooLong, tooLong)
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = env.service.Login(ctx, "alice@x.com", longest)
	assert.NoError(t, err, "rejected changes must keep the old password")
}
