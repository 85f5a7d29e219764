package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetpulse/backend/internal/storage"
)

func newTestService() *Service {
	return NewService(storage.NewMemoryStore(), "test-secret", time.Hour)
}

func TestSignupAndLogin(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	user, token, err := s.Signup(ctx, "Alice", "Alice@Example.com", "hunter22")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotContains(t, user.PasswordHash, "hunter22")

	got, loginToken, err := s.Login(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	require.NotEmpty(t, loginToken)
	assert.Equal(t, user.ID, got.ID)
}

func TestSignupValidation(t *testing.T) {
	s := newTestService()
	_, _, err := s.Signup(context.Background(), "", "a@example.com", "pw")
	assert.Error(t, err)
}

func TestSignupDuplicateEmail(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	_, _, err := s.Signup(ctx, "Alice", "a@example.com", "pw1")
	require.NoError(t, err)

	_, _, err = s.Signup(ctx, "Alice Again", "a@example.com", "pw2")
	assert.ErrorIs(t, err, storage.ErrEmailTaken)
}

func TestLoginFailures(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	_, _, err := s.Signup(ctx, "Alice", "a@example.com", "correct")
	require.NoError(t, err)

	_, _, err = s.Login(ctx, "a@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = s.Login(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyToken(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	user, token, err := s.Signup(ctx, "Alice", "a@example.com", "pw")
	require.NoError(t, err)

	id, err := s.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	s := newTestService()

	_, err := s.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenRejectsForeignSecret(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	issuer := NewService(store, "secret-one", time.Hour)
	verifier := NewService(store, "secret-two", time.Hour)

	_, token, err := issuer.Signup(ctx, "Alice", "a@example.com", "pw")
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	s := NewService(storage.NewMemoryStore(), "test-secret", -time.Minute)

	user := &storage.User{ID: "u1"}
	token, err := s.IssueToken(user)
	require.NoError(t, err)

	_, err = s.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
