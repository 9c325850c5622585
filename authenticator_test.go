package identity_test

import (
	"context"
	"testing"

	identity "github.com/goliatone/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginIssuesSessionToken(t *testing.T) {
	cfg := newTestConfig()
	account := seedAccount("ada@example.com", "Ada Lovelace", "securePassword123!", true)
	store := newStubAccountStore(account)
	tokens := newTestTokens(cfg)
	sink := &captureSink{}

	auther := identity.NewAuthenticator(store, tokens, cfg).
		WithActivitySink(sink)

	result, err := auther.Login(context.Background(), "ada@example.com", "securePassword123!")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "Ada Lovelace", result.Name)
	require.NotEmpty(t, result.Token)

	claims, err := tokens.Validate(result.Token)
	require.NoError(t, err)
	assert.Equal(t, account.ID.String(), claims.AccountID())
	assert.Equal(t, "ada@example.com", claims.Email)

	assert.Equal(t, []identity.ActivityEventType{identity.ActivityEventLoginSuccess}, sink.types())
}

func TestLoginWrongPassword(t *testing.T) {
	cfg := newTestConfig()
	store := newStubAccountStore(seedAccount("ada@example.com", "Ada", "securePassword123!", true))
	sink := &captureSink{}

	auther := identity.NewAuthenticator(store, newTestTokens(cfg), cfg).
		WithActivitySink(sink)

	_, err := auther.Login(context.Background(), "ada@example.com", "wrongPassword")
	require.ErrorIs(t, err, identity.ErrInvalidCredentials)
	assert.Equal(t, []identity.ActivityEventType{identity.ActivityEventLoginFailure}, sink.types())
}

func TestLoginUnknownEmail(t *testing.T) {
	cfg := newTestConfig()
	auther := identity.NewAuthenticator(newStubAccountStore(), newTestTokens(cfg), cfg)

	_, err := auther.Login(context.Background(), "ghost@example.com", "whatever1234")
	// indistinguishable from a wrong password
	require.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestLoginUnverifiedAccountBlocked(t *testing.T) {
	cfg := newTestConfig()
	store := newStubAccountStore(seedAccount("new@example.com", "New", "securePassword123!", false))

	auther := identity.NewAuthenticator(store, newTestTokens(cfg), cfg)

	_, err := auther.Login(context.Background(), "new@example.com", "securePassword123!")
	require.ErrorIs(t, err, identity.ErrAccountNotVerified)
}

func TestLoginUnverifiedAccountAllowedByPolicy(t *testing.T) {
	cfg := newTestConfig()
	cfg.allowUnverified = true
	store := newStubAccountStore(seedAccount("new@example.com", "New", "securePassword123!", false))

	auther := identity.NewAuthenticator(store, newTestTokens(cfg), cfg)

	result, err := auther.Login(context.Background(), "new@example.com", "securePassword123!")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

func TestSessionFromToken(t *testing.T) {
	cfg := newTestConfig()
	account := seedAccount("ada@example.com", "Ada", "securePassword123!", true)
	store := newStubAccountStore(account)
	tokens := newTestTokens(cfg)

	auther := identity.NewAuthenticator(store, tokens, cfg)

	result, err := auther.Login(context.Background(), "ada@example.com", "securePassword123!")
	require.NoError(t, err)

	claims, err := auther.SessionFromToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, account.ID.String(), claims.AccountID())

	_, err = auther.SessionFromToken("garbage")
	assert.Error(t, err)
}
