package identity_test

import (
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	identity "github.com/goliatone/go-identity"
	"github.com/stretchr/testify/assert"
)

func TestIsTokenExpiredError(t *testing.T) {
	assert.True(t, identity.IsTokenExpiredError(identity.ErrTokenExpired))
	assert.True(t, identity.IsTokenExpiredError(errors.New("token is expired by 3h")))
	assert.False(t, identity.IsTokenExpiredError(identity.ErrTokenMalformed))
	assert.False(t, identity.IsTokenExpiredError(nil))
}

func TestIsMalformedError(t *testing.T) {
	assert.True(t, identity.IsMalformedError(identity.ErrTokenMalformed))
	assert.True(t, identity.IsMalformedError(errors.New("missing or malformed JWT")))
	assert.False(t, identity.IsMalformedError(identity.ErrTokenExpired))
	assert.False(t, identity.IsMalformedError(nil))
}

func TestIsDuplicateKeyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "sqlite unique violation",
			err:  errors.New("UNIQUE constraint failed: accounts.email"),
			want: true,
		},
		{
			name: "postgres unique violation",
			err:  errors.New(`duplicate key value violates unique constraint "idx_accounts_email"`),
			want: true,
		},
		{
			name: "unrelated error",
			err:  errors.New("connection refused"),
			want: false,
		},
		{
			name: "nil",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, identity.IsDuplicateKeyError(tt.err))
		})
	}
}

func TestErrorCodes(t *testing.T) {
	assert.Equal(t, "EMAIL_IN_USE", identity.ErrEmailInUse.TextCode)
	assert.Equal(t, "INVALID_CREDENTIALS", identity.ErrInvalidCredentials.TextCode)
	assert.Equal(t, "MISSING_TOKEN", identity.ErrMissingToken.TextCode)
	assert.Equal(t, "ACCOUNT_NOT_FOUND", identity.ErrAccountNotFound.TextCode)

	assert.Equal(t, goerrors.CodeBadRequest, identity.ErrEmailInUse.Code)
	assert.Equal(t, goerrors.CodeUnauthorized, identity.ErrInvalidCredentials.Code)
	assert.Equal(t, goerrors.CodeBadRequest, identity.ErrMissingToken.Code)
	assert.Equal(t, goerrors.CodeNotFound, identity.ErrAccountNotFound.Code)
}
