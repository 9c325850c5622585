package identity_test

import (
	"testing"

	identity "github.com/goliatone/go-identity"
	"github.com/stretchr/testify/assert"
)

func TestVerificationLink(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		token   string
		want    string
	}{
		{
			name:    "plain base",
			baseURL: "http://localhost:8572",
			token:   "abc123",
			want:    "http://localhost:8572/verify-email?token=abc123",
		},
		{
			name:    "base with existing query",
			baseURL: "https://id.example.com?src=mail",
			token:   "abc123",
			want:    "https://id.example.com/verify-email?src=mail&token=abc123",
		},
		{
			name:    "token needing escaping",
			baseURL: "http://localhost:8572",
			token:   "a+b c",
			want:    "http://localhost:8572/verify-email?token=a%2Bb+c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, identity.VerificationLink(tt.baseURL, tt.token))
		})
	}
}

func TestNewSMTPMailerRequiresFrom(t *testing.T) {
	_, err := identity.NewSMTPMailer(identity.SMTPMailerConfig{
		Host: "localhost",
		Port: 1025,
	}, nil)
	assert.Error(t, err)
}
