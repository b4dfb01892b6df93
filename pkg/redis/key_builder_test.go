package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewKeyBuilder(t *testing.T) {
	tests := []struct {
		name           string
		environment    string
		expectedPrefix string
	}{
		{
			name:           "production environment",
			environment:    "production",
			expectedPrefix: "prod",
		},
		{
			name:           "development environment",
			environment:    "development",
			expectedPrefix: "staging",
		},
		{
			name:           "staging environment",
			environment:    "staging",
			expectedPrefix: "staging",
		},
		{
			name:           "test environment",
			environment:    "test",
			expectedPrefix: "staging",
		},
		{
			name:           "unknown environment defaults to prod",
			environment:    "something-else",
			expectedPrefix: "prod",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := NewKeyBuilder(tt.environment)
			assert.Equal(t, tt.expectedPrefix, kb.GetPrefix())
		})
	}
}

func TestKeyBuilder_BuildKey(t *testing.T) {
	kb := NewKeyBuilder("production")
	assert.Equal(t, "prod:some:key", kb.BuildKey("some:key"))
}

func TestKeyBuilder_KeyGuestRead(t *testing.T) {
	kb := NewKeyBuilder("production")

	key := kb.KeyGuestRead("a1b2", "fp123")
	assert.Equal(t, "prod:read:guest:a1b2:fp123", key)

	// Distinct articles or fingerprints must never collide
	assert.NotEqual(t, key, kb.KeyGuestRead("a1b2", "fp999"))
	assert.NotEqual(t, key, kb.KeyGuestRead("zzzz", "fp123"))
}

func TestKeyBuilder_KeyArticle(t *testing.T) {
	kb := NewKeyBuilder("staging")
	assert.Equal(t, "staging:article:a1b2", kb.KeyArticle("a1b2"))
}
