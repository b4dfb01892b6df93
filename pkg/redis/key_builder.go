package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" || environment == "test" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// KeyGuestRead builds the dedup key for an anonymous read of an article
func (kb *KeyBuilder) KeyGuestRead(articleID, fingerprint string) string {
	return kb.BuildKey(fmt.Sprintf(KeyGuestRead, articleID, fingerprint))
}

// KeyArticle builds the cache key for an article payload
func (kb *KeyBuilder) KeyArticle(articleID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyArticle, articleID))
}
