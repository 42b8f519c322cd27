package types

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// KeyValidationConfig contains configuration for entity id validation.
type KeyValidationConfig struct {
	ReservedPatterns  []string
	MaxKeyLength      int
	AllowControlChars bool
	AllowWhitespace   bool
}

// DefaultKeyValidationConfig returns a KeyValidationConfig with default values.
// The cache key separator is always reserved.
func DefaultKeyValidationConfig() KeyValidationConfig {
	return KeyValidationConfig{
		MaxKeyLength:      256,
		AllowControlChars: false,
		AllowWhitespace:   true,
		ReservedPatterns:  nil,
	}
}

// KeyValidator checks entity ids before they are used to build cache keys.
type KeyValidator struct {
	config KeyValidationConfig
}

func NewKeyValidator(config KeyValidationConfig) *KeyValidator {
	return &KeyValidator{config: config}
}

// Validate checks an entity id. Empty ids are always rejected.
func (v *KeyValidator) Validate(id string) error {
	if id == "" {
		return fmt.Errorf("%w: entity id cannot be empty", ErrInvalidKey)
	}

	if v.config.MaxKeyLength > 0 && len(id) > v.config.MaxKeyLength {
		return fmt.Errorf("%w: entity id length %d exceeds maximum %d bytes",
			ErrInvalidKey, len(id), v.config.MaxKeyLength)
	}

	if !utf8.ValidString(id) {
		return fmt.Errorf("%w: entity id contains invalid UTF-8", ErrInvalidKey)
	}

	for i, r := range id {
		if !v.config.AllowControlChars && (r < 32 || r == 127) {
			return fmt.Errorf("%w: entity id contains control character at position %d", ErrInvalidKey, i)
		}
		if !v.config.AllowWhitespace && unicode.IsSpace(r) {
			return fmt.Errorf("%w: entity id contains whitespace at position %d", ErrInvalidKey, i)
		}
	}

	for _, pattern := range v.config.ReservedPatterns {
		if strings.Contains(id, pattern) {
			return fmt.Errorf("%w: entity id contains reserved pattern %q", ErrInvalidKey, pattern)
		}
	}

	return nil
}

// ValidateKey validates a cache key: the entity id and the content type.
func (v *KeyValidator) ValidateKey(key CacheKey) error {
	if err := v.Validate(key.EntityID); err != nil {
		return err
	}
	if !key.Type.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidKey, ErrInvalidContentType)
	}
	return nil
}

// DefaultKeyValidator is the default validator instance.
var DefaultKeyValidator = NewKeyValidator(DefaultKeyValidationConfig())
