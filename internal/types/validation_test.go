package types

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultKeyValidationConfig(t *testing.T) {
	cfg := DefaultKeyValidationConfig()

	if cfg.MaxKeyLength != 256 {
		t.Errorf("MaxKeyLength = %d, want 256", cfg.MaxKeyLength)
	}
	if cfg.AllowControlChars {
		t.Error("AllowControlChars = true, want false")
	}
	if !cfg.AllowWhitespace {
		t.Error("AllowWhitespace = false, want true")
	}
}

func TestKeyValidator_Validate(t *testing.T) {
	t.Run("valid ids pass validation", func(t *testing.T) {
		v := NewKeyValidator(DefaultKeyValidationConfig())

		validIDs := []string{
			"42",
			"artist:queen",
			"mbid-0383dadf-2a4e-4d10-a46a-e9e041da8eb3",
			"Sigur Rós",
			"42|bio",
			strings.Repeat("a", 256),
		}

		for _, id := range validIDs {
			if err := v.Validate(id); err != nil {
				t.Errorf("Validate(%q) = %v, want nil", id, err)
			}
		}
	})

	t.Run("invalid ids rejected", func(t *testing.T) {
		v := NewKeyValidator(DefaultKeyValidationConfig())

		invalid := map[string]string{
			"empty":        "",
			"too long":     strings.Repeat("a", 257),
			"control char": "abc\x00def",
			"bad utf8":     "abc\xffdef",
		}

		for name, id := range invalid {
			t.Run(name, func(t *testing.T) {
				err := v.Validate(id)
				if !errors.Is(err, ErrInvalidKey) {
					t.Errorf("Validate(%q) = %v, want ErrInvalidKey", id, err)
				}
			})
		}
	})

	t.Run("whitespace rejected when disallowed", func(t *testing.T) {
		v := NewKeyValidator(KeyValidationConfig{AllowWhitespace: false})
		if err := v.Validate("a b"); err == nil {
			t.Error("Validate(\"a b\") = nil, want error")
		}
	})

	t.Run("reserved patterns", func(t *testing.T) {
		v := NewKeyValidator(KeyValidationConfig{AllowWhitespace: true, ReservedPatterns: []string{"__"}})
		if err := v.Validate("a__b"); err == nil {
			t.Error("Validate(\"a__b\") = nil, want error")
		}
	})
}

func TestKeyValidator_ValidateKey(t *testing.T) {
	v := DefaultKeyValidator

	if err := v.ValidateKey(CacheKey{EntityID: "42", Type: Bio()}); err != nil {
		t.Errorf("ValidateKey(valid) = %v, want nil", err)
	}
	if err := v.ValidateKey(CacheKey{EntityID: "42"}); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("ValidateKey(zero type) = %v, want ErrInvalidKey", err)
	}
}

func TestSecretString(t *testing.T) {
	s := NewSecretString("hunter2")
	if s.String() != "[REDACTED]" {
		t.Errorf("String() = %q, want [REDACTED]", s.String())
	}
	data, _ := s.MarshalJSON()
	if strings.Contains(string(data), "hunter2") {
		t.Errorf("MarshalJSON() leaked secret: %s", data)
	}
	if s.Value() != "hunter2" {
		t.Errorf("Value() = %q, want hunter2", s.Value())
	}
}
