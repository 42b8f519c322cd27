package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKind_String(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{ErrorKind{Kind: KindRateLimited}, "rate_limited"},
		{ServerError(5), "server_error(5xx)"},
		{ErrorKind{Kind: KindServerError}, "server_error"},
		{ErrorKind{}, "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestErrorKind_UnmarshalText(t *testing.T) {
	for _, want := range []ErrorKind{ServerError(5), {Kind: KindNoContentAvailable}, {Kind: KindTimeout}} {
		text, _ := want.MarshalText()
		var got ErrorKind
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%s) error = %v", text, err)
		}
		if got != want {
			t.Errorf("UnmarshalText(%s) = %v, want %v", text, got, want)
		}
	}

	var k ErrorKind
	if err := k.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("UnmarshalText(bogus) = nil, want error")
	}
}

func TestKindOf(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("wrapped: %w", NewError(ErrorKind{Kind: KindQuotaExceeded}, "fetch", cause))

	kind, ok := KindOf(err)
	if !ok {
		t.Fatal("KindOf() ok = false, want true")
	}
	if !kind.Is(KindQuotaExceeded) {
		t.Errorf("KindOf() = %v, want quota_exceeded", kind)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}

	if _, ok := KindOf(cause); ok {
		t.Error("KindOf(plain error) ok = true, want false")
	}
}

func TestCacheError(t *testing.T) {
	err := NewCacheError("put", "42|bio", "redis", ErrStoreUnavailable)

	if got := err.Error(); got != "cache put on redis [42|bio]: cache: store unavailable" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Error("errors.Is(err, ErrStoreUnavailable) = false, want true")
	}
}
