package linernotes

import (
	"github.com/LavishGent/linernotes/internal/resilience"
	"github.com/LavishGent/linernotes/internal/types"
)

// CacheError wraps a substrate failure.
type CacheError = types.CacheError

var (
	// ErrClosed is returned by a client after Close.
	ErrClosed = types.ErrClosed
	// ErrInvalidContentType indicates a slot outside the supported set.
	ErrInvalidContentType = types.ErrInvalidContentType
	// ErrInvalidKey indicates an entity id the cache refuses to store.
	ErrInvalidKey = types.ErrInvalidKey
	// ErrStoreUnavailable indicates the cache substrate cannot be reached.
	ErrStoreUnavailable = types.ErrStoreUnavailable
	// ErrCircuitOpen indicates the catalog circuit breaker is open.
	ErrCircuitOpen = types.ErrCircuitOpen
	// ErrShutdownTimeout indicates Close gave up waiting for in-flight calls.
	ErrShutdownTimeout = types.ErrShutdownTimeout
)

// KindOf extracts the failure category carried by err.
func KindOf(err error) (ErrorKind, bool) {
	return types.KindOf(err)
}

// Classify maps any error to its failure category.
func Classify(err error) ErrorKind {
	return resilience.Classify(err)
}

// IsRetryable reports whether a failure of kind is worth retrying.
func IsRetryable(kind ErrorKind) bool {
	return resilience.IsRetryable(kind)
}

// FallbackMessage returns the text to show in place of a failed slot.
func FallbackMessage(kind ErrorKind) string {
	return resilience.FallbackMessage(kind)
}

// NewKindError returns an error that classifies as kind. Custom resolvers and
// fetchers use it to report failures the classifier cannot infer.
func NewKindError(kind Kind, op string) error {
	return types.NewError(types.ErrorKind{Kind: kind}, op, nil)
}
