package types

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrCacheMiss           = errors.New("cache: key not found")
	ErrClosed              = errors.New("linernotes: client closed")
	ErrInvalidKey          = errors.New("cache: invalid key")
	ErrInvalidContentType  = errors.New("linernotes: invalid content type")
	ErrSerializationFailed = errors.New("cache: serialization failed")
	ErrStoreUnavailable    = errors.New("cache: store unavailable")
	ErrCircuitOpen         = errors.New("upstream: circuit breaker open")
	ErrBulkheadFull        = errors.New("upstream: bulkhead at capacity")
	ErrBulkheadTimeout     = errors.New("upstream: bulkhead timeout")
	ErrShutdownTimeout     = errors.New("linernotes: shutdown timeout waiting for background operations")
)

// CacheError wraps a substrate failure with the operation and key involved.
type CacheError struct {
	Op    string
	Key   string
	Layer string
	Err   error
}

func (e *CacheError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("cache %s on %s [%s]: %v", e.Op, e.Layer, e.Key, e.Err)
	}
	return fmt.Sprintf("cache %s on %s: %v", e.Op, e.Layer, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

func NewCacheError(op, key, layer string, err error) *CacheError {
	return &CacheError{
		Op:    op,
		Key:   key,
		Layer: layer,
		Err:   err,
	}
}

func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// Kind is the closed set of failure categories.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetworkUnavailable
	KindTimeout
	KindRateLimited
	KindServerError
	KindEntityNotFound
	KindNoContentAvailable
	KindMalformedResponse
	KindQuotaExceeded
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown",
	KindNetworkUnavailable: "network_unavailable",
	KindTimeout:            "timeout",
	KindRateLimited:        "rate_limited",
	KindServerError:        "server_error",
	KindEntityNotFound:     "entity_not_found",
	KindNoContentAvailable: "no_content_available",
	KindMalformedResponse:  "malformed_response",
	KindQuotaExceeded:      "quota_exceeded",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return KindUnknown, false
}

// ErrorKind is a classified failure. StatusClass is the leading digit of the
// HTTP status for KindServerError and zero otherwise.
type ErrorKind struct {
	Kind        Kind
	StatusClass int
}

// ServerError returns the ErrorKind for a server failure of the given status class.
func ServerError(statusClass int) ErrorKind {
	return ErrorKind{Kind: KindServerError, StatusClass: statusClass}
}

func (k ErrorKind) Is(kind Kind) bool {
	return k.Kind == kind
}

func (k ErrorKind) String() string {
	if k.Kind == KindServerError && k.StatusClass > 0 {
		return k.Kind.String() + "(" + strconv.Itoa(k.StatusClass) + "xx)"
	}
	return k.Kind.String()
}

func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ErrorKind) UnmarshalText(text []byte) error {
	s := string(text)
	var class int
	if n, err := fmt.Sscanf(s, "server_error(%dxx)", &class); err == nil && n == 1 {
		*k = ServerError(class)
		return nil
	}
	kind, ok := ParseKind(s)
	if !ok {
		return fmt.Errorf("unknown error kind %q", s)
	}
	*k = ErrorKind{Kind: kind}
	return nil
}

// Error is a failure that has already been classified.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the classified kind carried by err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return ErrorKind{}, false
}

// StatusError is a non-success response from an upstream HTTP service.
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *StatusError) Error() string {
	status := e.Status
	if status == "" {
		status = strconv.Itoa(e.StatusCode)
	}
	if e.URL != "" {
		return fmt.Sprintf("upstream %s: %s", e.URL, status)
	}
	return "upstream: " + status
}
