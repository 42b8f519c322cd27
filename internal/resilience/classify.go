// Package resilience classifies upstream failures and provides the retry
// executor and upstream guard used around catalog calls.
package resilience

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"syscall"

	"github.com/LavishGent/linernotes/internal/types"
)

// Re-export errors from types package for convenience within the resilience package.
var (
	ErrCircuitOpen     = types.ErrCircuitOpen
	ErrBulkheadFull    = types.ErrBulkheadFull
	ErrBulkheadTimeout = types.ErrBulkheadTimeout
)

// Signals are the transport-neutral inputs to classification.
type Signals struct {
	StatusCode     int
	TimedOut       bool
	Offline        bool
	NotFound       bool
	Empty          bool
	Malformed      bool
	QuotaExhausted bool
}

// ClassifySignals maps signals to an ErrorKind. Flags take precedence over the
// status code, in the order they are checked below.
func ClassifySignals(s Signals) types.ErrorKind {
	switch {
	case s.Offline:
		return types.ErrorKind{Kind: types.KindNetworkUnavailable}
	case s.TimedOut:
		return types.ErrorKind{Kind: types.KindTimeout}
	case s.NotFound:
		return types.ErrorKind{Kind: types.KindEntityNotFound}
	case s.Empty:
		return types.ErrorKind{Kind: types.KindNoContentAvailable}
	case s.Malformed:
		return types.ErrorKind{Kind: types.KindMalformedResponse}
	case s.QuotaExhausted:
		return types.ErrorKind{Kind: types.KindQuotaExceeded}
	}

	switch code := s.StatusCode; {
	case code == http.StatusTooManyRequests:
		return types.ErrorKind{Kind: types.KindRateLimited}
	case code == http.StatusNotFound:
		return types.ErrorKind{Kind: types.KindEntityNotFound}
	case code == http.StatusNoContent:
		return types.ErrorKind{Kind: types.KindNoContentAvailable}
	case code == http.StatusPaymentRequired:
		return types.ErrorKind{Kind: types.KindQuotaExceeded}
	case code >= 500 && code <= 599:
		return types.ServerError(code / 100)
	}

	return types.ErrorKind{Kind: types.KindUnknown}
}

// Classify maps an arbitrary error to an ErrorKind. Errors that already carry
// a kind keep it. A nil error classifies as Unknown.
func Classify(err error) types.ErrorKind {
	if err == nil {
		return types.ErrorKind{Kind: types.KindUnknown}
	}
	if kind, ok := types.KindOf(err); ok {
		return kind
	}
	if errors.Is(err, types.ErrCircuitOpen) {
		return types.ServerError(5)
	}
	if IsBulkheadError(err) {
		return types.ErrorKind{Kind: types.KindRateLimited}
	}
	return ClassifySignals(SignalsOf(err))
}

// SignalsOf extracts classification signals from an error chain.
func SignalsOf(err error) Signals {
	var s Signals

	var statusErr *types.StatusError
	if errors.As(err, &statusErr) {
		s.StatusCode = statusErr.StatusCode
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		s.TimedOut = true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		s.TimedOut = true
	}

	if isOffline(err) {
		s.Offline = true
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		s.Malformed = true
	}

	return s
}

func isOffline(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETDOWN) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" && !opErr.Timeout() {
		return true
	}

	return false
}

// IsCircuitOpen returns true if the error is a circuit open error.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, types.ErrCircuitOpen)
}

// IsBulkheadError returns true if the error is a bulkhead rejection.
func IsBulkheadError(err error) bool {
	return errors.Is(err, types.ErrBulkheadFull) || errors.Is(err, types.ErrBulkheadTimeout)
}

// IsRetryable reports whether a failure of this kind is transient.
func IsRetryable(kind types.ErrorKind) bool {
	switch kind.Kind {
	case types.KindNetworkUnavailable, types.KindTimeout, types.KindRateLimited, types.KindServerError:
		return true
	default:
		return false
	}
}

// IsRetryableError classifies err and reports whether it is transient.
func IsRetryableError(err error) bool {
	return err != nil && IsRetryable(Classify(err))
}

// FallbackMessage returns user-facing text for a failed slot. Messages for
// retryable kinds invite the user to try again.
func FallbackMessage(kind types.ErrorKind) string {
	switch kind.Kind {
	case types.KindNetworkUnavailable:
		return "You appear to be offline. Check your connection and try again."
	case types.KindTimeout:
		return "This is taking longer than usual. Please try again in a moment."
	case types.KindRateLimited:
		return "We're a little busy right now. Please try again shortly."
	case types.KindServerError:
		return "The catalog is having trouble at the moment. Please try again later."
	case types.KindEntityNotFound:
		return "We couldn't find more about this artist."
	case types.KindNoContentAvailable:
		return "Nothing to show here yet."
	case types.KindMalformedResponse:
		return "We couldn't read the details for this one."
	case types.KindQuotaExceeded:
		return "More details will be available later."
	default:
		return "Something went wrong while loading these details."
	}
}
