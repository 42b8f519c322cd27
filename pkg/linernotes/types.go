package linernotes

import (
	"github.com/LavishGent/linernotes/internal/cache"
	"github.com/LavishGent/linernotes/internal/types"
)

type (
	// ContentType identifies one enrichment slot: the bio or a fun fact subtype.
	ContentType = types.ContentType
	// FunFactSubtype names a fun fact category.
	FunFactSubtype = types.FunFactSubtype
	// EnrichmentResult holds the outcome of every slot of one Enrich call.
	EnrichmentResult = types.EnrichmentResult
	// Kind is a failure category.
	Kind = types.Kind
	// ErrorKind is a failure category plus, for server errors, the status class.
	ErrorKind = types.ErrorKind
	// Error is a classified failure.
	Error = types.Error
	// EntityResolver maps a raw entity name to its canonical id.
	EntityResolver = types.EntityResolver
	// ContentFetcher loads the payload of one slot.
	ContentFetcher = types.ContentFetcher
	// ResolverFunc adapts a function to EntityResolver.
	ResolverFunc = types.ResolverFunc
	// FetcherFunc adapts a function to ContentFetcher.
	FetcherFunc = types.FetcherFunc
	// ConnectivityMonitor reports whether the network is reachable.
	ConnectivityMonitor = types.ConnectivityMonitor
	// MetricsRecorder receives per-operation metrics events.
	MetricsRecorder = types.MetricsRecorder
	// Logger provides logging operations.
	Logger = types.Logger
	// Store is the storage substrate behind the TTL cache.
	Store = cache.Store
	// CacheStats is a diagnostic view of the TTL cache.
	CacheStats = types.CacheStats
)

const (
	KindUnknown            = types.KindUnknown
	KindNetworkUnavailable = types.KindNetworkUnavailable
	KindTimeout            = types.KindTimeout
	KindRateLimited        = types.KindRateLimited
	KindServerError        = types.KindServerError
	KindEntityNotFound     = types.KindEntityNotFound
	KindNoContentAvailable = types.KindNoContentAvailable
	KindMalformedResponse  = types.KindMalformedResponse
	KindQuotaExceeded      = types.KindQuotaExceeded
)

const (
	FunFactLore            = types.FunFactLore
	FunFactBehindTheScenes = types.FunFactBehindTheScenes
	FunFactActivity        = types.FunFactActivity
	FunFactSurprise        = types.FunFactSurprise
)

// Bio returns the biography slot.
func Bio() ContentType {
	return types.Bio()
}

// FunFact returns the fun fact slot for subtype.
func FunFact(subtype FunFactSubtype) ContentType {
	return types.FunFact(subtype)
}

// AllSlots returns every slot in enrichment order.
func AllSlots() []ContentType {
	return types.AllSlots()
}

// ParseContentType parses "bio", "funfact:<subtype>" or a bare subtype.
func ParseContentType(s string) (ContentType, error) {
	return types.ParseContentType(s)
}
