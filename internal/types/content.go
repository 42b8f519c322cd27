// Package types provides shared types for the linernotes enrichment client.
// This package breaks import cycles between pkg/linernotes and the internal packages.
package types

import (
	"fmt"
	"strings"
	"time"
)

// SlotKind discriminates the content type union.
type SlotKind uint8

const (
	SlotBio SlotKind = iota + 1
	SlotFunFact
)

func (k SlotKind) String() string {
	switch k {
	case SlotBio:
		return "bio"
	case SlotFunFact:
		return "funfact"
	default:
		return "unknown"
	}
}

// FunFactSubtype names one fun-fact category.
type FunFactSubtype string

const (
	FunFactLore            FunFactSubtype = "lore"
	FunFactBehindTheScenes FunFactSubtype = "bts"
	FunFactActivity        FunFactSubtype = "activity"
	FunFactSurprise        FunFactSubtype = "surprise"
)

const contentTypeFunFactLabel = "funfact"

// FunFactSubtypes returns every fun-fact subtype in display order.
func FunFactSubtypes() []FunFactSubtype {
	return []FunFactSubtype{FunFactLore, FunFactBehindTheScenes, FunFactActivity, FunFactSurprise}
}

// Valid reports whether s is one of the known subtypes.
func (s FunFactSubtype) Valid() bool {
	switch s {
	case FunFactLore, FunFactBehindTheScenes, FunFactActivity, FunFactSurprise:
		return true
	}
	return false
}

// ContentType is one enrichment slot: either the biography or a fun fact of a
// given subtype. The zero value is invalid. ContentType is comparable and can
// be used as a map key.
type ContentType struct {
	kind    SlotKind
	subtype FunFactSubtype
}

// Bio returns the biography slot.
func Bio() ContentType {
	return ContentType{kind: SlotBio}
}

// FunFact returns the fun-fact slot for the given subtype.
func FunFact(subtype FunFactSubtype) ContentType {
	return ContentType{kind: SlotFunFact, subtype: subtype}
}

// AllSlots returns the bio slot followed by every fun-fact slot.
func AllSlots() []ContentType {
	subtypes := FunFactSubtypes()
	slots := make([]ContentType, 0, len(subtypes)+1)
	slots = append(slots, Bio())
	for _, s := range subtypes {
		slots = append(slots, FunFact(s))
	}
	return slots
}

func (c ContentType) Kind() SlotKind { return c.kind }

func (c ContentType) IsBio() bool { return c.kind == SlotBio }

// Subtype returns the fun-fact subtype, or false for the bio slot.
func (c ContentType) Subtype() (FunFactSubtype, bool) {
	if c.kind != SlotFunFact {
		return "", false
	}
	return c.subtype, true
}

func (c ContentType) Valid() bool {
	switch c.kind {
	case SlotBio:
		return c.subtype == ""
	case SlotFunFact:
		return c.subtype.Valid()
	default:
		return false
	}
}

func (c ContentType) String() string {
	switch c.kind {
	case SlotBio:
		return "bio"
	case SlotFunFact:
		return contentTypeFunFactLabel + ":" + string(c.subtype)
	default:
		return "invalid"
	}
}

func (c ContentType) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidContentType, c.String())
	}
	return []byte(c.String()), nil
}

func (c *ContentType) UnmarshalText(text []byte) error {
	parsed, err := ParseContentType(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseContentType parses the String form of a content type. A bare subtype
// name such as "lore" is accepted as shorthand for "funfact:lore".
func ParseContentType(s string) (ContentType, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "bio" {
		return Bio(), nil
	}
	sub := strings.TrimPrefix(s, contentTypeFunFactLabel+":")
	if ct := FunFact(FunFactSubtype(sub)); ct.Valid() {
		return ct, nil
	}
	return ContentType{}, fmt.Errorf("%w: %q", ErrInvalidContentType, s)
}

const keySeparator = "|"

var (
	keyEscaper   = strings.NewReplacer("%", "%25", keySeparator, "%7C")
	keyUnescaper = strings.NewReplacer("%25", "%", "%7C", keySeparator)
)

// CacheKey identifies one cached slot payload for one entity.
type CacheKey struct {
	EntityID string
	Type     ContentType
}

// String renders the substrate key "<entityID>|<contentType>". A "|" or "%"
// in the entity id is percent-escaped so any upstream id round-trips.
func (k CacheKey) String() string {
	return keyEscaper.Replace(k.EntityID) + keySeparator + k.Type.String()
}

// ParseCacheKey is the inverse of CacheKey.String.
func ParseCacheKey(s string) (CacheKey, error) {
	id, ct, ok := strings.Cut(s, keySeparator)
	if !ok || id == "" {
		return CacheKey{}, fmt.Errorf("%w: malformed cache key %q", ErrInvalidKey, s)
	}
	typ, err := ParseContentType(ct)
	if err != nil {
		return CacheKey{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return CacheKey{EntityID: keyUnescaper.Replace(id), Type: typ}, nil
}

// CacheEntry is an immutable stored payload.
type CacheEntry struct {
	Key      CacheKey
	Payload  string
	StoredAt time.Time
	TTL      time.Duration
}

// IsExpiredAt reports whether the entry has outlived its TTL at now.
func (e CacheEntry) IsExpiredAt(now time.Time) bool {
	return now.Sub(e.StoredAt) > e.TTL
}
