package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/LavishGent/linernotes/internal/types"
)

// entryRecord is the JSON wire form of a CacheEntry for byte-oriented
// substrates. Times are unix nanoseconds so the round trip is exact.
type entryRecord struct {
	Key      string `json:"key"`
	Payload  string `json:"payload"`
	StoredAt int64  `json:"storedAt"`
	TTL      int64  `json:"ttl"`
}

// EncodeEntry serializes an entry for bigcache and redis.
func EncodeEntry(entry types.CacheEntry) ([]byte, error) {
	data, err := json.Marshal(entryRecord{
		Key:      entry.Key.String(),
		Payload:  entry.Payload,
		StoredAt: entry.StoredAt.UnixNano(),
		TTL:      int64(entry.TTL),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrSerializationFailed, err)
	}
	return data, nil
}

// DecodeEntry is the inverse of EncodeEntry.
func DecodeEntry(data []byte) (types.CacheEntry, error) {
	var rec entryRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return types.CacheEntry{}, fmt.Errorf("%w: %v", types.ErrSerializationFailed, err)
	}
	key, err := types.ParseCacheKey(rec.Key)
	if err != nil {
		return types.CacheEntry{}, fmt.Errorf("%w: %v", types.ErrSerializationFailed, err)
	}
	return types.CacheEntry{
		Key:      key,
		Payload:  rec.Payload,
		StoredAt: time.Unix(0, rec.StoredAt),
		TTL:      time.Duration(rec.TTL),
	}, nil
}
