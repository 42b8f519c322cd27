// Package dynamostore is a cache substrate on Amazon DynamoDB.
package dynamostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/LavishGent/linernotes/internal/config"
	"github.com/LavishGent/linernotes/internal/types"
)

const (
	layer = "dynamodb"

	// hashKey is the table's partition key attribute.
	hashKey = "cache_key"

	// maxBatchWrite is the DynamoDB limit for BatchWriteItem.
	maxBatchWrite = 25
)

// ErrNilClient is returned when New is called without a client.
var ErrNilClient = errors.New("dynamostore: nil client")

// API is the subset of the DynamoDB client the store uses.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

type item struct {
	CacheKey    string `dynamodbav:"cache_key"`
	EntityID    string `dynamodbav:"entity_id"`
	ContentType string `dynamodbav:"content_type"`
	Payload     string `dynamodbav:"payload"`
	StoredAt    int64  `dynamodbav:"stored_at"`
	TTL         int64  `dynamodbav:"ttl_ns"`
	// ExpiresAt is unix seconds, for the table's native TTL attribute.
	ExpiresAt int64 `dynamodbav:"expires_at"`
}

func itemFrom(entry types.CacheEntry) item {
	return item{
		CacheKey:    entry.Key.String(),
		EntityID:    entry.Key.EntityID,
		ContentType: entry.Key.Type.String(),
		Payload:     entry.Payload,
		StoredAt:    entry.StoredAt.UnixNano(),
		TTL:         int64(entry.TTL),
		ExpiresAt:   entry.StoredAt.Add(entry.TTL).Unix(),
	}
}

func (i item) entry() (types.CacheEntry, error) {
	ct, err := types.ParseContentType(i.ContentType)
	if err != nil {
		return types.CacheEntry{}, err
	}
	return types.CacheEntry{
		Key:      types.CacheKey{EntityID: i.EntityID, Type: ct},
		Payload:  i.Payload,
		StoredAt: time.Unix(0, i.StoredAt),
		TTL:      time.Duration(i.TTL),
	}, nil
}

// Store keeps cache entries in a DynamoDB table keyed by cache_key.
type Store struct {
	client API
	table  string
	logger *slog.Logger
	closed atomic.Bool
}

// New creates a store over client.
func New(client API, table string, logger *slog.Logger) (*Store, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if table == "" {
		return nil, errors.New("dynamostore: table is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		client: client,
		table:  table,
		logger: logger.With("component", "dynamodb-store", "table", table),
	}, nil
}

// NewFromConfig builds a DynamoDB client from the default AWS credential
// chain, with the region and endpoint from cfg when set.
func NewFromConfig(ctx context.Context, cfg config.DynamoDBConfig, logger *slog.Logger) (*Store, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("dynamostore: load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return New(client, cfg.Table, logger)
}

// Name returns the substrate name.
func (s *Store) Name() string {
	return layer
}

// IsAvailable returns true if the store is not closed.
func (s *Store) IsAvailable() bool {
	return !s.closed.Load()
}

func keyAttr(key string) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		hashKey: &ddbtypes.AttributeValueMemberS{Value: key},
	}
}

// Put writes an entry, replacing any previous item with the same key.
func (s *Store) Put(ctx context.Context, entry types.CacheEntry) error {
	if s.closed.Load() {
		return types.ErrClosed
	}

	key := entry.Key.String()
	av, err := attributevalue.MarshalMap(itemFrom(entry))
	if err != nil {
		return types.NewCacheError("Put", key, layer, fmt.Errorf("%w: %v", types.ErrSerializationFailed, err))
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	})
	if err != nil {
		return types.NewCacheError("Put", key, layer, err)
	}
	return nil
}

// Get reads an entry with a consistent read.
func (s *Store) Get(ctx context.Context, key string) (types.CacheEntry, error) {
	if s.closed.Load() {
		return types.CacheEntry{}, types.ErrClosed
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            keyAttr(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return types.CacheEntry{}, types.NewCacheError("Get", key, layer, err)
	}
	if out.Item == nil {
		return types.CacheEntry{}, types.ErrCacheMiss
	}

	var it item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return types.CacheEntry{}, types.NewCacheError("Get", key, layer, fmt.Errorf("%w: %v", types.ErrSerializationFailed, err))
	}
	entry, err := it.entry()
	if err != nil {
		return types.CacheEntry{}, types.NewCacheError("Get", key, layer, fmt.Errorf("%w: %v", types.ErrSerializationFailed, err))
	}
	return entry, nil
}

// Delete removes an entry.
func (s *Store) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return types.ErrClosed
	}

	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       keyAttr(key),
	})
	if err != nil {
		return types.NewCacheError("Delete", key, layer, err)
	}
	return nil
}

// Clear deletes every item in the table in batches.
func (s *Store) Clear(ctx context.Context) error {
	if s.closed.Load() {
		return types.ErrClosed
	}

	var keys []string
	err := s.scanItems(ctx, []string{hashKey}, func(it item) bool {
		keys = append(keys, it.CacheKey)
		return true
	})
	if err != nil {
		return types.NewCacheError("Clear", "", layer, err)
	}

	for start := 0; start < len(keys); start += maxBatchWrite {
		end := min(start+maxBatchWrite, len(keys))
		requests := make([]ddbtypes.WriteRequest, 0, end-start)
		for _, k := range keys[start:end] {
			requests = append(requests, ddbtypes.WriteRequest{
				DeleteRequest: &ddbtypes.DeleteRequest{Key: keyAttr(k)},
			})
		}
		if err := s.batchWrite(ctx, requests); err != nil {
			return types.NewCacheError("Clear", "", layer, err)
		}
	}

	s.logger.Debug("Cleared table", "deleted", len(keys))
	return nil
}

func (s *Store) batchWrite(ctx context.Context, requests []ddbtypes.WriteRequest) error {
	pending := map[string][]ddbtypes.WriteRequest{s.table: requests}
	for len(pending[s.table]) > 0 {
		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return err
		}
		pending = out.UnprocessedItems
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Scan visits every item in the table.
func (s *Store) Scan(ctx context.Context, fn func(types.CacheEntry) bool) error {
	if s.closed.Load() {
		return types.ErrClosed
	}

	err := s.scanItems(ctx, nil, func(it item) bool {
		entry, err := it.entry()
		if err != nil {
			s.logger.Debug("Skipping unreadable item", "key", it.CacheKey, "error", err)
			return true
		}
		return fn(entry)
	})
	if err != nil {
		return types.NewCacheError("Scan", "", layer, err)
	}
	return nil
}

func (s *Store) scanItems(ctx context.Context, projection []string, fn func(item) bool) error {
	input := &dynamodb.ScanInput{TableName: aws.String(s.table)}
	if len(projection) > 0 {
		input.ProjectionExpression = aws.String(strings.Join(projection, ", "))
	}

	for {
		out, err := s.client.Scan(ctx, input)
		if err != nil {
			return err
		}

		var page []item
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return fmt.Errorf("%w: %v", types.ErrSerializationFailed, err)
		}
		for _, it := range page {
			if !fn(it) {
				return nil
			}
		}

		if len(out.LastEvaluatedKey) == 0 {
			return nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// Close marks the store closed. The AWS client holds no resources to release.
func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}
