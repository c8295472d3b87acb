package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/contentgraph/pkg/domain"
	"github.com/aretw0/contentgraph/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the catalog and the locker.
const DefaultPrefix = "contentgraph:"

var _ ports.Catalog = (*Catalog)(nil)

// Catalog implements ports.Catalog using Redis.
// Descriptors are stored as JSON strings; a sorted set keeps registration order.
type Catalog struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Catalog)

// WithTTL sets the expiration for descriptors. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(c *Catalog) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Catalog) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// New creates a new Redis catalog with options.
func New(address, password string, db int, opts ...Option) *Catalog {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis catalog from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Catalog {
	c := &Catalog{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Client returns the underlying Redis client, e.g. to build a Locker on the same connection.
func (c *Catalog) Client() *backend.Client {
	return c.client
}

func (c *Catalog) key(id string) string {
	return c.prefix + "descriptor:" + id
}

func (c *Catalog) indexKey() string {
	return c.prefix + "index"
}

func (c *Catalog) seqKey() string {
	return c.prefix + "seq"
}

// Register stores the descriptor. A key seen before keeps its original position.
func (c *Catalog) Register(ctx context.Context, d domain.Descriptor) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal descriptor: %w", err)
	}
	id := d.Key.String()

	seq, err := c.client.Incr(ctx, c.seqKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate sequence: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.key(id), data, c.ttl)
	// NX keeps the first score, so re-registering never reorders.
	pipe.ZAddNX(ctx, c.indexKey(), backend.Z{
		Score:  float64(seq),
		Member: id,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Get retrieves a descriptor by key.
func (c *Catalog) Get(ctx context.Context, key domain.Key) (domain.Descriptor, error) {
	val, err := c.client.Get(ctx, c.key(key.String())).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.Descriptor{}, domain.ErrDescriptorNotFound
		}
		return domain.Descriptor{}, fmt.Errorf("failed to get from redis: %w", err)
	}

	var d domain.Descriptor
	if err := json.Unmarshal([]byte(val), &d); err != nil {
		return domain.Descriptor{}, fmt.Errorf("failed to unmarshal descriptor: %w", err)
	}
	return d, nil
}

// List returns every live descriptor in first-registration order. Index entries whose
// descriptor expired are pruned.
func (c *Catalog) List(ctx context.Context) ([]domain.Descriptor, error) {
	ids, err := c.client.ZRange(ctx, c.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list descriptors: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Descriptor{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptors: %w", err)
	}

	out := make([]domain.Descriptor, 0, len(vals))
	var expired []any
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		var d domain.Descriptor
		if err := json.Unmarshal([]byte(s), &d); err != nil {
			return nil, fmt.Errorf("failed to unmarshal descriptor %q: %w", ids[i], err)
		}
		out = append(out, d)
	}

	if len(expired) > 0 {
		if err := c.client.ZRem(ctx, c.indexKey(), expired...).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune expired descriptors: %w", err)
		}
	}
	return out, nil
}

// Prune deletes every indexed descriptor whose key is not in keep.
func (c *Catalog) Prune(ctx context.Context, keep []domain.Key) (int, error) {
	ids, err := c.client.ZRange(ctx, c.indexKey(), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list descriptors: %w", err)
	}

	set := ports.KeySet(keep)
	var stale []any
	var keys []string
	for _, id := range ids {
		if !set[id] {
			stale = append(stale, id)
			keys = append(keys, c.key(id))
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.ZRem(ctx, c.indexKey(), stale...)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to prune descriptors: %w", err)
	}
	return len(stale), nil
}

// Close closes the redis client.
func (c *Catalog) Close() error {
	return c.client.Close()
}
