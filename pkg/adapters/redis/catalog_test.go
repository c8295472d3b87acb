package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/contentgraph/pkg/adapters/redis"
	"github.com/aretw0/contentgraph/pkg/domain"
	"github.com/aretw0/contentgraph/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisCatalog_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunCatalogContract(t, redis.NewFromClient(client))
}

func TestRedisCatalog_Layout(t *testing.T) {
	mr, client := setup(t)
	catalog := redis.NewFromClient(client, redis.WithPrefix("cg:"))
	ctx := context.Background()

	d := domain.Descriptor{
		Key:        domain.NewKey("tableau", "view", "wb", "A"),
		Kind:       domain.ContentTypeItem,
		Deps:       []domain.Key{domain.NewKey("tableau", "data_source", "X")},
		Properties: map[string]any{"name": "Overview"},
	}
	require.NoError(t, catalog.Register(ctx, d))

	assert.True(t, mr.Exists("cg:descriptor:tableau/view/wb/A"))
	members, err := mr.ZMembers("cg:index")
	require.NoError(t, err)
	assert.Equal(t, []string{"tableau/view/wb/A"}, members)

	raw, err := mr.Get("cg:descriptor:tableau/view/wb/A")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"key": "tableau/view/wb/A",
		"kind": "view",
		"deps": ["tableau/data_source/X"],
		"properties": {"name": "Overview"}
	}`, raw)
}

func TestRedisCatalog_ExpiredEntriesArePruned(t *testing.T) {
	mr, client := setup(t)
	catalog := redis.NewFromClient(client, redis.WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, catalog.Register(ctx, domain.Descriptor{Key: domain.NewKey("a"), Kind: domain.ContentTypeItem}))
	mr.FastForward(2 * time.Minute)
	require.NoError(t, catalog.Register(ctx, domain.Descriptor{Key: domain.NewKey("b"), Kind: domain.ContentTypeItem}))

	all, err := catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "b", all[0].Key.String())

	members, err := mr.ZMembers(redis.DefaultPrefix + "index")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, members)

	_, err = catalog.Get(ctx, domain.NewKey("a"))
	assert.ErrorIs(t, err, domain.ErrDescriptorNotFound)
}

func TestRedisCatalog_EmptyList(t *testing.T) {
	_, client := setup(t)
	all, err := redis.NewFromClient(client).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}
