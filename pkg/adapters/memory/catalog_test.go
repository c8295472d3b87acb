package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/contentgraph/pkg/adapters/memory"
	"github.com/aretw0/contentgraph/pkg/domain"
	"github.com/aretw0/contentgraph/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCatalog_Contract(t *testing.T) {
	ports.RunCatalogContract(t, memory.New())
}

func TestMemoryCatalog_Isolation(t *testing.T) {
	catalog := memory.New()
	ctx := context.Background()

	d := domain.Descriptor{
		Key:        domain.NewKey("tableau", "data_source", "ds-1"),
		Kind:       domain.ContentTypeSubReference,
		Properties: map[string]any{"name": "Orders"},
		Tags:       map[string]string{"storage_kind": "tableau"},
	}
	require.NoError(t, catalog.Register(ctx, d))

	d.Properties["name"] = "mutated after register"
	loaded, err := catalog.Get(ctx, d.Key)
	require.NoError(t, err)
	assert.Equal(t, "Orders", loaded.Properties["name"])

	loaded.Tags["storage_kind"] = "mutated after get"
	again, err := catalog.Get(ctx, d.Key)
	require.NoError(t, err)
	assert.Equal(t, "tableau", again.Tags["storage_kind"])
}

func TestMemoryCatalog_ConcurrentRegister(t *testing.T) {
	catalog := memory.New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := domain.NewKey("tableau", "view", "wb", string(rune('a'+n%10)))
			_ = catalog.Register(ctx, domain.Descriptor{Key: key, Kind: domain.ContentTypeItem})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, catalog.Len())
}
