package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/contentgraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunCatalogContract runs a suite of tests to verify that a Catalog implementation
// adheres to the defined interface contract. The catalog must start empty.
func RunCatalogContract(t *testing.T, catalog Catalog) {
	ctx := context.Background()
	suffix := time.Now().Format("20060102150405")

	source := domain.Descriptor{
		Key:        domain.NewKey("contract", "data_source", "ds-"+suffix),
		Kind:       domain.ContentTypeSubReference,
		Deps:       []domain.Key{},
		Properties: map[string]any{"name": "Orders"},
		Tags:       map[string]string{"storage_kind": "tableau"},
	}
	view := domain.Descriptor{
		Key:        domain.NewKey("contract", "view", "wb-"+suffix, "v-"+suffix),
		Kind:       domain.ContentTypeItem,
		Deps:       []domain.Key{source.Key},
		Properties: map[string]any{"name": "Sales"},
		Tags:       map[string]string{"storage_kind": "tableau"},
	}

	t.Run("Register and Get", func(t *testing.T) {
		require.NoError(t, catalog.Register(ctx, view), "Register should not return error")
		require.NoError(t, catalog.Register(ctx, source))

		loaded, err := catalog.Get(ctx, view.Key)
		require.NoError(t, err, "Get should not return error")
		assert.True(t, loaded.Key.Equal(view.Key))
		assert.Equal(t, view.Kind, loaded.Kind)
		assert.True(t, loaded.DependsOn(source.Key))
		assert.Equal(t, "Sales", loaded.Properties["name"])
		assert.Equal(t, "tableau", loaded.Tags["storage_kind"])
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := catalog.Get(ctx, domain.NewKey("contract", "missing", suffix))
		assert.ErrorIs(t, err, domain.ErrDescriptorNotFound)
	})

	t.Run("List keeps registration order", func(t *testing.T) {
		all, err := catalog.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.True(t, all[0].Key.Equal(view.Key))
		assert.True(t, all[1].Key.Equal(source.Key))
	})

	t.Run("Register is idempotent", func(t *testing.T) {
		require.NoError(t, catalog.Register(ctx, view))
		require.NoError(t, catalog.Register(ctx, source))

		all, err := catalog.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2, "re-registering must not duplicate")
		assert.True(t, all[0].Key.Equal(view.Key), "re-registering must not reorder")
	})

	t.Run("Register replaces by key", func(t *testing.T) {
		updated := view.Clone()
		updated.Properties["name"] = "Sales (renamed)"
		require.NoError(t, catalog.Register(ctx, updated))

		loaded, err := catalog.Get(ctx, view.Key)
		require.NoError(t, err)
		assert.Equal(t, "Sales (renamed)", loaded.Properties["name"])
	})

	t.Run("Prune drops keys outside the kept set", func(t *testing.T) {
		removed, err := catalog.Prune(ctx, []domain.Key{view.Key})
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		all, err := catalog.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.True(t, all[0].Key.Equal(view.Key))

		_, err = catalog.Get(ctx, source.Key)
		assert.ErrorIs(t, err, domain.ErrDescriptorNotFound)

		removed, err = catalog.Prune(ctx, []domain.Key{view.Key})
		require.NoError(t, err)
		assert.Zero(t, removed, "pruning is idempotent")
	})

	t.Run("Register after Prune appends", func(t *testing.T) {
		require.NoError(t, catalog.Register(ctx, source))

		all, err := catalog.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.True(t, all[0].Key.Equal(view.Key))
		assert.True(t, all[1].Key.Equal(source.Key))
	})
}
