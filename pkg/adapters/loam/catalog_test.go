package loam_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/contentgraph/internal/testutils"
	cgloam "github.com/aretw0/contentgraph/pkg/adapters/loam"
	"github.com/aretw0/contentgraph/pkg/domain"
	"github.com/aretw0/contentgraph/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCatalog(t *testing.T) (string, *cgloam.Catalog) {
	t.Helper()
	dir, repo := testutils.LoamCatalogRepo(t)
	return dir, cgloam.New(repo)
}

func TestLoamCatalog_Contract(t *testing.T) {
	_, catalog := setupCatalog(t)
	ports.RunCatalogContract(t, catalog)
}

func TestLoamCatalog_WritesDocuments(t *testing.T) {
	dir, catalog := setupCatalog(t)
	ctx := context.Background()

	d := domain.Descriptor{
		Key:        domain.NewKey("tableau", "view", "wb", "A"),
		Kind:       domain.ContentTypeItem,
		Deps:       []domain.Key{domain.NewKey("tableau", "data_source", "X")},
		Properties: map[string]any{"name": "Overview"},
		Tags:       map[string]string{"storage_kind": "tableau"},
	}
	require.NoError(t, catalog.Register(ctx, d))

	raw, err := os.ReadFile(filepath.Join(dir, "descriptors", "tableau", "view", "wb", "A.md"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "# Overview")
	assert.Contains(t, string(raw), "- tableau/data_source/X")

	loaded, err := catalog.Get(ctx, d.Key)
	require.NoError(t, err)
	assert.Equal(t, []string{"tableau", "data_source", "X"}, []string(loaded.Deps[0]))
	assert.Equal(t, domain.ContentTypeItem, loaded.Kind)
}

func TestLoamCatalog_ReopenKeepsOrder(t *testing.T) {
	dir, catalog := setupCatalog(t)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, catalog.Register(ctx, domain.Descriptor{
			Key:  domain.NewKey("tableau", "data_source", id),
			Kind: domain.ContentTypeSubReference,
		}))
	}

	reopened, err := cgloam.Open(dir)
	require.NoError(t, err)

	// Re-registering an existing key after reopening keeps its slot.
	require.NoError(t, reopened.Register(ctx, domain.Descriptor{
		Key:  domain.NewKey("tableau", "data_source", "c"),
		Kind: domain.ContentTypeSubReference,
	}))
	require.NoError(t, reopened.Register(ctx, domain.Descriptor{
		Key:  domain.NewKey("tableau", "data_source", "d"),
		Kind: domain.ContentTypeSubReference,
	}))

	all, err := reopened.List(ctx)
	require.NoError(t, err)
	var ids []string
	for _, d := range all {
		ids = append(ids, d.Key[len(d.Key)-1])
	}
	assert.Equal(t, []string{"c", "a", "b", "d"}, ids)
}

func TestLoamCatalog_DottedKeys(t *testing.T) {
	dir, catalog := setupCatalog(t)
	ctx := context.Background()

	key := domain.NewKey("tableau", "view", "wb", "v.1")
	require.NoError(t, catalog.Register(ctx, domain.Descriptor{
		Key:        key,
		Kind:       domain.ContentTypeItem,
		Properties: map[string]any{"name": "Dotted"},
	}))

	loaded, err := catalog.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "Dotted", loaded.Properties["name"])

	removed, err := catalog.Prune(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	_, err = os.Stat(filepath.Join(dir, "descriptors", "tableau", "view", "wb", "v.1.md"))
	assert.True(t, os.IsNotExist(err))
}
