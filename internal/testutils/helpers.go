package testutils

import (
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// LoamCatalogRepo initializes an unversioned Loam repository in a fresh temp dir, the
// way the loam catalog opens its own directory, and returns both.
func LoamCatalogRepo(t *testing.T) (string, core.Repository) {
	t.Helper()

	dir := t.TempDir()
	repo, err := loam.Init(dir, loam.WithVersioning(false), loam.WithForceTemp(false))
	require.NoError(t, err, "init loam catalog repo")
	return dir, repo
}
