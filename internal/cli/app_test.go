package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/contentgraph/internal/config"
	"github.com/aretw0/contentgraph/internal/testutils"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeSite(t *testing.T) (*testutils.FakeTableau, testutils.Deployment) {
	t.Helper()
	fake := testutils.NewFakeTableau()
	fake.AddWorkbook("wb", testutils.Workbook("wb", "Sales",
		testutils.Sheet("A", "Overview", testutils.DataSource("X", "Orders")),
		testutils.Sheet("B", "Margins", testutils.DataSource("X", "Orders"), testutils.DataSource("Y", "Ledger")),
	))
	return fake, testutils.Deployment{BaseURL: fake.Start(t)}
}

func baseConfig(fake *testutils.FakeTableau) config.Config {
	cfg := config.Default()
	cfg.Deployment.PodName = "10ax"
	cfg.SiteName = fake.Site
	cfg.Username = "analyst@example.com"
	cfg.ConnectedApp = config.ConnectedApp{ClientID: "client", SecretID: "secret-id", SecretValue: fake.Secret}
	return cfg
}

func TestNewApp_MemoryCatalog(t *testing.T) {
	fake, dep := fakeSite(t)
	var logs bytes.Buffer
	app, err := NewApp(baseConfig(fake), WithDeployment(dep), WithLogOutput(&logs), WithMetrics())
	require.NoError(t, err)
	defer app.Close()

	descs, err := app.Descriptors(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, descs, 4)
	assert.Equal(t, "tableau/view/wb/A", descs[0].Key.String())

	assert.Contains(t, logs.String(), "session_open")
	require.NotNil(t, app.Registry)
	count, err := testutil.GatherAndCount(app.Registry, "contentgraph_translations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestApp_RefreshPrunesRemovedContent(t *testing.T) {
	fake, dep := fakeSite(t)
	fake.AddWorkbook("wb-2", testutils.Workbook("wb-2", "Finance",
		testutils.Sheet("C", "Cash", testutils.DataSource("Z", "Treasury")),
	))
	app, err := NewApp(baseConfig(fake), WithDeployment(dep), WithLogOutput(&bytes.Buffer{}))
	require.NoError(t, err)
	defer app.Close()

	ctx := context.Background()
	_, err = app.Refresh(ctx)
	require.NoError(t, err)
	fake.RemoveWorkbook("wb-2")
	_, err = app.Refresh(ctx)
	require.NoError(t, err)

	descs, err := app.Descriptors(ctx, false)
	require.NoError(t, err)
	assert.Len(t, descs, 4)
}

func TestApp_RefreshKeepsRemovedContentWithoutPrune(t *testing.T) {
	fake, dep := fakeSite(t)
	fake.AddWorkbook("wb-2", testutils.Workbook("wb-2", "Finance",
		testutils.Sheet("C", "Cash", testutils.DataSource("Z", "Treasury")),
	))
	cfg := baseConfig(fake)
	cfg.Catalog.Prune = false
	app, err := NewApp(cfg, WithDeployment(dep), WithLogOutput(&bytes.Buffer{}))
	require.NoError(t, err)
	defer app.Close()

	ctx := context.Background()
	_, err = app.Refresh(ctx)
	require.NoError(t, err)
	fake.RemoveWorkbook("wb-2")
	_, err = app.Refresh(ctx)
	require.NoError(t, err)

	descs, err := app.Descriptors(ctx, false)
	require.NoError(t, err)
	assert.Len(t, descs, 6)
}

func TestNewApp_RedisCatalogUsesLock(t *testing.T) {
	fake, dep := fakeSite(t)
	mr := miniredis.RunT(t)

	cfg := baseConfig(fake)
	cfg.Catalog.Kind = config.CatalogRedis
	cfg.Catalog.Redis.Addr = mr.Addr()
	cfg.Catalog.Redis.Prefix = "test:"

	app, err := NewApp(cfg, WithDeployment(dep), WithLogOutput(&bytes.Buffer{}))
	require.NoError(t, err)
	defer app.Close()

	n, err := app.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.True(t, mr.Exists("test:index"))
	assert.False(t, mr.Exists("test:lock:refresh:acme"), "lock is released after the cycle")
}

func TestNewApp_LoamCatalog(t *testing.T) {
	fake, dep := fakeSite(t)
	dir := t.TempDir()

	cfg := baseConfig(fake)
	cfg.Catalog.Kind = config.CatalogLoam
	cfg.Catalog.Loam.Dir = dir

	app, err := NewApp(cfg, WithDeployment(dep), WithLogOutput(&bytes.Buffer{}))
	require.NoError(t, err)

	_, err = app.Refresh(context.Background())
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "descriptors", "tableau", "view", "wb", "A.md"))
	assert.NoError(t, err)
}

func TestNewApp_InvalidConfig(t *testing.T) {
	_, err := NewApp(config.Default(), WithLogOutput(&bytes.Buffer{}))
	assert.ErrorContains(t, err, "invalid config")

	cfg := config.Default()
	cfg.LogLevel = "chatty"
	_, err = NewApp(cfg)
	assert.ErrorContains(t, err, "unknown log level")
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("", "debug")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, config.CatalogMemory, cfg.Catalog.Kind)

	path := filepath.Join(t.TempDir(), "contentgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("site_name: acme\nlog_level: warn\n"), 0o600))
	cfg, err = LoadConfig(path, "")
	require.NoError(t, err)
	assert.Equal(t, "acme", cfg.SiteName)
	assert.Equal(t, "warn", cfg.LogLevel)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.Error(t, err)
}

func TestNewApp_RedactsProperties(t *testing.T) {
	fake, dep := fakeSite(t)
	cfg := baseConfig(fake)
	cfg.Redact = []string{"^path$"}

	app, err := NewApp(cfg, WithDeployment(dep), WithLogOutput(&bytes.Buffer{}))
	require.NoError(t, err)

	_, err = app.Refresh(context.Background())
	require.NoError(t, err)

	descs, err := app.Catalog.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "***", descs[0].Properties["path"])
	assert.Equal(t, "Overview", descs[0].Properties["name"])
}
