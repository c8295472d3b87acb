package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/aretw0/contentgraph"
	"github.com/aretw0/contentgraph/internal/config"
	"github.com/aretw0/contentgraph/internal/logging"
	"github.com/aretw0/contentgraph/pkg/adapters/loam"
	"github.com/aretw0/contentgraph/pkg/adapters/memory"
	"github.com/aretw0/contentgraph/pkg/adapters/redis"
	"github.com/aretw0/contentgraph/pkg/adapters/tableau"
	"github.com/aretw0/contentgraph/pkg/domain"
	"github.com/aretw0/contentgraph/pkg/observability"
	"github.com/aretw0/contentgraph/pkg/persistence/middleware"
	"github.com/aretw0/contentgraph/pkg/ports"
	"github.com/aretw0/contentgraph/pkg/translator"
	"github.com/prometheus/client_golang/prometheus"
)

// App wires a workspace and a catalog from the configuration file.
type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Workspace *contentgraph.Workspace
	Catalog   ports.Catalog
	Registry  *prometheus.Registry

	registrar  ports.Registrar
	deployment tableau.Deployment
	logOutput  io.Writer
	withMetric bool
	closers    []func() error
}

// AppOption configures NewApp.
type AppOption func(*App)

// WithDeployment overrides the deployment derived from the configuration.
func WithDeployment(d tableau.Deployment) AppOption {
	return func(a *App) {
		a.deployment = d
	}
}

// WithLogOutput redirects the application log.
func WithLogOutput(w io.Writer) AppOption {
	return func(a *App) {
		a.logOutput = w
	}
}

// WithMetrics registers Prometheus collectors in a fresh registry exposed as App.Registry.
func WithMetrics() AppOption {
	return func(a *App) {
		a.withMetric = true
	}
}

// LoadConfig reads the configuration file. An empty path yields the defaults.
// A non-empty logLevel overrides the configured level.
func LoadConfig(path, logLevel string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

// NewApp validates the configuration and builds every component.
func NewApp(cfg config.Config, opts ...AppOption) (*App, error) {
	a := &App{Config: cfg, logOutput: os.Stderr}
	for _, opt := range opts {
		opt(a)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	a.Logger = logging.NewWithWriter(a.logOutput, level)

	if a.deployment == nil {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		if a.deployment, err = cfg.TableauDeployment(); err != nil {
			return nil, err
		}
	}

	hooks := observability.LoggingHooks(a.Logger)
	if a.withMetric {
		a.Registry = prometheus.NewRegistry()
		metrics, err := observability.NewMetrics(a.Registry)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		hooks = hooks.Merge(metrics.Hooks())
	}

	patterns, err := middleware.CompilePatterns(cfg.Redact)
	if err != nil {
		return nil, err
	}

	catalog, locker, err := a.openCatalog()
	if err != nil {
		return nil, err
	}
	a.Catalog = catalog
	a.registrar = middleware.Chain(catalog, middleware.NewPIIMiddleware(patterns))

	wsOpts := []contentgraph.Option{
		contentgraph.WithLogger(a.Logger),
		contentgraph.WithLifecycleHooks(hooks),
		contentgraph.WithTranslatorOptions(
			translator.WithKeyPrefix(cfg.KeyPrefix),
			translator.WithTags(cfg.Tags),
		),
		contentgraph.WithClientOptions(
			tableau.WithPageSize(cfg.HTTP.PageSize),
			tableau.WithHTTPClient(&http.Client{Timeout: cfg.HTTP.Timeout}),
		),
	}
	if cfg.Catalog.Prune {
		wsOpts = append(wsOpts, contentgraph.WithPruner(catalog))
	}
	if locker != nil {
		wsOpts = append(wsOpts, contentgraph.WithLocker(locker, contentgraph.DefaultLockTTL))
	}

	a.Workspace, err = contentgraph.NewTableau(cfg.Credentials(), a.deployment, wsOpts...)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) openCatalog() (ports.Catalog, ports.DistributedLocker, error) {
	c := a.Config.Catalog
	switch c.Kind {
	case config.CatalogMemory, "":
		return memory.New(), nil, nil
	case config.CatalogRedis:
		var opts []redis.Option
		if c.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(c.Redis.Prefix))
		}
		if c.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(c.Redis.TTL))
		}
		catalog := redis.New(c.Redis.Addr, c.Redis.Password, c.Redis.DB, opts...)
		a.closers = append(a.closers, catalog.Close)
		prefix := c.Redis.Prefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		a.Logger.Debug("Using redis catalog", "addr", c.Redis.Addr, "prefix", prefix)
		return catalog, redis.NewLocker(catalog.Client(), prefix), nil
	case config.CatalogLoam:
		catalog, err := loam.Open(c.Loam.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("open loam catalog: %w", err)
		}
		a.Logger.Debug("Using loam catalog", "dir", c.Loam.Dir)
		return catalog, nil, nil
	}
	return nil, nil, fmt.Errorf("catalog kind %q is not supported", c.Kind)
}

// Refresh runs one Load cycle into the configured catalog, masking redacted properties.
func (a *App) Refresh(ctx context.Context) (int, error) {
	return a.Workspace.Load(ctx, a.registrar)
}

// Descriptors returns the content of the catalog, running a Load cycle first when refresh is set.
func (a *App) Descriptors(ctx context.Context, refresh bool) ([]domain.Descriptor, error) {
	if refresh {
		if _, err := a.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	return a.Catalog.List(ctx)
}

// Close releases catalog connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}
