package contentgraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/contentgraph/internal/logging"
	"github.com/aretw0/contentgraph/pkg/adapters/tableau"
	"github.com/aretw0/contentgraph/pkg/domain"
	"github.com/aretw0/contentgraph/pkg/ports"
	"github.com/aretw0/contentgraph/pkg/translator"
)

// DefaultLockTTL bounds how long a refresh cycle may hold the distributed lock.
const DefaultLockTTL = 5 * time.Minute

// Workspace is the high-level entry point of the library. It runs fetch-translate
// cycles against one site, each with its own fetcher and session.
type Workspace struct {
	factory    ports.FetcherFactory
	siteName   string
	layout     domain.Layout
	translator *translator.Translator

	translatorOpts []translator.Option
	clientOpts     []tableau.Option
	locker         ports.DistributedLocker
	pruner         ports.Pruner
	lockTTL        time.Duration
	hooks          domain.LifecycleHooks
	logger         *slog.Logger
}

// Option defines a functional option for configuring the Workspace.
type Option func(*Workspace)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(w *Workspace) {
		w.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the workspace.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) {
		w.logger = logger
	}
}

// WithLayout overrides the field names used to read the fetched payloads.
func WithLayout(l domain.Layout) Option {
	return func(w *Workspace) {
		w.layout = l
	}
}

// WithTranslatorOptions forwards options to the translator (key derivation, tags).
func WithTranslatorOptions(opts ...translator.Option) Option {
	return func(w *Workspace) {
		w.translatorOpts = append(w.translatorOpts, opts...)
	}
}

// WithClientOptions forwards options to every Tableau client built by NewTableau.
func WithClientOptions(opts ...tableau.Option) Option {
	return func(w *Workspace) {
		w.clientOpts = append(w.clientOpts, opts...)
	}
}

// WithLocker serialises Load cycles for the same site across processes.
// A non-positive ttl falls back to DefaultLockTTL.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(w *Workspace) {
		w.locker = locker
		w.lockTTL = ttl
	}
}

// WithPruner removes, after every fully registered Load, the descriptors the cycle
// no longer produced.
func WithPruner(p ports.Pruner) Option {
	return func(w *Workspace) {
		w.pruner = p
	}
}

// New creates a workspace. The factory is called once per cycle.
func New(factory ports.FetcherFactory, siteName string, opts ...Option) (*Workspace, error) {
	if factory == nil {
		return nil, fmt.Errorf("fetcher factory is required")
	}
	w := &Workspace{
		factory:  factory,
		siteName: siteName,
		layout:   domain.TableauLayout(),
		lockTTL:  DefaultLockTTL,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logging.NewNop()
	}
	if w.lockTTL <= 0 {
		w.lockTTL = DefaultLockTTL
	}
	if siteName != "" {
		w.logger = w.logger.With("site", siteName)
	}

	topts := append([]translator.Option{
		translator.WithLayout(w.layout),
		translator.WithLogger(w.logger),
	}, w.translatorOpts...)
	w.translator = translator.New(topts...)
	return w, nil
}

// NewTableau creates a workspace backed by Tableau clients for the given credentials.
func NewTableau(creds tableau.Credentials, deployment tableau.Deployment, opts ...Option) (*Workspace, error) {
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", err)
	}
	if deployment == nil {
		return nil, fmt.Errorf("deployment is required")
	}

	var w *Workspace
	factory := func() (ports.ContentFetcher, error) {
		copts := append([]tableau.Option{
			tableau.WithLogger(w.logger),
			tableau.WithLifecycleHooks(w.hooks),
		}, w.clientOpts...)
		return tableau.NewClient(creds, deployment, copts...), nil
	}
	w, err := New(factory, creds.SiteName, opts...)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// SiteName returns the site the workspace reads from.
func (w *Workspace) SiteName() string {
	return w.siteName
}

// FetchSnapshot opens a session, collects every container and closes the session.
func (w *Workspace) FetchSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := w.withSession(ctx, func(fetcher ports.ContentFetcher) error {
		var err error
		snap, err = tableau.Collect(ctx, fetcher, w.siteName, w.layout)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// BuildDescriptors runs a full cycle and returns the descriptors without registering them.
// No state is kept between calls; every call re-fetches the site.
func (w *Workspace) BuildDescriptors(ctx context.Context) ([]domain.Descriptor, error) {
	var descs []domain.Descriptor
	err := w.withSession(ctx, func(fetcher ports.ContentFetcher) error {
		snap, err := tableau.Collect(ctx, fetcher, w.siteName, w.layout)
		if err != nil {
			return err
		}
		descs, err = w.translate(ctx, snap)
		return err
	})
	if err != nil {
		return nil, err
	}
	return descs, nil
}

// Translate runs the configured translator on an existing snapshot.
func (w *Workspace) Translate(ctx context.Context, snap *domain.Snapshot) ([]domain.Descriptor, error) {
	return w.translate(ctx, snap)
}

// Load builds every descriptor first and only then registers them in order, so a failed
// fetch or translation registers nothing. It returns how many descriptors were registered.
//
// A registrar failure stops the sequence: the descriptors registered before it stay
// committed and the count says how many. Registration replaces by key, so the next
// successful Load converges the registrar on the full set. Pruning, when configured,
// only runs once every descriptor was registered.
func (w *Workspace) Load(ctx context.Context, registrar ports.Registrar) (int, error) {
	if w.locker != nil {
		unlock, err := w.locker.Lock(ctx, "refresh:"+w.siteName, w.lockTTL)
		if err != nil {
			return 0, fmt.Errorf("acquire refresh lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				w.logger.Warn("Failed to release refresh lock", "err", err)
			}
		}()
	}

	descs, err := w.BuildDescriptors(ctx)
	if err != nil {
		return 0, err
	}
	for i, d := range descs {
		if err := registrar.Register(ctx, d); err != nil {
			return i, fmt.Errorf("register %s: %w", d.Key, err)
		}
	}

	if w.pruner != nil {
		keep := make([]domain.Key, len(descs))
		for i, d := range descs {
			keep[i] = d.Key
		}
		removed, err := w.pruner.Prune(ctx, keep)
		if err != nil {
			return len(descs), fmt.Errorf("prune stale descriptors: %w", err)
		}
		if removed > 0 {
			w.logger.Info("Pruned stale descriptors", "count", removed)
		}
	}
	w.logger.Info("Loaded descriptors", "count", len(descs))
	return len(descs), nil
}

func (w *Workspace) translate(ctx context.Context, snap *domain.Snapshot) ([]domain.Descriptor, error) {
	start := time.Now()
	descs, err := w.translator.Translate(snap)

	_, items, subs := snap.Len()
	w.hooks.EmitTranslate(ctx, &domain.TranslateEvent{
		EventBase:     domain.EventBase{Timestamp: start, Type: domain.EventTranslate},
		SiteName:      w.siteName,
		Items:         items,
		SubReferences: subs,
		Duration:      time.Since(start),
		Err:           err,
	})
	if err != nil {
		return nil, err
	}
	return descs, nil
}

// withSession authenticates a fresh fetcher, runs fn and always ends the session, even
// when fn fails or panics. A failed authentication ends nothing.
func (w *Workspace) withSession(ctx context.Context, fn func(ports.ContentFetcher) error) (err error) {
	fetcher, err := w.factory()
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}

	if err := fetcher.Authenticate(ctx); err != nil {
		w.emitSession(ctx, domain.EventSessionOpen, err)
		w.logger.Error("Authentication failed", "err", err)
		return err
	}
	w.emitSession(ctx, domain.EventSessionOpen, nil)

	defer func() {
		endErr := fetcher.EndSession(context.WithoutCancel(ctx))
		w.emitSession(ctx, domain.EventSessionClose, endErr)
		if endErr != nil {
			w.logger.Warn("Failed to end session", "err", endErr)
			err = errors.Join(err, fmt.Errorf("end session: %w", endErr))
		}
	}()

	return fn(fetcher)
}

func (w *Workspace) emitSession(ctx context.Context, typ domain.EventType, err error) {
	w.hooks.EmitSession(ctx, &domain.SessionEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ},
		SiteName:  w.siteName,
		Err:       err,
	})
}
