package loam

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/contentgraph/pkg/domain"
	"github.com/aretw0/contentgraph/pkg/ports"
	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/mitchellh/mapstructure"
)

// DefaultDir is the folder, relative to the repository root, holding descriptor documents.
const DefaultDir = "descriptors"

var _ ports.Catalog = (*Catalog)(nil)

// Catalog implements ports.Catalog on top of a Loam repository.
// Each descriptor becomes one markdown document whose frontmatter carries the
// descriptor and whose body is a short human-readable summary.
type Catalog struct {
	repo core.Repository
	dir  string

	mu     sync.Mutex
	seqs   map[string]int
	next   int
	loaded bool
}

type Option func(*Catalog)

// WithDir sets the folder holding descriptor documents.
func WithDir(dir string) Option {
	return func(c *Catalog) {
		c.dir = strings.Trim(dir, "/")
	}
}

// New wraps an initialized Loam repository.
func New(repo core.Repository, opts ...Option) *Catalog {
	c := &Catalog{
		repo: repo,
		dir:  DefaultDir,
		seqs: make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open initializes a Loam repository at path and wraps it.
// Versioning is disabled: the catalog is rewritten on every load cycle.
func Open(path string, opts ...Option) (*Catalog, error) {
	repo, err := loam.Init(path,
		loam.WithVersioning(false),
		loam.WithForceTemp(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(repo, opts...), nil
}

// record is the frontmatter layout of a descriptor document.
type record struct {
	Key        domain.Key        `mapstructure:"key"`
	Kind       string            `mapstructure:"kind"`
	Deps       []domain.Key      `mapstructure:"deps"`
	Properties map[string]any    `mapstructure:"properties"`
	Tags       map[string]string `mapstructure:"tags"`
	Seq        int               `mapstructure:"seq"`
}

// docID is the document path of a key, extension included.
func (c *Catalog) docID(key domain.Key) string {
	if c.dir == "" {
		return key.String() + ".md"
	}
	return c.dir + "/" + key.String() + ".md"
}

// Register writes the descriptor document, replacing any previous version.
func (c *Catalog) Register(ctx context.Context, d domain.Descriptor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(ctx); err != nil {
		return err
	}

	id := d.Key.String()
	seq, ok := c.seqs[id]
	if !ok {
		seq = c.next
	}

	deps := make([]string, len(d.Deps))
	for i, dep := range d.Deps {
		deps[i] = dep.String()
	}
	meta := core.Metadata{
		"key":  id,
		"kind": string(d.Kind),
		"deps": deps,
		"seq":  seq,
	}
	if len(d.Properties) > 0 {
		meta["properties"] = d.Properties
	}
	if len(d.Tags) > 0 {
		meta["tags"] = d.Tags
	}

	err := c.repo.Save(ctx, core.Document{
		ID:       c.docID(d.Key),
		Content:  summary(d),
		Metadata: meta,
	})
	if err != nil {
		return fmt.Errorf("loam save failed for %s: %w", id, err)
	}

	if !ok {
		c.seqs[id] = seq
		c.next++
	}
	return nil
}

// Get reads a descriptor document back.
func (c *Catalog) Get(ctx context.Context, key domain.Key) (domain.Descriptor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(ctx); err != nil {
		return domain.Descriptor{}, err
	}
	if _, ok := c.seqs[key.String()]; !ok {
		return domain.Descriptor{}, domain.ErrDescriptorNotFound
	}

	doc, err := c.repo.Get(ctx, c.docID(key))
	if err != nil {
		return domain.Descriptor{}, fmt.Errorf("loam get failed for %s: %w", key, err)
	}
	rec, err := decode(doc.Metadata)
	if err != nil {
		return domain.Descriptor{}, fmt.Errorf("invalid descriptor document %s: %w", key, err)
	}
	return rec.descriptor(), nil
}

// List returns every descriptor document in first-registration order.
func (c *Catalog) List(ctx context.Context) ([]domain.Descriptor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Descriptor, len(records))
	for i, rec := range records {
		out[i] = rec.descriptor()
	}
	return out, nil
}

// Prune deletes every descriptor document whose key is not in keep.
func (c *Catalog) Prune(ctx context.Context, keep []domain.Key) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(ctx); err != nil {
		return 0, err
	}

	set := ports.KeySet(keep)
	stale := make([]string, 0)
	for id := range c.seqs {
		if !set[id] {
			stale = append(stale, id)
		}
	}
	sort.Strings(stale)

	for i, id := range stale {
		key, err := domain.ParseKey(id)
		if err != nil {
			return i, err
		}
		if err := c.repo.Delete(ctx, c.docID(key)); err != nil {
			return i, fmt.Errorf("loam delete failed for %s: %w", id, err)
		}
		delete(c.seqs, id)
	}
	return len(stale), nil
}

// load rebuilds the registration order from the documents on disk, once.
func (c *Catalog) load(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	records, err := c.scan(ctx)
	if err != nil {
		return err
	}
	for _, rec := range records {
		c.seqs[rec.Key.String()] = rec.Seq
		if rec.Seq >= c.next {
			c.next = rec.Seq + 1
		}
	}
	c.loaded = true
	return nil
}

// scan decodes every document that looks like a descriptor, sorted by sequence.
// Documents without a key (notes, readmes) are ignored.
func (c *Catalog) scan(ctx context.Context) ([]record, error) {
	docs, err := c.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	records := make([]record, 0, len(docs))
	for _, doc := range docs {
		if _, ok := doc.Metadata["key"]; !ok {
			continue
		}
		rec, err := decode(doc.Metadata)
		if err != nil {
			return nil, fmt.Errorf("invalid descriptor document %s: %w", doc.ID, err)
		}
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })
	return records, nil
}

func (r record) descriptor() domain.Descriptor {
	deps := r.Deps
	if deps == nil {
		deps = []domain.Key{}
	}
	return domain.Descriptor{
		Key:        r.Key,
		Kind:       domain.ContentType(r.Kind),
		Deps:       deps,
		Properties: r.Properties,
		Tags:       r.Tags,
	}
}

var keyType = reflect.TypeOf(domain.Key(nil))

// keyHook decodes "a/b/c" strings into domain.Key values.
func keyHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != keyType || from.Kind() != reflect.String {
		return data, nil
	}
	return domain.ParseKey(data.(string))
}

func decode(meta map[string]any) (record, error) {
	var rec record
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       keyHook,
		WeaklyTypedInput: true,
		Result:           &rec,
	})
	if err != nil {
		return rec, err
	}
	if err := dec.Decode(meta); err != nil {
		return rec, err
	}
	return rec, nil
}

// summary renders the markdown body of a descriptor document.
func summary(d domain.Descriptor) string {
	var b strings.Builder
	title, _ := domain.AsString(d.Properties["name"])
	if title == "" {
		title = d.Key.String()
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Kind: %s\n", d.Kind)
	if len(d.Deps) > 0 {
		b.WriteString("\nDepends on:\n\n")
		for _, dep := range d.Deps {
			fmt.Fprintf(&b, "- %s\n", dep)
		}
	}
	return b.String()
}
