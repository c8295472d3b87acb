package translator

import (
	"log/slog"
	"maps"
	"strings"

	"github.com/aretw0/contentgraph/internal/logging"
	"github.com/aretw0/contentgraph/pkg/domain"
)

const (
	// DefaultKeyPrefix is the first segment of every key derived by DefaultKeyFunc.
	DefaultKeyPrefix = "tableau"

	// StorageKindTag is attached to every descriptor.
	StorageKindTag = "storage_kind"
)

// KeyFunc derives the key of an item or sub-reference. It must be deterministic.
type KeyFunc func(prefix string, data domain.ContentData) domain.Key

// DefaultKeyFunc keys items as prefix/view/<container id>/<id> and sub-references
// as prefix/data_source/<id>.
func DefaultKeyFunc(prefix string, data domain.ContentData) domain.Key {
	if data.Type == domain.ContentTypeItem {
		return domain.NewKey(prefix, string(data.Type), data.ContainerID, data.ID)
	}
	return domain.NewKey(prefix, string(data.Type), data.ID)
}

// Translator turns a snapshot into descriptors. It holds no per-pass state and is
// safe for concurrent use.
type Translator struct {
	layout  domain.Layout
	keyFunc KeyFunc
	prefix  string
	tags    map[string]string
	logger  *slog.Logger
}

// Option defines a functional option for configuring the Translator.
type Option func(*Translator)

// WithLayout sets the field names used to read property bags.
func WithLayout(l domain.Layout) Option {
	return func(t *Translator) {
		t.layout = l
	}
}

// WithKeyFunc replaces the key derivation.
func WithKeyFunc(fn KeyFunc) Option {
	return func(t *Translator) {
		if fn != nil {
			t.keyFunc = fn
		}
	}
}

// WithKeyPrefix sets the first key segment passed to the KeyFunc.
func WithKeyPrefix(prefix string) Option {
	return func(t *Translator) {
		if prefix != "" {
			t.prefix = prefix
		}
	}
}

// WithTags adds tags to every descriptor, overriding defaults with the same name.
func WithTags(tags map[string]string) Option {
	return func(t *Translator) {
		maps.Copy(t.tags, tags)
	}
}

// WithLogger sets a custom structured logger for the translator.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Translator) {
		t.logger = logger
	}
}

// New creates a Translator reading the Tableau layout.
func New(opts ...Option) *Translator {
	t := &Translator{
		layout:  domain.TableauLayout(),
		keyFunc: DefaultKeyFunc,
		prefix:  DefaultKeyPrefix,
		tags:    map[string]string{StorageKindTag: "tableau"},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate runs the default translator.
func Translate(snap *domain.Snapshot) ([]domain.Descriptor, error) {
	return New().Translate(snap)
}

// pass holds the state of one Translate call.
type pass struct {
	t         *Translator
	snap      *domain.Snapshot
	subKeys   map[string]domain.Key
	subOrder  []domain.Descriptor
	itemOrder []domain.Descriptor
}

// Translate emits one descriptor per item, container by container and in fetch order
// within each container, followed by one descriptor per distinct sub-reference, in
// first-seen order. Each item depends on the sub-references nested below it. Sub-references with a null id are skipped.
func (t *Translator) Translate(snap *domain.Snapshot) ([]domain.Descriptor, error) {
	p := &pass{t: t, snap: snap, subKeys: make(map[string]domain.Key)}

	names := make(map[string]string)
	for _, id := range snap.ContainerIDs() {
		container, _ := snap.Container(id)
		name, ok := t.layout.Name(container.Properties)
		if !ok {
			return nil, &domain.TranslationError{
				Kind: domain.ContentTypeContainer, ID: id, Field: t.layout.NameField, Reason: "missing name",
			}
		}
		names[id] = name
	}

	for _, cid := range snap.ContainerIDs() {
		for _, id := range snap.ItemsOf(cid) {
			item, _ := snap.Item(id)
			d, err := p.item(item, names[cid])
			if err != nil {
				return nil, err
			}
			p.itemOrder = append(p.itemOrder, d)
		}
	}

	out := make([]domain.Descriptor, 0, len(p.itemOrder)+len(p.subOrder))
	out = append(out, p.itemOrder...)
	out = append(out, p.subOrder...)
	t.logger.Debug("Translated snapshot",
		"site", snap.SiteName(), "items", len(p.itemOrder), "sub_references", len(p.subOrder))
	return out, nil
}

func (p *pass) item(item domain.ContentData, containerName string) (domain.Descriptor, error) {
	l := p.t.layout
	name, ok := l.Name(item.Properties)
	if !ok {
		return domain.Descriptor{}, &domain.TranslationError{
			Kind: domain.ContentTypeItem, ID: item.ID, Field: l.NameField, Reason: "missing name",
		}
	}

	refs, err := l.SubReferences(item.Properties)
	if err != nil {
		return domain.Descriptor{}, &domain.TranslationError{
			Kind: domain.ContentTypeItem, ID: item.ID,
			Field: strings.Join(l.SubReferencePath, "."), Reason: err.Error(),
		}
	}

	deps := []domain.Key{}
	seen := make(map[string]bool)
	for _, ref := range refs {
		refID, ok := l.ID(ref)
		if !ok {
			continue
		}
		key, err := p.subReference(refID, ref)
		if err != nil {
			return domain.Descriptor{}, err
		}
		if !seen[refID] {
			seen[refID] = true
			deps = append(deps, key)
		}
	}

	props := scalars(item.Properties)
	props["id"] = item.ID
	props["name"] = name
	props["container_id"] = item.ContainerID
	props["container_name"] = containerName

	return domain.Descriptor{
		Key:        p.t.keyFunc(p.t.prefix, item),
		Kind:       domain.ContentTypeItem,
		Deps:       deps,
		Properties: props,
		Tags:       maps.Clone(p.t.tags),
	}, nil
}

// subReference returns the key of a sub-reference, registering its descriptor on first sight.
func (p *pass) subReference(id string, nested map[string]any) (domain.Key, error) {
	if key, ok := p.subKeys[id]; ok {
		return key, nil
	}

	data, ok := p.snap.SubReference(id)
	if !ok {
		data = domain.ContentData{Type: domain.ContentTypeSubReference, ID: id, Properties: nested}
	}
	name, ok := p.t.layout.Name(data.Properties)
	if !ok {
		return nil, &domain.TranslationError{
			Kind: domain.ContentTypeSubReference, ID: id, Field: p.t.layout.NameField, Reason: "missing name",
		}
	}

	props := scalars(data.Properties)
	props["id"] = id
	props["name"] = name

	key := p.t.keyFunc(p.t.prefix, data)
	p.subKeys[id] = key
	p.subOrder = append(p.subOrder, domain.Descriptor{
		Key:        key,
		Kind:       domain.ContentTypeSubReference,
		Deps:       []domain.Key{},
		Properties: props,
		Tags:       maps.Clone(p.t.tags),
	})
	return key, nil
}

// scalars copies the top-level string, number and boolean properties. Nested lists and
// objects are expanded into their own descriptors instead.
func scalars(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+4)
	for k, v := range in {
		switch v.(type) {
		case string, bool, float64, int, int64, float32, int32:
			out[k] = v
		}
	}
	return out
}
