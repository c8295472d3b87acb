package memory

import (
	"context"
	"sync"

	"github.com/aretw0/contentgraph/pkg/domain"
	"github.com/aretw0/contentgraph/pkg/ports"
)

var _ ports.Catalog = (*Catalog)(nil)

// Catalog implements ports.Catalog in memory.
// Safe for concurrent use.
type Catalog struct {
	mu    sync.RWMutex
	order []string
	data  map[string]domain.Descriptor
}

// New creates an empty in-memory catalog.
func New() *Catalog {
	return &Catalog{
		data: make(map[string]domain.Descriptor),
	}
}

// Register stores a copy of the descriptor. A known key keeps its position.
func (c *Catalog) Register(ctx context.Context, d domain.Descriptor) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := d.Clone()
	id := d.Key.String()

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[id]; !ok {
		c.order = append(c.order, id)
	}
	c.data[id] = copied
	return nil
}

// Get returns a copy of the descriptor registered under key.
func (c *Catalog) Get(ctx context.Context, key domain.Key) (domain.Descriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.data[key.String()]
	if !ok {
		return domain.Descriptor{}, domain.ErrDescriptorNotFound
	}
	return d.Clone(), nil
}

// List returns copies of every descriptor in first-registration order.
func (c *Catalog) List(ctx context.Context) ([]domain.Descriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Descriptor, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.data[id].Clone())
	}
	return out, nil
}

// Prune drops every descriptor whose key is not in keep.
func (c *Catalog) Prune(ctx context.Context, keep []domain.Key) (int, error) {
	set := ports.KeySet(keep)

	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.order[:0]
	removed := 0
	for _, id := range c.order {
		if set[id] {
			kept = append(kept, id)
			continue
		}
		delete(c.data, id)
		removed++
	}
	c.order = kept
	return removed, nil
}

// Len returns the number of registered descriptors.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}
