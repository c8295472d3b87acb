package ports

import (
	"context"

	"github.com/aretw0/contentgraph/pkg/domain"
)

// Registrar consumes translated descriptors.
// Register is called once per descriptor, in producer order. Registering a descriptor
// whose key is already known replaces it, so replaying a sequence is safe.
type Registrar interface {
	Register(ctx context.Context, d domain.Descriptor) error
}

// RegistrarFunc adapts a function to the Registrar interface.
type RegistrarFunc func(ctx context.Context, d domain.Descriptor) error

// Register calls f.
func (f RegistrarFunc) Register(ctx context.Context, d domain.Descriptor) error {
	return f(ctx, d)
}

// Pruner drops descriptors that a completed cycle no longer produced.
type Pruner interface {
	// Prune removes every descriptor whose key is not in keep and reports how many
	// were removed. The order of the remaining descriptors is unchanged.
	Prune(ctx context.Context, keep []domain.Key) (int, error)
}

// Catalog is a Registrar that can read descriptors back.
type Catalog interface {
	Registrar
	Pruner

	// Get returns the descriptor registered under key.
	// Returns domain.ErrDescriptorNotFound if the key is unknown.
	Get(ctx context.Context, key domain.Key) (domain.Descriptor, error)

	// List returns every descriptor in first-registration order.
	List(ctx context.Context) ([]domain.Descriptor, error)
}

// KeySet indexes keys by their string form.
func KeySet(keys []domain.Key) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k.String()] = true
	}
	return set
}
