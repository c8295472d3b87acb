package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/contentgraph/pkg/adapters/memory"
	"github.com/aretw0/contentgraph/pkg/domain"
	"github.com/aretw0/contentgraph/pkg/persistence/middleware"
	"github.com/aretw0/contentgraph/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	patterns, err := middleware.CompilePatterns([]string{"(?i)email", "owner"})
	require.NoError(t, err)

	catalog := memory.New()
	reg := middleware.NewPIIMiddleware(patterns)(catalog)

	d := domain.Descriptor{
		Key:  domain.NewKey("tableau", "view", "wb", "A"),
		Kind: domain.ContentTypeItem,
		Deps: []domain.Key{domain.NewKey("tableau", "data_source", "X")},
		Properties: map[string]any{
			"name":       "Overview",
			"ownerEmail": "jdoe@example.com",
			"contact":    map[string]any{"Email": "ops@example.com", "team": "finance"},
			"owner":      map[string]any{"name": "J. Doe"},
			"view_count": 12,
		},
	}
	require.NoError(t, reg.Register(context.Background(), d))

	assert.Equal(t, "jdoe@example.com", d.Properties["ownerEmail"], "caller's descriptor is unchanged")

	stored, err := catalog.Get(context.Background(), d.Key)
	require.NoError(t, err)
	assert.Equal(t, "Overview", stored.Properties["name"])
	assert.Equal(t, 12, stored.Properties["view_count"])
	assert.Equal(t, middleware.Mask, stored.Properties["ownerEmail"])
	assert.Equal(t, middleware.Mask, stored.Properties["owner"])

	contact := stored.Properties["contact"].(map[string]any)
	assert.Equal(t, middleware.Mask, contact["Email"])
	assert.Equal(t, "finance", contact["team"])
	assert.True(t, stored.DependsOn(domain.NewKey("tableau", "data_source", "X")))
}

func TestPIIMiddleware_NoPatterns(t *testing.T) {
	catalog := memory.New()
	reg := middleware.NewPIIMiddleware(nil)(catalog)
	assert.Same(t, catalog, reg)
}

func TestCompilePatterns_Invalid(t *testing.T) {
	_, err := middleware.CompilePatterns([]string{"ok", "("})
	assert.ErrorContains(t, err, `redaction pattern "("`)
}

func TestChain_Order(t *testing.T) {
	var seen []string
	tag := func(name string) middleware.Middleware {
		return func(next ports.Registrar) ports.Registrar {
			return ports.RegistrarFunc(func(ctx context.Context, d domain.Descriptor) error {
				seen = append(seen, name)
				return next.Register(ctx, d)
			})
		}
	}

	catalog := memory.New()
	reg := middleware.Chain(catalog, tag("first"), tag("second"))
	require.NoError(t, reg.Register(context.Background(), domain.Descriptor{
		Key: domain.NewKey("k"), Kind: domain.ContentTypeItem, Deps: []domain.Key{},
	}))
	assert.Equal(t, []string{"first", "second"}, seen)
	assert.Equal(t, 1, catalog.Len())
}
