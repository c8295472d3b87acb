package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/contentgraph/pkg/adapters/memory"
	"github.com/aretw0/contentgraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededCatalog(t *testing.T) *memory.Catalog {
	t.Helper()
	catalog := memory.New()
	ctx := context.Background()
	source := domain.Descriptor{
		Key:        domain.NewKey("tableau", "data_source", "X"),
		Kind:       domain.ContentTypeSubReference,
		Deps:       []domain.Key{},
		Properties: map[string]any{"name": "Orders"},
	}
	view := domain.Descriptor{
		Key:        domain.NewKey("tableau", "view", "wb", "A"),
		Kind:       domain.ContentTypeItem,
		Deps:       []domain.Key{source.Key},
		Properties: map[string]any{"name": "Overview"},
	}
	require.NoError(t, catalog.Register(ctx, view))
	require.NoError(t, catalog.Register(ctx, source))
	return catalog
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthAndInfo(t *testing.T) {
	h := NewHandler(memory.New(), WithInfo("acme", "0.1.0\n"))

	w := do(t, h, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/info")
	assert.JSONEq(t, `{"site":"acme","version":"0.1.0","refreshes":false}`, w.Body.String())
}

func TestListDescriptors(t *testing.T) {
	h := NewHandler(seededCatalog(t))

	w := do(t, h, http.MethodGet, "/descriptors")
	require.Equal(t, http.StatusOK, w.Code)

	var got []domain.Descriptor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "tableau/view/wb/A", got[0].Key.String())
	assert.Equal(t, "tableau/data_source/X", got[0].Deps[0].String())

	w = do(t, h, http.MethodGet, "/descriptors?kind=data_source")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, domain.ContentTypeSubReference, got[0].Kind)

	w = do(t, h, http.MethodGet, "/descriptors?kind=dashboard")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetDescriptor(t *testing.T) {
	h := NewHandler(seededCatalog(t))

	w := do(t, h, http.MethodGet, "/descriptors/tableau/view/wb/A")
	require.Equal(t, http.StatusOK, w.Code)
	var got domain.Descriptor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Overview", got.Properties["name"])

	w = do(t, h, http.MethodGet, "/descriptors/tableau/view/wb/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetGraph(t *testing.T) {
	h := NewHandler(seededCatalog(t))

	w := do(t, h, http.MethodGet, "/graph?focus=tableau/view/wb/A")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "graph LR"))
	assert.Contains(t, w.Body.String(), "n1 --> n0")
	assert.Contains(t, w.Body.String(), "class n0 focus;")
}

func TestRefresh(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		w := do(t, NewHandler(memory.New()), http.MethodPost, "/refresh")
		assert.Equal(t, http.StatusNotImplemented, w.Code)
	})

	t.Run("success", func(t *testing.T) {
		calls := 0
		h := NewHandler(memory.New(), WithRefresher(RefresherFunc(func(ctx context.Context) (int, error) {
			calls++
			return 4, nil
		})))
		w := do(t, h, http.MethodPost, "/refresh")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"registered":4}`, w.Body.String())
		assert.Equal(t, 1, calls)
	})

	t.Run("upstream failure", func(t *testing.T) {
		h := NewHandler(memory.New(), WithRefresher(RefresherFunc(func(ctx context.Context) (int, error) {
			return 0, &domain.AuthenticationError{Op: "signin", Err: errors.New("status 401")}
		})))
		w := do(t, h, http.MethodPost, "/refresh")
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "authentication failed")
	})

	t.Run("translation failure", func(t *testing.T) {
		h := NewHandler(memory.New(), WithRefresher(RefresherFunc(func(ctx context.Context) (int, error) {
			return 0, &domain.TranslationError{Kind: domain.ContentTypeItem, ID: "A", Reason: "missing name"}
		})))
		w := do(t, h, http.MethodPost, "/refresh")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestMetricsMount(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	w := do(t, NewHandler(memory.New(), WithMetricsHandler(metrics)), http.MethodGet, "/metrics")
	assert.Equal(t, "# metrics", w.Body.String())

	w = do(t, NewHandler(memory.New()), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	w := do(t, NewHandler(memory.New()), http.MethodOptions, "/descriptors")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
