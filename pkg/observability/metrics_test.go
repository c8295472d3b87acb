package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/contentgraph/internal/logging"
	"github.com/aretw0/contentgraph/pkg/domain"
	"github.com/aretw0/contentgraph/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	hooks := m.Hooks()
	ctx := context.Background()

	hooks.EmitRequest(ctx, &domain.RequestEvent{Op: "signin", StatusCode: 200, Duration: 10 * time.Millisecond})
	hooks.EmitRequest(ctx, &domain.RequestEvent{Op: "signin", StatusCode: 200})
	hooks.EmitRequest(ctx, &domain.RequestEvent{Op: "get workbook", Err: errors.New("dial tcp")})
	hooks.EmitSession(ctx, &domain.SessionEvent{EventBase: domain.EventBase{Type: domain.EventSessionOpen}})
	hooks.EmitTranslate(ctx, &domain.TranslateEvent{Items: 3, SubReferences: 2})
	hooks.EmitTranslate(ctx, &domain.TranslateEvent{Err: errors.New("bad")})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("signin", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("get workbook", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Sessions.WithLabelValues("session_open", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Translations.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Translations.WithLabelValues("error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Descriptors.WithLabelValues("view")), "failed pass keeps the last gauge")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Descriptors.WithLabelValues("data_source")))
}

func TestNewMetrics_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	_, err = observability.NewMetrics(reg)
	assert.Error(t, err, "collectors are already registered")
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	hooks := observability.LoggingHooks(logging.NewWithWriter(&buf, slog.LevelDebug))
	ctx := context.Background()

	hooks.EmitSession(ctx, &domain.SessionEvent{EventBase: domain.EventBase{Type: domain.EventSessionClose}, SiteName: "acme"})
	hooks.EmitTranslate(ctx, &domain.TranslateEvent{SiteName: "acme", Err: errors.New("missing name")})

	out := buf.String()
	assert.Contains(t, out, "session_close")
	assert.Contains(t, out, "site=acme")
	assert.Contains(t, out, "err=\"missing name\"")
}
