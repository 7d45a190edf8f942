//go:build cgo

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hubgate/hubgate/internal/config"
	"github.com/hubgate/hubgate/internal/probe"
	"github.com/hubgate/hubgate/internal/registry"
)

func openMemoryStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	store, err := Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(ctx))
	return store
}

func TestOpenMemoryStore(t *testing.T) {
	store := openMemoryStore(t)
	require.Equal(t, "libsql", store.Driver())
}

func TestRecordAndListReports(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	first := &probe.Report{
		ProbeID:   "probe-1",
		Username:  "ci",
		Source:    "192.0.2.10",
		Limit:     &registry.Descriptor{Count: 100, WindowSeconds: 21600},
		Remaining: &registry.Descriptor{Count: 96, WindowSeconds: 21600},
		Severity:  probe.SeverityCritical,
		Endpoint:  "https://registry-1.docker.io/v2/ratelimitpreview/test/manifests/latest",
		CheckedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	second := &probe.Report{
		ProbeID:   "probe-2",
		Username:  "ci",
		Unlimited: true,
		Severity:  probe.SeverityOK,
		CheckedAt: time.Date(2026, 8, 1, 13, 0, 0, 0, time.UTC),
	}

	require.NoError(t, store.RecordReport(ctx, first))
	require.NoError(t, store.RecordReport(ctx, second))

	reports, err := store.ListReports(ctx, "ci", 10)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	// Newest first.
	require.Equal(t, "probe-2", reports[0].ProbeID)
	require.True(t, reports[0].Unlimited)
	require.Nil(t, reports[0].Remaining)

	require.Equal(t, "probe-1", reports[1].ProbeID)
	require.Equal(t, 96, reports[1].Remaining.Count)
	require.Equal(t, probe.SeverityCritical, reports[1].Severity)
	require.Equal(t, first.CheckedAt, reports[1].CheckedAt)
}

func TestListReportsFiltersUsername(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	require.NoError(t, store.RecordReport(ctx, &probe.Report{
		ProbeID: "probe-a", Username: "ci", Severity: probe.SeverityOK,
		CheckedAt: time.Now().UTC(),
	}))
	require.NoError(t, store.RecordReport(ctx, &probe.Report{
		ProbeID: "probe-b", Username: "other", Severity: probe.SeverityOK,
		CheckedAt: time.Now().UTC(),
	}))

	reports, err := store.ListReports(ctx, "other", 10)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.Equal(t, "probe-b", reports[0].ProbeID)

	all, err := store.ListReports(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
