package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hubgate/hubgate/internal/registry"
)

func TestClassifyCriticalWinsOverLow(t *testing.T) {
	// The critical cutoff is checked first, so a count below both cutoffs
	// is still critical.
	require.Equal(t, SeverityCritical, Classify(50, DefaultThresholds))
	require.Equal(t, SeverityCritical, Classify(450, DefaultThresholds))
	require.Equal(t, SeverityOK, Classify(500, DefaultThresholds))
	require.Equal(t, SeverityOK, Classify(600, DefaultThresholds))
}

func TestClassifyLowReachableWhenCutoffsInverted(t *testing.T) {
	thresholds := Thresholds{Critical: 100, Low: 500}
	require.Equal(t, SeverityCritical, Classify(50, thresholds))
	require.Equal(t, SeverityLow, Classify(300, thresholds))
	require.Equal(t, SeverityOK, Classify(600, thresholds))
}

func TestResolveToken(t *testing.T) {
	lookup := func(name string) (string, bool) {
		if name == "HUBGATE_TOKEN_ci" {
			return "secret", true
		}
		return "", false
	}

	token, err := ResolveToken(lookup, "HUBGATE_TOKEN", "ci")
	require.NoError(t, err)
	require.Equal(t, "secret", token)

	_, err = ResolveToken(lookup, "HUBGATE_TOKEN", "other")
	require.ErrorIs(t, err, ErrCredentialNotSet)

	empty := func(string) (string, bool) { return "   ", true }
	_, err = ResolveToken(empty, "HUBGATE_TOKEN", "ci")
	require.ErrorIs(t, err, ErrCredentialNotSet)
}

func registryStub(t *testing.T, manifestHeaders map[string]string) (*registry.Client, *atomic.Int64) {
	t.Helper()

	var requests atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"pull-token"}`))
	})
	mux.HandleFunc("/v2/", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		for name, value := range manifestHeaders {
			w.Header().Set(name, value)
		}
		w.WriteHeader(http.StatusOK)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &registry.Client{
		AuthURL:    server.URL + "/token",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	}, &requests
}

func testLookup(name string) (string, bool) {
	if name == "HUBGATE_TOKEN_ci" {
		return "secret", true
	}
	return "", false
}

func TestProberRun(t *testing.T) {
	client, _ := registryStub(t, map[string]string{
		"Docker-RateLimit-Source": "192.0.2.10",
		"RateLimit-Limit":         "100;w=21600",
		"RateLimit-Remaining":     "96;w=21600",
	})

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	prober := &Prober{
		Registry: client,
		Lookup:   testLookup,
		Clock:    func() time.Time { return now },
	}

	report, err := prober.Run(context.Background(), "ci")
	require.NoError(t, err)
	require.Equal(t, "ci", report.Username)
	require.Equal(t, "192.0.2.10", report.Source)
	require.False(t, report.Unlimited)
	require.Equal(t, 100, report.Limit.Count)
	require.Equal(t, 96, report.Remaining.Count)
	require.Equal(t, 21600, report.Remaining.WindowSeconds)
	require.Equal(t, SeverityCritical, report.Severity)
	require.Equal(t, now, report.CheckedAt)
	require.NotEmpty(t, report.ProbeID)
}

func TestProberRunUnlimited(t *testing.T) {
	client, _ := registryStub(t, nil)

	prober := &Prober{Registry: client, Lookup: testLookup}
	report, err := prober.Run(context.Background(), "ci")
	require.NoError(t, err)
	require.True(t, report.Unlimited)
	require.Equal(t, SeverityOK, report.Severity)
	require.Nil(t, report.Limit)
	require.Nil(t, report.Remaining)
}

func TestProberRunAmpleRemaining(t *testing.T) {
	client, _ := registryStub(t, map[string]string{
		"RateLimit-Limit":     "5000;w=21600",
		"RateLimit-Remaining": "600;w=21600",
	})

	prober := &Prober{Registry: client, Lookup: testLookup}
	report, err := prober.Run(context.Background(), "ci")
	require.NoError(t, err)
	require.Equal(t, SeverityOK, report.Severity)
}

func TestProberRunMissingCredentialSkipsNetwork(t *testing.T) {
	client, requests := registryStub(t, nil)

	prober := &Prober{Registry: client, Lookup: func(string) (string, bool) { return "", false }}
	_, err := prober.Run(context.Background(), "ci")
	require.ErrorIs(t, err, ErrCredentialNotSet)
	require.Zero(t, requests.Load())
}

func TestProberRunMalformedRemaining(t *testing.T) {
	client, _ := registryStub(t, map[string]string{
		"RateLimit-Limit":     "100;w=21600",
		"RateLimit-Remaining": "garbage",
	})

	prober := &Prober{Registry: client, Lookup: testLookup}
	_, err := prober.Run(context.Background(), "ci")
	require.Error(t, err)
}
