package registry

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDescriptor(t *testing.T) {
	desc, err := ParseDescriptor("450;w=21600")
	require.NoError(t, err)
	require.Equal(t, 450, desc.Count)
	require.Equal(t, 21600, desc.WindowSeconds)
}

func TestParseDescriptorTokenOrder(t *testing.T) {
	desc, err := ParseDescriptor("w=21600;450")
	require.NoError(t, err)
	require.Equal(t, 450, desc.Count)
	require.Equal(t, 21600, desc.WindowSeconds)
}

func TestParseDescriptorErrors(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"450",
		"w=21600",
		"abc;w=21600",
		"450;w=abc",
	}

	for _, value := range cases {
		_, err := ParseDescriptor(value)
		require.Error(t, err, "value %q", value)
	}
}

func TestExtractRateLimitHeaders(t *testing.T) {
	header := http.Header{}
	header.Set("Docker-RateLimit-Source", "192.0.2.10")
	header.Set("RateLimit-Limit", "100;w=21600")
	header.Set("Ratelimit-Remaining", "96;w=21600")

	got := ExtractRateLimitHeaders(header)
	require.Equal(t, "192.0.2.10", got.Source)
	require.Equal(t, "100;w=21600", got.Limit)
	require.Equal(t, "96;w=21600", got.Remaining)
	require.False(t, got.Unlimited())
}

func TestExtractRateLimitHeadersStripsCarriageReturns(t *testing.T) {
	header := http.Header{}
	header.Set(HeaderRemaining, "96;w=21600\r")

	got := ExtractRateLimitHeaders(header)
	require.Equal(t, "96;w=21600", got.Remaining)
}

func TestExtractRateLimitHeadersAbsent(t *testing.T) {
	got := ExtractRateLimitHeaders(http.Header{})
	require.True(t, got.Unlimited())
	require.Empty(t, got.Source)

	got = ExtractRateLimitHeaders(nil)
	require.True(t, got.Unlimited())
}
