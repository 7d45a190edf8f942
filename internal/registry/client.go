package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNoToken indicates the token server responded without a usable token.
var ErrNoToken = errors.New("token server response has no token")

// Client talks to a Docker Registry v2 token server and registry API.
// The zero value is not usable; populate at least Repository.
type Client struct {
	AuthURL    string
	Service    string
	BaseURL    string
	Repository string
	Tag        string
	HTTPClient *http.Client
}

// tokenResponse is the token server payload. Some servers use access_token
// instead of token; Docker Hub sends both.
type tokenResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
	IssuedAt    string `json:"issued_at,omitempty"`
}

// PullToken exchanges account credentials for a short-lived pull token
// scoped to the client's repository.
func (c *Client) PullToken(ctx context.Context, username, secret string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	authURL, err := url.Parse(c.authURL())
	if err != nil {
		return "", fmt.Errorf("invalid auth url: %w", err)
	}

	query := authURL.Query()
	query.Set("service", c.service())
	query.Set("scope", fmt.Sprintf("repository:%s:pull", c.repository()))
	authURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authURL.String(), nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(username, secret)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange: unexpected status %d", resp.StatusCode)
	}

	var payload tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("token exchange: decode response: %w", err)
	}

	token := strings.TrimSpace(payload.Token)
	if token == "" {
		token = strings.TrimSpace(payload.AccessToken)
	}
	if token == "" {
		return "", ErrNoToken
	}

	return token, nil
}

// ManifestHeaders issues a HEAD request against the manifest endpoint and
// returns the response headers. The status code is not inspected: the rate
// limit headers are reported on throttled and denied responses too, and an
// absent header set is a valid "no limit" observation.
func (c *Client) ManifestHeaders(ctx context.Context, pullToken string) (http.Header, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	endpoint := fmt.Sprintf("%s/v2/%s/manifests/%s", strings.TrimSuffix(c.baseURL(), "/"), c.repository(), c.tag())
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+pullToken)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("manifest head: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	return resp.Header, nil
}

// ManifestEndpoint returns the URL the HEAD probe targets.
func (c *Client) ManifestEndpoint() string {
	return fmt.Sprintf("%s/v2/%s/manifests/%s", strings.TrimSuffix(c.baseURL(), "/"), c.repository(), c.tag())
}

func (c *Client) authURL() string {
	if c != nil && c.AuthURL != "" {
		return c.AuthURL
	}
	return "https://auth.docker.io/token"
}

func (c *Client) service() string {
	if c != nil && c.Service != "" {
		return c.Service
	}
	return "registry.docker.io"
}

func (c *Client) baseURL() string {
	if c != nil && c.BaseURL != "" {
		return c.BaseURL
	}
	return "https://registry-1.docker.io"
}

func (c *Client) repository() string {
	if c != nil && c.Repository != "" {
		return c.Repository
	}
	return "ratelimitpreview/test"
}

func (c *Client) tag() string {
	if c != nil && c.Tag != "" {
		return c.Tag
	}
	return "latest"
}

func (c *Client) httpClient() *http.Client {
	if c != nil && c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}
