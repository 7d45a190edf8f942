// Package probe runs the Docker Hub pull rate-limit check: resolve the
// account token from the environment, exchange it for a pull token, read
// the rate limit headers off a manifest HEAD request, and classify the
// remaining quota.
package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hubgate/hubgate/internal/registry"
)

// Severity is the gate decision derived from the remaining pull count.
type Severity string

const (
	SeverityOK       Severity = "ok"
	SeverityLow      Severity = "low"
	SeverityCritical Severity = "critical"
)

// Thresholds holds the remaining-count cutoffs for the gate decision.
type Thresholds struct {
	Critical int
	Low      int
}

// DefaultThresholds matches the historical gate policy.
var DefaultThresholds = Thresholds{Critical: 500, Low: 100}

// Classify maps a remaining count to a severity. The critical cutoff is
// deliberately checked first: any count below it is critical, even when it
// is also below the low cutoff. With the default thresholds the low branch
// never fires; this reproduces the behavior CI pipelines already depend
// on, so do not reorder the checks.
func Classify(remaining int, t Thresholds) Severity {
	if remaining < t.Critical {
		return SeverityCritical
	}
	if remaining < t.Low {
		return SeverityLow
	}
	return SeverityOK
}

// Report is the outcome of one probe run.
type Report struct {
	ProbeID   string               `json:"probe_id"`
	Username  string               `json:"username"`
	Source    string               `json:"source,omitempty"`
	Unlimited bool                 `json:"unlimited"`
	Limit     *registry.Descriptor `json:"limit,omitempty"`
	Remaining *registry.Descriptor `json:"remaining,omitempty"`
	Severity  Severity             `json:"severity"`
	Endpoint  string               `json:"endpoint"`
	CheckedAt time.Time            `json:"checked_at"`
}

// Prober performs the end-to-end rate limit check.
type Prober struct {
	Registry   *registry.Client
	Thresholds Thresholds
	EnvPrefix  string
	Lookup     func(string) (string, bool)
	Clock      func() time.Time
}

// Run executes the probe for one account. The auth exchange completes
// before the manifest request; there is no retry on either call.
func (p *Prober) Run(ctx context.Context, username string) (*Report, error) {
	if p == nil || p.Registry == nil {
		return nil, errors.New("prober is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	secret, err := ResolveToken(p.Lookup, p.envPrefix(), username)
	if err != nil {
		return nil, err
	}

	pullToken, err := p.Registry.PullToken(ctx, username, secret)
	if err != nil {
		return nil, err
	}

	header, err := p.Registry.ManifestHeaders(ctx, pullToken)
	if err != nil {
		return nil, err
	}

	headers := registry.ExtractRateLimitHeaders(header)
	report := &Report{
		ProbeID:   uuid.New().String(),
		Username:  username,
		Source:    headers.Source,
		Endpoint:  p.Registry.ManifestEndpoint(),
		CheckedAt: p.now(),
	}

	if headers.Unlimited() {
		report.Unlimited = true
		report.Severity = SeverityOK
		return report, nil
	}

	limit, err := registry.ParseDescriptor(headers.Limit)
	if err != nil {
		return nil, fmt.Errorf("parse limit header: %w", err)
	}
	remaining, err := registry.ParseDescriptor(headers.Remaining)
	if err != nil {
		return nil, fmt.Errorf("parse remaining header: %w", err)
	}

	report.Limit = &limit
	report.Remaining = &remaining
	report.Severity = Classify(remaining.Count, p.thresholds())

	return report, nil
}

func (p *Prober) envPrefix() string {
	if p != nil && p.EnvPrefix != "" {
		return p.EnvPrefix
	}
	return "HUBGATE_TOKEN"
}

func (p *Prober) thresholds() Thresholds {
	if p == nil || (p.Thresholds.Critical == 0 && p.Thresholds.Low == 0) {
		return DefaultThresholds
	}
	return p.Thresholds
}

func (p *Prober) now() time.Time {
	if p != nil && p.Clock != nil {
		return p.Clock()
	}
	return time.Now().UTC()
}
