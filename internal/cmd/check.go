package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hubgate/hubgate/internal/config"
	"github.com/hubgate/hubgate/internal/observability"
	"github.com/hubgate/hubgate/internal/output"
	"github.com/hubgate/hubgate/internal/probe"
	"github.com/hubgate/hubgate/internal/registry"
	"github.com/hubgate/hubgate/internal/store"
)

var checkCmd = &cobra.Command{
	Use:   "check <username>",
	Short: "Probe the pull rate limit for an account",
	Long: `Probe Docker Hub's pull rate limit for the given account.

The account token is read from the environment variable
<credentials.env_prefix>_<username> (HUBGATE_TOKEN_<username> by default).`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().String("output", "text", "Output format: text, json, table")
	checkCmd.Flags().Bool("no-store", false, "Skip recording the report in the history store")
}

func runCheck(cmd *cobra.Command, args []string) error {
	formatValue, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	noStore, err := cmd.Flags().GetBool("no-store")
	if err != nil {
		return err
	}

	return runProbe(cmd, args[0], formatValue, !noStore)
}

// runProbe is the shared probe flow behind `hubgate <username>` and
// `hubgate check <username>`.
func runProbe(cmd *cobra.Command, username, formatValue string, record bool) error {
	if err := validateUsername(username); err != nil {
		return err
	}

	format, err := output.ParseFormat(formatValue)
	if err != nil {
		return err
	}

	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return err
	}

	prober := buildProber(cfg)
	report, err := prober.Run(cmd.Context(), username)
	if err != nil {
		return fmt.Errorf("probe %s: %w", username, err)
	}

	rendered, err := output.NewFormatter(format).FormatReport(report)
	if err != nil {
		return err
	}
	if rendered != "" {
		fmt.Println(rendered)
	}

	if record {
		recordReport(cmd.Context(), cfg, report)
	}

	observability.CLILogger.Debug("Probe complete",
		zap.String("username", username),
		zap.String("severity", string(report.Severity)),
		zap.String("probe_id", report.ProbeID))

	if code := severityExitCode(report.Severity); code != ExitOK {
		return &ExitError{Code: code}
	}
	return nil
}

func buildProber(cfg *config.Config) *probe.Prober {
	return &probe.Prober{
		Registry: &registry.Client{
			AuthURL:    cfg.Registry.AuthURL,
			Service:    cfg.Registry.Service,
			BaseURL:    cfg.Registry.URL,
			Repository: cfg.Registry.Repository,
			Tag:        cfg.Registry.Tag,
			HTTPClient: &http.Client{Timeout: cfg.Registry.Timeout},
		},
		Thresholds: probe.Thresholds{
			Critical: cfg.Thresholds.Critical,
			Low:      cfg.Thresholds.Low,
		},
		EnvPrefix: cfg.Credentials.EnvPrefix,
	}
}

// recordReport persists the report best-effort. History is an audit trail;
// a broken store must not change the gate decision.
func recordReport(ctx context.Context, cfg *config.Config, report *probe.Report) {
	s, err := store.Open(ctx, cfg.Store)
	if err != nil {
		observability.CLILogger.Warn("History store unavailable", zap.Error(err))
		return
	}
	defer s.Close() // nolint:errcheck // best-effort cleanup

	if err := s.Migrate(ctx); err != nil {
		observability.CLILogger.Warn("History migration failed", zap.Error(err))
		return
	}
	if err := s.RecordReport(ctx, report); err != nil {
		observability.CLILogger.Warn("History write failed", zap.Error(err))
	}
}

var usernamePattern = regexp.MustCompile(`^[a-z0-9]{1,30}$`)

// validateUsername enforces the Docker ID character set. The username is
// substituted into an environment variable name, so anything looser would
// produce names the shell cannot export.
func validateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return errors.New("username must be 1-30 lowercase alphanumeric characters")
	}
	return nil
}
