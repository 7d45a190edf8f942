package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hubgate/hubgate/internal/config"
	"github.com/hubgate/hubgate/internal/output"
	"github.com/hubgate/hubgate/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history [username]",
	Short: "Show recent probe reports",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Int("limit", 20, "Maximum number of reports to show")
	historyCmd.Flags().String("output", "table", "Output format: table, json")
}

func runHistory(cmd *cobra.Command, args []string) error {
	username := ""
	if len(args) == 1 {
		if err := validateUsername(args[0]); err != nil {
			return err
		}
		username = args[0]
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	formatValue, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close() // nolint:errcheck // best-effort cleanup

	if err := s.Migrate(ctx); err != nil {
		return err
	}

	reports, err := s.ListReports(ctx, username, limit)
	if err != nil {
		return err
	}

	switch formatValue {
	case "json":
		data, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	default:
		fmt.Println(output.HistoryTable(reports))
	}

	return nil
}
