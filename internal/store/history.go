package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hubgate/hubgate/internal/probe"
	"github.com/hubgate/hubgate/internal/registry"
)

// Migrate creates the probe history schema when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	_, err := s.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS probe_history (
			probe_id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			source TEXT,
			unlimited INTEGER NOT NULL DEFAULT 0,
			limit_count INTEGER,
			limit_window INTEGER,
			remaining_count INTEGER,
			remaining_window INTEGER,
			severity TEXT NOT NULL,
			endpoint TEXT,
			checked_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate probe history: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_probe_history_user_time
		ON probe_history (username, checked_at DESC)
	`)
	if err != nil {
		return fmt.Errorf("migrate probe history index: %w", err)
	}

	return nil
}

// RecordReport persists one probe report.
func (s *Store) RecordReport(ctx context.Context, report *probe.Report) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if report == nil {
		return errors.New("report is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var limitCount, limitWindow, remainingCount, remainingWindow sql.NullInt64
	if report.Limit != nil {
		limitCount = sql.NullInt64{Int64: int64(report.Limit.Count), Valid: true}
		limitWindow = sql.NullInt64{Int64: int64(report.Limit.WindowSeconds), Valid: true}
	}
	if report.Remaining != nil {
		remainingCount = sql.NullInt64{Int64: int64(report.Remaining.Count), Valid: true}
		remainingWindow = sql.NullInt64{Int64: int64(report.Remaining.WindowSeconds), Valid: true}
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO probe_history (
			probe_id, username, source, unlimited,
			limit_count, limit_window, remaining_count, remaining_window,
			severity, endpoint, checked_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.ProbeID,
		report.Username,
		report.Source,
		boolToInt(report.Unlimited),
		limitCount,
		limitWindow,
		remainingCount,
		remainingWindow,
		string(report.Severity),
		report.Endpoint,
		report.CheckedAt.UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record probe report: %w", err)
	}

	return nil
}

// ListReports returns recent reports, newest first. An empty username
// returns reports for all accounts.
func (s *Store) ListReports(ctx context.Context, username string, limit int) ([]*probe.Report, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT probe_id, username, source, unlimited,
			limit_count, limit_window, remaining_count, remaining_window,
			severity, endpoint, checked_at
		FROM probe_history
	`
	args := []any{}
	username = strings.TrimSpace(username)
	if username != "" {
		query += " WHERE username = ?"
		args = append(args, username)
	}
	query += " ORDER BY checked_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list probe reports: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on result set

	var reports []*probe.Report
	for rows.Next() {
		var (
			report          probe.Report
			source, ep      sql.NullString
			unlimited       int
			limitCount      sql.NullInt64
			limitWindow     sql.NullInt64
			remainingCount  sql.NullInt64
			remainingWindow sql.NullInt64
			severity        string
			checkedAt       int64
		)

		if err := rows.Scan(
			&report.ProbeID, &report.Username, &source, &unlimited,
			&limitCount, &limitWindow, &remainingCount, &remainingWindow,
			&severity, &ep, &checkedAt,
		); err != nil {
			return nil, fmt.Errorf("scan probe report: %w", err)
		}

		report.Source = source.String
		report.Endpoint = ep.String
		report.Unlimited = unlimited != 0
		report.Severity = probe.Severity(severity)
		report.CheckedAt = time.Unix(checkedAt, 0).UTC()

		if limitCount.Valid {
			report.Limit = &registry.Descriptor{
				Count:         int(limitCount.Int64),
				WindowSeconds: int(limitWindow.Int64),
			}
		}
		if remainingCount.Valid {
			report.Remaining = &registry.Descriptor{
				Count:         int(remainingCount.Int64),
				WindowSeconds: int(remainingWindow.Int64),
			}
		}

		reports = append(reports, &report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list probe reports: %w", err)
	}

	return reports, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
