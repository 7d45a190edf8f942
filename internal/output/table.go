package output

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/hubgate/hubgate/internal/probe"
	"github.com/hubgate/hubgate/internal/registry"
)

// TableFormatter renders reports as an ASCII table.
type TableFormatter struct{}

// FormatReport renders a probe report as a table.
func (f *TableFormatter) FormatReport(report *probe.Report) (string, error) {
	if report == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"User", "Source", "Total", "Remaining", "Severity"})
	t.AppendRow(table.Row{
		report.Username,
		report.Source,
		descriptorCell(report.Unlimited, report.Limit),
		descriptorCell(report.Unlimited, report.Remaining),
		string(report.Severity),
	})

	return t.Render(), nil
}

// HistoryTable renders a list of reports, newest first.
func HistoryTable(reports []*probe.Report) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Checked At", "User", "Source", "Remaining", "Severity"})

	for _, report := range reports {
		if report == nil {
			continue
		}
		t.AppendRow(table.Row{
			report.CheckedAt.Format("2006-01-02 15:04:05"),
			report.Username,
			report.Source,
			descriptorCell(report.Unlimited, report.Remaining),
			string(report.Severity),
		})
	}

	return t.Render()
}

func descriptorCell(unlimited bool, desc *registry.Descriptor) string {
	if unlimited {
		return "unlimited"
	}
	if desc == nil {
		return "-"
	}
	return fmt.Sprintf("%d (%ds)", desc.Count, desc.WindowSeconds)
}
