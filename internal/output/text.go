package output

import (
	"fmt"
	"strings"

	"github.com/hubgate/hubgate/internal/probe"
	"github.com/hubgate/hubgate/internal/registry"
)

// TextFormatter renders the fixed-label lines CI logs expect. The wording
// is part of the tool's contract; pipelines grep these lines.
type TextFormatter struct{}

// FormatReport renders a probe report as plain text.
func (f *TextFormatter) FormatReport(report *probe.Report) (string, error) {
	if report == nil {
		return "", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "User: %s\n", report.Username)
	fmt.Fprintf(&sb, "Rate limit source: %s\n", report.Source)

	if report.Unlimited {
		sb.WriteString("no rate limit\n")
		return strings.TrimRight(sb.String(), "\n"), nil
	}

	writeDescriptor(&sb, "total", report.Limit)
	writeDescriptor(&sb, "remaining", report.Remaining)

	return strings.TrimRight(sb.String(), "\n"), nil
}

func writeDescriptor(sb *strings.Builder, label string, desc *registry.Descriptor) {
	if desc == nil {
		return
	}
	fmt.Fprintf(sb, "Rate limit %s: %d (%d seconds)\n", label, desc.Count, desc.WindowSeconds)
}
