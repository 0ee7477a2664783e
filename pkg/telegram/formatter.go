package telegram

import (
	"fmt"
	"strings"
)

// FormatIngestionSummary renders a Markdown digest for a completed
// ingestion run.
func FormatIngestionSummary(symbol, start, end string, rows, articles int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*Dataset refreshed: %s*\n", symbol))
	sb.WriteString(fmt.Sprintf("Period: `%s` → `%s`\n", start, end))
	sb.WriteString(fmt.Sprintf("Merged rows: *%d*\n", rows))
	sb.WriteString(fmt.Sprintf("News articles scored: *%d*", articles))
	return sb.String()
}

// FormatRefreshFailure renders a Markdown alert for a failed scheduled
// refresh.
func FormatRefreshFailure(symbol string, err error) string {
	return fmt.Sprintf("*Scheduled refresh failed: %s*\n`%v`", symbol, err)
}
