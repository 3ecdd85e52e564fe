// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of s3touch.
//
// s3touch is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jeremyhahn/s3touch/pkg/event"
	"github.com/jeremyhahn/s3touch/pkg/touch"
	"github.com/jeremyhahn/s3touch/pkg/workers"
)

// OutputFormat defines the output format type.
type OutputFormat string

const (
	FormatText  OutputFormat = "text"
	FormatJSON  OutputFormat = "json"
	FormatTable OutputFormat = "table"
)

// ErrorResult is the JSON form of a failed command.
type ErrorResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// FormatError formats an error message in the specified format.
func FormatError(err error, format OutputFormat) string {
	switch format {
	case FormatJSON:
		return formatJSON(ErrorResult{Error: err.Error()})
	case FormatTable:
		return formatErrorTable(err.Error())
	default:
		return fmt.Sprintf("Error: %s\n", err)
	}
}

// FormatTouchResults formats the per-path outcomes of a run.
func FormatTouchResults(results []touch.Result, metrics workers.Metrics, format OutputFormat) string {
	switch format {
	case FormatJSON:
		return formatTouchJSON(results, metrics)
	case FormatTable:
		return formatTouchTable(results)
	default:
		return formatTouchText(results)
	}
}

// FormatEvent formats a synthetic notification. Text and JSON both print
// the envelope as indented JSON.
func FormatEvent(n event.Notification, format OutputFormat) string {
	if format == FormatTable && len(n.Records) > 0 {
		return formatEventTable(n.Records[0])
	}
	return formatJSON(n)
}

func formatErrorTable(text string) string {
	output := "┌────────────────────────────────────────────────────────┐\n"
	output += "│ Operation Result                                       │\n"
	output += "├────────────────────────────────────────────────────────┤\n"
	output += fmt.Sprintf("│ Status: %-46s │\n", "FAILED")
	for _, line := range wrapText(text, 54) {
		output += fmt.Sprintf("│ %-54s │\n", line)
	}
	output += "└────────────────────────────────────────────────────────┘\n"
	return output
}

func formatJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"error\": \"failed to marshal JSON: %s\"}\n", err)
	}
	return string(data) + "\n"
}

func formatTouchText(results []touch.Result) string {
	if len(results) == 0 {
		return "No objects touched\n"
	}

	var output string
	for _, r := range results {
		switch {
		case r.Failed():
			output += fmt.Sprintf("FAIL %s: %s\n", r.Path, r.Error)
		case r.DryRun:
			output += fmt.Sprintf("DRY  %s -> %s\n", r.Path, r.TargetName)
		default:
			output += fmt.Sprintf("OK   %s -> %s\n", r.Path, r.TargetName)
		}
	}
	failed := touch.Failures(results)
	output += fmt.Sprintf("\nTouched %d of %d object(s)", len(results)-failed, len(results))
	if failed > 0 {
		output += fmt.Sprintf(", %d failed", failed)
	}
	return output + "\n"
}

func formatTouchTable(results []touch.Result) string {
	if len(results) == 0 {
		return "No objects touched\n"
	}

	var output string
	output += "┌────────────────────────────────────┬──────────────────────────────┬──────────┬────────────┐\n"
	output += "│ Path                               │ Target                       │ Status   │ Size       │\n"
	output += "├────────────────────────────────────┼──────────────────────────────┼──────────┼────────────┤\n"

	for _, r := range results {
		status := "OK"
		switch {
		case r.Failed():
			status = "FAILED"
		case r.DryRun:
			status = "DRY RUN"
		}
		output += fmt.Sprintf("│ %-34s │ %-28s │ %-8s │ %-10s │\n",
			truncate(r.Path, 34), truncate(r.TargetName, 28), status, formatSize(r.Size))
	}

	output += "└────────────────────────────────────┴──────────────────────────────┴──────────┴────────────┘\n"

	failed := touch.Failures(results)
	output += fmt.Sprintf("Total: %d object(s), %d failed\n", len(results), failed)
	for _, r := range results {
		if r.Failed() {
			output += fmt.Sprintf("  %s: %s\n", r.Path, r.Error)
		}
	}
	return output
}

func formatTouchJSON(results []touch.Result, metrics workers.Metrics) string {
	if results == nil {
		results = []touch.Result{}
	}
	failed := touch.Failures(results)
	return formatJSON(map[string]any{
		"count":     len(results),
		"succeeded": len(results) - failed,
		"failed":    failed,
		"metrics":   metrics,
		"results":   results,
	})
}

func formatEventTable(rec event.Record) string {
	rows := [][2]string{
		{"Event", rec.EventName},
		{"Time", rec.EventTime},
		{"Region", rec.AWSRegion},
		{"Bucket", rec.S3.Bucket.Name},
		{"Key", rec.S3.Object.Key},
		{"Size", formatSize(rec.S3.Object.Size)},
		{"ETag", rec.S3.Object.ETag},
	}

	output := "┌──────────┬────────────────────────────────────────────┐\n"
	for _, row := range rows {
		output += fmt.Sprintf("│ %-8s │ %-42s │\n", row[0], truncate(row[1], 42))
	}
	output += "└──────────┴────────────────────────────────────────────┘\n"
	return output
}

// formatSize formats a byte size into a human-readable string.
func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

// wrapText wraps text to fit within maxWidth characters.
func wrapText(text string, maxWidth int) []string {
	if len(text) <= maxWidth {
		return []string{text}
	}

	// Check if text has no spaces - need to hard wrap
	if !strings.Contains(text, " ") {
		var lines []string
		for len(text) > maxWidth {
			lines = append(lines, text[:maxWidth])
			text = text[maxWidth:]
		}
		if len(text) > 0 {
			lines = append(lines, text)
		}
		return lines
	}

	var lines []string
	var currentLine string
	for _, word := range strings.Fields(text) {
		if len(currentLine) == 0 {
			currentLine = word
		} else if len(currentLine)+1+len(word) <= maxWidth {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	if len(currentLine) > 0 {
		lines = append(lines, currentLine)
	}
	return lines
}
