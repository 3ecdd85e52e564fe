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
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jeremyhahn/s3touch/pkg/common"
	"github.com/jeremyhahn/s3touch/pkg/event"
	"github.com/jeremyhahn/s3touch/pkg/target"
	"github.com/jeremyhahn/s3touch/pkg/touch"
	"github.com/jeremyhahn/s3touch/pkg/workers"
)

func sampleResults() []touch.Result {
	failure := errors.New(`could not HEAD object ("404")`)
	return []touch.Result{
		{
			Path:       "s3://mybucket/a.bin",
			Target:     target.Topic("arn:x:y"),
			TargetName: "topic:arn:x:y",
			Size:       2048,
			MessageID:  "msg-1",
		},
		{
			Path:  "s3://mybucket/missing",
			Err:   failure,
			Error: failure.Error(),
		},
	}
}

func TestFormatError(t *testing.T) {
	err := errors.New("invalid S3 path \"x\"")

	t.Run("text format", func(t *testing.T) {
		if got := FormatError(err, FormatText); got != "Error: invalid S3 path \"x\"\n" {
			t.Errorf("Unexpected text output %q", got)
		}
	})

	t.Run("json format", func(t *testing.T) {
		var decoded ErrorResult
		if jerr := json.Unmarshal([]byte(FormatError(err, FormatJSON)), &decoded); jerr != nil {
			t.Fatalf("JSON output did not parse: %v", jerr)
		}
		if decoded.Success || decoded.Error != err.Error() {
			t.Errorf("Unexpected decoded result %+v", decoded)
		}
	})

	t.Run("table format", func(t *testing.T) {
		output := FormatError(err, FormatTable)
		if !strings.Contains(output, "FAILED") {
			t.Error("Expected FAILED status in table")
		}
		if !strings.Contains(output, `invalid S3 path "x"`) {
			t.Error("Expected error message in table")
		}
	})

	t.Run("table format wraps long messages", func(t *testing.T) {
		long := errors.New("This is a very long message that should be wrapped to fit within the table column width limit")
		output := FormatError(long, FormatTable)
		for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
			if n := len([]rune(line)); n != 58 {
				t.Errorf("Expected every table line to be 58 runes wide, got %d: %q", n, line)
			}
		}
	})
}

func TestFormatTouchResults_Text(t *testing.T) {
	output := FormatTouchResults(sampleResults(), workers.Metrics{}, FormatText)

	for _, want := range []string{
		"OK   s3://mybucket/a.bin -> topic:arn:x:y\n",
		"FAIL s3://mybucket/missing: could not HEAD object (\"404\")\n",
		"Touched 1 of 2 object(s), 1 failed\n",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in output:\n%s", want, output)
		}
	}
}

func TestFormatTouchResults_DryRun(t *testing.T) {
	results := []touch.Result{{Path: "s3://b/k", TargetName: "lambda:fn", DryRun: true}}

	output := FormatTouchResults(results, workers.Metrics{}, FormatText)
	if !strings.Contains(output, "DRY  s3://b/k -> lambda:fn") {
		t.Errorf("Expected dry run line in output:\n%s", output)
	}
	if !strings.HasSuffix(output, "Touched 1 of 1 object(s)\n") {
		t.Errorf("Expected summary without failures:\n%s", output)
	}
}

func TestFormatTouchResults_Empty(t *testing.T) {
	for _, format := range []OutputFormat{FormatText, FormatTable} {
		if got := FormatTouchResults(nil, workers.Metrics{}, format); got != "No objects touched\n" {
			t.Errorf("%s: unexpected output %q", format, got)
		}
	}
	if got := FormatTouchResults(nil, workers.Metrics{}, FormatJSON); !strings.Contains(got, `"results": []`) {
		t.Errorf("Expected empty results array, got %s", got)
	}
}

func TestFormatTouchResults_JSON(t *testing.T) {
	metrics := workers.Metrics{Processed: 2, Succeeded: 1, Failed: 1, Bytes: 2048}
	output := FormatTouchResults(sampleResults(), metrics, FormatJSON)

	var decoded struct {
		Count     int             `json:"count"`
		Succeeded int             `json:"succeeded"`
		Failed    int             `json:"failed"`
		Metrics   workers.Metrics `json:"metrics"`
		Results   []struct {
			Path      string `json:"path"`
			Target    string `json:"target"`
			MessageID string `json:"message_id"`
			Error     string `json:"error"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(output), &decoded); err != nil {
		t.Fatalf("JSON output did not parse: %v\n%s", err, output)
	}

	if decoded.Count != 2 || decoded.Succeeded != 1 || decoded.Failed != 1 {
		t.Errorf("Unexpected counts: %+v", decoded)
	}
	if decoded.Metrics != metrics {
		t.Errorf("Expected metrics %+v, got %+v", metrics, decoded.Metrics)
	}
	if decoded.Results[0].Target != "topic:arn:x:y" || decoded.Results[0].MessageID != "msg-1" {
		t.Errorf("Unexpected first result %+v", decoded.Results[0])
	}
	if decoded.Results[1].Error == "" {
		t.Error("Expected error on second result")
	}
}

func TestFormatTouchResults_Table(t *testing.T) {
	output := FormatTouchResults(sampleResults(), workers.Metrics{}, FormatTable)

	if !strings.Contains(output, "│ s3://mybucket/a.bin") {
		t.Errorf("Expected path row:\n%s", output)
	}
	if !strings.Contains(output, "FAILED") {
		t.Error("Expected FAILED status")
	}
	if !strings.Contains(output, "2.0 KiB") {
		t.Error("Expected formatted size")
	}
	if !strings.Contains(output, "Total: 2 object(s), 1 failed") {
		t.Errorf("Expected totals line:\n%s", output)
	}
}

func TestFormatEvent(t *testing.T) {
	n := event.Build("mybucket", "dir/file.bin", common.ObjectMetadata{Size: 1024, ETag: "abc123"},
		"us-east-1", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))

	for _, format := range []OutputFormat{FormatText, FormatJSON} {
		parsed, err := event.Parse([]byte(FormatEvent(n, format)))
		if err != nil {
			t.Fatalf("%s: output did not parse: %v", format, err)
		}
		if parsed.Records[0].S3.Object.ETag != "abc123" {
			t.Errorf("%s: unexpected ETag %q", format, parsed.Records[0].S3.Object.ETag)
		}
	}

	table := FormatEvent(n, FormatTable)
	for _, want := range []string{"ObjectCreated:CompleteMultipartUpload", "dir/file.bin", "1.0 KiB", "2024-01-02T03:04:05.000Z"} {
		if !strings.Contains(table, want) {
			t.Errorf("Expected %q in table:\n%s", want, table)
		}
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size     int64
		expected string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048576, "1.0 MiB"},
		{1073741824, "1.0 GiB"},
		{1099511627776, "1.0 TiB"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := formatSize(tt.size); result != tt.expected {
				t.Errorf("formatSize(%d) = %q, want %q", tt.size, result, tt.expected)
			}
		})
	}
}

func TestWrapText(t *testing.T) {
	t.Run("short text", func(t *testing.T) {
		lines := wrapText("hello", 10)
		if len(lines) != 1 || lines[0] != "hello" {
			t.Errorf("Unexpected lines %v", lines)
		}
	})

	t.Run("long text with spaces", func(t *testing.T) {
		lines := wrapText("this is a very long text that needs wrapping", 15)
		if len(lines) < 2 {
			t.Error("Expected multiple lines")
		}
		for _, line := range lines {
			if len(line) > 15 {
				t.Errorf("Line too long: %q (len=%d)", line, len(line))
			}
		}
	})

	t.Run("long text without spaces", func(t *testing.T) {
		lines := wrapText("verylongtextwithoutanyspaces", 10)
		if len(lines) != 3 {
			t.Errorf("Expected 3 lines, got %d: %v", len(lines), lines)
		}
	})

	t.Run("empty text", func(t *testing.T) {
		lines := wrapText("", 10)
		if len(lines) != 1 || lines[0] != "" {
			t.Error("Expected single empty line")
		}
	})
}

func TestFormatJSON_ErrorHandling(t *testing.T) {
	type unmarshalable struct {
		Ch chan int
	}

	output := formatJSON(unmarshalable{Ch: make(chan int)})
	if !strings.Contains(output, "failed to marshal JSON") {
		t.Error("Expected marshal error message")
	}
}
