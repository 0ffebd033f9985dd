// File: internal/report/reporter.go

// Package report renders a finished analysis to its output formats: an
// indented JSON envelope, a re-ingestable CSV, or a human text summary.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/xkilldash9x/exitscope/api/schemas"
)

// Reporter writes one analysis envelope to an output.
type Reporter interface {
	// Write renders the report. Calling it more than once appends another
	// rendering to the same output.
	Write(report *schemas.AnalysisReport) error
	// Close finalizes the report and releases the underlying destination.
	Close() error
}

// nopWriteCloser wraps an io.Writer with a no-op Close, used for stdout.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error { return nil }

// New creates a reporter for the given format. An empty or "stdout" path
// targets standard output; anything else creates (or truncates) a file.
// topNodes bounds the highlighted-node table of the text format and is
// ignored by the machine formats.
func New(format, outputPath string, topNodes int) (Reporter, error) {
	var writer io.WriteCloser
	isStdout := outputPath == "" || outputPath == "stdout"

	if isStdout {
		writer = &nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}

	switch format {
	case "json":
		return NewJSONReporter(writer), nil
	case "csv":
		return NewCSVReporter(writer), nil
	case "text":
		return NewTextReporter(writer, topNodes), nil
	default:
		if !isStdout {
			writer.Close()
		}
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
