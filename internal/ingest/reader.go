// File: internal/ingest/reader.go
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/exitscope/internal/config"
)

// Processor loads, validates, and cleans raw exit-node tables. It never
// mutates its input; every stage returns a fresh Table.
type Processor struct {
	cfg    config.IngestConfig
	logger *zap.Logger
}

// NewProcessor creates a Processor bound to the given ingest configuration.
func NewProcessor(cfg config.IngestConfig, logger *zap.Logger) *Processor {
	return &Processor{
		cfg:    cfg,
		logger: logger.Named("ingest"),
	}
}

// Load reads a dataset from path, dispatching on the file extension.
func (p *Processor) Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return p.ReadCSV(f)
	case ".json":
		return p.ReadJSON(f)
	default:
		return nil, fmt.Errorf("unsupported input format %q (expected .csv or .json)", filepath.Ext(path))
	}
}

// ReadCSV parses comma-separated rows. The first record names the columns;
// ragged rows are tolerated (missing cells are absent). Rows past the
// ingestion ceiling are dropped with a warning, never an error.
func (p *Processor) ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	table := &Table{Columns: make([]string, len(header))}
	for i, col := range header {
		table.Columns[i] = strings.TrimSpace(col)
	}

	truncated := false
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row: %w", err)
		}
		if len(table.Rows) >= p.cfg.MaxRecords {
			truncated = true
			break
		}

		row := make(Row, len(record))
		for i, cell := range record {
			if i >= len(table.Columns) {
				break
			}
			if cell == "" {
				continue
			}
			row[table.Columns[i]] = cell
		}
		table.Rows = append(table.Rows, row)
	}

	if truncated {
		p.logger.Warn("dataset exceeds the ingestion ceiling; truncating",
			zap.Int("max_records", p.cfg.MaxRecords))
	}
	return table, nil
}

// ReadJSON parses a structured dataset: a top-level array of node objects,
// an object carrying a "nodes" array, or a single node object. Scalar fields
// become cells; nested values are skipped per field.
func (p *Processor) ReadJSON(r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading json dataset: %w", err)
	}

	records, err := decodeRecords(raw)
	if err != nil {
		return nil, err
	}

	if len(records) > p.cfg.MaxRecords {
		p.logger.Warn("dataset exceeds the ingestion ceiling; truncating",
			zap.Int("max_records", p.cfg.MaxRecords),
			zap.Int("dropped", len(records)-p.cfg.MaxRecords))
		records = records[:p.cfg.MaxRecords]
	}

	table := &Table{}
	seenCols := make(map[string]bool)
	for _, rec := range records {
		row := make(Row, len(rec))
		for key, value := range rec {
			cell, ok := stringifyScalar(value)
			if !ok {
				continue
			}
			row[key] = cell
			seenCols[key] = true
		}
		table.Rows = append(table.Rows, row)
	}
	table.Columns = orderColumns(seenCols)
	return table, nil
}

func decodeRecords(raw []byte) ([]map[string]any, error) {
	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var wrapper struct {
		Nodes []map[string]any `json:"nodes"`
	}
	if err := json.Unmarshal(raw, &wrapper); err == nil && wrapper.Nodes != nil {
		return wrapper.Nodes, nil
	}

	var single map[string]any
	if err := json.Unmarshal(raw, &single); err == nil {
		return []map[string]any{single}, nil
	}

	return nil, fmt.Errorf("json dataset must be an array of objects, an object with a \"nodes\" array, or a single object")
}

// stringifyScalar renders a decoded JSON value as a cell. Nested objects and
// arrays have no tabular meaning and are rejected.
func stringifyScalar(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	case nil:
		return "", false
	default:
		return "", false
	}
}

// orderColumns lays out observed JSON keys canonically: known columns first
// in their canonical order, then any extras alphabetically.
func orderColumns(seen map[string]bool) []string {
	var cols []string
	for _, c := range canonicalColumns {
		if seen[c] {
			cols = append(cols, c)
			delete(seen, c)
		}
	}
	extras := make([]string, 0, len(seen))
	for c := range seen {
		extras = append(extras, c)
	}
	sort.Strings(extras)
	return append(cols, extras...)
}
