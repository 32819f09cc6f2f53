package exchange

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/moridelogica/backoffice/internal/domain"
	"github.com/moridelogica/backoffice/internal/mapper"
)

// Batch-level failures. Row-level problems never surface as errors; they
// increment the skip counter instead.
var (
	// ErrNotCSV rejects files before any parsing is attempted.
	ErrNotCSV = errors.New("please upload a CSV file")

	// ErrParse wraps a structurally malformed file. No writes happen.
	ErrParse = errors.New("could not parse CSV file")
)

// RecordWriter is the slice of the record service the importer needs.
// Create must honor the record's CreatedAt.
type RecordWriter interface {
	Create(ctx context.Context, r domain.Record) (domain.Record, error)
}

// FailedRow describes one skipped row.
type FailedRow struct {
	Line   int // 1-indexed file line, header is line 1
	Reason string
}

// Result is the outcome of an import batch.
type Result struct {
	TotalRows int
	Uploaded  int
	Skipped   int
	Failed    []FailedRow
}

// Message is the user-facing completion message.
func (r Result) Message() string {
	return fmt.Sprintf("Successfully uploaded %d records.", r.Uploaded)
}

// Importer replays uploaded CSV rows as record creates.
type Importer struct {
	records RecordWriter
	log     *slog.Logger
}

// NewImporter constructs an Importer. A nil logger falls back to the
// default.
func NewImporter(records RecordWriter, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.Default()
	}
	return &Importer{records: records, log: log}
}

// Import parses the file and creates one record per valid row.
//
// Rows are processed strictly in file order, one store write at a time, so
// write order matches row order and the success counter needs no
// synchronization. A bad row is skipped and logged, never failing the
// batch. A store failure aborts the batch; rows already written stay
// written. The loop honors ctx cancellation between rows.
func (im *Importer) Import(ctx context.Context, filename string, file io.Reader) (Result, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return Result{}, ErrNotCSV
	}

	header, rows, err := parseCSV(file)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(header) == 0 {
		return Result{}, fmt.Errorf("%w: empty file", ErrParse)
	}

	headerIdx := makeHeaderIndex(header)
	result := Result{}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("import cancelled: %w", err)
		}
		if isEmptyRow(row.fields) {
			continue
		}
		result.TotalRows++

		record, err := mapper.Unflatten(rowMap(row.fields, headerIdx))
		if err != nil {
			result.Skipped++
			result.Failed = append(result.Failed, FailedRow{Line: row.line, Reason: err.Error()})
			im.log.Warn("import: row skipped", "file", filename, "line", row.line, "reason", err.Error())
			continue
		}

		if _, err := im.records.Create(ctx, record); err != nil {
			return result, fmt.Errorf("import: create record (line %d): %w", row.line, err)
		}
		result.Uploaded++
	}

	im.log.Info("import complete",
		"file", filename,
		"rows", result.TotalRows,
		"uploaded", result.Uploaded,
		"skipped", result.Skipped,
	)
	return result, nil
}

// csvRow is one data record together with the physical file line it starts
// on. Quoted fields may span lines, so the record index alone is not enough.
type csvRow struct {
	line   int
	fields []string
}

// parseCSV reads the whole file, returning the header row and data rows.
// Ragged rows are tolerated; structural errors are not. A leading BOM is
// stripped before parsing so a quoted first header cell stays quoted.
func parseCSV(file io.Reader) ([]string, []csvRow, error) {
	br := bufio.NewReader(file)
	if lead, err := br.Peek(len(utf8BOM)); err == nil && string(lead) == utf8BOM {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, nil, err
		}
	}

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var header []string
	var rows []csvRow
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			return header, rows, nil
		}
		if err != nil {
			return nil, nil, err
		}
		line, _ := r.FieldPos(0)
		if header == nil {
			header = fields
			continue
		}
		rows = append(rows, csvRow{line: line, fields: fields})
	}
}

// makeHeaderIndex maps lowercased header names to positions, stripping any
// byte-order mark from the first cell.
func makeHeaderIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, utf8BOM)
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

// rowMap projects a raw row onto the canonical column names. Columns the
// file does not carry are simply absent.
func rowMap(row []string, headerIdx map[string]int) map[string]string {
	m := make(map[string]string, len(mapper.Columns))
	for _, col := range mapper.Columns {
		pos, ok := headerIdx[strings.ToLower(col)]
		if !ok || pos >= len(row) {
			continue
		}
		m[col] = strings.TrimSpace(row[pos])
	}
	return m
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
