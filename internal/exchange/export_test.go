package exchange

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/moridelogica/backoffice/internal/domain"
	"github.com/moridelogica/backoffice/internal/mapper"
)

func TestExportShape(t *testing.T) {
	records := []domain.Record{
		{
			AWBNumber:   "AWB-1",
			ProductType: "Box",
			Destination: `Nairobi "CBD"`,
			CreatedAt:   time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	data, err := Export(records)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if !bytes.HasPrefix(data, []byte("\uFEFF")) {
		t.Error("export missing UTF-8 BOM")
	}

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header + 1 row", len(lines))
	}

	header := strings.TrimPrefix(lines[0], "\uFEFF")
	if !strings.HasPrefix(header, `"AWBNumber","ProductType"`) {
		t.Errorf("header starts %q, want quoted column names", header[:40])
	}
	if got := strings.Count(header, `","`); got != len(mapper.Columns)-1 {
		t.Errorf("header has %d separators, want %d", got, len(mapper.Columns)-1)
	}

	// Embedded quotes double, and every field stays quoted.
	if !strings.Contains(lines[1], `"Nairobi ""CBD"""`) {
		t.Errorf("row does not escape quotes: %s", lines[1])
	}
	if strings.Contains(lines[1], `,N/A,`) {
		t.Error("row contains an unquoted sentinel field")
	}
}

func TestExportDeterministic(t *testing.T) {
	records := []domain.Record{
		{AWBNumber: "A", ProductType: "Box", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{AWBNumber: "B", ProductType: "Bag", CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
	}

	first, err := Export(records)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	second, err := Export(records)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("same records produced different bytes")
	}
}

func TestExportEmpty(t *testing.T) {
	data, err := Export(nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 1 {
		t.Errorf("empty export has %d lines, want header only", len(lines))
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, time.November, 3, 14, 30, 0, 0, time.UTC)
	if got := Filename(now); got != "records_2024-11-03.csv" {
		t.Errorf("Filename = %q, want records_2024-11-03.csv", got)
	}
}
