// Package exchange owns the CSV boundary for shipment records: serializing
// a filtered record list to a downloadable file, and replaying an uploaded
// file as a sequence of create operations with per-row success tracking.
package exchange

import (
	"bytes"
	"strings"
	"time"

	"github.com/moridelogica/backoffice/internal/domain"
	"github.com/moridelogica/backoffice/internal/mapper"
)

// utf8BOM prefixes exports so spreadsheet tools detect UTF-8.
const utf8BOM = "\uFEFF"

// Export serializes records to CSV: BOM, one header row, one row per
// record, every field quoted. Output depends only on the records, so the
// same list always produces byte-identical content.
func Export(records []domain.Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(utf8BOM)
	writeQuotedRow(&buf, mapper.Columns)
	for _, r := range records {
		writeQuotedRow(&buf, mapper.FlattenValues(r))
	}
	return buf.Bytes(), nil
}

// Filename names the download after the export day: records_YYYY-MM-DD.csv.
func Filename(now time.Time) string {
	return "records_" + now.Format("2006-01-02") + ".csv"
}

// writeQuotedRow writes one CSV line with every field quoted. The standard
// csv.Writer only quotes when forced to, and the exchange contract wants
// uniform quoting, so the escaping is done here.
func writeQuotedRow(buf *bytes.Buffer, fields []string) {
	for i, field := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(field, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}
