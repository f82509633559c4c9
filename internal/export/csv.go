package export

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wolfman30/leadhunter/internal/leads"
)

const recordSeparator = "\r\n"

var errNoColumns = errors.New("export: no columns")

// WriteCSV writes a header row followed by one record per lead, in input
// order. Every field is quoted and embedded quotes are doubled. Records are
// separated by CRLF with no trailing separator.
func WriteCSV(w io.Writer, rows []leads.Lead, columns []Column) error {
	if len(columns) == 0 {
		return errNoColumns
	}
	bw := bufio.NewWriter(w)

	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.Header
	}
	writeRecord(bw, headers)

	fields := make([]string, len(columns))
	for _, lead := range rows {
		for i, col := range columns {
			fields[i] = col.Value(lead)
		}
		bw.WriteString(recordSeparator)
		writeRecord(bw, fields)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("export: write csv: %w", err)
	}
	return nil
}

// EncodeCSV returns the WriteCSV output as bytes.
func EncodeCSV(rows []leads.Lead, columns []Column) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows, columns); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRecord(bw *bufio.Writer, fields []string) {
	for i, field := range fields {
		if i > 0 {
			bw.WriteByte(',')
		}
		bw.WriteByte('"')
		bw.WriteString(strings.ReplaceAll(field, `"`, `""`))
		bw.WriteByte('"')
	}
}
