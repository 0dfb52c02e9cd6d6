package rows

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ReadCSV reads a CSV export into header-keyed rows. The delimiter (comma or semicolon)
// is taken from the header line; a UTF-8 BOM is ignored.
func ReadCSV(r io.Reader) ([]map[string]string, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && bytes.Equal(b, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}

	headerLine, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	first := string(headerLine)
	if i := strings.IndexAny(first, "\r\n"); i >= 0 {
		first = first[:i]
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if strings.Count(first, ";") > strings.Count(first, ",") {
		cr.Comma = ';'
	}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var out []map[string]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(out)+2, err)
		}
		row := make(map[string]string, len(header))
		empty := true
		for i, col := range header {
			if i >= len(rec) || col == "" {
				continue
			}
			row[col] = rec[i]
			if strings.TrimSpace(rec[i]) != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}
