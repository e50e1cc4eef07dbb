package s0_data

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wonny/momentum/internal/contracts"
)

// ErrMissingSymbolColumn is returned when no header maps to Symbol
var ErrMissingSymbolColumn = errors.New("csv has no symbol column")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV parses a CSV export into raw records keyed by header.
// Cell values stay strings; coercion is the normalizer's job.
// Empty or whitespace-only input is an empty batch, not an error.
func ReadCSV(r io.Reader) ([]contracts.RawRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return []contracts.RawRecord{}, nil
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // 행마다 열 수가 달라도 허용
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	hasSymbol := false
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
		if ResolveHeader(header[i]) == keySymbol {
			hasSymbol = true
		}
	}
	if !hasSymbol {
		return nil, ErrMissingSymbolColumn
	}

	records := make([]contracts.RawRecord, 0)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if blankRow(row) {
			continue
		}

		raw := make(contracts.RawRecord, len(header))
		for i, h := range header {
			if h == "" || i >= len(row) {
				continue
			}
			raw[h] = row[i]
		}
		records = append(records, raw)
	}

	return records, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
