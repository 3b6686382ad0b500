// Package loader reads and writes the daily price table.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"MarketLens/internal/model"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Columns is the canonical header, in write order.
var Columns = []string{"Date", "Ticker", "Open", "High", "Low", "Close", "Adj Close", "Volume"}

// Read parses a delimited price table. Columns are matched by header name;
// extra columns (including a pandas-style unnamed index) are ignored.
func Read(r io.Reader) ([]model.RawRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("read header: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}
	cr.FieldsPerRecord = len(header)

	rows := make([]model.RawRow, 0, 1024)
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		row, err := parseRecord(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" || strings.HasPrefix(h, "Unnamed:") {
			continue
		}
		idx[h] = i
	}
	var missing []string
	for _, c := range Columns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

func parseRecord(rec []string, idx map[string]int) (model.RawRow, error) {
	row := model.RawRow{
		Date:   strings.TrimSpace(rec[idx["Date"]]),
		Ticker: strings.TrimSpace(rec[idx["Ticker"]]),
	}
	fields := []struct {
		name string
		dst  *float64
	}{
		{"Open", &row.Open},
		{"High", &row.High},
		{"Low", &row.Low},
		{"Close", &row.Close},
		{"Adj Close", &row.AdjClose},
		{"Volume", &row.Volume},
	}
	for _, f := range fields {
		raw := strings.TrimSpace(rec[idx[f.name]])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.RawRow{}, fmt.Errorf("parse %s %q: %w", f.name, raw, err)
		}
		*f.dst = v
	}
	return row, nil
}

// Write emits rows with the canonical header.
func Write(w io.Writer, rows []model.RawRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(Columns))
	for _, r := range rows {
		rec[0] = r.Date
		rec[1] = r.Ticker
		rec[2] = formatFloat(r.Open)
		rec[3] = formatFloat(r.High)
		rec[4] = formatFloat(r.Low)
		rec[5] = formatFloat(r.Close)
		rec[6] = formatFloat(r.AdjClose)
		rec[7] = formatFloat(r.Volume)
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
