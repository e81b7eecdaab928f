package table

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ReadCSV parses a delimited-text table. The first record is the header; all
// cells are kept as strings and coerced lazily by consumers.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	t, err := New(header)
	if err != nil {
		return nil, err
	}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read row %d: %w", t.NumRows()+2, err)
		}
		row := make([]Value, len(record))
		for i, cell := range record {
			if cell == "" {
				row[i] = nil
			} else {
				row[i] = cell
			}
		}
		if err := t.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// WriteCSV renders the table as delimited text with a header record.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.cols); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	record := make([]string, len(t.cols))
	for r := range t.rows {
		for i, v := range t.rows[r] {
			record[i] = FormatValue(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("csv: write row %d: %w", r+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
