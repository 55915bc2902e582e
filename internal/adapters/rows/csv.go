package rows

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
)

// ReadCSV reads a header line followed by records. Short records leave the
// missing columns unset.
func ReadCSV(r io.Reader) ([]string, []Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, ErrNoHeader
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}

	var out []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv: %w", err)
		}
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		out = append(out, row)
	}
	return header, out, nil
}

// WriteCSV writes header plus extra columns not already present, then one
// record per row. Non-string values are formatted with %v.
func WriteCSV(w io.Writer, header []string, rows []Row, extra ...string) error {
	cols := slices.Clone(header)
	for _, c := range extra {
		if !slices.Contains(cols, c) {
			cols = append(cols, c)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	rec := make([]string, len(cols))
	for _, r := range rows {
		for i, c := range cols {
			switch v := r[c].(type) {
			case nil:
				rec[i] = ""
			case string:
				rec[i] = v
			default:
				rec[i] = fmt.Sprint(v)
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
