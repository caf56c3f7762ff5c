package csvio

import (
	"encoding/csv"
	"fmt"
	"io"

	"tagfix/internal/tag"
)

// Header returns the fixed column layout: path first, then every scalar
// field. The cover image is binary and deliberately excluded.
func Header() []string {
	header := make([]string, 0, len(tag.ScalarFields)+1)
	header = append(header, "path")
	for _, f := range tag.ScalarFields {
		header = append(header, string(f))
	}
	return header
}

// Export writes one row per file in input order.
func Export(w io.Writer, files []*tag.File) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, f := range files {
		row := make([]string, 0, len(tag.ScalarFields)+1)
		row = append(row, f.Path)
		for _, field := range tag.ScalarFields {
			row = append(row, f.Record.Get(field))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", f.Path, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Row is one imported line. Values holds only the non-empty cells, so
// applying a Row never blanks an existing tag value.
type Row struct {
	Path   string
	Values map[tag.Field]string
}

// Import reads rows in the Export layout. Unknown columns are ignored and
// rows without a path are dropped.
func Import(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	pathCol := -1
	fieldCols := make(map[int]tag.Field)
	for i, name := range header {
		if name == "path" {
			pathCol = i
			continue
		}
		for _, f := range tag.ScalarFields {
			if string(f) == name {
				fieldCols[i] = f
				break
			}
		}
	}
	if pathCol < 0 {
		return nil, fmt.Errorf("CSV is missing the path column")
	}

	var rows []Row
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		if pathCol >= len(record) || record[pathCol] == "" {
			continue
		}
		row := Row{Path: record[pathCol], Values: make(map[tag.Field]string)}
		for i, f := range fieldCols {
			if i < len(record) && record[i] != "" {
				row.Values[f] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
