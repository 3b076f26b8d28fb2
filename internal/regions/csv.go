package regions

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// CSVSource reads one named column from a CSV file with a header row.
type CSVSource struct {
	Path   string
	Column string
}

func (s CSVSource) Values(ctx context.Context) ([]string, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readColumn(ctx, bufio.NewReader(f), s.Column)
}

func readColumn(ctx context.Context, r io.Reader, column string) ([]string, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty dataset")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := -1
	for i, name := range header {
		if name == column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("column %q not found in dataset header", column)
	}

	var out []string
	for line := 2; ; line++ {
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := reader.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if col >= len(rec) {
			return nil, fmt.Errorf("line %d has %d fields, column %q is field %d", line, len(rec), column, col+1)
		}
		out = append(out, rec[col])
	}
}
