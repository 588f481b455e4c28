package seqsummary

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Table is the materialised summary: one row per valid file, with the union of every
// field seen in any row as columns, in first-seen order.
type Table struct {
	Columns []string
	Rows    []*Record
}

// BuildTable collects records into a Table.
func BuildTable(records []*Record) *Table {
	t := &Table{Rows: records}
	seen := make(map[string]struct{})
	for _, r := range records {
		for _, k := range r.keys {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			t.Columns = append(t.Columns, k)
		}
	}
	return t
}

// Cell returns the rendered value of column col in row i. Missing fields render as
// an empty string.
func (t *Table) Cell(i int, col string) string {
	v, ok := t.Rows[i].Get(col)
	if !ok {
		return ""
	}
	return FormatValue(v)
}

// WriteTSV writes the header followed by every row, tab separated.
func (t *Table) WriteTSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	line := make([]string, len(t.Columns))
	for i := range t.Rows {
		for j, col := range t.Columns {
			line[j] = t.Cell(i, col)
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatValue renders an attribute value for the summary file.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case bool:
		if x {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(x)
	}
}
