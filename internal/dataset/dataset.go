package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrEmptyFile is returned when a CSV file has no header row.
var ErrEmptyFile = errors.New("no columns to parse from file")

// missingMarkers are the cell values read as missing, matching the defaults of
// common dataframe readers.
var missingMarkers = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"n/a":  true,
	"#N/A": true,
	"<NA>": true,
	"null": true,
	"NULL": true,
	"NaN":  true,
	"nan":  true,
	"-NaN": true,
	"-nan": true,
	"None": true,
}

// IsMissing reports whether cell holds no value.
func IsMissing(cell string) bool {
	return missingMarkers[strings.TrimSpace(cell)]
}

// Dataset is a read-only table of string cells with named columns.
type Dataset struct {
	Name    string
	Columns []string
	rows    [][]string
}

// New builds a Dataset, copying the inputs and normalizing every row to the column count.
func New(name string, columns []string, rows [][]string) *Dataset {
	cols := make([]string, len(columns))
	copy(cols, columns)
	d := &Dataset{Name: name, Columns: cols, rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		d.rows = append(d.rows, normalizeRow(r, len(cols)))
	}
	return d
}

// Load parses a comma-delimited file with a header row.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	d, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	d.Name = filepath.Base(path)
	return d, nil
}

// LoadPair loads the transactions and income datasets. If either fails, both are absent.
func LoadPair(transactionsPath, incomePath string) (*Dataset, *Dataset, error) {
	transactions, err := Load(transactionsPath)
	if err != nil {
		return nil, nil, err
	}
	income, err := Load(incomePath)
	if err != nil {
		return nil, nil, err
	}
	return transactions, income, nil
}

// Read parses CSV content from r. Short rows are padded and long rows truncated to the header width.
func Read(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cleanHeader(header)

	d := &Dataset{Columns: header}
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(d.rows)+1, err)
		}
		d.rows = append(d.rows, normalizeRow(rec, len(header)))
	}
	return d, nil
}

func cleanHeader(header []string) {
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = strings.TrimSpace(h)
	}
}

func normalizeRow(rec []string, width int) []string {
	row := make([]string, width)
	copy(row, rec)
	return row
}

// Len returns the number of data rows. A nil dataset has none.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.rows)
}

// Row returns a copy of row i.
func (d *Dataset) Row(i int) []string {
	out := make([]string, len(d.rows[i]))
	copy(out, d.rows[i])
	return out
}

// ColumnIndex returns the index of col, matched case-insensitively, or -1.
func (d *Dataset) ColumnIndex(col string) int {
	if d == nil {
		return -1
	}
	for i, c := range d.Columns {
		if strings.EqualFold(c, col) {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the dataset has col.
func (d *Dataset) HasColumn(col string) bool {
	return d.ColumnIndex(col) >= 0
}

// Value returns the trimmed cell at row i in column col, or "" if either is absent.
func (d *Dataset) Value(i int, col string) string {
	idx := d.ColumnIndex(col)
	if idx < 0 || i < 0 || i >= d.Len() {
		return ""
	}
	return strings.TrimSpace(d.rows[i][idx])
}

// Float parses the cell at row i in column col, returning 0 when it is empty,
// not numeric or not finite.
func (d *Dataset) Float(i int, col string) float64 {
	v, err := strconv.ParseFloat(d.Value(i, col), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Head returns a dataset holding the first n rows.
func (d *Dataset) Head(n int) *Dataset {
	if d == nil {
		return nil
	}
	if n < 0 {
		n = 0
	}
	if n > d.Len() {
		n = d.Len()
	}
	return New(d.Name, d.Columns, d.rows[:n])
}

// Records returns every row keyed by column name.
func (d *Dataset) Records() []map[string]string {
	if d == nil {
		return nil
	}
	out := make([]map[string]string, 0, d.Len())
	for _, row := range d.rows {
		rec := make(map[string]string, len(d.Columns))
		for j, c := range d.Columns {
			rec[c] = row[j]
		}
		out = append(out, rec)
	}
	return out
}

// String renders the dataset as a right-aligned text table with a row index.
func (d *Dataset) String() string {
	if d == nil {
		return "Empty DataFrame\nColumns: []\nIndex: []"
	}
	if d.Len() == 0 {
		return fmt.Sprintf("Empty DataFrame\nColumns: [%s]\nIndex: []", strings.Join(d.Columns, ", "))
	}
	index := make([]string, d.Len())
	for i := range index {
		index[i] = strconv.Itoa(i)
	}
	rows := make([][]string, len(d.rows))
	for i, row := range d.rows {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			if IsMissing(cell) {
				cell = "NaN"
			}
			rows[i][j] = cell
		}
	}
	return renderTable(index, d.Columns, rows)
}
