package dataset

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

var (
	numericIndex = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}
	objectIndex  = []string{"count", "unique", "top", "freq"}
)

// ColumnSummary holds descriptive statistics for one column.
type ColumnSummary struct {
	Name  string
	Count int

	// Numeric columns
	Mean, Std, Min, Q25, Q50, Q75, Max float64

	// Non-numeric columns
	Unique int
	Top    string
	Freq   int
}

// Description summarizes a dataset. When Numeric is false it describes every
// column by count/unique/top/freq because no numeric column was found.
type Description struct {
	Numeric bool
	Columns []ColumnSummary
}

// Describe computes count, mean, std, min, quartiles and max for every numeric column.
func (d *Dataset) Describe() Description {
	var desc Description
	if d == nil {
		return desc
	}
	for j, name := range d.Columns {
		values, ok := d.numericColumn(j)
		if !ok {
			continue
		}
		desc.Columns = append(desc.Columns, summarizeNumeric(name, values))
	}
	if len(desc.Columns) > 0 {
		desc.Numeric = true
		return desc
	}
	for j, name := range d.Columns {
		desc.Columns = append(desc.Columns, d.summarizeObject(name, j))
	}
	return desc
}

// numericColumn returns the parsed values of column j if every present cell is
// numeric. Missing cells and non-finite values are skipped.
func (d *Dataset) numericColumn(j int) ([]float64, bool) {
	var values []float64
	for _, row := range d.rows {
		if IsMissing(row[j]) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[j]), 64)
		if err != nil {
			return nil, false
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		values = append(values, v)
	}
	return values, len(values) > 0
}

func summarizeNumeric(name string, values []float64) ColumnSummary {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return ColumnSummary{
		Name:  name,
		Count: len(values),
		Mean:  mean(values),
		Std:   sampleStd(values),
		Min:   sorted[0],
		Q25:   quantile(sorted, 0.25),
		Q50:   quantile(sorted, 0.50),
		Q75:   quantile(sorted, 0.75),
		Max:   sorted[len(sorted)-1],
	}
}

func (d *Dataset) summarizeObject(name string, j int) ColumnSummary {
	s := ColumnSummary{Name: name}
	counts := make(map[string]int)
	var order []string
	for _, row := range d.rows {
		if IsMissing(row[j]) {
			continue
		}
		cell := strings.TrimSpace(row[j])
		s.Count++
		if counts[cell] == 0 {
			order = append(order, cell)
		}
		counts[cell]++
	}
	s.Unique = len(order)
	for _, v := range order {
		if counts[v] > s.Freq {
			s.Top, s.Freq = v, counts[v]
		}
	}
	return s
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

// sampleStd uses the n-1 denominator; fewer than two values have no std.
func sampleStd(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	m := mean(x)
	ss := 0.0
	for _, v := range x {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(x)-1))
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// String renders the description as a table with statistics as rows and columns as columns.
func (desc Description) String() string {
	if len(desc.Columns) == 0 {
		return "Empty DataFrame\nColumns: []\nIndex: []"
	}
	index := objectIndex
	if desc.Numeric {
		index = numericIndex
	}
	names := make([]string, len(desc.Columns))
	cells := make([][]string, len(index))
	for i := range cells {
		cells[i] = make([]string, len(desc.Columns))
	}
	for j, c := range desc.Columns {
		names[j] = c.Name
		var col []string
		if desc.Numeric {
			col = []string{
				formatFloat(float64(c.Count)), formatFloat(c.Mean), formatFloat(c.Std), formatFloat(c.Min),
				formatFloat(c.Q25), formatFloat(c.Q50), formatFloat(c.Q75), formatFloat(c.Max),
			}
		} else {
			top, freq := "NaN", "NaN"
			if c.Count > 0 {
				top, freq = c.Top, strconv.Itoa(c.Freq)
			}
			col = []string{strconv.Itoa(c.Count), strconv.Itoa(c.Unique), top, freq}
		}
		for i, v := range col {
			cells[i][j] = v
		}
	}
	return renderTable(index, names, cells)
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}
