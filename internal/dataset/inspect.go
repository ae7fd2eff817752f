package dataset

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"shopping-trends/internal/models"
)

// NumericSummary mirrors a describe() row for one numeric column.
type NumericSummary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	P25    float64 `json:"p25"`
	P50    float64 `json:"p50"`
	P75    float64 `json:"p75"`
	Max    float64 `json:"max"`
}

type ColumnValues struct {
	Column   string   `json:"column"`
	Distinct []string `json:"distinct"`
}

// Inspection is the up-front look at the data before any aggregation.
type Inspection struct {
	Rows       int              `json:"rows"`
	Columns    []string         `json:"columns"`
	Duplicates int              `json:"duplicates"`
	Numeric    []NumericSummary `json:"numeric"`
	Values     []ColumnValues   `json:"values"`
}

func Inspect(ds *Dataset) Inspection {
	ins := Inspection{
		Rows:    ds.Len(),
		Columns: slices.Clone(ds.Columns),
	}

	ins.Duplicates = countDuplicates(ds)

	for _, column := range ds.Columns {
		if models.IsNumeric(column) {
			ins.Numeric = append(ins.Numeric, describe(ds, column))
		}
		ins.Values = append(ins.Values, ColumnValues{
			Column:   column,
			Distinct: distinct(ds, column),
		})
	}

	return ins
}

// countDuplicates counts rows equal to an earlier row; the first
// occurrence is not a duplicate.
func countDuplicates(ds *Dataset) int {
	seen := make(map[string]struct{}, ds.Len())
	dups := 0
	var b strings.Builder
	for i := range ds.Records {
		b.Reset()
		for _, column := range ds.Columns {
			b.WriteString(cell(&ds.Records[i], column))
			b.WriteByte(0x1f)
		}
		key := b.String()
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return dups
}

func distinct(ds *Dataset, column string) []string {
	seen := make(map[string]bool)
	var out []string
	for i := range ds.Records {
		v := cell(&ds.Records[i], column)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func cell(r *models.Record, column string) string {
	if models.IsNumeric(column) {
		return strconv.FormatFloat(r.Measure(column), 'f', -1, 64)
	}
	return r.Dimension(column)
}

func describe(ds *Dataset, column string) NumericSummary {
	values := make([]float64, ds.Len())
	for i := range ds.Records {
		values[i] = ds.Records[i].Measure(column)
	}
	slices.Sort(values)

	s := NumericSummary{Column: column, Count: len(values)}
	if len(values) == 0 {
		return s
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	s.Mean = sum / float64(len(values))

	if len(values) > 1 {
		var sq float64
		for _, v := range values {
			d := v - s.Mean
			sq += d * d
		}
		s.Std = math.Sqrt(sq / float64(len(values)-1))
	}

	s.Min = values[0]
	s.Max = values[len(values)-1]
	s.P25 = percentile(values, 0.25)
	s.P50 = percentile(values, 0.50)
	s.P75 = percentile(values, 0.75)
	return s
}

// percentile expects sorted input and interpolates linearly between the
// closest ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
