package analysis

import (
	"math"

	"shopping-trends/internal/dataset"
	"shopping-trends/internal/models"
)

// NumericColumns lists the numeric columns present in ds, in header order.
func NumericColumns(ds *dataset.Dataset) []string {
	var cols []string
	for _, c := range ds.Columns {
		if models.IsNumeric(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// Correlation computes the Pearson correlation matrix of columns. A pair
// involving a constant column has no defined coefficient and is absent.
func Correlation(ds *dataset.Dataset, columns []string) Matrix {
	values := make([][]float64, len(columns))
	for j, c := range columns {
		values[j] = make([]float64, ds.Len())
		for i := range ds.Records {
			values[j][i] = ds.Records[i].Measure(c)
		}
	}

	m := Matrix{
		Rows:  append([]string(nil), columns...),
		Cols:  append([]string(nil), columns...),
		Cells: make([][]Cell, len(columns)),
	}
	for i := range columns {
		m.Cells[i] = make([]Cell, len(columns))
		for j := range columns {
			r, ok := pearson(values[i], values[j])
			m.Cells[i][j] = Cell{Value: r, OK: ok}
		}
	}
	return m
}

func pearson(x, y []float64) (float64, bool) {
	n := len(x)
	if n < 2 || n != len(y) {
		return 0, false
	}

	var meanX, meanY float64
	for i := 0; i < n; i++ {
		meanX += x[i]
		meanY += y[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return 0, false
	}
	r := cov / math.Sqrt(varX*varY)
	return math.Max(-1, math.Min(1, r)), true
}
