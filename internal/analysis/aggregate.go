package analysis

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"

	"shopping-trends/internal/dataset"
	"shopping-trends/internal/models"
)

type Reduction string

const (
	ReduceCount       Reduction = "count"
	ReduceSum         Reduction = "sum"
	ReduceMean        Reduction = "mean"
	ReduceMode        Reduction = "mode"
	ReduceCorrelation Reduction = "correlation"
)

// Series is a one-key aggregation result.
type Series struct {
	Keys   []string  `json:"keys"`
	Values []float64 `json:"values"`
	// Labels annotates each key, e.g. the modal color of an item.
	Labels []string `json:"labels,omitempty"`
	// first holds the row index where each key first appeared; -1 for
	// categories that were enumerated but never observed.
	first []int
}

func (s Series) Len() int {
	return len(s.Keys)
}

// Value returns the value for key.
func (s Series) Value(key string) (float64, bool) {
	i := slices.Index(s.Keys, key)
	if i < 0 {
		return 0, false
	}
	return s.Values[i], true
}

// Total sums every value in the series.
func (s Series) Total() float64 {
	var total float64
	for _, v := range s.Values {
		total += v
	}
	return total
}

// Cell is one entry of a Matrix; absent combinations have OK == false.
type Cell struct {
	Value float64
	OK    bool
}

func (c Cell) MarshalJSON() ([]byte, error) {
	if !c.OK {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

// Matrix is a two-key aggregation result: rows by the first key, columns
// by the second.
type Matrix struct {
	Rows  []string `json:"rows"`
	Cols  []string `json:"cols"`
	Cells [][]Cell `json:"cells"`
}

// At returns the cell for row and col.
func (m Matrix) At(row, col string) Cell {
	i := slices.Index(m.Rows, row)
	j := slices.Index(m.Cols, col)
	if i < 0 || j < 0 {
		return Cell{}
	}
	return m.Cells[i][j]
}

// RowTotal sums the present cells of row i.
func (m Matrix) RowTotal(i int) float64 {
	var total float64
	for _, c := range m.Cells[i] {
		if c.OK {
			total += c.Value
		}
	}
	return total
}

type group struct {
	key   string
	first int
	rows  []int
}

// groupRows splits rows by the value of column in first-seen order. Rows
// with an empty key (an age outside every bucket) are dropped.
func groupRows(ds *dataset.Dataset, column string, rows []int) []group {
	index := make(map[string]int)
	var groups []group

	for _, r := range rows {
		key := ds.Records[r].Dimension(column)
		if key == "" {
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, group{key: key, first: r})
		}
		groups[i].rows = append(groups[i].rows, r)
	}

	return orderGroups(column, groups)
}

// orderGroups puts groups in display order: declared category order for the
// ordinal columns (every category present, observed or not), numeric order
// for Age and lexicographic order otherwise.
func orderGroups(column string, groups []group) []group {
	if categories := ordinalCategories(column); categories != nil {
		ordered := make([]group, len(categories))
		for i, c := range categories {
			ordered[i] = group{key: c, first: -1}
		}
		for _, g := range groups {
			if i := slices.Index(categories, g.key); i >= 0 {
				ordered[i] = g
			}
		}
		return ordered
	}

	if column == models.ColAge {
		slices.SortStableFunc(groups, func(a, b group) int {
			x, _ := strconv.Atoi(a.key)
			y, _ := strconv.Atoi(b.key)
			return cmp.Compare(x, y)
		})
		return groups
	}

	slices.SortStableFunc(groups, func(a, b group) int {
		return cmp.Compare(a.key, b.key)
	})
	return groups
}

func ordinalCategories(column string) []string {
	switch column {
	case models.ColSeason:
		return models.SeasonOrder
	case models.ColAgeRange:
		return models.AgeRangeLabels
	}
	return nil
}

func allRows(ds *dataset.Dataset) []int {
	rows := make([]int, ds.Len())
	for i := range rows {
		rows[i] = i
	}
	return rows
}

// reduce applies how to the value column over rows. The mean of no rows is
// reported as absent.
func reduce(ds *dataset.Dataset, rows []int, how Reduction, value string) (float64, bool, error) {
	switch how {
	case ReduceCount:
		return float64(len(rows)), true, nil
	case ReduceSum:
		var total float64
		for _, r := range rows {
			total += ds.Records[r].Measure(value)
		}
		return total, true, nil
	case ReduceMean:
		if len(rows) == 0 {
			return 0, false, nil
		}
		var total float64
		for _, r := range rows {
			total += ds.Records[r].Measure(value)
		}
		return total / float64(len(rows)), true, nil
	}
	return 0, false, fmt.Errorf("reduction %q does not apply to a group", how)
}

// GroupBy reduces the value column per distinct key.
func GroupBy(ds *dataset.Dataset, key string, how Reduction, value string) (Series, error) {
	var s Series
	for _, g := range groupRows(ds, key, allRows(ds)) {
		v, ok, err := reduce(ds, g.rows, how, value)
		if err != nil {
			return Series{}, err
		}
		if !ok {
			continue
		}
		s.Keys = append(s.Keys, g.key)
		s.Values = append(s.Values, v)
		s.first = append(s.first, g.first)
	}
	return s, nil
}

// GroupCount counts records per key.
func GroupCount(ds *dataset.Dataset, key string) Series {
	s, _ := GroupBy(ds, key, ReduceCount, "")
	return s
}

// GroupSum sums value per key.
func GroupSum(ds *dataset.Dataset, key, value string) Series {
	s, _ := GroupBy(ds, key, ReduceSum, value)
	return s
}

// GroupMean averages value per key.
func GroupMean(ds *dataset.Dataset, key, value string) Series {
	s, _ := GroupBy(ds, key, ReduceMean, value)
	return s
}

// GroupMatrix reduces value per (rowKey, colKey) pair. Combinations that do
// not occur are absent, except that when either key is ordinal every
// combination is enumerated and empty counts and sums read as zero.
func GroupMatrix(ds *dataset.Dataset, rowKey, colKey string, how Reduction, value string) (Matrix, error) {
	rows := groupRows(ds, rowKey, allRows(ds))
	cols := groupRows(ds, colKey, allRows(ds))
	dense := ordinalCategories(rowKey) != nil || ordinalCategories(colKey) != nil

	m := Matrix{
		Rows:  make([]string, len(rows)),
		Cols:  make([]string, len(cols)),
		Cells: make([][]Cell, len(rows)),
	}
	for j, c := range cols {
		m.Cols[j] = c.key
	}

	for i, r := range rows {
		m.Rows[i] = r.key
		m.Cells[i] = make([]Cell, len(cols))

		sub := groupRows(ds, colKey, r.rows)
		for j, c := range cols {
			k := slices.IndexFunc(sub, func(g group) bool { return g.key == c.key })
			var members []int
			if k >= 0 {
				members = sub[k].rows
			}
			if len(members) == 0 && !dense {
				continue
			}
			v, ok, err := reduce(ds, members, how, value)
			if err != nil {
				return Matrix{}, err
			}
			m.Cells[i][j] = Cell{Value: v, OK: ok}
		}
	}

	return m, nil
}

// TopN returns the n largest values in descending order. Equal values keep
// the order in which their keys first appeared in the dataset.
func TopN(s Series, n int) Series {
	idx := make([]int, s.Len())
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		if c := cmp.Compare(s.Values[b], s.Values[a]); c != 0 {
			return c
		}
		return cmp.Compare(firstSeen(s, a), firstSeen(s, b))
	})
	if n > 0 && len(idx) > n {
		idx = idx[:n]
	}
	return s.pick(idx)
}

// firstSeen treats never-observed categories as appearing after every row.
func firstSeen(s Series, i int) int {
	if i >= len(s.first) || s.first[i] < 0 {
		return math.MaxInt
	}
	return s.first[i]
}

// SortAscending orders the series by value, smallest first.
func SortAscending(s Series) Series {
	idx := make([]int, s.Len())
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(s.Values[a], s.Values[b])
	})
	return s.pick(idx)
}

func (s Series) pick(idx []int) Series {
	out := Series{
		Keys:   make([]string, len(idx)),
		Values: make([]float64, len(idx)),
		first:  make([]int, len(idx)),
	}
	if s.Labels != nil {
		out.Labels = make([]string, len(idx))
	}
	for i, j := range idx {
		out.Keys[i] = s.Keys[j]
		out.Values[i] = s.Values[j]
		out.first[i] = firstSeen(s, j)
		if s.Labels != nil {
			out.Labels[i] = s.Labels[j]
		}
	}
	return out
}

// Reindex restricts s to keys, in that order. Keys missing from s are
// absent from the result.
func Reindex(s Series, keys []string) Series {
	idx := make([]int, 0, len(keys))
	for _, k := range keys {
		if j := slices.Index(s.Keys, k); j >= 0 {
			idx = append(idx, j)
		}
	}
	return s.pick(idx)
}

// ReindexRows restricts the matrix rows to keys, in that order. Unknown
// keys become rows of absent cells.
func ReindexRows(m Matrix, keys []string) Matrix {
	out := Matrix{
		Rows:  slices.Clone(keys),
		Cols:  slices.Clone(m.Cols),
		Cells: make([][]Cell, len(keys)),
	}
	for i, k := range keys {
		if j := slices.Index(m.Rows, k); j >= 0 {
			out.Cells[i] = slices.Clone(m.Cells[j])
		} else {
			out.Cells[i] = make([]Cell, len(m.Cols))
		}
	}
	return out
}

// RoundHalfEven rounds v to decimals places, ties to even.
func RoundHalfEven(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.RoundToEven(v*p) / p
}

// Round rounds every value of s.
func Round(s Series, decimals int) Series {
	out := s.pick(identity(s.Len()))
	for i := range out.Values {
		out.Values[i] = RoundHalfEven(out.Values[i], decimals)
	}
	return out
}

// RoundMatrix rounds every present cell of m.
func RoundMatrix(m Matrix, decimals int) Matrix {
	out := ReindexRows(m, m.Rows)
	for i := range out.Cells {
		for j := range out.Cells[i] {
			if out.Cells[i][j].OK {
				out.Cells[i][j].Value = RoundHalfEven(out.Cells[i][j].Value, decimals)
			}
		}
	}
	return out
}

func identity(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// TopItemsByCount returns the n most frequently purchased items by raw
// transaction count, ties broken by first appearance.
func TopItemsByCount(ds *dataset.Dataset, n int) []string {
	return TopN(GroupCount(ds, models.ColItem), n).Keys
}

// ModeWithin finds, for each item, the most common value of column among
// that item's records. The series value is the modal count and the label
// is the modal value; ties go to the value seen first in the dataset.
func ModeWithin(ds *dataset.Dataset, items []string, column string) (Series, error) {
	byItem := make(map[string][]int)
	for i := range ds.Records {
		item := ds.Records[i].Item
		byItem[item] = append(byItem[item], i)
	}

	s := Series{
		Keys:   make([]string, 0, len(items)),
		Values: make([]float64, 0, len(items)),
		Labels: make([]string, 0, len(items)),
		first:  make([]int, 0, len(items)),
	}

	for _, item := range items {
		rows := byItem[item]
		if len(rows) == 0 {
			return Series{}, fmt.Errorf("item %q has no records", item)
		}

		counts := make(map[string]int)
		var order []string
		for _, r := range rows {
			v := ds.Records[r].Dimension(column)
			if _, ok := counts[v]; !ok {
				order = append(order, v)
			}
			counts[v]++
		}

		best := order[0]
		for _, v := range order[1:] {
			if counts[v] > counts[best] {
				best = v
			}
		}

		s.Keys = append(s.Keys, item)
		s.Values = append(s.Values, float64(counts[best]))
		s.Labels = append(s.Labels, best)
		s.first = append(s.first, rows[0])
	}

	return s, nil
}
