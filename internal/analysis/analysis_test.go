package analysis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopping-trends/internal/dataset"
	"shopping-trends/internal/errors"
	"shopping-trends/internal/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// syntheticDataset builds n deterministic records over 12 items so that
// item counts are uneven and the top-10 list is well defined.
func syntheticDataset(n int) *dataset.Dataset {
	items := []string{"Blouse", "Jeans", "Shirt", "Sweater", "Dress", "Shorts", "Hat", "Socks", "Boots", "Coat", "Belt", "Scarf"}
	colors := []string{"Gray", "Maroon", "Blue", "Olive"}
	categories := []string{"Clothing", "Footwear", "Outerwear", "Accessories"}
	frequencies := []string{"Weekly", "Fortnightly", "Monthly", "Annually"}
	locations := []string{"Kentucky", "Maine", "Ohio", "Texas", "Nevada", "Idaho", "Utah", "Iowa", "Oregon", "Alaska", "Kansas", "Vermont"}

	records := make([]models.Record, n)
	for i := range records {
		// i*i skews item frequencies so counts differ.
		item := items[(i*i+i/3)%len(items)]
		records[i] = models.Record{
			CustomerID:        i + 1,
			Age:               18 + (i*7)%53,
			Gender:            []string{"Male", "Female"}[i%2],
			Item:              item,
			Category:          categories[i%len(categories)],
			Amount:            float64(20 + (i*13)%81),
			Location:          locations[(i*5)%len(locations)],
			Size:              []string{"S", "M", "L", "XL"}[i%4],
			Color:             colors[(i/2)%len(colors)],
			Season:            models.SeasonOrder[(i*3)%4],
			ReviewRating:      2.5 + float64(i%26)/10,
			Subscription:      []string{"Yes", "No", "No"}[i%3],
			ShippingType:      []string{"Express", "Free Shipping", "Standard"}[i%3],
			DiscountApplied:   []string{"Yes", "No"}[(i/3)%2],
			PromoCodeUsed:     []string{"Yes", "No"}[(i/3)%2],
			PreviousPurchases: (i * 11) % 50,
			PaymentMethod:     []string{"Venmo", "Cash", "Credit Card", "PayPal"}[i%4],
			Frequency:         frequencies[(i/5)%len(frequencies)],
		}
	}

	columns := append(append([]string{}, models.RequiredColumns...), models.OptionalColumns...)
	return dataset.New(columns, records)
}

func TestScenario_ThreeRecords(t *testing.T) {
	ds := dataset.New(nil, []models.Record{
		{Item: "Shirt", Amount: 20, Gender: "Male", Age: 30, Season: "Fall"},
		{Item: "Shirt", Amount: 30, Gender: "Female", Age: 40, Season: "Fall"},
		{Item: "Shoes", Amount: 50, Gender: "Male", Age: 50, Season: "Fall"},
	})

	byGender := GroupSum(ds, models.ColGender, models.ColAmount)
	male, ok := byGender.Value("Male")
	require.True(t, ok)
	female, ok := byGender.Value("Female")
	require.True(t, ok)
	assert.Equal(t, 70.0, male)
	assert.Equal(t, 30.0, female)
	assert.Equal(t, 2, byGender.Len())

	assert.Equal(t, []string{"Shirt", "Shoes"}, TopItemsByCount(ds, TopItemsN))
}

func TestTopN_TiesKeepFirstAppearance(t *testing.T) {
	ds := dataset.New(nil, []models.Record{
		{Item: "Mittens"},
		{Item: "Anorak"},
		{Item: "Zip Hoodie"},
		{Item: "Anorak"},
		{Item: "Mittens"},
	})

	// Mittens and Anorak tie on 2; Mittens appeared first.
	assert.Equal(t, []string{"Mittens", "Anorak", "Zip Hoodie"}, TopItemsByCount(ds, 10))
	assert.Equal(t, []string{"Mittens"}, TopItemsByCount(ds, 1))
}

func TestTopItemsByCount_TenEntries(t *testing.T) {
	ds := syntheticDataset(200)

	top := TopItemsByCount(ds, TopItemsN)
	assert.Len(t, top, 10)

	counts := GroupCount(ds, models.ColItem)
	for i := 1; i < len(top); i++ {
		prev, _ := counts.Value(top[i-1])
		cur, _ := counts.Value(top[i])
		assert.GreaterOrEqual(t, prev, cur)
	}
}

func TestGroupSum_Conservation(t *testing.T) {
	ds := syntheticDataset(150)

	var total float64
	for _, r := range ds.Records {
		total += r.Amount
	}

	for _, key := range []string{models.ColGender, models.ColLocation, models.ColCategory, models.ColSeason, models.ColItem} {
		s := GroupSum(ds, key, models.ColAmount)
		assert.InDelta(t, total, s.Total(), 1e-6, "key %s", key)
	}
}

func TestGroupMean_WithinItemBounds(t *testing.T) {
	ds := syntheticDataset(150)
	means := GroupMean(ds, models.ColItem, models.ColReviewRating)

	for i, item := range means.Keys {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, r := range ds.Records {
			if r.Item == item {
				lo = math.Min(lo, r.ReviewRating)
				hi = math.Max(hi, r.ReviewRating)
			}
		}
		assert.GreaterOrEqual(t, means.Values[i], lo, item)
		assert.LessOrEqual(t, means.Values[i], hi, item)
	}
}

func TestGroupBy_KeyOrder(t *testing.T) {
	ds := dataset.New(nil, []models.Record{
		{Season: "Winter", Gender: "Male", Age: 64, Amount: 10},
		{Season: "Summer", Gender: "Female", Age: 9, Amount: 5},
		{Season: "Winter", Gender: "Male", Age: 25, Amount: 1},
	})

	seasons := GroupSum(ds, models.ColSeason, models.ColAmount)
	assert.Equal(t, models.SeasonOrder, seasons.Keys)
	assert.Equal(t, []float64{0, 5, 0, 11}, seasons.Values)

	genders := GroupCount(ds, models.ColGender)
	assert.Equal(t, []string{"Female", "Male"}, genders.Keys)

	// Age 9 has no bucket and is excluded.
	ranges := GroupSum(ds, models.ColAgeRange, models.ColAmount)
	assert.Equal(t, models.AgeRangeLabels, ranges.Keys)
	assert.Equal(t, []float64{0, 1, 0, 0, 0, 10}, ranges.Values)

	ages := GroupCount(ds, models.ColAge)
	assert.Equal(t, []string{"9", "25", "64"}, ages.Keys)

	// Means over empty ordinal categories are absent.
	meanRanges := GroupMean(ds, models.ColAgeRange, models.ColAmount)
	assert.Equal(t, []string{"21-30", "61-70"}, meanRanges.Keys)
}

func TestGroupBy_SingleCategory(t *testing.T) {
	ds := dataset.New(nil, []models.Record{{Gender: "Male"}, {Gender: "Male"}})

	s := GroupCount(ds, models.ColGender)
	assert.Equal(t, []string{"Male"}, s.Keys)
	assert.Equal(t, []float64{2}, s.Values)
}

func TestGroupMatrix(t *testing.T) {
	ds := dataset.New(nil, []models.Record{
		{Category: "Clothing", Gender: "Male", Age: 25, ReviewRating: 4},
		{Category: "Clothing", Gender: "Female", Age: 25, ReviewRating: 3},
		{Category: "Footwear", Gender: "Male", Age: 35, ReviewRating: 5},
	})

	m, err := GroupMatrix(ds, models.ColCategory, models.ColGender, ReduceCount, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Clothing", "Footwear"}, m.Rows)
	assert.Equal(t, []string{"Female", "Male"}, m.Cols)
	assert.Equal(t, Cell{Value: 1, OK: true}, m.At("Clothing", "Female"))
	assert.False(t, m.At("Footwear", "Female").OK, "unobserved combination must be absent")
	assert.Equal(t, 2.0, m.RowTotal(0))

	reviews, err := GroupMatrix(ds, models.ColAgeRange, models.ColGender, ReduceMean, models.ColReviewRating)
	require.NoError(t, err)
	assert.Equal(t, models.AgeRangeLabels, reviews.Rows)
	assert.Equal(t, Cell{Value: 4, OK: true}, reviews.At("21-30", "Male"))
	assert.False(t, reviews.At("10-20", "Male").OK)
	assert.False(t, reviews.At("31-40", "Female").OK)

	counts, err := GroupMatrix(ds, models.ColAgeRange, models.ColGender, ReduceCount, "")
	require.NoError(t, err)
	assert.Equal(t, Cell{Value: 0, OK: true}, counts.At("10-20", "Male"))
}

func TestModeWithin(t *testing.T) {
	ds := dataset.New(nil, []models.Record{
		{Item: "Hat", Color: "Olive"},
		{Item: "Hat", Color: "Blue"},
		{Item: "Hat", Color: "Blue"},
		{Item: "Hat", Color: "Olive"},
		{Item: "Belt", Color: "Gray"},
		{Item: "Belt", Color: "Teal"},
		{Item: "Belt", Color: "Teal"},
	})

	s, err := ModeWithin(ds, []string{"Belt", "Hat"}, models.ColColor)
	require.NoError(t, err)

	assert.Equal(t, []string{"Belt", "Hat"}, s.Keys)
	assert.Equal(t, []float64{2, 2}, s.Values)
	// Hat ties Olive/Blue at 2; Olive was seen first.
	assert.Equal(t, []string{"Teal", "Olive"}, s.Labels)

	_, err = ModeWithin(ds, []string{"Umbrella"}, models.ColColor)
	assert.Error(t, err)
}

func TestReindex(t *testing.T) {
	s := Series{Keys: []string{"a", "b", "c"}, Values: []float64{1, 2, 3}}

	r := Reindex(s, []string{"c", "a"})
	assert.Equal(t, []string{"c", "a"}, r.Keys)
	assert.Equal(t, []float64{3, 1}, r.Values)

	r = Reindex(s, []string{"z", "b", "y"})
	assert.Equal(t, []string{"b"}, r.Keys, "unknown keys are absent")
	assert.Equal(t, []float64{2}, r.Values)
	assert.Zero(t, Reindex(s, []string{"z"}).Len())

	m := Matrix{Rows: []string{"x"}, Cols: []string{"k"}, Cells: [][]Cell{{{Value: 4, OK: true}}}}
	rm := ReindexRows(m, []string{"y", "x"})
	assert.False(t, rm.Cells[0][0].OK)
	assert.Equal(t, 4.0, rm.Cells[1][0].Value)
}

func TestRoundHalfEven(t *testing.T) {
	assert.Equal(t, 2.2, RoundHalfEven(2.25, 1))
	assert.Equal(t, 3.8, RoundHalfEven(3.75, 1))
	assert.Equal(t, 3.1, RoundHalfEven(3.1333333, 1))
	assert.Equal(t, 4.0, RoundHalfEven(3.96, 1))
}

func TestSortAscending(t *testing.T) {
	s := SortAscending(Series{Keys: []string{"a", "b", "c"}, Values: []float64{3, 1, 2}})
	assert.Equal(t, []string{"b", "c", "a"}, s.Keys)
}

func TestCorrelation(t *testing.T) {
	ds := dataset.New(nil, []models.Record{
		{Age: 20, Amount: 40, ReviewRating: 3},
		{Age: 30, Amount: 60, ReviewRating: 3},
		{Age: 40, Amount: 80, ReviewRating: 3},
	})

	m := Correlation(ds, []string{models.ColAge, models.ColAmount, models.ColReviewRating})
	assert.InDelta(t, 1.0, m.At(models.ColAge, models.ColAmount).Value, 1e-12)
	assert.InDelta(t, 1.0, m.At(models.ColAge, models.ColAge).Value, 1e-12)
	assert.False(t, m.At(models.ColAge, models.ColReviewRating).OK, "constant column has no coefficient")
}

func TestPipeline_Run(t *testing.T) {
	ds := syntheticDataset(240)
	p := NewPipeline(quietLogger())

	report, err := p.Run(context.Background(), ds)
	require.NoError(t, err)

	catalog := Catalog()
	require.Len(t, report.Results, len(catalog))
	for i, spec := range catalog {
		assert.Equal(t, spec.ID, report.Results[i].Spec.ID)
		hasOne := (report.Results[i].Series != nil) != (report.Results[i].Matrix != nil)
		assert.True(t, hasOne, "spec %s must produce exactly one result shape", spec.ID)
	}

	assert.Len(t, report.TopItems, TopItemsN)
	assert.Equal(t, 240, report.Rows)

	// Every chart restricted to the shared list describes the same items.
	for _, res := range report.Results {
		if !res.Spec.RestrictToTopItems {
			continue
		}
		if res.Series != nil {
			assert.Equal(t, report.TopItems, res.Series.Keys, res.Spec.ID)
		} else {
			assert.Equal(t, report.TopItems, res.Matrix.Rows, res.Spec.ID)
		}
	}

	color, ok := report.Find("top-products-color")
	require.True(t, ok)
	assert.Len(t, color.Series.Labels, TopItemsN)

	sales, ok := report.Find("top-products-sales")
	require.True(t, ok)
	assert.Len(t, sales.Series.Keys, 10)
	for i := 1; i < len(sales.Series.Values); i++ {
		assert.GreaterOrEqual(t, sales.Series.Values[i-1], sales.Series.Values[i])
	}

	colors, ok := report.Find("sales-by-color")
	require.True(t, ok)
	for i := 1; i < len(colors.Series.Values); i++ {
		assert.LessOrEqual(t, colors.Series.Values[i-1], colors.Series.Values[i])
	}

	reviews, ok := report.Find("top-reviewed")
	require.True(t, ok)
	for _, v := range reviews.Series.Values {
		assert.Equal(t, RoundHalfEven(v, 1), v)
	}

	corr, ok := report.Find("correlation")
	require.True(t, ok)
	assert.Equal(t, NumericColumns(ds), corr.Matrix.Rows)

	_, ok = report.Find("missing")
	assert.False(t, ok)
}

func TestPipeline_Deterministic(t *testing.T) {
	ds := syntheticDataset(180)
	p := NewPipeline(quietLogger())

	first, err := p.Run(context.Background(), ds)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPipeline_EmptyDataset(t *testing.T) {
	p := NewPipeline(quietLogger())

	_, err := p.Run(context.Background(), dataset.New(nil, nil))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeEmptyDataset))

	_, err = Execute(&Context{Dataset: dataset.New(nil, nil)}, Catalog()[0])
	assert.True(t, errors.HasCode(err, errors.CodeEmptyDataset))
}

func TestPipeline_AbortsOnFailure(t *testing.T) {
	catalog := []Spec{
		{ID: "ok", Keys: []string{models.ColGender}, Reduce: ReduceCount},
		{ID: "broken", Keys: []string{models.ColGender}, Reduce: ReduceMode},
		{ID: "never", Keys: []string{models.ColGender}, Reduce: ReduceCount},
	}
	p := NewPipelineWithCatalog(catalog, quietLogger())

	report, err := p.Run(context.Background(), syntheticDataset(20))
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Contains(t, err.Error(), "broken")
	assert.Equal(t, errors.CodeInternal, errors.CodeOf(err))
}

func TestPipeline_KeepsErrorCode(t *testing.T) {
	p := NewPipeline(quietLogger())
	pc := &Context{Dataset: dataset.New(nil, nil)}

	_, err := p.runSpec(context.Background(), pc, Catalog()[0])
	require.Error(t, err)
	assert.Equal(t, errors.CodeEmptyDataset, errors.CodeOf(err))
	assert.Contains(t, err.Error(), Catalog()[0].ID)
}

func TestPipeline_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(quietLogger()).Run(ctx, syntheticDataset(20))
	assert.ErrorIs(t, err, context.Canceled)
}

func ExampleTopItemsByCount() {
	ds := dataset.New(nil, []models.Record{
		{Item: "Shirt"}, {Item: "Shoes"}, {Item: "Shirt"},
	})
	fmt.Println(TopItemsByCount(ds, TopItemsN))
	// Output: [Shirt Shoes]
}
