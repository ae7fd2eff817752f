// Package dataset loads the purchase-record CSV into memory and validates
// the clean-data assumption the aggregation pipeline relies on.
package dataset

import (
	"bufio"
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"shopping-trends/internal/errors"
	"shopping-trends/internal/models"
)

// Dataset is the in-memory table. It is read-only once Load returns.
type Dataset struct {
	Records []models.Record
	// Columns lists the header columns in file order.
	Columns []string
}

// New wraps already-parsed records and derives the age-range bucket.
// Columns defaults to the required columns when nil.
func New(columns []string, records []models.Record) *Dataset {
	if columns == nil {
		columns = slices.Clone(models.RequiredColumns)
	}
	ds := &Dataset{Records: records, Columns: columns}
	ds.deriveColumns()
	return ds
}

func (d *Dataset) Len() int {
	return len(d.Records)
}

// Has reports whether column was present in the source header.
func (d *Dataset) Has(column string) bool {
	return slices.Contains(d.Columns, column)
}

func (d *Dataset) deriveColumns() {
	for i := range d.Records {
		if label, ok := models.AgeRangeFor(d.Records[i].Age); ok {
			d.Records[i].AgeRange = label
		} else {
			d.Records[i].AgeRange = ""
		}
	}
}

// Load reads the CSV file at path.
func Load(ctx context.Context, path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.LoadWrap(err, fmt.Sprintf("cannot open %s", path))
	}
	defer file.Close()

	return Read(ctx, file)
}

// Read parses CSV content with a header row. Header names are significant,
// their order is not.
func Read(ctx context.Context, r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.Schema("missing header row")
	}
	if err != nil {
		return nil, classifyReadError(err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	if err := validateHeader(columns); err != nil {
		return nil, err
	}

	records := make([]models.Record, 0, 1024)
	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.LoadWrap(err, "load cancelled")
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, classifyReadError(err)
		}

		line, _ := reader.FieldPos(0)
		rec, err := parseRow(columns, row, line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, errors.EmptyDataset("dataset has a header but no rows")
	}

	return New(columns, records), nil
}

func classifyReadError(err error) error {
	var parseErr *csv.ParseError
	if stderrors.As(err, &parseErr) {
		return errors.SchemaWrap(err, fmt.Sprintf("malformed CSV at line %d", parseErr.Line))
	}
	return errors.LoadWrap(err, "read input")
}

func validateHeader(columns []string) error {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			return errors.Schema(fmt.Sprintf("duplicate column %q", c))
		}
		seen[c] = true

		if !slices.Contains(models.RequiredColumns, c) && !slices.Contains(models.OptionalColumns, c) {
			return errors.Schema(fmt.Sprintf("unexpected column %q", c))
		}
	}

	var missing []string
	for _, c := range models.RequiredColumns {
		if !seen[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return errors.Schema(fmt.Sprintf("missing columns: %s", strings.Join(missing, ", ")))
	}
	return nil
}

// nullMarkers are the cell values pandas reads as missing by default.
var nullMarkers = []string{
	"#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

func parseRow(columns, row []string, line int) (models.Record, error) {
	var rec models.Record

	for i, column := range columns {
		value := strings.TrimSpace(row[i])
		if value == "" {
			return rec, errors.Schema(fmt.Sprintf("line %d: empty value in column %q", line, column))
		}
		if slices.Contains(nullMarkers, value) {
			return rec, errors.Schema(fmt.Sprintf("line %d: missing value %q in column %q", line, value, column))
		}

		if err := assign(&rec, column, value); err != nil {
			return rec, errors.SchemaWrap(err, fmt.Sprintf("line %d: invalid value %q in column %q", line, value, column))
		}
	}

	return rec, nil
}

func assign(rec *models.Record, column, value string) error {
	var err error

	switch column {
	case models.ColCustomerID:
		rec.CustomerID, err = strconv.Atoi(value)
	case models.ColAge:
		rec.Age, err = strconv.Atoi(value)
	case models.ColPreviousPurchases:
		rec.PreviousPurchases, err = strconv.Atoi(value)
	case models.ColAmount:
		rec.Amount, err = parseFinite(value)
		if err == nil && rec.Amount < 0 {
			err = fmt.Errorf("purchase amount must not be negative")
		}
	case models.ColReviewRating:
		rec.ReviewRating, err = parseFinite(value)
	case models.ColSeason:
		if models.SeasonRank(value) < 0 {
			err = fmt.Errorf("season must be one of %s", strings.Join(models.SeasonOrder, ", "))
		}
		rec.Season = value
	case models.ColGender:
		rec.Gender = value
	case models.ColItem:
		rec.Item = value
	case models.ColCategory:
		rec.Category = value
	case models.ColLocation:
		rec.Location = value
	case models.ColSize:
		rec.Size = value
	case models.ColColor:
		rec.Color = value
	case models.ColSubscription:
		rec.Subscription = value
	case models.ColShippingType:
		rec.ShippingType = value
	case models.ColDiscountApplied:
		rec.DiscountApplied = value
	case models.ColPromoCodeUsed:
		rec.PromoCodeUsed = value
	case models.ColPaymentMethod:
		rec.PaymentMethod = value
	case models.ColFrequency:
		rec.Frequency = value
	}

	return err
}

// parseFinite is strconv.ParseFloat without NaN and the infinities.
func parseFinite(value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", value)
	}
	return v, nil
}
