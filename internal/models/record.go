package models

import "strconv"

// Column names as they appear in the source header.
const (
	ColCustomerID        = "Customer ID"
	ColAge               = "Age"
	ColGender            = "Gender"
	ColItem              = "Item Purchased"
	ColCategory          = "Category"
	ColAmount            = "Purchase Amount (USD)"
	ColLocation          = "Location"
	ColSize              = "Size"
	ColColor             = "Color"
	ColSeason            = "Season"
	ColReviewRating      = "Review Rating"
	ColSubscription      = "Subscription Status"
	ColShippingType      = "Shipping Type"
	ColDiscountApplied   = "Discount Applied"
	ColPromoCodeUsed     = "Promo Code Used"
	ColPreviousPurchases = "Previous Purchases"
	ColPaymentMethod     = "Payment Method"
	ColFrequency         = "Frequency of Purchases"

	// ColAgeRange is derived at load time and never read from the file.
	ColAgeRange = "Age Range"
)

// RequiredColumns must all be present in the header.
var RequiredColumns = []string{
	ColAge,
	ColGender,
	ColItem,
	ColCategory,
	ColAmount,
	ColLocation,
	ColSize,
	ColColor,
	ColSeason,
	ColReviewRating,
	ColSubscription,
	ColShippingType,
	ColDiscountApplied,
	ColPaymentMethod,
	ColFrequency,
}

// OptionalColumns may be present; anything else is a schema violation.
var OptionalColumns = []string{
	ColCustomerID,
	ColPromoCodeUsed,
	ColPreviousPurchases,
}

// SeasonOrder is the ordinal order used wherever Season is a group key.
var SeasonOrder = []string{"Spring", "Summer", "Fall", "Winter"}

// AgeRangeLabels in bin order. Bins are right-closed: (10,20], (20,30], ...
var AgeRangeLabels = []string{"10-20", "21-30", "31-40", "41-50", "51-60", "61-70"}

var ageRangeEdges = []int{10, 20, 30, 40, 50, 60, 70}

// AgeRangeFor returns the bucket label for age and false when the age
// falls outside (10,70].
func AgeRangeFor(age int) (string, bool) {
	for i := 1; i < len(ageRangeEdges); i++ {
		if age > ageRangeEdges[i-1] && age <= ageRangeEdges[i] {
			return AgeRangeLabels[i-1], true
		}
	}
	return "", false
}

// SeasonRank returns the ordinal position of season, or -1.
func SeasonRank(season string) int {
	for i, s := range SeasonOrder {
		if s == season {
			return i
		}
	}
	return -1
}

// Record is one customer transaction.
type Record struct {
	CustomerID        int
	Age               int
	Gender            string
	Item              string
	Category          string
	Amount            float64
	Location          string
	Size              string
	Color             string
	Season            string
	ReviewRating      float64
	Subscription      string
	ShippingType      string
	DiscountApplied   string
	PromoCodeUsed     string
	PreviousPurchases int
	PaymentMethod     string
	Frequency         string

	// AgeRange is empty when the age has no bucket.
	AgeRange string
}

// Dimension returns the categorical value of column. Age is returned in
// decimal form so it can be used as a group key.
func (r *Record) Dimension(column string) string {
	switch column {
	case ColGender:
		return r.Gender
	case ColItem:
		return r.Item
	case ColCategory:
		return r.Category
	case ColLocation:
		return r.Location
	case ColSize:
		return r.Size
	case ColColor:
		return r.Color
	case ColSeason:
		return r.Season
	case ColSubscription:
		return r.Subscription
	case ColShippingType:
		return r.ShippingType
	case ColDiscountApplied:
		return r.DiscountApplied
	case ColPromoCodeUsed:
		return r.PromoCodeUsed
	case ColPaymentMethod:
		return r.PaymentMethod
	case ColFrequency:
		return r.Frequency
	case ColAgeRange:
		return r.AgeRange
	case ColAge:
		return strconv.Itoa(r.Age)
	}
	return ""
}

// Measure returns the numeric value of column, or 0 for non-numeric columns.
func (r *Record) Measure(column string) float64 {
	switch column {
	case ColAmount:
		return r.Amount
	case ColReviewRating:
		return r.ReviewRating
	case ColAge:
		return float64(r.Age)
	case ColCustomerID:
		return float64(r.CustomerID)
	case ColPreviousPurchases:
		return float64(r.PreviousPurchases)
	}
	return 0
}

// IsNumeric reports whether column holds numbers.
func IsNumeric(column string) bool {
	switch column {
	case ColAmount, ColReviewRating, ColAge, ColCustomerID, ColPreviousPurchases:
		return true
	}
	return false
}
