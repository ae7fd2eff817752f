package analysis

import "shopping-trends/internal/models"

type ChartKind string

const (
	ChartBar     ChartKind = "bar"
	ChartBarH    ChartKind = "barh"
	ChartStacked ChartKind = "stacked_bar"
	ChartGrouped ChartKind = "grouped_bar"
	ChartPie     ChartKind = "pie"
	ChartScatter ChartKind = "scatter"
	ChartBarLine ChartKind = "bar_line"
	ChartHeatmap ChartKind = "heatmap"
)

// TopItemsN is the size of the shared most-purchased item list.
const TopItemsN = 10

// Spec declares one aggregation and the chart that shows it.
type Spec struct {
	ID      string    `json:"id"`
	Section string    `json:"section"`
	Title   string    `json:"title"`
	Chart   ChartKind `json:"chart"`

	// Keys holds one or two group-by columns. Unused by correlation.
	Keys   []string  `json:"keys,omitempty"`
	Value  string    `json:"value,omitempty"`
	Reduce Reduction `json:"reduce"`
	// ModeOf is the column whose most common value is found per item.
	ModeOf string `json:"mode_of,omitempty"`

	// Decimals rounds results when positive.
	Decimals int `json:"decimals,omitempty"`
	// RestrictToTopItems selects the shared top-items list, in its order.
	RestrictToTopItems bool `json:"restrict_to_top_items,omitempty"`
	TopN               int  `json:"top_n,omitempty"`
	Ascending          bool `json:"ascending,omitempty"`

	XLabel string `json:"x_label,omitempty"`
	YLabel string `json:"y_label,omitempty"`
}

// Catalog returns the report's aggregations in execution order.
func Catalog() []Spec {
	return []Spec{
		// Demographics
		{
			ID: "gender-distribution", Section: "Demographics", Title: "Gender Distribution",
			Chart: ChartPie, Keys: []string{models.ColGender}, Reduce: ReduceCount,
		},
		{
			ID: "age-gender", Section: "Demographics", Title: "Age Distribution by Gender",
			Chart: ChartScatter, Keys: []string{models.ColAge, models.ColGender}, Reduce: ReduceCount,
			XLabel: "Age", YLabel: "Number of Persons",
		},
		{
			ID: "top-locations", Section: "Demographics", Title: "Top 10 Locations",
			Chart: ChartBarH, Keys: []string{models.ColLocation}, Reduce: ReduceCount, TopN: 10,
		},

		// Purchase behavior
		{
			ID: "purchase-by-gender", Section: "Purchase Behavior", Title: "Purchase Amount by Gender",
			Chart: ChartBar, Keys: []string{models.ColGender}, Value: models.ColAmount, Reduce: ReduceSum,
		},
		{
			ID: "purchase-by-age-range", Section: "Purchase Behavior", Title: "Purchase Amount by Age Range",
			Chart: ChartBar, Keys: []string{models.ColAgeRange}, Value: models.ColAmount, Reduce: ReduceSum,
		},
		{
			ID: "top-products-sales", Section: "Purchase Behavior", Title: "Top 10 Products by Sales",
			Chart: ChartBar, Keys: []string{models.ColItem}, Value: models.ColAmount, Reduce: ReduceSum, TopN: 10,
		},
		{
			ID: "top-products-quantity", Section: "Purchase Behavior", Title: "Top 10 Products by Quantities",
			Chart: ChartBar, Keys: []string{models.ColItem}, Value: models.ColAmount, Reduce: ReduceSum,
			RestrictToTopItems: true,
		},

		// Product analysis
		{
			ID: "sales-by-category", Section: "Product Analysis", Title: "Sales by Category",
			Chart: ChartPie, Keys: []string{models.ColCategory}, Reduce: ReduceCount,
		},
		{
			ID: "sales-by-size", Section: "Product Analysis", Title: "Sales by Size",
			Chart: ChartPie, Keys: []string{models.ColSize}, Reduce: ReduceCount,
		},
		{
			ID: "sales-by-color", Section: "Product Analysis", Title: "Sales by Color",
			Chart: ChartBarH, Keys: []string{models.ColColor}, Reduce: ReduceCount, TopN: 10, Ascending: true,
		},
		{
			ID: "category-gender", Section: "Product Analysis", Title: "Sales by Gender across Categories",
			Chart: ChartStacked, Keys: []string{models.ColCategory, models.ColGender}, Reduce: ReduceCount,
		},

		// Geography
		{
			ID: "top-locations-sales", Section: "Geographical Sales", Title: "Top 10 Locations by Sales Figures",
			Chart: ChartBarH, Keys: []string{models.ColLocation}, Value: models.ColAmount, Reduce: ReduceSum, TopN: 10,
		},

		// Shipping and payment
		{
			ID: "shipping-methods", Section: "Shipping & Payment", Title: "Shipping Methods",
			Chart: ChartPie, Keys: []string{models.ColShippingType}, Reduce: ReduceCount,
		},
		{
			ID: "payment-methods", Section: "Shipping & Payment", Title: "Payment Methods",
			Chart: ChartPie, Keys: []string{models.ColPaymentMethod}, Reduce: ReduceCount,
		},

		// Subscription
		{
			ID: "subscription-frequency", Section: "Subscription", Title: "Impact of Subscription on Purchase Frequency",
			Chart: ChartGrouped, Keys: []string{models.ColFrequency, models.ColSubscription}, Reduce: ReduceCount,
		},

		// Seasonal
		{
			ID: "quarterly-trends", Section: "Seasonal Sales", Title: "Quarterly Trends",
			Chart: ChartBarLine, Keys: []string{models.ColSeason}, Value: models.ColAmount, Reduce: ReduceSum,
		},

		// Top products
		{
			ID: "top-products-color", Section: "Top 10 Products", Title: "Top 10 Products by Color Preference & Sales",
			Chart: ChartBar, Keys: []string{models.ColItem}, Reduce: ReduceMode, ModeOf: models.ColColor,
			RestrictToTopItems: true,
		},
		{
			ID: "top-products-category", Section: "Top 10 Products", Title: "Top 10 Products by Category & Sales",
			Chart: ChartBar, Keys: []string{models.ColItem}, Reduce: ReduceMode, ModeOf: models.ColCategory,
			RestrictToTopItems: true,
		},
		{
			ID: "top-products-frequency", Section: "Top 10 Products", Title: "Top 10 Products by Purchase Frequency",
			Chart: ChartBar, Keys: []string{models.ColItem}, Reduce: ReduceMode, ModeOf: models.ColFrequency,
			RestrictToTopItems: true,
		},
		{
			ID: "top-products-season", Section: "Top 10 Products", Title: "Top 10 Products - Seasonal Sales Trends",
			Chart: ChartStacked, Keys: []string{models.ColItem, models.ColSeason}, Reduce: ReduceCount,
			RestrictToTopItems: true,
		},

		// Reviews
		{
			ID: "top-reviewed", Section: "Product Reviews", Title: "Top 10 Reviewed Products",
			Chart: ChartBar, Keys: []string{models.ColItem}, Value: models.ColReviewRating, Reduce: ReduceMean,
			Decimals: 1, TopN: 10,
		},
		{
			ID: "top-items-reviews", Section: "Product Reviews", Title: "Most Purchased Products Reviews",
			Chart: ChartBar, Keys: []string{models.ColItem}, Value: models.ColReviewRating, Reduce: ReduceMean,
			Decimals: 1, RestrictToTopItems: true,
		},
		{
			ID: "age-gender-review", Section: "Product Reviews", Title: "Impact of Age and Gender on Review Scores",
			Chart: ChartGrouped, Keys: []string{models.ColAgeRange, models.ColGender}, Value: models.ColReviewRating,
			Reduce: ReduceMean, Decimals: 1,
		},

		// Discounts
		{
			ID: "discount-gender", Section: "Discounts", Title: "Discounts Impact on Purchase",
			Chart: ChartStacked, Keys: []string{models.ColGender, models.ColDiscountApplied}, Value: models.ColAmount,
			Reduce: ReduceSum,
		},

		// Correlation
		{
			ID: "correlation", Section: "Correlation", Title: "Pearson Correlation Heatmap",
			Chart: ChartHeatmap, Reduce: ReduceCorrelation,
		},
	}
}
