// Package sales serves the retail sales dashboard: metrics, customer insights and time-based trends
// over a table of sales transactions, filterable by product category, gender and age group.
package sales

import (
	"slices"
	"time"

	"hermannm.dev/portfolio/aggregate"
	"hermannm.dev/portfolio/apperror"
	"hermannm.dev/portfolio/dataset"
	"hermannm.dev/portfolio/derive"
	"hermannm.dev/portfolio/filter"
	"hermannm.dev/portfolio/loader"
	"hermannm.dev/wrap"
)

const (
	ColumnTransactionID   = "Transaction ID"
	ColumnDate            = "Date"
	ColumnCustomerID      = "Customer ID"
	ColumnGender          = "Gender"
	ColumnAge             = "Age"
	ColumnProductCategory = "Product Category"
	ColumnQuantity        = "Quantity"
	ColumnPricePerUnit    = "Price per Unit"
	ColumnTotalAmount     = "Total Amount"

	// Derived by Prepare.
	ColumnMonth          = "Month"
	ColumnDayOfWeek      = "Day of Week"
	ColumnRevenuePerUnit = "Revenue Per Unit"
	ColumnAgeGroup       = "Age Group"
)

const (
	AgeGroupCount       = 6
	AgeDistributionBins = 10
	MonthsPerYear       = 12
)

var Schema = dataset.MustSchema(
	"sales",
	dataset.Column{Name: ColumnTransactionID, DataType: dataset.DataTypeInt},
	dataset.Column{Name: ColumnDate, DataType: dataset.DataTypeDate},
	dataset.Column{Name: ColumnCustomerID, DataType: dataset.DataTypeText},
	dataset.Column{Name: ColumnGender, DataType: dataset.DataTypeText},
	dataset.Column{Name: ColumnAge, DataType: dataset.DataTypeInt},
	dataset.Column{Name: ColumnProductCategory, DataType: dataset.DataTypeText},
	dataset.Column{Name: ColumnQuantity, DataType: dataset.DataTypeInt},
	dataset.Column{Name: ColumnPricePerUnit, DataType: dataset.DataTypeFloat},
	dataset.Column{Name: ColumnTotalAmount, DataType: dataset.DataTypeFloat},
)

func Source(path string) loader.Source {
	return loader.Source{Name: Schema.Name, Path: path, Schema: Schema}
}

// Prepare adds the derived columns the dashboard filters and groups on.
func Prepare(table dataset.Table) (dataset.Table, error) {
	prepared, err := derive.Augment(
		table,
		derive.DateParts{Source: ColumnDate, MonthColumn: ColumnMonth, WeekdayColumn: ColumnDayOfWeek},
		derive.Ratio{Numerator: ColumnTotalAmount, Denominator: ColumnQuantity, Target: ColumnRevenuePerUnit},
		derive.Bucket{Source: ColumnAge, Target: ColumnAgeGroup, Bins: AgeGroupCount},
	)
	if err != nil {
		return dataset.Table{}, wrap.Error(err, "failed to prepare sales dataset")
	}
	return prepared, nil
}

// Metric names.
const (
	MetricTotalSales             = "totalSales"
	MetricTotalQuantity          = "totalQuantity"
	MetricAverageSales           = "averageSales"
	MetricTransactions           = "transactions"
	MetricAverageOrderValue      = "averageOrderValue"
	MetricUniqueCustomers        = "uniqueCustomers"
	MetricAverageRevenuePerUnit  = "averageRevenuePerUnit"
	MetricAverageCumulativeSales = "averageCumulativeSales"
	MetricAverageMonthlySales    = "averageMonthlySales"
)

// Chart names.
const (
	ChartSalesByCategory          = "salesByCategory"
	ChartSalesByGender            = "salesByGender"
	ChartGenderDistribution       = "genderDistribution"
	ChartSalesByGenderAndAgeGroup = "salesByGenderAndAgeGroup"
	ChartSalesByGenderAndCategory = "salesByGenderAndCategory"
	ChartSalesByMonth             = "salesByMonth"
	ChartSalesByDayOfWeek         = "salesByDayOfWeek"
	ChartCumulativeSalesByMonth   = "cumulativeSalesByMonth"
)

var metricSpec = aggregate.Spec{
	Scalars: []aggregate.ScalarMetric{
		{Name: MetricTotalSales, Reduction: aggregate.Sum(ColumnTotalAmount)},
		{Name: MetricTotalQuantity, Reduction: aggregate.Sum(ColumnQuantity)},
		{Name: MetricAverageSales, Reduction: aggregate.Average(ColumnTotalAmount)},
		{Name: MetricTransactions, Reduction: aggregate.Count()},
		{Name: MetricUniqueCustomers, Reduction: aggregate.Cardinality(ColumnCustomerID)},
		{Name: MetricAverageRevenuePerUnit, Reduction: aggregate.Average(ColumnRevenuePerUnit)},
	},
	Ratios: []aggregate.RatioMetric{
		{
			Name:        MetricAverageOrderValue,
			Numerator:   aggregate.Sum(ColumnTotalAmount),
			Denominator: aggregate.Cardinality(ColumnCustomerID),
		},
		{
			Name:        MetricAverageCumulativeSales,
			Numerator:   aggregate.Sum(ColumnTotalAmount),
			Denominator: aggregate.Count(),
		},
		{
			Name:        MetricAverageMonthlySales,
			Numerator:   aggregate.Sum(ColumnTotalAmount),
			Denominator: aggregate.Constant(MonthsPerYear),
		},
	},
	Groups: []aggregate.GroupedMetric{
		{
			Name:      ChartSalesByCategory,
			GroupBy:   []string{ColumnProductCategory},
			Reduction: aggregate.Sum(ColumnTotalAmount),
		},
		{
			Name:      ChartSalesByGender,
			GroupBy:   []string{ColumnGender},
			Reduction: aggregate.Sum(ColumnTotalAmount),
		},
		{
			Name:      ChartGenderDistribution,
			GroupBy:   []string{ColumnGender},
			Reduction: aggregate.Count(),
		},
		{
			Name:      ChartSalesByGenderAndAgeGroup,
			GroupBy:   []string{ColumnGender, ColumnAgeGroup},
			Reduction: aggregate.Sum(ColumnTotalAmount),
		},
		{
			Name:      ChartSalesByGenderAndCategory,
			GroupBy:   []string{ColumnGender, ColumnProductCategory},
			Reduction: aggregate.Sum(ColumnTotalAmount),
			SortOrder: aggregate.SortOrderDescending,
		},
		{
			Name:      ChartSalesByMonth,
			GroupBy:   []string{ColumnMonth},
			Reduction: aggregate.Sum(ColumnTotalAmount),
			SortOrder: aggregate.SortOrderAscending,
			SortByKey: true,
		},
		{
			Name:      ChartSalesByDayOfWeek,
			GroupBy:   []string{ColumnDayOfWeek},
			Reduction: aggregate.Sum(ColumnTotalAmount),
		},
		{
			Name:       ChartCumulativeSalesByMonth,
			GroupBy:    []string{ColumnMonth},
			Reduction:  aggregate.Sum(ColumnTotalAmount),
			SortOrder:  aggregate.SortOrderAscending,
			SortByKey:  true,
			Cumulative: true,
		},
	},
}

// Dashboard renders views of the prepared sales table. It holds no per-request state, and is safe
// for concurrent use.
type Dashboard struct {
	table           dataset.Table
	options         Options
	ageDistribution derive.Buckets
}

type Options struct {
	Categories []string `json:"categories"`
	Genders    []string `json:"genders"`
	AgeGroups  []string `json:"ageGroups"`
}

// New takes a table returned by Prepare.
func New(prepared dataset.Table) (*Dashboard, error) {
	if err := metricSpec.Validate(prepared.Schema()); err != nil {
		return nil, apperror.DataUnavailable(err, "sales dataset does not have the expected columns")
	}

	dashboard := Dashboard{table: prepared}

	var err error
	if dashboard.options.Categories, err = distinctValues(prepared, ColumnProductCategory); err != nil {
		return nil, err
	}
	if dashboard.options.Genders, err = distinctValues(prepared, ColumnGender); err != nil {
		return nil, err
	}

	ages, err := prepared.Column(ColumnAge)
	if err != nil {
		return nil, err
	}
	ageGroups, err := derive.NewBuckets(ages, AgeGroupCount)
	if err != nil {
		return nil, apperror.DataUnavailable(err, "failed to compute age groups of sales dataset")
	}
	dashboard.options.AgeGroups = ageGroups.Labels()

	dashboard.ageDistribution, err = derive.NewBuckets(ages, AgeDistributionBins)
	if err != nil {
		return nil, apperror.DataUnavailable(err, "failed to compute age distribution of sales dataset")
	}

	return &dashboard, nil
}

func distinctValues(table dataset.Table, column string) ([]string, error) {
	values, err := table.Column(column)
	if err != nil {
		return nil, err
	}

	var distinct []string
	seen := make(map[string]struct{})
	// Missing values are listed as "", which an INCLUDE filter matches
	for _, value := range values {
		text := value.String()
		if _, ok := seen[text]; !ok {
			seen[text] = struct{}{}
			distinct = append(distinct, text)
		}
	}
	return distinct, nil
}

func (dashboard *Dashboard) Options() Options {
	return dashboard.options
}

// Selection holds the sidebar widget state. An empty list means the widget places no restriction.
type Selection struct {
	Categories []string `json:"categories"`
	Genders    []string `json:"genders"`
	AgeGroups  []string `json:"ageGroups"`
}

// Filters returns the predicates for the selection, validating every selected value against the
// dashboard's options.
func (dashboard *Dashboard) Filters(selection Selection) (filter.Filters, error) {
	var filters filter.Filters

	for _, widget := range []struct {
		column   string
		selected []string
		options  []string
	}{
		{ColumnProductCategory, selection.Categories, dashboard.options.Categories},
		{ColumnGender, selection.Genders, dashboard.options.Genders},
		{ColumnAgeGroup, selection.AgeGroups, dashboard.options.AgeGroups},
	} {
		if len(widget.selected) == 0 {
			continue
		}
		for _, value := range widget.selected {
			if !slices.Contains(widget.options, value) {
				return nil, apperror.Validation("unrecognized " + widget.column + " '" + value + "'")
			}
		}
		filters = append(filters, filter.Include(widget.column, widget.selected...))
	}

	return filters, nil
}

type View struct {
	Metrics         map[string]aggregate.Result  `json:"metrics"`
	Charts          map[string][]aggregate.Group `json:"charts"`
	AgeDistribution []derive.BinCount            `json:"ageDistribution"`
}

func (dashboard *Dashboard) Render(selection Selection) (View, error) {
	filters, err := dashboard.Filters(selection)
	if err != nil {
		return View{}, err
	}

	filtered, err := filter.Apply(dashboard.table, filters)
	if err != nil {
		return View{}, err
	}

	metrics, err := aggregate.Compute(filtered, metricSpec)
	if err != nil {
		return View{}, wrap.Error(err, "failed to compute sales metrics")
	}
	metrics.Groups[ChartSalesByDayOfWeek] = orderByWeekday(metrics.Groups[ChartSalesByDayOfWeek])

	ages, err := filtered.Column(ColumnAge)
	if err != nil {
		return View{}, err
	}

	return View{
		Metrics:         metrics.Scalars,
		Charts:          metrics.Groups,
		AgeDistribution: dashboard.ageDistribution.Histogram(ages),
	}, nil
}

var weekdays = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

// Orders groups keyed by weekday name from Monday to Sunday.
func orderByWeekday(groups []aggregate.Group) []aggregate.Group {
	position := func(group aggregate.Group) int {
		for i, weekday := range weekdays {
			if group.Key[0] == weekday.String() {
				return i
			}
		}
		return len(weekdays)
	}

	ordered := slices.Clone(groups)
	slices.SortStableFunc(ordered, func(a aggregate.Group, b aggregate.Group) int {
		return position(a) - position(b)
	})
	return ordered
}
