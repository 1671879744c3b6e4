// Package population serves the county population dashboard: headline metrics, a data table, a
// choropleth map and a bar chart over the 2019 Kenya census distribution.
package population

import (
	"slices"
	"strings"

	"github.com/paulmach/orb/geojson"
	"hermannm.dev/portfolio/aggregate"
	"hermannm.dev/portfolio/apperror"
	"hermannm.dev/portfolio/dataset"
	"hermannm.dev/portfolio/filter"
	"hermannm.dev/portfolio/geo"
	"hermannm.dev/portfolio/loader"
	"hermannm.dev/wrap"
)

const (
	ColumnCounty     = "County"
	ColumnMale       = "Male"
	ColumnFemale     = "Female"
	ColumnIntersex   = "Intersex"
	ColumnTotal      = "Total"
	ColumnPercentage = "Percentage"
	ColumnPerimeter  = "PERIMETER"
	ColumnArea       = "AREA"
)

var Schema = dataset.MustSchema(
	"population",
	dataset.Column{Name: ColumnCounty, DataType: dataset.DataTypeText},
	dataset.Column{Name: ColumnMale, DataType: dataset.DataTypeInt},
	dataset.Column{Name: ColumnFemale, DataType: dataset.DataTypeInt},
	dataset.Column{Name: ColumnIntersex, DataType: dataset.DataTypeInt},
	dataset.Column{Name: ColumnTotal, DataType: dataset.DataTypeInt},
	dataset.Column{Name: ColumnPercentage, DataType: dataset.DataTypeFloat},
	dataset.Column{Name: ColumnPerimeter, DataType: dataset.DataTypeFloat},
	dataset.Column{Name: ColumnArea, DataType: dataset.DataTypeFloat},
)

// Fields are the columns that can be shown on the map and bar chart.
var Fields = []string{
	ColumnMale,
	ColumnFemale,
	ColumnIntersex,
	ColumnTotal,
	ColumnPercentage,
	ColumnPerimeter,
	ColumnArea,
}

// WholeCountryLabel labels the view when no counties are selected.
const WholeCountryLabel = "Kenya Total"

func Source(path string) loader.Source {
	return loader.Source{Name: Schema.Name, Path: path, Schema: Schema}
}

// Metric names.
const (
	MetricTotalPopulation = "totalPopulation"
	MetricTotalMale       = "totalMale"
	MetricTotalFemale     = "totalFemale"
	MetricTotalIntersex   = "totalIntersex"
	MetricTotalPerimeter  = "totalPerimeter"
	MetricTotalArea       = "totalArea"
	MetricDensity         = "meanPopulationDensity"
	MetricMaleToFemale    = "maleToFemaleRatio"
	MetricFemaleToMale    = "femaleToMaleRatio"
	MetricMeanArea        = "meanArea"
	MetricMedianArea      = "medianArea"
)

var metricSpec = aggregate.Spec{
	Scalars: []aggregate.ScalarMetric{
		{Name: MetricTotalPopulation, Reduction: aggregate.Sum(ColumnTotal)},
		{Name: MetricTotalMale, Reduction: aggregate.Sum(ColumnMale)},
		{Name: MetricTotalFemale, Reduction: aggregate.Sum(ColumnFemale)},
		{Name: MetricTotalIntersex, Reduction: aggregate.Sum(ColumnIntersex)},
		{Name: MetricTotalPerimeter, Reduction: aggregate.Sum(ColumnPerimeter)},
		{Name: MetricTotalArea, Reduction: aggregate.Sum(ColumnArea)},
		{Name: MetricMeanArea, Reduction: aggregate.Average(ColumnArea)},
		{Name: MetricMedianArea, Reduction: aggregate.Median(ColumnArea)},
	},
	Ratios: []aggregate.RatioMetric{
		{Name: MetricDensity, Numerator: aggregate.Sum(ColumnTotal), Denominator: aggregate.Sum(ColumnArea)},
		{Name: MetricMaleToFemale, Numerator: aggregate.Sum(ColumnMale), Denominator: aggregate.Sum(ColumnFemale)},
		{Name: MetricFemaleToMale, Numerator: aggregate.Sum(ColumnFemale), Denominator: aggregate.Sum(ColumnMale)},
	},
}

// Dashboard renders views of the population table. It holds no per-request state, and is safe for
// concurrent use.
type Dashboard struct {
	table       dataset.Table
	features    *geojson.FeatureCollection
	options     Options
	choropleths map[string]geo.Choropleth
}

type Options struct {
	Counties     []string `json:"counties"`
	MinTotal     float64  `json:"minTotal"`
	MaxTotal     float64  `json:"maxTotal"`
	Fields       []string `json:"fields"`
	DefaultField string   `json:"defaultField"`
}

// New prepares a dashboard over the given table and county geometry. The choropleth for every
// field is computed up front, since it does not depend on the selection.
func New(table dataset.Table, features *geojson.FeatureCollection) (*Dashboard, error) {
	for _, column := range Schema.Columns {
		if existing, err := table.Schema().Column(column.Name); err != nil || existing.DataType != column.DataType {
			return nil, apperror.DataUnavailable(
				err,
				"population dataset does not have expected column '"+column.Name+"'",
			)
		}
	}

	dashboard := Dashboard{
		table:       table,
		features:    features,
		choropleths: make(map[string]geo.Choropleth, len(Fields)),
	}

	counties, err := table.Column(ColumnCounty)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(counties))
	for _, county := range counties {
		name := county.String()
		if _, ok := seen[name]; !ok && name != "" {
			seen[name] = struct{}{}
			dashboard.options.Counties = append(dashboard.options.Counties, name)
		}
	}

	totals, err := aggregate.Compute(table, aggregate.Spec{
		Scalars: []aggregate.ScalarMetric{
			{Name: "min", Reduction: aggregate.Min(ColumnTotal)},
			{Name: "max", Reduction: aggregate.Max(ColumnTotal)},
		},
	})
	if err != nil {
		return nil, wrap.Error(err, "failed to compute population range")
	}
	dashboard.options.MinTotal = totals.Scalars["min"].Value
	dashboard.options.MaxTotal = totals.Scalars["max"].Value
	dashboard.options.Fields = Fields
	dashboard.options.DefaultField = Fields[0]

	for _, field := range Fields {
		choropleth, err := geo.NewChoropleth(features, table, ColumnCounty, field)
		if err != nil {
			return nil, apperror.DataUnavailable(err, "county geometry does not match population dataset")
		}
		dashboard.choropleths[field] = choropleth
	}

	return &dashboard, nil
}

func (dashboard *Dashboard) Options() Options {
	return dashboard.options
}

func (dashboard *Dashboard) Features() *geojson.FeatureCollection {
	return dashboard.features
}

// Selection holds the dashboard widget state. No counties means the whole country. MinTotal and
// MaxTotal bound the bar chart, and default to the full range. Field defaults to the first field.
type Selection struct {
	Counties []string `json:"counties"`
	MinTotal *float64 `json:"minTotal"`
	MaxTotal *float64 `json:"maxTotal"`
	Field    string   `json:"field"`
}

type View struct {
	Label   string                      `json:"label"`
	Metrics map[string]aggregate.Result `json:"metrics"`
	Rows    []map[string]dataset.Value  `json:"rows"`
	Map     geo.Choropleth              `json:"map"`
	Bars    BarChart                    `json:"bars"`
}

type BarChart struct {
	Field    string  `json:"field"`
	MinTotal float64 `json:"minTotal"`
	MaxTotal float64 `json:"maxTotal"`
	Bars     []Bar   `json:"bars"`
}

type Bar struct {
	County     string                   `json:"county"`
	Value      dataset.Value            `json:"value"`
	Percentage dataset.Value            `json:"percentage"`
	Hover      map[string]dataset.Value `json:"hover"`
}

// Render computes the view for the given selection. Unknown counties or fields, and an inverted
// total range, are VALIDATION_FAILURE errors.
func (dashboard *Dashboard) Render(selection Selection) (View, error) {
	field := selection.Field
	if field == "" {
		field = dashboard.options.DefaultField
	}
	if !slices.Contains(Fields, field) {
		return View{}, apperror.Validation("unrecognized field '" + field + "'")
	}
	for _, county := range selection.Counties {
		if !slices.Contains(dashboard.options.Counties, county) {
			return View{}, apperror.Validation("unrecognized county '" + county + "'")
		}
	}

	selected := dashboard.table
	label := WholeCountryLabel
	if len(selection.Counties) > 0 {
		var err error
		selected, err = filter.Apply(
			dashboard.table,
			filter.Filters{filter.Include(ColumnCounty, selection.Counties...)},
		)
		if err != nil {
			return View{}, err
		}
		label = countyLabel(selected)
	}

	metrics, err := aggregate.Compute(selected, metricSpec)
	if err != nil {
		return View{}, wrap.Error(err, "failed to compute population metrics")
	}

	rows, err := selected.Records(Schema.ColumnNames()...)
	if err != nil {
		return View{}, err
	}

	bars, err := dashboard.barChart(field, selection.MinTotal, selection.MaxTotal)
	if err != nil {
		return View{}, err
	}

	return View{
		Label:   label,
		Metrics: metrics.Scalars,
		Rows:    rows,
		Map:     dashboard.choropleths[field],
		Bars:    bars,
	}, nil
}

func countyLabel(table dataset.Table) string {
	values, _ := table.Column(ColumnCounty)

	var names []string
	for _, value := range values {
		if name := value.String(); !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

func (dashboard *Dashboard) barChart(field string, min *float64, max *float64) (BarChart, error) {
	chart := BarChart{Field: field, MinTotal: dashboard.options.MinTotal, MaxTotal: dashboard.options.MaxTotal}
	if min != nil {
		chart.MinTotal = *min
	}
	if max != nil {
		chart.MaxTotal = *max
	}

	inRange, err := filter.Apply(
		dashboard.table,
		filter.Filters{filter.Range(ColumnTotal, &chart.MinTotal, &chart.MaxTotal)},
	)
	if err != nil {
		return BarChart{}, err
	}

	records, err := inRange.Records()
	if err != nil {
		return BarChart{}, err
	}

	chart.Bars = make([]Bar, len(records))
	for i, record := range records {
		chart.Bars[i] = Bar{
			County:     record[ColumnCounty].String(),
			Value:      record[field],
			Percentage: record[ColumnPercentage],
			Hover: map[string]dataset.Value{
				ColumnTotal:     record[ColumnTotal],
				ColumnPerimeter: record[ColumnPerimeter],
				ColumnArea:      record[ColumnArea],
			},
		}
	}
	return chart, nil
}
