package sales

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"hermannm.dev/portfolio/aggregate"
	"hermannm.dev/portfolio/apperror"
	"hermannm.dev/portfolio/csv"
	"hermannm.dev/portfolio/dataset"
	"hermannm.dev/portfolio/filter"
)

const testCSV = `Transaction ID,Date,Customer ID,Gender,Age,Product Category,Quantity,Price per Unit,Total Amount
1,2023-11-24,CUST001,Male,20,Beauty,3,50,150
2,2023-02-27,CUST002,Female,40,Clothing,2,500,1000
3,2023-01-13,CUST003,Male,40,Electronics,1,30,30
4,2023-02-21,CUST002,Female,40,Beauty,1,500,500
`

func newDashboard(t *testing.T) *Dashboard {
	t.Helper()

	table, err := csv.NewReader([]byte(testCSV)).ReadTable(Schema)
	if err != nil {
		t.Fatal(err)
	}
	prepared, err := Prepare(table)
	if err != nil {
		t.Fatal(err)
	}
	dashboard, err := New(prepared)
	if err != nil {
		t.Fatal(err)
	}
	return dashboard
}

func TestOptions(t *testing.T) {
	want := Options{
		Categories: []string{"Beauty", "Clothing", "Electronics"},
		Genders:    []string{"Male", "Female"},
		AgeGroups:  []string{"19-22", "22-26", "26-29", "29-33", "33-36", "36-40"},
	}
	if diff := cmp.Diff(want, newDashboard(t).Options()); diff != "" {
		t.Errorf("unexpected options (-want +got):\n%s", diff)
	}
}

func TestAgeGroupAssignment(t *testing.T) {
	dashboard := newDashboard(t)

	groups, err := dashboard.table.Column(ColumnAgeGroup)
	if err != nil {
		t.Fatal(err)
	}
	if groups[0].String() != "19-22" {
		t.Errorf("expected age 20 in group '19-22', got '%s'", groups[0].String())
	}
	if groups[1].String() != "36-40" {
		t.Errorf("expected age 40 in group '36-40', got '%s'", groups[1].String())
	}
}

func TestRenderMetrics(t *testing.T) {
	view, err := newDashboard(t).Render(Selection{})
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]aggregate.Result{
		MetricTotalSales:             aggregate.Defined(1680),
		MetricTotalQuantity:          aggregate.Defined(7),
		MetricAverageSales:           aggregate.Defined(420),
		MetricTransactions:           aggregate.Defined(4),
		MetricUniqueCustomers:        aggregate.Defined(3),
		MetricAverageOrderValue:      aggregate.Defined(560),
		MetricAverageRevenuePerUnit:  aggregate.Defined(270),
		MetricAverageCumulativeSales: aggregate.Defined(420),
		MetricAverageMonthlySales:    aggregate.Defined(140),
	}
	if diff := cmp.Diff(want, view.Metrics); diff != "" {
		t.Errorf("unexpected metrics (-want +got):\n%s", diff)
	}
}

func TestRenderTimeCharts(t *testing.T) {
	view, err := newDashboard(t).Render(Selection{})
	if err != nil {
		t.Fatal(err)
	}

	wantByMonth := []aggregate.Group{
		{Key: []string{"2023-01"}, Value: aggregate.Defined(30)},
		{Key: []string{"2023-02"}, Value: aggregate.Defined(1500)},
		{Key: []string{"2023-11"}, Value: aggregate.Defined(150)},
	}
	if diff := cmp.Diff(wantByMonth, view.Charts[ChartSalesByMonth]); diff != "" {
		t.Errorf("unexpected sales by month (-want +got):\n%s", diff)
	}

	wantCumulative := []aggregate.Group{
		{Key: []string{"2023-01"}, Value: aggregate.Defined(30)},
		{Key: []string{"2023-02"}, Value: aggregate.Defined(1530)},
		{Key: []string{"2023-11"}, Value: aggregate.Defined(1680)},
	}
	if diff := cmp.Diff(wantCumulative, view.Charts[ChartCumulativeSalesByMonth]); diff != "" {
		t.Errorf("unexpected cumulative sales (-want +got):\n%s", diff)
	}

	// 2023-11-24 is a Friday, 2023-02-27 a Monday, 2023-01-13 a Friday and 2023-02-21 a Tuesday
	wantByWeekday := []aggregate.Group{
		{Key: []string{"Monday"}, Value: aggregate.Defined(1000)},
		{Key: []string{"Tuesday"}, Value: aggregate.Defined(500)},
		{Key: []string{"Friday"}, Value: aggregate.Defined(180)},
	}
	if diff := cmp.Diff(wantByWeekday, view.Charts[ChartSalesByDayOfWeek]); diff != "" {
		t.Errorf("unexpected sales by weekday (-want +got):\n%s", diff)
	}
}

func TestRenderAgeDistributionCountsFilteredRows(t *testing.T) {
	view, err := newDashboard(t).Render(Selection{Genders: []string{"Female"}})
	if err != nil {
		t.Fatal(err)
	}

	if len(view.AgeDistribution) != AgeDistributionBins {
		t.Fatalf("expected %d bins, got %d", AgeDistributionBins, len(view.AgeDistribution))
	}

	total := 0
	for _, bin := range view.AgeDistribution {
		total += bin.Count
	}
	if total != 2 {
		t.Errorf("expected 2 ages counted, got %d", total)
	}
}

func TestRenderFiltersBySelection(t *testing.T) {
	view, err := newDashboard(t).Render(Selection{
		Categories: []string{"Beauty", "Clothing"},
		AgeGroups:  []string{"36-40"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := view.Metrics[MetricTotalSales]; got != aggregate.Defined(1500) {
		t.Errorf("expected total sales 1500, got %v", got)
	}
	if got := view.Metrics[MetricUniqueCustomers]; got != aggregate.Defined(1) {
		t.Errorf("expected 1 unique customer, got %v", got)
	}
}

func TestFullGenderSelectionKeepsTable(t *testing.T) {
	dashboard := newDashboard(t)

	filters, err := dashboard.Filters(Selection{Genders: dashboard.Options().Genders})
	if err != nil {
		t.Fatal(err)
	}
	filtered, err := filter.Apply(dashboard.table, filters)
	if err != nil {
		t.Fatal(err)
	}

	if !filtered.Equal(dashboard.table) {
		t.Error("expected selecting every gender to keep the full table")
	}
}

func TestDistinctValuesListMissingValues(t *testing.T) {
	schema := dataset.MustSchema(
		"customers",
		dataset.Column{Name: ColumnGender, DataType: dataset.DataTypeText, Optional: true},
	)
	missing, err := dataset.Missing(dataset.DataTypeText)
	if err != nil {
		t.Fatal(err)
	}
	table, err := dataset.NewTable(schema, []dataset.Row{
		{dataset.Text("Male")},
		{missing},
		{dataset.Text("Female")},
	})
	if err != nil {
		t.Fatal(err)
	}

	options, err := distinctValues(table, ColumnGender)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Male", "", "Female"}, options); diff != "" {
		t.Errorf("unexpected options (-want +got):\n%s", diff)
	}

	filtered, err := filter.Apply(table, filter.Filters{filter.Include(ColumnGender, options...)})
	if err != nil {
		t.Fatal(err)
	}
	if !filtered.Equal(table) {
		t.Error("expected selecting every option to keep rows with missing values")
	}
}

func TestRenderEmptyResult(t *testing.T) {
	view, err := newDashboard(t).Render(Selection{
		Genders:    []string{"Male"},
		Categories: []string{"Clothing"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := view.Metrics[MetricTotalSales]; got != aggregate.Defined(0) {
		t.Errorf("expected total sales 0, got %v", got)
	}
	for _, metric := range []string{MetricAverageOrderValue, MetricAverageCumulativeSales, MetricAverageSales} {
		if view.Metrics[metric].Defined {
			t.Errorf("expected metric '%s' to be undefined, got %v", metric, view.Metrics[metric])
		}
	}
}

func TestRenderRejectsUnknownValues(t *testing.T) {
	_, err := newDashboard(t).Render(Selection{Categories: []string{"Groceries"}})
	if !apperror.Is(err, apperror.KindValidationFailure) {
		t.Fatalf("expected VALIDATION_FAILURE error, got %v", err)
	}
}
