package export

import (
	"context"
	"errors"
	"testing"

	"hermannm.dev/portfolio/dataset"
)

type fakeExporter struct {
	fail     bool
	exported []string
}

func (exporter *fakeExporter) Name() string {
	return "fake"
}

func (exporter *fakeExporter) Export(_ context.Context, table dataset.Table) error {
	if exporter.fail {
		return errors.New("store unavailable")
	}
	exporter.exported = append(exporter.exported, table.Schema().Name)
	return nil
}

func TestTableName(t *testing.T) {
	testCases := []struct {
		name string
		want string
	}{
		{name: "population", want: "population"},
		{name: "Kenya Population 2019", want: "kenya_population_2019"},
		{name: "sales-data`v2", want: "sales_data_v2"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := TableName(dataset.Schema{Name: testCase.name}); got != testCase.want {
				t.Errorf("want %q, got %q", testCase.want, got)
			}
		})
	}
}

func TestAllContinuesAfterFailure(t *testing.T) {
	population, err := dataset.NewTable(dataset.Schema{Name: "population"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	sales, err := dataset.NewTable(dataset.Schema{Name: "sales"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	failing := &fakeExporter{fail: true}
	working := &fakeExporter{}

	failed := All(context.Background(), []Exporter{failing, working}, population, sales)

	if failed != 2 {
		t.Errorf("expected 2 failed exports, got %d", failed)
	}
	if len(working.exported) != 2 || working.exported[0] != "population" || working.exported[1] != "sales" {
		t.Errorf("expected both tables exported after failures, got %v", working.exported)
	}
}
