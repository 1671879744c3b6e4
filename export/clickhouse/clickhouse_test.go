package clickhouse

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"hermannm.dev/portfolio/dataset"
)

func TestCreateTableQuery(t *testing.T) {
	schema := dataset.MustSchema(
		"sales",
		dataset.Column{Name: "Product Category", DataType: dataset.DataTypeText},
		dataset.Column{Name: "Quantity", DataType: dataset.DataTypeInt},
		dataset.Column{Name: "Revenue Per Unit", DataType: dataset.DataTypeFloat, Optional: true},
		dataset.Column{Name: "Date", DataType: dataset.DataTypeDate},
	)

	query, err := createTableQuery("sales", schema)
	if err != nil {
		t.Fatal(err)
	}

	want := "CREATE TABLE `sales` (`id` UUID, `Product Category` String, `Quantity` Int64, " +
		"`Revenue Per Unit` Float64 NULL, `Date` Date32) ENGINE = MergeTree() PRIMARY KEY (id)"
	if query != want {
		t.Errorf("unexpected query\nwant: %s\n got: %s", want, query)
	}
}

func TestCreateTableQueryRejectsInvalidIdentifiers(t *testing.T) {
	testCases := []struct {
		name   string
		table  string
		column string
	}{
		{name: "backtick in table", table: "sa`les", column: "Quantity"},
		{name: "backtick in column", table: "sales", column: "Quan`tity"},
		{name: "reserved id column", table: "sales", column: "id"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			schema := dataset.Schema{
				Name:    "sales",
				Columns: []dataset.Column{{Name: testCase.column, DataType: dataset.DataTypeInt}},
			}

			if _, err := createTableQuery(testCase.table, schema); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestInsertValues(t *testing.T) {
	missing, err := dataset.Missing(dataset.DataTypeFloat)
	if err != nil {
		t.Fatal(err)
	}
	date := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

	values := insertValues(dataset.Row{dataset.Text("Beauty"), dataset.Int(3), missing, dataset.Date(date)})

	if len(values) != 5 {
		t.Fatalf("expected id plus 4 values, got %d", len(values))
	}
	if _, ok := values[0].(uuid.UUID); !ok {
		t.Errorf("expected generated UUID as first value, got %T", values[0])
	}
	if values[1] != "Beauty" || values[2] != int64(3) || values[3] != nil || values[4] != date {
		t.Errorf("unexpected insert values %v", values[1:])
	}
}
