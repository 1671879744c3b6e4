package dataset

import (
	"testing"
	"time"
)

var testSchema = MustSchema(
	"test",
	Column{Name: "name", DataType: DataTypeText},
	Column{Name: "count", DataType: DataTypeInt},
	Column{Name: "share", DataType: DataTypeFloat, Optional: true},
	Column{Name: "day", DataType: DataTypeDate},
)

func TestNewSchemaRejectsInvalidColumns(t *testing.T) {
	for _, test := range []struct {
		name    string
		columns []Column
	}{
		{"blank name", []Column{{Name: " ", DataType: DataTypeText}}},
		{"invalid type", []Column{{Name: "a"}}},
		{"duplicate", []Column{{Name: "a", DataType: DataTypeText}, {Name: "a", DataType: DataTypeInt}}},
	} {
		t.Run(test.name, func(t *testing.T) {
			if _, err := NewSchema("invalid", test.columns...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseRowUsesHeaderPositions(t *testing.T) {
	positions, err := testSchema.HeaderPositions([]string{"day", "extra", "share", "count", "name"})
	if err != nil {
		t.Fatal(err)
	}

	row, err := testSchema.ParseRow([]string{"2023-11-24", "ignored", "", "3.0", "Nairobi"}, positions)
	if err != nil {
		t.Fatal(err)
	}

	if row[0].String() != "Nairobi" {
		t.Errorf("expected name 'Nairobi', got '%s'", row[0].String())
	}
	if count, _ := row[1].Float(); count != 3 {
		t.Errorf("expected count 3, got %v", count)
	}
	if !row[2].IsMissing() {
		t.Errorf("expected blank optional field to be missing, got %v", row[2].Raw())
	}
	if want := time.Date(2023, 11, 24, 0, 0, 0, 0, time.UTC); row[3].Raw() != want {
		t.Errorf("expected date %v, got %v", want, row[3].Raw())
	}
}

func TestHeaderPositionsRejectsMissingColumns(t *testing.T) {
	if _, err := testSchema.HeaderPositions([]string{"name", "count"}); err == nil {
		t.Fatal("expected error for header without 'share' and 'day'")
	}
}

func TestParseFieldRejectsBlankRequiredField(t *testing.T) {
	if _, err := ParseField("", Column{Name: "count", DataType: DataTypeInt}); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseFieldRejectsNonFiniteNumbers(t *testing.T) {
	for _, field := range []string{"NaN", "nan", "Inf", "+Inf", "-Inf", "infinity"} {
		for _, dataType := range []DataType{DataTypeFloat, DataTypeInt} {
			if value, err := ParseField(field, Column{Name: "amount", DataType: dataType}); err == nil {
				t.Errorf("expected error for %q as %v, got %v", field, dataType, value.Raw())
			}
		}
	}

	value, err := ParseField("12.0", Column{Name: "count", DataType: DataTypeInt})
	if err != nil || value.Raw() != int64(12) {
		t.Errorf("expected 12.0 to parse as integer 12, got %v (err: %v)", value, err)
	}
}

func TestParseDateLayouts(t *testing.T) {
	want := time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC)
	for _, field := range []string{"2023-01-05", "2023/01/05", "01/05/2023", "2023-01-05T00:00:00Z"} {
		date, err := ParseDate(field)
		if err != nil {
			t.Errorf("%s: %v", field, err)
			continue
		}
		if !Date(date).Equals(Date(want)) {
			t.Errorf("%s: expected %v, got %v", field, want, date)
		}
	}
}

func TestNewTableChecksTypes(t *testing.T) {
	_, err := NewTable(testSchema, []Row{{Int(1), Int(2), Float(0.5), Date(time.Now())}})
	if err == nil {
		t.Fatal("expected error for INTEGER value in TEXT column")
	}
}

func TestWithColumnsDoesNotMutateInput(t *testing.T) {
	table := newTestTable(t)

	derived, err := table.WithColumns(
		[]Column{{Name: "double", DataType: DataTypeInt}},
		func(row Row) ([]Value, error) {
			count, _ := row[1].Float()
			return []Value{Int(int64(count * 2))}, nil
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	if len(table.Schema().Columns) != 4 || len(table.Row(0)) != 4 {
		t.Fatal("input table was modified")
	}
	if got := derived.Value(1, 4).String(); got != "10" {
		t.Errorf("expected derived value 10, got %s", got)
	}
}

func TestSelectAndEqual(t *testing.T) {
	table := newTestTable(t)

	if !table.Select([]int{0, 1}).Equal(table) {
		t.Error("selecting all rows should give an equal table")
	}
	if table.Select([]int{1}).Equal(table) {
		t.Error("selecting one row should not give an equal table")
	}
}

func TestCompareMissingSortsFirst(t *testing.T) {
	missing, err := Missing(DataTypeFloat)
	if err != nil {
		t.Fatal(err)
	}

	comparison, err := missing.Compare(Float(-1))
	if err != nil {
		t.Fatal(err)
	}
	if comparison >= 0 {
		t.Errorf("expected missing value to sort first, got comparison %d", comparison)
	}

	if _, err := Float(1).Compare(Int(1)); err == nil {
		t.Error("expected error when comparing values of different types")
	}
}

func newTestTable(t *testing.T) Table {
	t.Helper()

	day := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	table, err := NewTable(testSchema, []Row{
		{Text("a"), Int(2), Float(0.25), Date(day)},
		{Text("b"), Int(5), Float(0.75), Date(day.AddDate(0, 0, 1))},
	})
	if err != nil {
		t.Fatal(err)
	}
	return table
}
