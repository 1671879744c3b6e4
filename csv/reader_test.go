package csv

import (
	"testing"

	"hermannm.dev/portfolio/dataset"
)

func TestDeduceFieldDelimiter(t *testing.T) {
	for _, test := range []struct {
		name string
		data string
		want rune
	}{
		{"comma", "a,b,c\n1,2,3\n4,5,6\n", ','},
		{"semicolon with spaces in fields", "name;full name\nx;Jane Doe\ny;John Q Public\n", ';'},
		{"tab", "a\tb\n1\t2\n", '\t'},
		{"pipe", "a|b|c\n1|2|3\n", '|'},
	} {
		t.Run(test.name, func(t *testing.T) {
			got := DeduceFieldDelimiter([]byte(test.data), 20, nil)
			if got != test.want {
				t.Errorf("expected delimiter %q, got %q", test.want, got)
			}
		})
	}
}

var salesSchema = dataset.MustSchema(
	"sales",
	dataset.Column{Name: "Transaction ID", DataType: dataset.DataTypeInt},
	dataset.Column{Name: "Date", DataType: dataset.DataTypeDate},
	dataset.Column{Name: "Age", DataType: dataset.DataTypeInt},
	dataset.Column{Name: "Total Amount", DataType: dataset.DataTypeFloat},
)

func TestReadTable(t *testing.T) {
	data := "\xef\xbb\xbfTransaction ID,Date,Gender,Age,Total Amount\n" +
		"1,2023-11-24,Male,34,150\n" +
		"\n" +
		"2,2023-02-27,Female,26,1000\n"

	table, err := NewReader([]byte(data)).ReadTable(salesSchema)
	if err != nil {
		t.Fatal(err)
	}

	if table.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", table.Len())
	}
	if got := table.Value(1, 1).String(); got != "2023-02-27" {
		t.Errorf("expected date 2023-02-27, got %s", got)
	}
	if got, _ := table.Value(1, 3).Float(); got != 1000 {
		t.Errorf("expected total 1000, got %v", got)
	}
}

func TestReadTableRejectsMalformedRow(t *testing.T) {
	data := "Transaction ID,Date,Age,Total Amount\n1,not a date,34,150\n"

	if _, err := NewReader([]byte(data)).ReadTable(salesSchema); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestReadTableRejectsEmptyFile(t *testing.T) {
	if _, err := NewReader(nil).ReadTable(salesSchema); err == nil {
		t.Fatal("expected error for missing header row")
	}
}
