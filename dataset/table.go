package dataset

import (
	"fmt"

	"hermannm.dev/wrap"
)

type Row []Value

// Table is an ordered, immutable sequence of rows sharing one schema. Operations that select or
// add data return new tables; rows are never modified in place, so tables can be shared freely
// between concurrent requests.
type Table struct {
	schema Schema
	rows   []Row
}

func NewTable(schema Schema, rows []Row) (Table, error) {
	for i, row := range rows {
		if err := schema.checkRow(row); err != nil {
			return Table{}, wrap.Errorf(err, "invalid row %d", i)
		}
	}

	return Table{schema: schema, rows: rows}, nil
}

func (schema Schema) checkRow(row Row) error {
	if len(row) != len(schema.Columns) {
		return fmt.Errorf("expected %d values, got %d", len(schema.Columns), len(row))
	}

	for i, value := range row {
		column := schema.Columns[i]
		if value == nil {
			return fmt.Errorf("nil value in column '%s'", column.Name)
		}
		if value.DataType() != column.DataType {
			return fmt.Errorf(
				"value of type %v in column '%s' of type %v",
				value.DataType(),
				column.Name,
				column.DataType,
			)
		}
	}

	return nil
}

func (table Table) Schema() Schema {
	return table.schema
}

func (table Table) Len() int {
	return len(table.rows)
}

func (table Table) Row(index int) Row {
	return table.rows[index]
}

// Value returns the value at the given row index and column index.
func (table Table) Value(rowIndex int, columnIndex int) Value {
	return table.rows[rowIndex][columnIndex]
}

// Column returns all values of the named column, in row order.
func (table Table) Column(name string) ([]Value, error) {
	index, ok := table.schema.ColumnIndex(name)
	if !ok {
		_, err := table.schema.Column(name)
		return nil, err
	}

	values := make([]Value, len(table.rows))
	for i, row := range table.rows {
		values[i] = row[index]
	}
	return values, nil
}

// Select returns a view of the rows at the given indices, in the given order.
func (table Table) Select(indices []int) Table {
	rows := make([]Row, len(indices))
	for i, index := range indices {
		rows[i] = table.rows[index]
	}
	return Table{schema: table.schema, rows: rows}
}

// WithColumns returns a new table with the given columns appended to the schema, and values for
// them appended to every row by the compute function. The receiver is left untouched.
func (table Table) WithColumns(
	columns []Column,
	compute func(row Row) ([]Value, error),
) (Table, error) {
	schema, err := table.schema.WithColumns(columns...)
	if err != nil {
		return Table{}, err
	}

	rows := make([]Row, len(table.rows))
	for i, row := range table.rows {
		extra, err := compute(row)
		if err != nil {
			return Table{}, wrap.Errorf(err, "failed to compute derived values for row %d", i)
		}

		newRow := make(Row, 0, len(row)+len(extra))
		newRow = append(newRow, row...)
		newRow = append(newRow, extra...)

		if err := schema.checkRow(newRow); err != nil {
			return Table{}, wrap.Errorf(err, "invalid derived row %d", i)
		}
		rows[i] = newRow
	}

	return Table{schema: schema, rows: rows}, nil
}

// Records returns the rows as maps from column name to value, for JSON output.
func (table Table) Records(columns ...string) ([]map[string]Value, error) {
	if len(columns) == 0 {
		columns = table.schema.ColumnNames()
	}

	indices := make([]int, len(columns))
	for i, name := range columns {
		index, ok := table.schema.ColumnIndex(name)
		if !ok {
			_, err := table.schema.Column(name)
			return nil, err
		}
		indices[i] = index
	}

	records := make([]map[string]Value, len(table.rows))
	for i, row := range table.rows {
		record := make(map[string]Value, len(columns))
		for j, name := range columns {
			record[name] = row[indices[j]]
		}
		records[i] = record
	}
	return records, nil
}

// Equal reports whether both tables have equal schemas and equal values in the same row order.
func (table Table) Equal(other Table) bool {
	if !table.schema.Equal(other.schema) || len(table.rows) != len(other.rows) {
		return false
	}

	for i, row := range table.rows {
		otherRow := other.rows[i]
		for j, value := range row {
			if !value.Equals(otherRow[j]) {
				return false
			}
		}
	}
	return true
}
