package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"hermannm.dev/wrap"
)

// Layouts accepted when parsing DATE fields, in order of preference.
var DateLayouts = []string{DateLayout, time.RFC3339, "2006/01/02", "01/02/2006"}

// Schema is the fixed set of columns for one dataset variant. It is decided when the dataset is
// defined, and every filter and metric is checked against it before touching any rows.
type Schema struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`

	indexByName map[string]int
}

type Column struct {
	Name     string   `json:"name"`
	DataType DataType `json:"dataType"`
	Optional bool     `json:"optional"`
}

func NewSchema(name string, columns ...Column) (Schema, error) {
	schema := Schema{
		Name:        name,
		Columns:     columns,
		indexByName: make(map[string]int, len(columns)),
	}

	if errs := schema.validate(); len(errs) > 0 {
		return Schema{}, wrap.Errors(fmt.Sprintf("invalid schema '%s'", name), errs...)
	}

	for i, column := range columns {
		schema.indexByName[column.Name] = i
	}

	return schema, nil
}

// MustSchema is NewSchema for package-level dataset definitions, where an invalid schema is a
// programming error.
func MustSchema(name string, columns ...Column) Schema {
	schema, err := NewSchema(name, columns...)
	if err != nil {
		panic(err)
	}
	return schema
}

func (schema Schema) validate() []error {
	var errs []error

	seen := make(map[string]struct{}, len(schema.Columns))
	for i, column := range schema.Columns {
		if err := column.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("column %d ('%s'): %w", i, column.Name, err))
			continue
		}
		if _, duplicate := seen[column.Name]; duplicate {
			errs = append(errs, fmt.Errorf("column %d: duplicate column name '%s'", i, column.Name))
		}
		seen[column.Name] = struct{}{}
	}

	return errs
}

func (column Column) Validate() error {
	if strings.TrimSpace(column.Name) == "" {
		return errors.New("column name is blank")
	}

	if !column.DataType.IsValid() {
		return errors.New("invalid column data type")
	}

	return nil
}

func (schema Schema) ColumnIndex(name string) (index int, ok bool) {
	index, ok = schema.indexByName[name]
	return index, ok
}

func (schema Schema) Column(name string) (Column, error) {
	index, ok := schema.indexByName[name]
	if !ok {
		return Column{}, fmt.Errorf("unrecognized column '%s' in dataset '%s'", name, schema.Name)
	}
	return schema.Columns[index], nil
}

func (schema Schema) ColumnNames() []string {
	names := make([]string, len(schema.Columns))
	for i, column := range schema.Columns {
		names[i] = column.Name
	}
	return names
}

// WithColumns returns a new schema with the given columns appended.
func (schema Schema) WithColumns(columns ...Column) (Schema, error) {
	combined := make([]Column, 0, len(schema.Columns)+len(columns))
	combined = append(combined, schema.Columns...)
	combined = append(combined, columns...)
	return NewSchema(schema.Name, combined...)
}

// Equal reports whether both schemas have the same name and columns.
func (schema Schema) Equal(other Schema) bool {
	if schema.Name != other.Name || len(schema.Columns) != len(other.Columns) {
		return false
	}
	for i, column := range schema.Columns {
		if column != other.Columns[i] {
			return false
		}
	}
	return true
}

// HeaderPositions maps every schema column onto its position in the given header row. Header
// fields not in the schema are ignored, but every schema column must be present.
func (schema Schema) HeaderPositions(header []string) (positions []int, err error) {
	headerIndex := make(map[string]int, len(header))
	for i, name := range header {
		headerIndex[strings.TrimSpace(name)] = i
	}

	positions = make([]int, len(schema.Columns))
	var errs []error
	for i, column := range schema.Columns {
		position, ok := headerIndex[column.Name]
		if !ok {
			errs = append(errs, fmt.Errorf("missing column '%s'", column.Name))
			continue
		}
		positions[i] = position
	}

	if len(errs) > 0 {
		return nil, wrap.Errors(
			fmt.Sprintf("header does not match dataset '%s'", schema.Name),
			errs...,
		)
	}

	return positions, nil
}

// ParseRow converts the raw fields of a row to the data types expected by the schema, reading
// each column from the field at the corresponding position (see HeaderPositions).
func (schema Schema) ParseRow(rawRow []string, positions []int) (Row, error) {
	if len(positions) != len(schema.Columns) {
		return nil, errors.New("column positions do not match schema")
	}

	row := make(Row, len(schema.Columns))
	for i, column := range schema.Columns {
		position := positions[i]
		if position >= len(rawRow) {
			return nil, fmt.Errorf("row is missing field for column '%s'", column.Name)
		}

		field := rawRow[position]
		value, err := ParseField(field, column)
		if err != nil {
			return nil, wrap.Errorf(
				err,
				"failed to convert field '%s' to %v for column '%s'",
				field,
				column.DataType,
				column.Name,
			)
		}

		row[i] = value
	}

	return row, nil
}

func ParseField(field string, column Column) (Value, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		if column.Optional {
			return Missing(column.DataType)
		} else {
			return nil, errors.New("empty value in non-optional column")
		}
	}

	switch column.DataType {
	case DataTypeText:
		return Text(field), nil
	case DataTypeInt:
		value, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			// Integer columns are sometimes exported with a trailing ".0"
			floatValue, floatErr := parseFiniteFloat(field)
			if floatErr != nil || floatValue != float64(int64(floatValue)) {
				return nil, err
			}
			value = int64(floatValue)
		}
		return Int(value), nil
	case DataTypeFloat:
		value, err := parseFiniteFloat(field)
		if err != nil {
			return nil, err
		}
		return Float(value), nil
	case DataTypeDate:
		date, err := ParseDate(field)
		if err != nil {
			return nil, err
		}
		return Date(date), nil
	}

	return nil, fmt.Errorf("unrecognized data type '%v' in column", column.DataType)
}

// parseFiniteFloat rejects NaN and infinities, which strconv.ParseFloat accepts.
func parseFiniteFloat(field string) (float64, error) {
	value, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("'%s' is not a finite number", field)
	}
	return value, nil
}

func ParseDate(field string) (time.Time, error) {
	for _, layout := range DateLayouts {
		if date, err := time.Parse(layout, field); err == nil {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("'%s' is not a recognized date", field)
}
