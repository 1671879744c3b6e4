// Package derive adds computed columns to loaded tables.
package derive

import (
	"fmt"

	"hermannm.dev/portfolio/dataset"
	"hermannm.dev/wrap"
)

// Rule computes one or more new columns from existing ones.
type Rule interface {
	Name() string
	// Prepare inspects the full table (e.g. to compute bucket boundaries), and returns the columns
	// the rule adds along with a function computing their values for a single row.
	Prepare(table dataset.Table) (columns []dataset.Column, compute func(dataset.Row) ([]dataset.Value, error), err error)
}

// Augment applies the rules in order, each rule seeing the columns added by earlier ones. The
// given table is not modified.
func Augment(table dataset.Table, rules ...Rule) (dataset.Table, error) {
	for _, rule := range rules {
		columns, compute, err := rule.Prepare(table)
		if err != nil {
			return dataset.Table{}, wrap.Errorf(err, "failed to prepare derived column rule '%s'", rule.Name())
		}

		table, err = table.WithColumns(columns, compute)
		if err != nil {
			return dataset.Table{}, wrap.Errorf(err, "failed to apply derived column rule '%s'", rule.Name())
		}
	}

	return table, nil
}

func columnIndex(schema dataset.Schema, name string, allowedTypes ...dataset.DataType) (int, error) {
	column, err := schema.Column(name)
	if err != nil {
		return 0, err
	}

	for _, allowed := range allowedTypes {
		if column.DataType == allowed {
			index, _ := schema.ColumnIndex(name)
			return index, nil
		}
	}

	return 0, fmt.Errorf("column '%s' has unsupported data type %v", name, column.DataType)
}
