// Package filter selects the rows of a table matching a set of predicates.
package filter

import (
	"errors"
	"fmt"

	"hermannm.dev/portfolio/apperror"
	"hermannm.dev/portfolio/dataset"
	"hermannm.dev/wrap"
)

// Filter is a single predicate on one column.
//
// INCLUDE and EXCLUDE compare the canonical text form of each value against Values. Missing values
// have the text form "", so they match INCLUDE only if "" is listed. An INCLUDE filter with no
// values matches nothing. RANGE matches numeric values within [Min, Max], where
// either bound may be omitted (but not both).
type Filter struct {
	Column string     `json:"column"`
	Type   FilterType `json:"type"`
	Values []string   `json:"values"`
	Min    *float64   `json:"min,omitempty"`
	Max    *float64   `json:"max,omitempty"`
}

// Filters is a conjunction: a row matches if it matches every filter. Several filters may apply
// to the same column.
type Filters []Filter

func Include(column string, values ...string) Filter {
	return Filter{Column: column, Type: FilterTypeInclude, Values: values}
}

func Exclude(column string, values ...string) Filter {
	return Filter{Column: column, Type: FilterTypeExclude, Values: values}
}

func Range(column string, min *float64, max *float64) Filter {
	return Filter{Column: column, Type: FilterTypeRange, Min: min, Max: max}
}

// Union combines filter sets. Since filters are conjunctive, applying the union equals applying
// each set in turn.
func Union(sets ...Filters) Filters {
	var union Filters
	for _, set := range sets {
		union = append(union, set...)
	}
	return union
}

// Validate checks every filter against the given schema, returning a VALIDATION_FAILURE error
// listing all invalid filters.
func (filters Filters) Validate(schema dataset.Schema) error {
	var errs []error
	for i, filter := range filters {
		if err := filter.validate(schema); err != nil {
			errs = append(errs, wrap.Errorf(err, "invalid filter %d on column '%s'", i, filter.Column))
		}
	}

	if len(errs) > 0 {
		err := wrap.Errors("invalid filters", errs...)
		return apperror.Wrap(err, apperror.KindValidationFailure, err.Error())
	}
	return nil
}

func (filter Filter) validate(schema dataset.Schema) error {
	column, err := schema.Column(filter.Column)
	if err != nil {
		return err
	}

	switch filter.Type {
	case FilterTypeInclude, FilterTypeExclude:
		return nil
	case FilterTypeRange:
		if !column.DataType.IsNumeric() {
			return fmt.Errorf("range filter on non-numeric column of type %v", column.DataType)
		}
		if filter.Min == nil && filter.Max == nil {
			return errors.New("range filter without bounds")
		}
		if filter.Min != nil && filter.Max != nil && *filter.Min > *filter.Max {
			return fmt.Errorf("range minimum %v is greater than maximum %v", *filter.Min, *filter.Max)
		}
		return nil
	default:
		return fmt.Errorf("invalid filter type %v", filter.Type)
	}
}

// Apply returns the rows of the table that match every filter, in their original order. With no
// filters, the table itself is returned.
func Apply(table dataset.Table, filters Filters) (dataset.Table, error) {
	if len(filters) == 0 {
		return table, nil
	}

	schema := table.Schema()
	if err := filters.Validate(schema); err != nil {
		return dataset.Table{}, err
	}

	matchers := make([]matcher, len(filters))
	for i, filter := range filters {
		columnIndex, _ := schema.ColumnIndex(filter.Column)
		matchers[i] = filter.matcher(columnIndex)
	}

	var indices []int
RowLoop:
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		for _, matches := range matchers {
			if !matches(row) {
				continue RowLoop
			}
		}
		indices = append(indices, i)
	}

	return table.Select(indices), nil
}

type matcher func(row dataset.Row) bool

func (filter Filter) matcher(columnIndex int) matcher {
	switch filter.Type {
	case FilterTypeInclude:
		values := valueSet(filter.Values)
		return func(row dataset.Row) bool {
			_, ok := values[row[columnIndex].String()]
			return ok
		}
	case FilterTypeExclude:
		values := valueSet(filter.Values)
		return func(row dataset.Row) bool {
			_, ok := values[row[columnIndex].String()]
			return !ok
		}
	default:
		return func(row dataset.Row) bool {
			number, ok := row[columnIndex].Float()
			if !ok {
				return false
			}
			if filter.Min != nil && number < *filter.Min {
				return false
			}
			if filter.Max != nil && number > *filter.Max {
				return false
			}
			return true
		}
	}
}

func valueSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	return set
}
