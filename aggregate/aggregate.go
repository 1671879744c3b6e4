// Package aggregate reduces tables to scalar, ratio and grouped metrics.
package aggregate

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"hermannm.dev/devlog/log"
	"hermannm.dev/portfolio/apperror"
	"hermannm.dev/portfolio/dataset"
	"hermannm.dev/wrap"
)

// Reduction reduces the values of one column to a single number. Missing values are skipped.
// COUNT counts rows, and needs no column. CONSTANT ignores the table, and yields Constant.
type Reduction struct {
	Aggregation Aggregation `json:"aggregation"`
	Column      string      `json:"column,omitempty"`
	Constant    float64     `json:"constant,omitempty"`
}

func Sum(column string) Reduction {
	return Reduction{Aggregation: AggregationSum, Column: column}
}

func Average(column string) Reduction {
	return Reduction{Aggregation: AggregationAverage, Column: column}
}

func Median(column string) Reduction {
	return Reduction{Aggregation: AggregationMedian, Column: column}
}

func Min(column string) Reduction {
	return Reduction{Aggregation: AggregationMin, Column: column}
}

func Max(column string) Reduction {
	return Reduction{Aggregation: AggregationMax, Column: column}
}

func Count() Reduction {
	return Reduction{Aggregation: AggregationCount}
}

func Cardinality(column string) Reduction {
	return Reduction{Aggregation: AggregationCardinality, Column: column}
}

func Constant(value float64) Reduction {
	return Reduction{Aggregation: AggregationConstant, Constant: value}
}

type ScalarMetric struct {
	Name      string    `json:"name"`
	Reduction Reduction `json:"reduction"`
}

// RatioMetric divides one reduction by another. If the denominator is zero or undefined, the
// result is undefined.
type RatioMetric struct {
	Name        string    `json:"name"`
	Numerator   Reduction `json:"numerator"`
	Denominator Reduction `json:"denominator"`
}

// GroupedMetric computes a reduction per distinct combination of values in the GroupBy columns
// (one or two). Groups are returned in order of first appearance in the table, unless SortOrder is
// set, in which case they are sorted by value (or by key, if SortByKey is set). If Cumulative is
// set, each group's value is the running total up to and including that group. A positive Limit
// keeps only the first groups after sorting.
type GroupedMetric struct {
	Name       string    `json:"name"`
	GroupBy    []string  `json:"groupBy"`
	Reduction  Reduction `json:"reduction"`
	SortOrder  SortOrder `json:"sortOrder,omitempty"`
	SortByKey  bool      `json:"sortByKey,omitempty"`
	Cumulative bool      `json:"cumulative,omitempty"`
	Limit      int       `json:"limit,omitempty"`
}

type Spec struct {
	Scalars []ScalarMetric  `json:"scalars"`
	Ratios  []RatioMetric   `json:"ratios"`
	Groups  []GroupedMetric `json:"groups"`
}

// Group is the result of a grouped metric for one group. Key holds the canonical text form of the
// group's value in each GroupBy column, with "" for missing values.
type Group struct {
	Key   []string `json:"key"`
	Value Result   `json:"value"`
}

// MetricSet holds the results of a spec, keyed by metric name. Ratio results are included in
// Scalars.
type MetricSet struct {
	Scalars map[string]Result  `json:"scalars"`
	Groups  map[string][]Group `json:"groups"`
}

// Compute validates the spec against the table's schema, and then computes every metric in it.
// An invalid spec fails with a VALIDATION_FAILURE error before anything is computed.
func Compute(table dataset.Table, spec Spec) (MetricSet, error) {
	if err := spec.Validate(table.Schema()); err != nil {
		return MetricSet{}, err
	}

	metrics := MetricSet{
		Scalars: make(map[string]Result, len(spec.Scalars)+len(spec.Ratios)),
		Groups:  make(map[string][]Group, len(spec.Groups)),
	}

	allRows := make([]int, table.Len())
	for i := range allRows {
		allRows[i] = i
	}

	for _, metric := range spec.Scalars {
		metrics.Scalars[metric.Name] = metric.Reduction.reduce(table, allRows)
	}

	for _, metric := range spec.Ratios {
		metrics.Scalars[metric.Name] = ratio(
			metric.Name,
			metric.Numerator.reduce(table, allRows),
			metric.Denominator.reduce(table, allRows),
		)
	}

	for _, metric := range spec.Groups {
		groups, err := metric.compute(table)
		if err != nil {
			return MetricSet{}, wrap.Errorf(err, "failed to compute grouped metric '%s'", metric.Name)
		}
		metrics.Groups[metric.Name] = groups
	}

	return metrics, nil
}

func ratio(name string, numerator Result, denominator Result) Result {
	result, err := Divide(numerator, denominator)
	if err != nil {
		log.Debugf("ratio metric '%s' is undefined: %v", name, err)
	}
	return result
}

// Validate checks every metric of the spec against the given schema, returning a
// VALIDATION_FAILURE error listing all problems found.
func (spec Spec) Validate(schema dataset.Schema) error {
	var errs []error
	names := make(map[string]struct{})

	checkName := func(name string) {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, errors.New("metric with blank name"))
			return
		}
		if _, ok := names[name]; ok {
			errs = append(errs, fmt.Errorf("duplicate metric name '%s'", name))
		}
		names[name] = struct{}{}
	}

	for _, metric := range spec.Scalars {
		checkName(metric.Name)
		if err := metric.Reduction.validate(schema); err != nil {
			errs = append(errs, wrap.Errorf(err, "invalid metric '%s'", metric.Name))
		}
	}

	for _, metric := range spec.Ratios {
		checkName(metric.Name)
		if err := metric.Numerator.validate(schema); err != nil {
			errs = append(errs, wrap.Errorf(err, "invalid numerator of metric '%s'", metric.Name))
		}
		if err := metric.Denominator.validate(schema); err != nil {
			errs = append(errs, wrap.Errorf(err, "invalid denominator of metric '%s'", metric.Name))
		}
	}

	groupNames := make(map[string]struct{})
	for _, metric := range spec.Groups {
		if strings.TrimSpace(metric.Name) == "" {
			errs = append(errs, errors.New("grouped metric with blank name"))
		} else if _, ok := groupNames[metric.Name]; ok {
			errs = append(errs, fmt.Errorf("duplicate grouped metric name '%s'", metric.Name))
		}
		groupNames[metric.Name] = struct{}{}

		if err := metric.validate(schema); err != nil {
			errs = append(errs, wrap.Errorf(err, "invalid grouped metric '%s'", metric.Name))
		}
	}

	if len(errs) > 0 {
		err := wrap.Errors("invalid metrics", errs...)
		return apperror.Wrap(err, apperror.KindValidationFailure, err.Error())
	}
	return nil
}

func (reduction Reduction) validate(schema dataset.Schema) error {
	switch reduction.Aggregation {
	case AggregationConstant:
		return nil
	case AggregationCount:
		if reduction.Column == "" {
			return nil
		}
		_, err := schema.Column(reduction.Column)
		return err
	case AggregationCardinality:
		_, err := schema.Column(reduction.Column)
		return err
	}

	if !reduction.Aggregation.IsValid() {
		return fmt.Errorf("invalid aggregation %v", reduction.Aggregation)
	}

	column, err := schema.Column(reduction.Column)
	if err != nil {
		return err
	}
	if reduction.Aggregation.NeedsNumericColumn() && !column.DataType.IsNumeric() {
		return fmt.Errorf(
			"cannot apply %v to column '%s' of type %v",
			reduction.Aggregation,
			column.Name,
			column.DataType,
		)
	}
	return nil
}

func (metric GroupedMetric) validate(schema dataset.Schema) error {
	if len(metric.GroupBy) < 1 || len(metric.GroupBy) > 2 {
		return fmt.Errorf("expected 1 or 2 group columns, got %d", len(metric.GroupBy))
	}
	for _, name := range metric.GroupBy {
		if _, err := schema.Column(name); err != nil {
			return err
		}
	}
	if metric.SortOrder != 0 && !metric.SortOrder.IsValid() {
		return fmt.Errorf("invalid sort order %v", metric.SortOrder)
	}
	if metric.Limit < 0 {
		return fmt.Errorf("negative limit %d", metric.Limit)
	}
	return metric.Reduction.validate(schema)
}

func (reduction Reduction) reduce(table dataset.Table, rows []int) Result {
	switch reduction.Aggregation {
	case AggregationConstant:
		return Defined(reduction.Constant)
	case AggregationCount:
		return Defined(float64(len(rows)))
	}

	columnIndex, _ := table.Schema().ColumnIndex(reduction.Column)

	if reduction.Aggregation == AggregationCardinality {
		distinct := make(map[string]struct{})
		for _, row := range rows {
			if value := table.Value(row, columnIndex); !value.IsMissing() {
				distinct[value.String()] = struct{}{}
			}
		}
		return Defined(float64(len(distinct)))
	}

	numbers := make([]float64, 0, len(rows))
	for _, row := range rows {
		if number, ok := table.Value(row, columnIndex).Float(); ok {
			numbers = append(numbers, number)
		}
	}

	if reduction.Aggregation == AggregationSum {
		return Defined(sum(numbers))
	}
	if len(numbers) == 0 {
		return Undefined()
	}

	switch reduction.Aggregation {
	case AggregationAverage:
		return Defined(sum(numbers) / float64(len(numbers)))
	case AggregationMedian:
		return Defined(median(numbers))
	case AggregationMin:
		return Defined(slices.Min(numbers))
	case AggregationMax:
		return Defined(slices.Max(numbers))
	default:
		return Undefined()
	}
}

func sum(numbers []float64) float64 {
	var total float64
	for _, number := range numbers {
		total += number
	}
	return total
}

func median(numbers []float64) float64 {
	sorted := slices.Clone(numbers)
	slices.Sort(sorted)

	middle := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[middle]
	}
	return (sorted[middle-1] + sorted[middle]) / 2
}

type groupRows struct {
	key  []string
	keys []dataset.Value
	rows []int
}

func (metric GroupedMetric) compute(table dataset.Table) ([]Group, error) {
	schema := table.Schema()
	columnIndices := make([]int, len(metric.GroupBy))
	for i, name := range metric.GroupBy {
		columnIndices[i], _ = schema.ColumnIndex(name)
	}

	var groups []*groupRows
	groupsByKey := make(map[string]*groupRows)

	for rowIndex := 0; rowIndex < table.Len(); rowIndex++ {
		row := table.Row(rowIndex)

		key := make([]string, len(columnIndices))
		for i, columnIndex := range columnIndices {
			key[i] = row[columnIndex].String()
		}
		joinedKey := strings.Join(key, "\x00")

		group, ok := groupsByKey[joinedKey]
		if !ok {
			keyValues := make([]dataset.Value, len(columnIndices))
			for i, columnIndex := range columnIndices {
				keyValues[i] = row[columnIndex]
			}
			group = &groupRows{key: key, keys: keyValues}
			groupsByKey[joinedKey] = group
			groups = append(groups, group)
		}
		group.rows = append(group.rows, rowIndex)
	}

	results := make([]Group, len(groups))
	for i, group := range groups {
		results[i] = Group{Key: group.key, Value: metric.Reduction.reduce(table, group.rows)}
	}

	if metric.SortOrder != 0 {
		var sortErr error
		indices := make([]int, len(results))
		for i := range indices {
			indices[i] = i
		}

		sort.SliceStable(indices, func(a int, b int) bool {
			var comparison int
			if metric.SortByKey {
				var err error
				comparison, err = compareKeys(groups[indices[a]].keys, groups[indices[b]].keys)
				if err != nil && sortErr == nil {
					sortErr = err
				}
			} else {
				comparison = compareResults(results[indices[a]].Value, results[indices[b]].Value)
			}

			if metric.SortOrder == SortOrderDescending {
				return comparison > 0
			}
			return comparison < 0
		})
		if sortErr != nil {
			return nil, wrap.Error(sortErr, "failed to sort groups")
		}

		sorted := make([]Group, len(results))
		for i, index := range indices {
			sorted[i] = results[index]
		}
		results = sorted
	}

	if metric.Cumulative {
		var runningTotal float64
		for i, group := range results {
			if group.Value.Defined {
				runningTotal += group.Value.Value
			}
			results[i].Value = Defined(runningTotal)
		}
	}

	if metric.Limit > 0 && len(results) > metric.Limit {
		results = results[:metric.Limit]
	}

	return results, nil
}

func compareKeys(first []dataset.Value, second []dataset.Value) (int, error) {
	for i := range first {
		comparison, err := first[i].Compare(second[i])
		if err != nil {
			return 0, err
		}
		if comparison != 0 {
			return comparison, nil
		}
	}
	return 0, nil
}

// Undefined results sort before defined ones.
func compareResults(first Result, second Result) int {
	switch {
	case !first.Defined && !second.Defined:
		return 0
	case !first.Defined:
		return -1
	case !second.Defined:
		return 1
	default:
		return cmp.Compare(first.Value, second.Value)
	}
}
