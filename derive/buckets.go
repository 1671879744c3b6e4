package derive

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"hermannm.dev/portfolio/dataset"
)

// Buckets are contiguous bins (b[i], b[i+1]] over the range of a numeric column. Boundaries are
// whole numbers, spread evenly from one below the column minimum up to the column maximum.
type Buckets struct {
	boundaries []float64
}

// NewBuckets computes n bins over the given values, ignoring missing ones. The first boundary is
// floored and the last ceiled so that every given value lands in a bin, and boundaries that
// collapse onto the same integer (for ranges narrower than n) are merged, so fewer than n bins may
// be returned.
func NewBuckets(values []dataset.Value, n int) (Buckets, error) {
	if n < 1 {
		return Buckets{}, fmt.Errorf("bucket count must be at least 1, got %d", n)
	}

	min, max := math.Inf(1), math.Inf(-1)
	for _, value := range values {
		number, ok := value.Float()
		if !ok {
			continue
		}
		min = math.Min(min, number)
		max = math.Max(max, number)
	}
	if math.IsInf(min, 1) {
		return Buckets{}, errors.New("no numeric values to bucket")
	}

	start := min - 1
	step := (max - start) / float64(n)

	boundaries := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		var boundary float64
		switch i {
		case 0:
			boundary = math.Floor(start)
		case n:
			boundary = math.Ceil(max)
		default:
			boundary = math.Trunc(start + float64(i)*step)
		}

		if len(boundaries) > 0 && boundary <= boundaries[len(boundaries)-1] {
			continue
		}
		boundaries = append(boundaries, boundary)
	}

	return Buckets{boundaries: boundaries}, nil
}

func (buckets Buckets) Len() int {
	return len(buckets.boundaries) - 1
}

func (buckets Buckets) Boundaries() []float64 {
	return append([]float64(nil), buckets.boundaries...)
}

// Labels returns the bin labels in ascending order, formatted as "{lower}-{upper}".
func (buckets Buckets) Labels() []string {
	labels := make([]string, buckets.Len())
	for i := range labels {
		labels[i] = buckets.label(i)
	}
	return labels
}

func (buckets Buckets) label(index int) string {
	return fmt.Sprintf("%d-%d", int64(buckets.boundaries[index]), int64(buckets.boundaries[index+1]))
}

// Index returns the index of the bin containing the given value. Values at or below the lowest
// boundary go in the first bin, and values above the highest go in the last.
func (buckets Buckets) Index(value float64) int {
	upperBoundaries := buckets.boundaries[1:]
	index := sort.SearchFloat64s(upperBoundaries, value)
	if index >= len(upperBoundaries) {
		return len(upperBoundaries) - 1
	}
	return index
}

func (buckets Buckets) Label(value float64) string {
	return buckets.label(buckets.Index(value))
}

type BinCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Histogram counts the non-missing numeric values per bin. Every bin is included, also those
// with no values.
func (buckets Buckets) Histogram(values []dataset.Value) []BinCount {
	counts := make([]BinCount, buckets.Len())
	for i := range counts {
		counts[i].Label = buckets.label(i)
	}

	for _, value := range values {
		if number, ok := value.Float(); ok {
			counts[buckets.Index(number)].Count++
		}
	}

	return counts
}

// Bucket derives a TEXT column with the bin label of each value in a numeric column. Bins are
// computed once from the full column of the table the rule is applied to.
type Bucket struct {
	Source string
	Target string
	Bins   int
}

func (rule Bucket) Name() string {
	return rule.Target
}

func (rule Bucket) Prepare(
	table dataset.Table,
) ([]dataset.Column, func(dataset.Row) ([]dataset.Value, error), error) {
	sourceIndex, err := columnIndex(table.Schema(), rule.Source, dataset.DataTypeInt, dataset.DataTypeFloat)
	if err != nil {
		return nil, nil, err
	}

	values, err := table.Column(rule.Source)
	if err != nil {
		return nil, nil, err
	}

	buckets, err := NewBuckets(values, rule.Bins)
	if err != nil {
		return nil, nil, err
	}

	columns := []dataset.Column{{Name: rule.Target, DataType: dataset.DataTypeText, Optional: true}}

	compute := func(row dataset.Row) ([]dataset.Value, error) {
		number, ok := row[sourceIndex].Float()
		if !ok {
			missing, err := dataset.Missing(dataset.DataTypeText)
			if err != nil {
				return nil, err
			}
			return []dataset.Value{missing}, nil
		}

		return []dataset.Value{dataset.Text(buckets.Label(number))}, nil
	}

	return columns, compute, nil
}
