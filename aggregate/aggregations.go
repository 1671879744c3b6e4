package aggregate

import (
	"hermannm.dev/enumnames"
)

type Aggregation uint8

const (
	AggregationSum Aggregation = iota + 1
	AggregationAverage
	AggregationMedian
	AggregationMin
	AggregationMax
	AggregationCount
	AggregationCardinality
	AggregationConstant
)

var aggregationMap = enumnames.NewMap(map[Aggregation]string{
	AggregationSum:         "SUM",
	AggregationAverage:     "AVERAGE",
	AggregationMedian:      "MEDIAN",
	AggregationMin:         "MIN",
	AggregationMax:         "MAX",
	AggregationCount:       "COUNT",
	AggregationCardinality: "CARDINALITY",
	AggregationConstant:    "CONSTANT",
})

func (aggregation Aggregation) IsValid() bool {
	return aggregationMap.ContainsEnumValue(aggregation)
}

func (aggregation Aggregation) String() string {
	return aggregationMap.GetNameOrFallback(aggregation, "INVALID_AGGREGATION")
}

func (aggregation Aggregation) MarshalJSON() ([]byte, error) {
	return aggregationMap.MarshalToNameJSON(aggregation)
}

func (aggregation *Aggregation) UnmarshalJSON(bytes []byte) error {
	return aggregationMap.UnmarshalFromNameJSON(bytes, aggregation)
}

// NeedsNumericColumn reports whether the aggregation only applies to INTEGER and FLOAT columns.
func (aggregation Aggregation) NeedsNumericColumn() bool {
	switch aggregation {
	case AggregationSum, AggregationAverage, AggregationMedian, AggregationMin, AggregationMax:
		return true
	default:
		return false
	}
}
