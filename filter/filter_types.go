package filter

import (
	"hermannm.dev/enumnames"
)

type FilterType uint8

const (
	FilterTypeInclude FilterType = iota + 1
	FilterTypeExclude
	FilterTypeRange
)

var filterTypeNames = enumnames.NewMap(map[FilterType]string{
	FilterTypeInclude: "INCLUDE",
	FilterTypeExclude: "EXCLUDE",
	FilterTypeRange:   "RANGE",
})

func (filterType FilterType) IsValid() bool {
	return filterTypeNames.ContainsEnumValue(filterType)
}

func (filterType FilterType) String() string {
	return filterTypeNames.GetNameOrFallback(filterType, "INVALID_FILTER_TYPE")
}

func (filterType FilterType) MarshalJSON() ([]byte, error) {
	return filterTypeNames.MarshalToNameJSON(filterType)
}

func (filterType *FilterType) UnmarshalJSON(bytes []byte) error {
	return filterTypeNames.UnmarshalFromNameJSON(bytes, filterType)
}
