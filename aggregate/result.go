package aggregate

import (
	"encoding/json"
	"strconv"

	"hermannm.dev/portfolio/apperror"
)

// Placeholder is shown in place of undefined metrics.
const Placeholder = "N/A"

// Result is a computed metric. A result is undefined when there was nothing to compute it from
// (e.g. the average of zero values), or when it is a ratio with an undefined divisor.
type Result struct {
	Value   float64
	Defined bool
}

func Defined(value float64) Result {
	return Result{Value: value, Defined: true}
}

func Undefined() Result {
	return Result{}
}

// Divide returns numerator / denominator, or a DIVISION_UNDEFINED error if the denominator is
// zero or undefined.
func Divide(numerator Result, denominator Result) (Result, error) {
	if !denominator.Defined || denominator.Value == 0 {
		return Undefined(), apperror.New(apperror.KindDivisionUndefined, "division by zero or undefined value")
	}
	if !numerator.Defined {
		return Undefined(), nil
	}
	return Defined(numerator.Value / denominator.Value), nil
}

// MarshalJSON encodes defined results as numbers, and undefined ones as the placeholder string.
func (result Result) MarshalJSON() ([]byte, error) {
	if !result.Defined {
		return json.Marshal(Placeholder)
	}
	return json.Marshal(result.Value)
}

func (result Result) String() string {
	if !result.Defined {
		return Placeholder
	}
	return strconv.FormatFloat(result.Value, 'f', -1, 64)
}
