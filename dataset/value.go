package dataset

import (
	"cmp"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const DateLayout = "2006-01-02"

// Value is a single typed cell in a table. A value may be missing, in which case it still carries
// the data type of its column.
type Value interface {
	DataType() DataType
	Raw() any
	IsMissing() bool
	// Float returns the value as a float64, if it is a non-missing INTEGER or FLOAT.
	Float() (float64, bool)
	// String returns the canonical text form of the value, which is what categorical filters and
	// group keys compare on. Missing values return "".
	String() string
	Equals(other Value) bool
	Compare(other Value) (int, error)
}

type typedValue[T comparable] struct {
	dataType DataType
	value    T
	missing  bool
}

func Text(value string) Value {
	return &typedValue[string]{dataType: DataTypeText, value: value}
}

func Int(value int64) Value {
	return &typedValue[int64]{dataType: DataTypeInt, value: value}
}

func Float(value float64) Value {
	return &typedValue[float64]{dataType: DataTypeFloat, value: value}
}

// Date truncates the given time to a UTC calendar date.
func Date(value time.Time) Value {
	year, month, day := value.Date()
	return &typedValue[time.Time]{
		dataType: DataTypeDate,
		value:    time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
	}
}

func Missing(dataType DataType) (Value, error) {
	switch dataType {
	case DataTypeText:
		return &typedValue[string]{dataType: dataType, missing: true}, nil
	case DataTypeInt:
		return &typedValue[int64]{dataType: dataType, missing: true}, nil
	case DataTypeFloat:
		return &typedValue[float64]{dataType: dataType, missing: true}, nil
	case DataTypeDate:
		return &typedValue[time.Time]{dataType: dataType, missing: true}, nil
	default:
		return nil, fmt.Errorf("unrecognized data type %v", dataType)
	}
}

func (typedValue *typedValue[T]) DataType() DataType {
	return typedValue.dataType
}

func (typedValue *typedValue[T]) Raw() any {
	if typedValue.missing {
		return nil
	}
	return typedValue.value
}

func (typedValue *typedValue[T]) IsMissing() bool {
	return typedValue.missing
}

func (typedValue *typedValue[T]) Float() (float64, bool) {
	if typedValue.missing {
		return 0, false
	}

	switch value := any(typedValue.value).(type) {
	case int64:
		return float64(value), true
	case float64:
		return value, true
	default:
		return 0, false
	}
}

func (typedValue *typedValue[T]) String() string {
	if typedValue.missing {
		return ""
	}

	switch value := any(typedValue.value).(type) {
	case string:
		return value
	case int64:
		return strconv.FormatInt(value, 10)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case time.Time:
		return value.Format(DateLayout)
	default:
		return fmt.Sprint(value)
	}
}

func (typedValue *typedValue[T]) Equals(other Value) bool {
	if other == nil || other.DataType() != typedValue.dataType {
		return false
	}
	if typedValue.missing || other.IsMissing() {
		return typedValue.missing == other.IsMissing()
	}

	comparison, err := typedValue.Compare(other)
	return err == nil && comparison == 0
}

// Compare orders values of the same data type. Missing values sort before all others.
func (typedValue *typedValue[T]) Compare(other Value) (int, error) {
	if other == nil || other.DataType() != typedValue.dataType {
		return 0, fmt.Errorf("cannot compare %v value with value of different data type", typedValue.dataType)
	}

	switch {
	case typedValue.missing && other.IsMissing():
		return 0, nil
	case typedValue.missing:
		return -1, nil
	case other.IsMissing():
		return 1, nil
	}

	switch first := any(typedValue.value).(type) {
	case string:
		if second, ok := other.Raw().(string); ok {
			return cmp.Compare(first, second), nil
		}
	case int64:
		if second, ok := other.Raw().(int64); ok {
			return cmp.Compare(first, second), nil
		}
	case float64:
		if second, ok := other.Raw().(float64); ok {
			return cmp.Compare(first, second), nil
		}
	case time.Time:
		if second, ok := other.Raw().(time.Time); ok {
			return first.Compare(second), nil
		}
	}

	return 0, fmt.Errorf(
		"failed to compare value '%v' with '%v' as %v",
		typedValue.Raw(),
		other.Raw(),
		typedValue.dataType,
	)
}

func (typedValue typedValue[T]) MarshalJSON() ([]byte, error) {
	if typedValue.missing {
		return []byte("null"), nil
	}
	if date, ok := any(typedValue.value).(time.Time); ok {
		return json.Marshal(date.Format(DateLayout))
	}
	return json.Marshal(typedValue.value)
}
