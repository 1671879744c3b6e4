package derive

import (
	"errors"
	"time"

	"hermannm.dev/portfolio/dataset"
)

const MonthLayout = "2006-01"

// DateParts derives a year-month label ("2023-01") and a weekday name ("Monday") from a DATE
// column. Either target column may be left blank to skip it.
type DateParts struct {
	Source        string
	MonthColumn   string
	WeekdayColumn string
}

func (rule DateParts) Name() string {
	return "date parts of " + rule.Source
}

func (rule DateParts) Prepare(
	table dataset.Table,
) ([]dataset.Column, func(dataset.Row) ([]dataset.Value, error), error) {
	if rule.MonthColumn == "" && rule.WeekdayColumn == "" {
		return nil, nil, errors.New("no target columns given")
	}

	sourceIndex, err := columnIndex(table.Schema(), rule.Source, dataset.DataTypeDate)
	if err != nil {
		return nil, nil, err
	}

	var columns []dataset.Column
	for _, name := range []string{rule.MonthColumn, rule.WeekdayColumn} {
		if name != "" {
			columns = append(columns, dataset.Column{Name: name, DataType: dataset.DataTypeText, Optional: true})
		}
	}

	compute := func(row dataset.Row) ([]dataset.Value, error) {
		values := make([]dataset.Value, 0, len(columns))

		date, ok := row[sourceIndex].Raw().(time.Time)
		if !ok {
			for range columns {
				missing, err := dataset.Missing(dataset.DataTypeText)
				if err != nil {
					return nil, err
				}
				values = append(values, missing)
			}
			return values, nil
		}

		if rule.MonthColumn != "" {
			values = append(values, dataset.Text(date.Format(MonthLayout)))
		}
		if rule.WeekdayColumn != "" {
			values = append(values, dataset.Text(date.Weekday().String()))
		}
		return values, nil
	}

	return columns, compute, nil
}
