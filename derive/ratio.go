package derive

import (
	"hermannm.dev/portfolio/dataset"
)

// Ratio derives Numerator / Denominator as a FLOAT column. Where the denominator is zero or
// missing, the ratio is undefined, and the derived value is missing rather than infinite.
type Ratio struct {
	Numerator   string
	Denominator string
	Target      string
}

func (rule Ratio) Name() string {
	return rule.Target
}

func (rule Ratio) Prepare(
	table dataset.Table,
) ([]dataset.Column, func(dataset.Row) ([]dataset.Value, error), error) {
	schema := table.Schema()

	numeratorIndex, err := columnIndex(schema, rule.Numerator, dataset.DataTypeInt, dataset.DataTypeFloat)
	if err != nil {
		return nil, nil, err
	}
	denominatorIndex, err := columnIndex(schema, rule.Denominator, dataset.DataTypeInt, dataset.DataTypeFloat)
	if err != nil {
		return nil, nil, err
	}

	columns := []dataset.Column{{Name: rule.Target, DataType: dataset.DataTypeFloat, Optional: true}}

	compute := func(row dataset.Row) ([]dataset.Value, error) {
		numerator, numeratorOK := row[numeratorIndex].Float()
		denominator, denominatorOK := row[denominatorIndex].Float()

		if !numeratorOK || !denominatorOK || denominator == 0 {
			missing, err := dataset.Missing(dataset.DataTypeFloat)
			if err != nil {
				return nil, err
			}
			return []dataset.Value{missing}, nil
		}

		return []dataset.Value{dataset.Float(numerator / denominator)}, nil
	}

	return columns, compute, nil
}
