package csv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"

	"hermannm.dev/portfolio/dataset"
	"hermannm.dev/wrap"
)

const maxLinesToCheckForDelimiter = 20

type Reader struct {
	inner      *csv.Reader
	currentRow int
}

// NewReader deduces the field delimiter of the given CSV data, and returns a reader positioned at
// the header row.
func NewReader(data []byte) *Reader {
	// Strips UTF-8 byte order mark, which spreadsheet exports like to add
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	delimiter := DeduceFieldDelimiter(data, maxLinesToCheckForDelimiter, DefaultDelimitersToCheck)

	inner := csv.NewReader(bytes.NewReader(data))
	inner.Comma = delimiter
	inner.TrimLeadingSpace = delimiter != ' '
	inner.FieldsPerRecord = -1

	return &Reader{inner: inner}
}

func (reader *Reader) ReadRow() (row []string, rowNumber int, done bool, err error) {
	reader.currentRow++

	row, err = reader.inner.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, true, nil
		} else {
			return nil, reader.currentRow, false, err
		}
	}

	return row, reader.currentRow, false, nil
}

func (reader *Reader) ReadHeaderRow() (row []string, err error) {
	if reader.currentRow != 0 {
		return nil, errors.New("tried to read header row after reading previous rows")
	}

	row, _, done, err := reader.ReadRow()
	if done {
		return nil, errors.New("csv file ended before header row")
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

// ReadTable reads the header row and all data rows, converting them to the data types of the given
// schema. Header columns that are not part of the schema are skipped.
func (reader *Reader) ReadTable(schema dataset.Schema) (dataset.Table, error) {
	header, err := reader.ReadHeaderRow()
	if err != nil {
		return dataset.Table{}, wrap.Error(err, "failed to read CSV header row")
	}

	positions, err := schema.HeaderPositions(header)
	if err != nil {
		return dataset.Table{}, err
	}

	var rows []dataset.Row
	for {
		rawRow, rowNumber, done, err := reader.ReadRow()
		if done {
			break
		}
		if err != nil {
			return dataset.Table{}, wrap.Errorf(err, "failed to read CSV row %d", rowNumber)
		}
		if isBlank(rawRow) {
			continue
		}

		row, err := schema.ParseRow(rawRow, positions)
		if err != nil {
			return dataset.Table{}, wrap.Errorf(err, "failed to parse CSV row %d", rowNumber)
		}
		rows = append(rows, row)
	}

	return dataset.NewTable(schema, rows)
}

func isBlank(row []string) bool {
	for _, field := range row {
		if field != "" {
			return false
		}
	}
	return true
}
