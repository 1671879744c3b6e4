// Package clickhouse exports datasets to ClickHouse tables, one table per dataset.
package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/ClickHouse/clickhouse-go/v2/lib/proto"
	"github.com/google/uuid"
	"hermannm.dev/enumnames"
	"hermannm.dev/portfolio/dataset"
	"hermannm.dev/portfolio/export"
	"hermannm.dev/wrap"
)

type Config struct {
	Address  string
	Database string
	Username string
	Password string
	Debug    bool
}

// Exporter implements export.Exporter for ClickHouse.
type Exporter struct {
	conn driver.Conn
}

var _ export.Exporter = (*Exporter)(nil)

func New(config Config) (*Exporter, error) {
	// Options docs: https://clickhouse.com/docs/en/integrations/go#connection-settings
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{config.Address},
		Auth: clickhouse.Auth{
			Database: config.Database,
			Username: config.Username,
			Password: config.Password,
		},
		Debug: config.Debug,
		Debugf: func(format string, v ...any) {
			fmt.Printf(format+"\n", v...)
		},
		Compression: &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
	})
	if err != nil {
		return nil, wrap.Error(err, "failed to connect to ClickHouse")
	}

	return &Exporter{conn: conn}, nil
}

func (*Exporter) Name() string {
	return "ClickHouse"
}

func (exporter *Exporter) Close() error {
	return exporter.conn.Close()
}

// Export drops any previous copy of the table, recreates it from the table's schema, and inserts
// all rows in batches.
func (exporter *Exporter) Export(ctx context.Context, table dataset.Table) error {
	name := export.TableName(table.Schema())

	if _, err := exporter.dropTable(ctx, name); err != nil {
		return err
	}

	query, err := createTableQuery(name, table.Schema())
	if err != nil {
		return err
	}
	if err := exporter.conn.Exec(ctx, query); err != nil {
		return wrap.Errorf(err, "ClickHouse table creation query failed for table '%s'", name)
	}

	return exporter.insertRows(ctx, name, table)
}

func (exporter *Exporter) dropTable(ctx context.Context, table string) (alreadyDropped bool, err error) {
	if err := ValidateIdentifier(table); err != nil {
		return false, wrap.Error(err, "invalid table name")
	}

	var query QueryBuilder
	query.WriteString("DROP TABLE ")
	query.WriteIdentifier(table)

	// See https://github.com/ClickHouse/ClickHouse/blob/bd387f6d2c30f67f2822244c0648f2169adab4d3/src/Common/ErrorCodes.cpp#L66
	const clickhouseUnknownTableErrorCode = 60

	if err := exporter.conn.Exec(ctx, query.String()); err != nil {
		clickHouseErr, isClickHouseErr := err.(*proto.Exception)
		if isClickHouseErr && clickHouseErr.Code == clickhouseUnknownTableErrorCode {
			return true, nil
		}

		return false, wrap.Error(err, "ClickHouse table drop query failed")
	}

	return false, nil
}

var clickhouseDataTypes = enumnames.NewMap(map[dataset.DataType]string{
	dataset.DataTypeText:  "String",
	dataset.DataTypeInt:   "Int64",
	dataset.DataTypeFloat: "Float64",
	dataset.DataTypeDate:  "Date32",
})

func createTableQuery(table string, schema dataset.Schema) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", wrap.Error(err, "invalid table name")
	}

	var query QueryBuilder
	query.WriteString("CREATE TABLE ")
	query.WriteIdentifier(table)
	query.WriteString(" (`id` UUID")

	for _, column := range schema.Columns {
		if err := ValidateIdentifier(column.Name); err != nil {
			return "", wrap.Error(err, "invalid column name")
		}
		if column.Name == "id" {
			return "", fmt.Errorf("column name 'id' is reserved for generated row IDs")
		}

		dataType, ok := clickhouseDataTypes.GetName(column.DataType)
		if !ok {
			return "", fmt.Errorf("invalid data type '%v' in column '%s'", column.DataType, column.Name)
		}

		query.WriteString(", ")
		query.WriteIdentifier(column.Name)
		query.WriteByte(' ')
		query.WriteString(dataType)
		if column.Optional {
			query.WriteString(" NULL")
		}
	}

	query.WriteByte(')')
	query.WriteString(" ENGINE = MergeTree()")
	query.WriteString(" PRIMARY KEY (id)")

	return query.String(), nil
}

// ClickHouse recommends keeping batch inserts between 10,000 and 100,000 rows:
// https://clickhouse.com/docs/en/cloud/bestpractices/bulk-inserts
const BatchInsertSize = 10000

func (exporter *Exporter) insertRows(ctx context.Context, name string, table dataset.Table) error {
	var query QueryBuilder
	query.WriteString("INSERT INTO ")
	query.WriteIdentifier(name)
	queryString := query.String()

	for start := 0; start < table.Len(); start += BatchInsertSize {
		end := min(start+BatchInsertSize, table.Len())

		batch, err := exporter.conn.PrepareBatch(ctx, queryString)
		if err != nil {
			return wrap.Error(err, "failed to prepare batch data insert")
		}

		for rowIndex := start; rowIndex < end; rowIndex++ {
			if err := batch.Append(insertValues(table.Row(rowIndex))...); err != nil {
				return wrap.Errorf(err, "failed to add row %d to batch insert", rowIndex+1)
			}
		}

		if err := batch.Send(); err != nil {
			return wrap.Errorf(err, "failed to send batch insert of rows %d-%d", start+1, end)
		}
	}

	return nil
}

// Missing values are inserted as NULL, which the optional columns declared by createTableQuery
// accept.
func insertValues(row dataset.Row) []any {
	values := make([]any, 0, len(row)+1) // +1 for id field
	values = append(values, uuid.New())
	for _, value := range row {
		values = append(values, value.Raw())
	}
	return values
}
