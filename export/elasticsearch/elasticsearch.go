// Package elasticsearch exports datasets to Elasticsearch indices, one index per dataset.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/google/uuid"
	"hermannm.dev/portfolio/dataset"
	"hermannm.dev/portfolio/export"
	"hermannm.dev/wrap"
)

type Config struct {
	Address string
	Debug   bool
}

// Exporter implements export.Exporter for Elasticsearch. The typed client handles index
// management, while bulk indexing requires the untyped client.
type Exporter struct {
	client        *elasticsearch.TypedClient
	untypedClient *elasticsearch.Client
}

var _ export.Exporter = (*Exporter)(nil)

func New(config Config) (*Exporter, error) {
	clientConfig := elasticsearch.Config{
		Addresses:         []string{config.Address},
		EnableDebugLogger: config.Debug,
	}

	client, err := elasticsearch.NewTypedClient(clientConfig)
	if err != nil {
		return nil, wrap.Error(err, "failed to connect to Elasticsearch")
	}

	untypedClient, err := elasticsearch.NewClient(clientConfig)
	if err != nil {
		return nil, wrap.Error(err, "failed to connect to Elasticsearch")
	}

	return &Exporter{client: client, untypedClient: untypedClient}, nil
}

func (*Exporter) Name() string {
	return "Elasticsearch"
}

// Export deletes any previous index for the table, recreates it with mappings from the table's
// schema, and bulk indexes all rows.
func (exporter *Exporter) Export(ctx context.Context, table dataset.Table) error {
	index := export.TableName(table.Schema())

	if _, err := exporter.dropIndex(ctx, index); err != nil {
		return err
	}

	mappings, err := schemaToMappings(table.Schema())
	if err != nil {
		return wrap.Error(err, "failed to translate table schema to elastic mappings")
	}

	if _, err := exporter.client.Indices.Create(index).Mappings(mappings).Do(ctx); err != nil {
		return requestError(err, "create", index)
	}

	return exporter.indexRows(ctx, index, table)
}

const elasticIndexNotFoundException = "index_not_found_exception"

func (exporter *Exporter) dropIndex(ctx context.Context, index string) (alreadyDropped bool, err error) {
	if _, err := exporter.client.Indices.Delete(index).Do(ctx); err != nil {
		if isIndexNotFound(err) {
			return true, nil
		}

		return false, requestError(err, "delete", index)
	}

	return false, nil
}

func schemaToMappings(schema dataset.Schema) (*types.TypeMapping, error) {
	mappings := types.NewTypeMapping()
	mappings.Properties = make(map[string]types.Property, len(schema.Columns))

	for _, column := range schema.Columns {
		property, err := dataTypeToProperty(column.DataType)
		if err != nil {
			return nil, wrap.Errorf(
				err,
				"failed to convert data type to Elasticsearch property for column '%s'",
				column.Name,
			)
		}

		mappings.Properties[column.Name] = property
	}

	return mappings, nil
}

func dataTypeToProperty(dataType dataset.DataType) (types.Property, error) {
	switch dataType {
	case dataset.DataTypeText:
		return types.NewKeywordProperty(), nil
	case dataset.DataTypeInt:
		return types.NewLongNumberProperty(), nil
	case dataset.DataTypeFloat:
		return types.NewDoubleNumberProperty(), nil
	case dataset.DataTypeDate:
		property := types.NewDateProperty()
		format := "yyyy-MM-dd"
		property.Format = &format
		return property, nil
	default:
		return nil, fmt.Errorf("unrecognized data type '%v'", dataType)
	}
}

func (exporter *Exporter) indexRows(ctx context.Context, index string, table dataset.Table) error {
	records, err := table.Records()
	if err != nil {
		return wrap.Error(err, "failed to convert rows to documents")
	}

	bulk, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client: exporter.untypedClient,
		Index:  index,
	})
	if err != nil {
		return wrap.Error(err, "failed to prepare bulk data insert")
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	addErr := addDocuments(ctx, bulk, records, cancel)

	// The indexer's workers must be stopped even if a row failed and canceled ctx, so it is
	// closed with a context that ignores the cancellation
	closeErr := bulk.Close(context.WithoutCancel(ctx))

	if cause := context.Cause(ctx); cause != nil {
		return cause
	}
	if addErr != nil {
		return addErr
	}
	if closeErr != nil {
		return wrap.Error(closeErr, "failed to finish bulk insert")
	}
	if failed := bulk.Stats().NumFailed; failed > 0 {
		return fmt.Errorf("%d rows failed to be indexed", failed)
	}

	return nil
}

// addDocuments queues every record on the bulk indexer. A row that Elasticsearch rejects cancels
// ctx with the row's error as cause.
func addDocuments(
	ctx context.Context,
	bulk esutil.BulkIndexer,
	records []map[string]dataset.Value,
	cancel context.CancelCauseFunc,
) error {
	for i, record := range records {
		rowNumber := i + 1

		document, err := json.Marshal(record)
		if err != nil {
			return wrap.Errorf(
				err,
				"failed to encode row %d to JSON for sending to Elasticsearch",
				rowNumber,
			)
		}

		if err := bulk.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: uuid.NewString(),
			Body:       bytes.NewReader(document),
			OnFailure: func(
				ctx context.Context,
				item esutil.BulkIndexerItem,
				response esutil.BulkIndexerResponseItem,
				err error,
			) {
				if err == nil {
					err = fmt.Errorf("%s: %s", response.Error.Type, response.Error.Reason)
				}
				cancel(wrap.Errorf(err, "failed to index row %d", rowNumber))
			},
		}); err != nil {
			return wrap.Errorf(err, "failed to add row %d to bulk insert", rowNumber)
		}
	}

	return nil
}
