package elasticsearch

import (
	"errors"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"hermannm.dev/wrap"
)

// requestError describes a failed request on the given index. Elasticsearch errors are flattened
// to their reason and type, with root causes listed only where they add to the top-level cause.
func requestError(err error, request string, index string) error {
	message := fmt.Sprintf("%s request failed for index '%s'", request, index)

	var elasticErr *types.ElasticsearchError
	if !errors.As(err, &elasticErr) {
		return wrap.Error(err, message)
	}

	cause := describeCause(elasticErr.ErrorCause)
	message = fmt.Sprintf("%s (status %d): %s", message, elasticErr.Status, cause)

	var rootCauses []error
	for _, rootCause := range elasticErr.ErrorCause.RootCause {
		if description := describeCause(rootCause); description != cause {
			rootCauses = append(rootCauses, errors.New(description))
		}
	}

	if len(rootCauses) == 0 {
		return errors.New(message)
	}
	return wrap.Errors(message, rootCauses...)
}

func describeCause(cause types.ErrorCause) string {
	if cause.Reason == nil {
		return cause.Type
	}
	return fmt.Sprintf("%s (%s)", *cause.Reason, cause.Type)
}

func isIndexNotFound(err error) bool {
	var elasticErr *types.ElasticsearchError
	return errors.As(err, &elasticErr) && elasticErr.ErrorCause.Type == elasticIndexNotFoundException
}
