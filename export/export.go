// Package export mirrors loaded datasets into external analytics stores, so they can be queried
// outside the dashboards.
package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hermannm.dev/devlog/log"
	"hermannm.dev/portfolio/dataset"
)

// Exporter replaces the stored copy of a table with the given table's current contents.
type Exporter interface {
	Name() string
	Export(ctx context.Context, table dataset.Table) error
}

// TableName returns the name a dataset is stored under: its schema name, lowercased, with
// characters other than letters, digits and underscores replaced by underscores.
func TableName(schema dataset.Schema) string {
	var builder strings.Builder
	for _, char := range strings.ToLower(schema.Name) {
		if (char >= 'a' && char <= 'z') || (char >= '0' && char <= '9') || char == '_' {
			builder.WriteRune(char)
		} else {
			builder.WriteRune('_')
		}
	}
	return builder.String()
}

// All runs every exporter on every table. Failures are logged and do not stop the remaining
// exports; the number of failed exports is returned.
func All(ctx context.Context, exporters []Exporter, tables ...dataset.Table) (failed int) {
	for _, exporter := range exporters {
		for _, table := range tables {
			start := time.Now()

			if err := exporter.Export(ctx, table); err != nil {
				log.ErrorCause(
					err,
					fmt.Sprintf("failed to export dataset '%s' to %s", table.Schema().Name, exporter.Name()),
				)
				failed++
				continue
			}

			log.Infof(
				"exported dataset '%s' to %s (%d rows, %v)",
				table.Schema().Name,
				exporter.Name(),
				table.Len(),
				time.Since(start),
			)
		}
	}
	return failed
}
