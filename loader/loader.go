// Package loader reads datasets from storage once per process, and serves the cached, read-only
// tables to every later caller.
package loader

import (
	"context"
	"io/fs"
	"sync"

	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/singleflight"
	"hermannm.dev/devlog/log"
	"hermannm.dev/portfolio/apperror"
	"hermannm.dev/portfolio/csv"
	"hermannm.dev/portfolio/dataset"
	"hermannm.dev/portfolio/geo"
	"hermannm.dev/wrap"
)

// Source identifies a tabular dataset. Path is the cache key: loading two sources with the same
// path returns the table cached for the first.
type Source struct {
	Name   string
	Path   string
	Schema dataset.Schema
}

// Cache memoizes loaded datasets by path. There is no invalidation; source files are static for
// the lifetime of the process.
type Cache struct {
	files fs.FS

	lock     sync.RWMutex
	tables   map[string]dataset.Table
	features map[string]*geojson.FeatureCollection

	inFlight singleflight.Group
}

func NewCache(files fs.FS) *Cache {
	return &Cache{
		files:    files,
		tables:   make(map[string]dataset.Table),
		features: make(map[string]*geojson.FeatureCollection),
	}
}

// Load returns the table for the given source, reading and parsing it on first use. Failures are
// DATA_UNAVAILABLE errors, and are not cached.
func (cache *Cache) Load(ctx context.Context, source Source) (dataset.Table, error) {
	cache.lock.RLock()
	table, ok := cache.tables[source.Path]
	cache.lock.RUnlock()
	if ok {
		return table, nil
	}

	result, err, _ := cache.inFlight.Do("table:"+source.Path, func() (any, error) {
		// Another call may have finished loading while we waited for the lock
		cache.lock.RLock()
		table, ok := cache.tables[source.Path]
		cache.lock.RUnlock()
		if ok {
			return table, nil
		}

		table, err := cache.readTable(ctx, source)
		if err != nil {
			return nil, err
		}

		cache.lock.Lock()
		cache.tables[source.Path] = table
		cache.lock.Unlock()

		log.Infof("loaded dataset '%s' from %s (%d rows)", source.Name, source.Path, table.Len())
		return table, nil
	})
	if err != nil {
		return dataset.Table{}, apperror.DataUnavailable(
			err,
			"dataset '"+source.Name+"' is unavailable",
		)
	}

	return result.(dataset.Table), nil
}

func (cache *Cache) readTable(ctx context.Context, source Source) (dataset.Table, error) {
	if err := ctx.Err(); err != nil {
		return dataset.Table{}, err
	}

	data, err := fs.ReadFile(cache.files, source.Path)
	if err != nil {
		return dataset.Table{}, wrap.Errorf(err, "failed to read dataset file '%s'", source.Path)
	}

	table, err := csv.NewReader(data).ReadTable(source.Schema)
	if err != nil {
		return dataset.Table{}, wrap.Errorf(err, "failed to parse dataset file '%s'", source.Path)
	}

	return table, nil
}

// LoadFeatures returns the GeoJSON feature collection at the given path, reading it on first use.
// Every feature must have a string property with the given key.
func (cache *Cache) LoadFeatures(
	ctx context.Context,
	path string,
	keyProperty string,
) (*geojson.FeatureCollection, error) {
	cache.lock.RLock()
	features, ok := cache.features[path]
	cache.lock.RUnlock()
	if ok {
		return features, nil
	}

	result, err, _ := cache.inFlight.Do("features:"+path, func() (any, error) {
		cache.lock.RLock()
		features, ok := cache.features[path]
		cache.lock.RUnlock()
		if ok {
			return features, nil
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := fs.ReadFile(cache.files, path)
		if err != nil {
			return nil, wrap.Errorf(err, "failed to read geometry file '%s'", path)
		}

		features, err = geo.ParseFeatures(data, keyProperty)
		if err != nil {
			return nil, wrap.Errorf(err, "failed to parse geometry file '%s'", path)
		}

		cache.lock.Lock()
		cache.features[path] = features
		cache.lock.Unlock()

		log.Infof("loaded %d features from %s", len(features.Features), path)
		return features, nil
	})
	if err != nil {
		return nil, apperror.DataUnavailable(err, "map geometry is unavailable")
	}

	return result.(*geojson.FeatureCollection), nil
}
