// Package geo joins dataset rows onto county boundaries for choropleth maps.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"hermannm.dev/portfolio/dataset"
	"hermannm.dev/wrap"
)

// ParseFeatures decodes a GeoJSON feature collection, requiring every feature to have a geometry
// and a string property with the given key (used to join features with dataset rows).
func ParseFeatures(data []byte, keyProperty string) (*geojson.FeatureCollection, error) {
	features, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, wrap.Error(err, "failed to decode GeoJSON feature collection")
	}

	var errs []error
	for i, feature := range features.Features {
		if feature.Geometry == nil {
			errs = append(errs, fmt.Errorf("feature %d has no geometry", i))
		}
		if _, ok := feature.Properties[keyProperty].(string); !ok {
			errs = append(errs, fmt.Errorf("feature %d has no string property '%s'", i, keyProperty))
		}
	}
	if len(errs) > 0 {
		return nil, wrap.Errors("invalid GeoJSON features", errs...)
	}

	return features, nil
}

// Choropleth is a feature collection where each feature carries the value to colour it by, along
// with the range of those values for the colour scale.
type Choropleth struct {
	Field     string                     `json:"field"`
	Min       float64                    `json:"min"`
	Max       float64                    `json:"max"`
	Bounds    [4]float64                 `json:"bounds"`
	Features  *geojson.FeatureCollection `json:"features"`
	Unmatched []string                   `json:"unmatched,omitempty"`
}

// ValueProperty is the feature property holding the value of the choropleth field.
const ValueProperty = "value"

// NewChoropleth joins table rows onto features where the feature's key property equals the row's
// key column. Joined features get all numeric columns of the row as properties (for hover data),
// plus the field value under ValueProperty. The given collection is not modified.
func NewChoropleth(
	features *geojson.FeatureCollection,
	table dataset.Table,
	keyColumn string,
	field string,
) (Choropleth, error) {
	schema := table.Schema()

	keyIndex, ok := schema.ColumnIndex(keyColumn)
	if !ok {
		return Choropleth{}, fmt.Errorf("unrecognized key column '%s'", keyColumn)
	}
	fieldIndex, ok := schema.ColumnIndex(field)
	if !ok {
		return Choropleth{}, fmt.Errorf("unrecognized field '%s'", field)
	}
	if !schema.Columns[fieldIndex].DataType.IsNumeric() {
		return Choropleth{}, fmt.Errorf("field '%s' is not numeric", field)
	}

	rowsByKey := make(map[string]dataset.Row, table.Len())
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		rowsByKey[row[keyIndex].String()] = row
	}

	choropleth := Choropleth{
		Field:    field,
		Min:      math.Inf(1),
		Max:      math.Inf(-1),
		Features: geojson.NewFeatureCollection(),
	}
	var bound orb.Bound
	boundSet := false

	for _, feature := range features.Features {
		key, _ := feature.Properties[keyColumn].(string)
		row, ok := rowsByKey[key]
		if !ok {
			choropleth.Unmatched = append(choropleth.Unmatched, key)
			continue
		}

		joined := geojson.NewFeature(feature.Geometry)
		joined.ID = feature.ID
		joined.Properties = feature.Properties.Clone()
		for i, column := range schema.Columns {
			if value, ok := row[i].Float(); ok && column.DataType.IsNumeric() {
				joined.Properties[column.Name] = value
			}
		}

		value, ok := row[fieldIndex].Float()
		if ok {
			joined.Properties[ValueProperty] = value
			choropleth.Min = math.Min(choropleth.Min, value)
			choropleth.Max = math.Max(choropleth.Max, value)
		}

		if boundSet {
			bound = bound.Union(feature.Geometry.Bound())
		} else {
			bound = feature.Geometry.Bound()
			boundSet = true
		}

		choropleth.Features.Append(joined)
	}

	if len(choropleth.Features.Features) == 0 {
		return Choropleth{}, errors.New("no features matched any table rows")
	}
	if math.IsInf(choropleth.Min, 0) {
		choropleth.Min, choropleth.Max = 0, 0
	}
	choropleth.Bounds = [4]float64{bound.Min.Lon(), bound.Min.Lat(), bound.Max.Lon(), bound.Max.Lat()}

	return choropleth, nil
}
