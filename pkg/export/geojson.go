// Package export renders wall strips as GeoJSON for external viewers.
//
// Plan coordinates map onto GeoJSON positions as [x, z]. Each strip becomes a
// LineString feature; openings become LineString features of their own that
// reference their wall by ID.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/JMS2088/gablok/pkg/plan"
)

// Feature kinds written to the "kind" property.
const (
	KindWall    = "wall"
	KindOpening = "opening"
)

// Options controls what goes into a collection.
type Options struct {
	// Levels restricts output to the listed levels. Empty means every level.
	Levels []int
	// Openings adds one feature per opening.
	Openings bool
}

func (o Options) wants(level int) bool {
	if len(o.Levels) == 0 {
		return true
	}
	for _, l := range o.Levels {
		if l == level {
			return true
		}
	}
	return false
}

// Strips builds a feature collection from the strips, preserving their order.
func Strips(strips []plan.WallStrip, opts Options) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, st := range strips {
		if !opts.wants(st.Level) {
			continue
		}
		fc.Append(wallFeature(st))
		if !opts.Openings {
			continue
		}
		for i, op := range st.Openings {
			fc.Append(openingFeature(st, i, op))
		}
	}
	return fc
}

func wallFeature(st plan.WallStrip) *geojson.Feature {
	f := geojson.NewFeature(orb.LineString{{st.X0, st.Z0}, {st.X1, st.Z1}})
	f.ID = st.ID
	f.Properties["kind"] = KindWall
	f.Properties["level"] = st.Level
	f.Properties["key"] = st.Key()
	f.Properties["source"] = st.Source.Kind.String()
	if st.Source.OwnerID != "" {
		f.Properties["owner"] = st.Source.OwnerID
	}
	f.Properties["thickness"] = st.Thickness
	f.Properties["height"] = st.Height
	f.Properties["base_y"] = st.BaseY
	f.Properties["length"] = st.Length()
	f.Properties["openings"] = len(st.Openings)
	return f
}

func openingFeature(st plan.WallStrip, i int, op plan.ResolvedOpening) *geojson.Feature {
	f := geojson.NewFeature(orb.LineString{{op.X0, op.Z0}, {op.X1, op.Z1}})
	f.ID = fmt.Sprintf("%s_opening_%d", st.ID, i)
	f.Properties["kind"] = KindOpening
	f.Properties["type"] = string(op.Type)
	f.Properties["wall"] = st.ID
	f.Properties["level"] = st.Level
	f.Properties["sill_m"] = op.SillM
	f.Properties["height_m"] = op.HeightM
	for k, v := range op.Meta {
		if _, taken := f.Properties[k]; !taken {
			f.Properties[k] = v
		}
	}
	return f
}

// ByLevel splits the strips into one collection per level.
func ByLevel(strips []plan.WallStrip, openings bool) map[int]*geojson.FeatureCollection {
	out := make(map[int]*geojson.FeatureCollection)
	for _, l := range levels(strips) {
		out[l] = Strips(strips, Options{Levels: []int{l}, Openings: openings})
	}
	return out
}

func levels(strips []plan.WallStrip) []int {
	seen := make(map[int]struct{})
	for _, st := range strips {
		seen[st.Level] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}

// Bound returns the XZ extent of a collection as an orb.Bound.
func Bound(fc *geojson.FeatureCollection) (orb.Bound, bool) {
	if fc == nil || len(fc.Features) == 0 {
		return orb.Bound{}, false
	}
	b := fc.Features[0].Geometry.Bound()
	for _, f := range fc.Features[1:] {
		b = b.Union(f.Geometry.Bound())
	}
	return b, true
}

// Write encodes the collection as indented JSON.
func Write(w io.Writer, fc *geojson.FeatureCollection) error {
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding geojson: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return fmt.Errorf("encoding geojson: %w", err)
	}
	buf.WriteByte('\n')
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("writing geojson: %w", err)
	}
	return nil
}
