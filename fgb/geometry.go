package fgb

import (
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb"
)

// geometryType returns the FlatGeobuf type written for geom.
func geometryType(geom orb.Geometry) flattypes.GeometryType {
	switch geom.(type) {
	case orb.Point:
		return flattypes.GeometryTypePoint
	case orb.MultiPoint:
		return flattypes.GeometryTypeMultiPoint
	case orb.LineString:
		return flattypes.GeometryTypeLineString
	case orb.Ring, orb.Polygon, orb.Bound:
		return flattypes.GeometryTypePolygon
	case orb.MultiPolygon:
		return flattypes.GeometryTypeMultiPolygon
	default:
		return flattypes.GeometryTypeUnknown
	}
}

// geometryToFGB converts geom to a writer geometry. It returns nil for types
// the writer does not support.
func geometryToFGB(geom orb.Geometry, builder *flatbuffers.Builder) *writer.Geometry {
	g := writer.NewGeometry(builder)
	g.SetType(geometryType(geom))

	switch v := geom.(type) {
	case orb.Point:
		g.SetXY([]float64{v[0], v[1]})
	case orb.MultiPoint:
		g.SetXY(flatten(v))
	case orb.LineString:
		g.SetXY(flatten(v))
	case orb.Ring:
		g.SetXY(flatten(v))
		g.SetEnds([]uint32{uint32(len(v))})
	case orb.Bound:
		xy, ends := polygonXYEnds(v.ToPolygon())
		g.SetXY(xy)
		g.SetEnds(ends)
	case orb.Polygon:
		xy, ends := polygonXYEnds(v)
		g.SetXY(xy)
		g.SetEnds(ends)
	case orb.MultiPolygon:
		parts := make([]writer.Geometry, 0, len(v))
		for _, poly := range v {
			part := writer.NewGeometry(builder)
			part.SetType(flattypes.GeometryTypePolygon)
			xy, ends := polygonXYEnds(poly)
			part.SetXY(xy)
			part.SetEnds(ends)
			parts = append(parts, *part)
		}
		g.SetParts(parts)
	default:
		return nil
	}
	return g
}

func flatten[P ~[]orb.Point](pts P) []float64 {
	xy := make([]float64, 0, len(pts)*2)
	for _, p := range pts {
		xy = append(xy, p[0], p[1])
	}
	return xy
}

func polygonXYEnds(poly orb.Polygon) ([]float64, []uint32) {
	var xy []float64
	ends := make([]uint32, 0, len(poly))
	for _, ring := range poly {
		xy = append(xy, flatten(ring)...)
		ends = append(ends, uint32(len(xy)/2))
	}
	return xy, ends
}

// geometryFromFGB decodes a feature geometry. Feature geometries of files
// with a single declared type usually leave their own type unset, so
// declared stands in for it.
func geometryFromFGB(g *flattypes.Geometry, declared flattypes.GeometryType) orb.Geometry {
	if g == nil {
		return nil
	}
	t := g.Type()
	if t == flattypes.GeometryTypeUnknown {
		t = declared
	}

	switch t {
	case flattypes.GeometryTypePoint:
		pts := pointsOf(g)
		if len(pts) == 0 {
			return nil
		}
		return pts[0]
	case flattypes.GeometryTypeMultiPoint:
		return orb.MultiPoint(pointsOf(g))
	case flattypes.GeometryTypeLineString:
		return orb.LineString(pointsOf(g))
	case flattypes.GeometryTypeMultiLineString:
		parts := splitEnds(g)
		mls := make(orb.MultiLineString, 0, len(parts))
		for _, p := range parts {
			mls = append(mls, orb.LineString(p))
		}
		return mls
	case flattypes.GeometryTypePolygon:
		return polygonOf(g)
	case flattypes.GeometryTypeMultiPolygon:
		if g.PartsLength() == 0 {
			return orb.MultiPolygon{polygonOf(g)}
		}
		mp := make(orb.MultiPolygon, 0, g.PartsLength())
		for i := 0; i < g.PartsLength(); i++ {
			var part flattypes.Geometry
			if g.Parts(&part, i) {
				mp = append(mp, polygonOf(&part))
			}
		}
		return mp
	case flattypes.GeometryTypeGeometryCollection:
		coll := make(orb.Collection, 0, g.PartsLength())
		for i := 0; i < g.PartsLength(); i++ {
			var part flattypes.Geometry
			if g.Parts(&part, i) {
				if child := geometryFromFGB(&part, flattypes.GeometryTypeUnknown); child != nil {
					coll = append(coll, child)
				}
			}
		}
		return coll
	default:
		return nil
	}
}

func pointsOf(g *flattypes.Geometry) []orb.Point {
	n := g.XyLength() / 2
	pts := make([]orb.Point, 0, n)
	for i := 0; i < n; i++ {
		pts = append(pts, orb.Point{g.Xy(2 * i), g.Xy(2*i + 1)})
	}
	return pts
}

// splitEnds cuts the coordinate array at the ends offsets. Without ends the
// whole array is one part.
func splitEnds(g *flattypes.Geometry) [][]orb.Point {
	pts := pointsOf(g)
	if g.EndsLength() == 0 {
		return [][]orb.Point{pts}
	}
	parts := make([][]orb.Point, 0, g.EndsLength())
	start := 0
	for i := 0; i < g.EndsLength(); i++ {
		end := int(g.Ends(i))
		if end > len(pts) || end < start {
			break
		}
		parts = append(parts, pts[start:end])
		start = end
	}
	return parts
}

func polygonOf(g *flattypes.Geometry) orb.Polygon {
	parts := splitEnds(g)
	poly := make(orb.Polygon, 0, len(parts))
	for _, p := range parts {
		poly = append(poly, orb.Ring(p))
	}
	return poly
}

// geometryTypeName maps FlatGeobuf geometry types to OGR type names.
func geometryTypeName(t flattypes.GeometryType) string {
	switch t {
	case flattypes.GeometryTypePoint:
		return "Point"
	case flattypes.GeometryTypeLineString:
		return "Line String"
	case flattypes.GeometryTypePolygon:
		return "Polygon"
	case flattypes.GeometryTypeMultiPoint:
		return "Multi Point"
	case flattypes.GeometryTypeMultiLineString:
		return "Multi Line String"
	case flattypes.GeometryTypeMultiPolygon:
		return "Multi Polygon"
	case flattypes.GeometryTypeGeometryCollection:
		return "Geometry Collection"
	default:
		return "Unknown (any)"
	}
}
