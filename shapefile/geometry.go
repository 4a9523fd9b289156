package shapefile

import (
	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// geometryTypeName maps shape types to OGR geometry type names.
func geometryTypeName(t shp.ShapeType) string {
	switch t {
	case shp.POINT, shp.POINTM:
		return "Point"
	case shp.POINTZ:
		return "3D Point"
	case shp.POLYLINE, shp.POLYLINEM:
		return "Line String"
	case shp.POLYLINEZ:
		return "3D Line String"
	case shp.POLYGON, shp.POLYGONM:
		return "Polygon"
	case shp.POLYGONZ:
		return "3D Polygon"
	case shp.MULTIPOINT, shp.MULTIPOINTM:
		return "Multi Point"
	case shp.MULTIPOINTZ:
		return "3D Multi Point"
	case shp.MULTIPATCH:
		return "3D Multi Polygon"
	default:
		return "None"
	}
}

// shapeWKT renders shape as WKT, or "" for null and unsupported shapes.
func shapeWKT(shape shp.Shape) string {
	g := toOrb(shape)
	if g == nil {
		return ""
	}
	return wkt.MarshalString(g)
}

func toOrb(shape shp.Shape) orb.Geometry {
	switch s := shape.(type) {
	case *shp.Point:
		return orb.Point{s.X, s.Y}
	case *shp.PointZ:
		return orb.Point{s.X, s.Y}
	case *shp.PointM:
		return orb.Point{s.X, s.Y}
	case *shp.MultiPoint:
		return orb.MultiPoint(points(s.Points))
	case *shp.MultiPointZ:
		return orb.MultiPoint(points(s.Points))
	case *shp.PolyLine:
		return lines(s.Parts, s.Points)
	case *shp.PolyLineZ:
		return lines(s.Parts, s.Points)
	case *shp.Polygon:
		return polygons(s.Parts, s.Points)
	case *shp.PolygonZ:
		return polygons(s.Parts, s.Points)
	default:
		return nil
	}
}

func points(pts []shp.Point) []orb.Point {
	out := make([]orb.Point, len(pts))
	for i, p := range pts {
		out[i] = orb.Point{p.X, p.Y}
	}
	return out
}

// split cuts pts at the part start offsets.
func split(parts []int32, pts []shp.Point) [][]orb.Point {
	all := points(pts)
	out := make([][]orb.Point, 0, len(parts))
	for i, start := range parts {
		end := int32(len(all))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || end > int32(len(all)) || start > end {
			break
		}
		out = append(out, all[start:end])
	}
	return out
}

func lines(parts []int32, pts []shp.Point) orb.Geometry {
	segs := split(parts, pts)
	if len(segs) == 1 {
		return orb.LineString(segs[0])
	}
	mls := make(orb.MultiLineString, 0, len(segs))
	for _, p := range segs {
		mls = append(mls, orb.LineString(p))
	}
	return mls
}

// polygons groups rings into polygons: a clockwise ring starts a polygon and
// the counter-clockwise rings after it are its holes.
func polygons(parts []int32, pts []shp.Point) orb.Geometry {
	var mp orb.MultiPolygon
	for _, p := range split(parts, pts) {
		ring := orb.Ring(p)
		if ring.Orientation() == orb.CCW && len(mp) > 0 {
			last := len(mp) - 1
			mp[last] = append(mp[last], ring)
			continue
		}
		mp = append(mp, orb.Polygon{ring})
	}
	switch len(mp) {
	case 0:
		return nil
	case 1:
		return mp[0]
	default:
		return mp
	}
}

// shapePolygon converts ring to a single-part shapefile polygon with the
// clockwise winding shapefiles use for outer rings.
func shapePolygon(ring orb.Ring) *shp.Polygon {
	pts := make([]shp.Point, len(ring))
	for i, p := range ring {
		pts[i] = shp.Point{X: p[0], Y: p[1]}
	}
	if ring.Orientation() == orb.CCW {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{pts}))
	return &poly
}
