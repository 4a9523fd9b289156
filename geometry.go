package geometa

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// Point2D is an (x, y) pair whose meaning depends on context: pixel space or
// a named CRS.
type Point2D = orb.Point

// Ring is a closed boundary; the first point equals the last.
type Ring = orb.Ring

// AffineTransform maps pixel coordinates to georeferenced coordinates:
//
//	gx = c0 + c1*px + c2*py
//	gy = c3 + c4*px + c5*py
//
// It uses the GDAL geotransform layout.
type AffineTransform [6]float64

// Apply georeferences the pixel-space point (px, py).
func (t AffineTransform) Apply(px, py float64) Point2D {
	return Point2D{
		t[0] + t[1]*px + t[2]*py,
		t[3] + t[4]*px + t[5]*py,
	}
}

// Corners returns the georeferenced raster corners in the order top-left,
// bottom-left, bottom-right, top-right.
func (t AffineTransform) Corners(width, height int) []Point2D {
	w, h := float64(width), float64(height)
	return []Point2D{
		t.Apply(0, 0),
		t.Apply(0, h),
		t.Apply(w, h),
		t.Apply(w, 0),
	}
}

// BoundingBox is an extent in native CRS units.
type BoundingBox struct {
	XMin float64 `json:"xmin"`
	XMax float64 `json:"xmax"`
	YMin float64 `json:"ymin"`
	YMax float64 `json:"ymax"`
}

// Validate rejects NaN ordinates and inverted boxes. Degenerate boxes pass.
func (b BoundingBox) Validate() error {
	for _, v := range [4]float64{b.XMin, b.XMax, b.YMin, b.YMax} {
		if math.IsNaN(v) {
			return Errorf(KindInvalidGeometry, "bounds", "NaN ordinate in %v", b)
		}
	}
	if b.XMin > b.XMax || b.YMin > b.YMax {
		return Errorf(KindInvalidGeometry, "bounds", "inverted box %v", b)
	}
	return nil
}

// Bound converts b to an orb.Bound.
func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.XMin, b.YMin}, Max: orb.Point{b.XMax, b.YMax}}
}

// BoxFromBound converts an orb.Bound to a BoundingBox.
func BoxFromBound(b orb.Bound) BoundingBox {
	return BoundingBox{XMin: b.Min[0], XMax: b.Max[0], YMin: b.Min[1], YMax: b.Max[1]}
}

// BoundsOf returns the extent of r.
func BoundsOf(r Ring) BoundingBox {
	return BoxFromBound(r.Bound())
}

// RingFromCorners closes four corner points into a five point ring.
// The corners must be distinct.
func RingFromCorners(pts []Point2D) (Ring, error) {
	if len(pts) != 4 {
		return nil, Errorf(KindInvalidGeometry, "ring", "need 4 corners, got %d", len(pts))
	}
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			if pts[i].Equal(pts[j]) {
				return nil, Errorf(KindInvalidGeometry, "ring", "corners %d and %d coincide at %v", i, j, pts[i])
			}
		}
	}

	r := make(Ring, 0, 5)
	r = append(r, pts...)
	r = append(r, pts[0])
	return r, nil
}

// RingFromBounds returns the closed rectangle
// (xmin,ymin) (xmax,ymin) (xmax,ymax) (xmin,ymax) (xmin,ymin).
func RingFromBounds(b BoundingBox) Ring {
	return Ring{
		{b.XMin, b.YMin},
		{b.XMax, b.YMin},
		{b.XMax, b.YMax},
		{b.XMin, b.YMax},
		{b.XMin, b.YMin},
	}
}

// RingWKT renders r as a WKT polygon.
func RingWKT(r Ring) string {
	return wkt.MarshalString(orb.Polygon{r})
}

func cloneRing(r Ring) Ring {
	out := make(Ring, len(r))
	copy(out, r)
	return out
}
