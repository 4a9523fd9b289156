package geometa

import (
	"errors"
	"math"
)

// closureTolerance is the relative distance under which the first and last
// points of a reprojected ring are considered the same point.
const closureTolerance = 1e-9

// ReprojectRing transforms r from crs into EPSG:4326 through rp. It is the
// identity when crs already is EPSG:4326. The output keeps the point count
// and order of r, and a closed input stays exactly closed.
func ReprojectRing(rp Reprojector, r Ring, crs *CRS) (Ring, error) {
	if !NeedsReprojection(crs) {
		return cloneRing(r), nil
	}
	if rp == nil {
		return nil, Errorf(KindReprojection, "reproject", "no reprojector for %s", crs)
	}

	out, err := rp.Reproject(cloneRing(r), crs, EPSGWGS84)
	if err != nil {
		var ge *Error
		if errors.As(err, &ge) && ge.Kind == KindReprojection {
			return nil, err
		}
		return nil, NewError(KindReprojection, "reproject "+crs.String(), err)
	}
	if len(out) != len(r) {
		return nil, Errorf(KindReprojection, "reproject "+crs.String(),
			"point count changed from %d to %d", len(r), len(out))
	}
	for _, p := range out {
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
			return nil, Errorf(KindReprojection, "reproject "+crs.String(), "non-finite point %v", p)
		}
	}

	if len(r) > 1 && r[0].Equal(r[len(r)-1]) {
		first, last := out[0], out[len(out)-1]
		if !nearlyEqual(first, last) {
			return nil, Errorf(KindReprojection, "reproject "+crs.String(),
				"ring no longer closed: %v != %v", first, last)
		}
		out[len(out)-1] = first
	}
	return out, nil
}

func nearlyEqual(a, b Point2D) bool {
	for i := 0; i < 2; i++ {
		scale := math.Max(1, math.Max(math.Abs(a[i]), math.Abs(b[i])))
		if math.Abs(a[i]-b[i]) > closureTolerance*scale {
			return false
		}
	}
	return true
}
