// Package project reprojects rings between Web Mercator and WGS84 in pure Go.
// Other coordinate systems need the gdal engine.
package project

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	geometa "github.com/tingold/orb-geometa"
)

// ErrUnsupported is returned for CRS pairs this package cannot transform.
var ErrUnsupported = errors.New("project: unsupported transformation")

// mercatorCodes are the EPSG and ESRI codes of spherical Web Mercator.
var mercatorCodes = map[int]bool{
	3857:   true,
	900913: true,
	3785:   true,
	102100: true,
	102113: true,
}

// IsMercator reports whether code names spherical Web Mercator.
func IsMercator(code int) bool {
	return mercatorCodes[code]
}

// Reprojector implements geometa.Reprojector for Web Mercator and WGS84.
type Reprojector struct{}

// Supports reports whether Reproject can move rings from crs to toEPSG.
func (Reprojector) Supports(from *geometa.CRS, toEPSG int) bool {
	_, err := projection(from.EPSG(), toEPSG)
	return err == nil
}

// Reproject transforms every point of r. The input is not modified.
func (Reprojector) Reproject(r geometa.Ring, from *geometa.CRS, toEPSG int) (geometa.Ring, error) {
	proj, err := projection(from.EPSG(), toEPSG)
	if err != nil {
		return nil, geometa.NewError(geometa.KindReprojection, "reproject "+from.String(), err)
	}
	out := make(geometa.Ring, len(r))
	for i, p := range r {
		out[i] = proj(p)
	}
	return out, nil
}

func projection(from, to int) (orb.Projection, error) {
	switch {
	case from == to && from != 0:
		return func(p orb.Point) orb.Point { return p }, nil
	case IsMercator(from) && to == geometa.EPSGWGS84:
		return project.Mercator.ToWGS84, nil
	case from == geometa.EPSGWGS84 && IsMercator(to):
		return project.WGS84.ToMercator, nil
	}
	return nil, fmt.Errorf("%w: EPSG:%d to EPSG:%d", ErrUnsupported, from, to)
}
