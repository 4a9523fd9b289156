//go:build gdal

package gdal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/airbusgeo/godal"

	geometa "github.com/tingold/orb-geometa"
)

// lonLatWGS84 keeps longitude first regardless of the EPSG axis order.
const lonLatWGS84 = "+proj=longlat +datum=WGS84 +no_defs"

// spatialRef builds an owned spatial reference from crs, preferring its WKT.
func spatialRef(crs *geometa.CRS) (*godal.SpatialRef, error) {
	switch {
	case crs == nil:
		return nil, fmt.Errorf("no crs")
	case crs.WKT != "":
		return godal.NewSpatialRefFromWKT(crs.WKT)
	case crs.EPSG() > 0:
		return godal.NewSpatialRefFromEPSG(crs.EPSG())
	default:
		return nil, fmt.Errorf("crs %s has neither WKT nor EPSG code", crs)
	}
}

func targetRef(epsg int) (*godal.SpatialRef, error) {
	if epsg == geometa.EPSGWGS84 {
		return godal.NewSpatialRefFromProj4(lonLatWGS84)
	}
	return godal.NewSpatialRefFromEPSG(epsg)
}

// Reproject transforms every point of r from the from CRS to EPSG:toEPSG.
func (e *Engine) Reproject(r geometa.Ring, from *geometa.CRS, toEPSG int) (geometa.Ring, error) {
	src, err := spatialRef(from)
	if err != nil {
		return nil, geometa.NewError(geometa.KindReprojection, "source srs", err)
	}
	defer src.Close()
	dst, err := targetRef(toEPSG)
	if err != nil {
		return nil, geometa.NewError(geometa.KindReprojection, fmt.Sprintf("target srs EPSG:%d", toEPSG), err)
	}
	defer dst.Close()

	trn, err := godal.NewTransform(src, dst)
	if err != nil {
		return nil, geometa.NewError(geometa.KindReprojection, "create transform", err)
	}
	defer trn.Close()

	if len(r) == 0 {
		return geometa.Ring{}, nil
	}
	xs := make([]float64, len(r))
	ys := make([]float64, len(r))
	for i, p := range r {
		xs[i], ys[i] = p[0], p[1]
	}
	if err := trn.TransformEx(xs, ys, nil, nil); err != nil {
		return nil, geometa.NewError(geometa.KindReprojection, "transform", err)
	}
	out := make(geometa.Ring, len(r))
	for i := range out {
		out[i] = geometa.Point2D{xs[i], ys[i]}
	}
	return out, nil
}

// IdentifyEPSG returns the EPSG code GDAL matches to crs, or 0 when none
// matches.
func (e *Engine) IdentifyEPSG(crs *geometa.CRS) (int, error) {
	if crs == nil || crs.WKT == "" {
		return crs.EPSG(), nil
	}
	sr, err := godal.NewSpatialRefFromWKT(crs.WKT)
	if err != nil {
		return 0, fmt.Errorf("parse wkt: %w", err)
	}
	defer sr.Close()

	_ = sr.AutoIdentifyEPSG()
	if !strings.EqualFold(sr.AuthorityName(""), "EPSG") {
		return 0, nil
	}
	code, err := strconv.Atoi(sr.AuthorityCode(""))
	if err != nil {
		return 0, nil
	}
	return code, nil
}
