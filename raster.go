package geometa

import (
	"fmt"
	"io"
	"log/slog"
)

// ExtentID is the id attribute written on raster extent features.
const ExtentID = 1

// RasterOptions configures RasterExtent.
type RasterOptions struct {
	Identifier  CRSIdentifier
	Reprojector Reprojector
	Logger      *slog.Logger
}

// RasterExtentResult is the footprint of a raster.
type RasterExtentResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Native      Ring   `json:"native"`      // Georeferenced corners, native CRS
	Polygon     Ring   `json:"polygon"`     // Native, or EPSG:4326 when Reprojected
	CRS         *CRS   `json:"crs"`         // Native CRS, nil when the raster has none
	OutputEPSG  int    `json:"output_epsg"` // CRS of Polygon, 0 when unknown
	Reprojected bool   `json:"reprojected"`
	WKT         string `json:"wkt"`
}

// RasterExtent computes the footprint ring of r. The ring is reprojected to
// EPSG:4326 only when the raster CRS resolves to another EPSG code; an
// unresolved CRS leaves the ring in native coordinates.
func RasterExtent(r Raster, opts RasterOptions) (*RasterExtentResult, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	gt, err := r.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("geotransform: %w", err)
	}
	w, h := r.Size()
	native, err := RingFromCorners(gt.Corners(w, h))
	if err != nil {
		return nil, err
	}

	res := &RasterExtentResult{
		Width:   w,
		Height:  h,
		Native:  native,
		Polygon: cloneRing(native),
	}

	raw, err := r.CRS()
	if err != nil {
		return nil, fmt.Errorf("raster crs: %w", err)
	}
	crs, err := ResolveCRS(raw, opts.Identifier)
	switch {
	case err != nil:
		log.Warn("raster crs unresolved, extent kept in native coordinates", "err", err)
		res.CRS = raw
	case NeedsReprojection(crs):
		res.CRS = crs
		poly, err := ReprojectRing(opts.Reprojector, native, crs)
		if err != nil {
			return nil, err
		}
		res.Polygon = poly
		res.OutputEPSG = EPSGWGS84
		res.Reprojected = true
	default:
		res.CRS = crs
		res.OutputEPSG = crs.EPSG()
	}

	res.WKT = RingWKT(res.Polygon)
	return res, nil
}

// OutputWKT returns the CRS definition of the result's polygon, if known.
func (r *RasterExtentResult) OutputWKT() string {
	switch {
	case r.Reprojected:
		return WGS84WKT
	case r.CRS != nil:
		return r.CRS.WKT
	}
	return ""
}

// WriteRasterExtent writes res's polygon through w as a single feature with
// id 1, replacing any existing file at path.
func WriteRasterExtent(w ExtentWriter, path string, res *RasterExtentResult) error {
	if err := w.WriteExtent(path, res.Polygon, ExtentID, res.OutputEPSG, res.OutputWKT()); err != nil {
		return fmt.Errorf("write extent %s: %w", path, err)
	}
	return nil
}
