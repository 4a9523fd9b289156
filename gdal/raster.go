//go:build gdal

package gdal

import (
	"github.com/airbusgeo/godal"

	geometa "github.com/tingold/orb-geometa"
)

// Raster is an open GDAL raster dataset. It implements geometa.Raster.
type Raster struct {
	ds *godal.Dataset
}

// GeoTransform returns the dataset's affine transform. Rasters without
// georeferencing fail with geometa.KindInvalidGeometry.
func (r *Raster) GeoTransform() (geometa.AffineTransform, error) {
	gt, err := r.ds.GeoTransform()
	if err != nil {
		return geometa.AffineTransform{}, geometa.NewError(geometa.KindInvalidGeometry, "geotransform", err)
	}
	return geometa.AffineTransform(gt), nil
}

// Size returns the raster dimensions in pixels.
func (r *Raster) Size() (width, height int) {
	st := r.ds.Structure()
	return st.SizeX, st.SizeY
}

// CRS returns the dataset projection, nil when it has none.
func (r *Raster) CRS() (*geometa.CRS, error) {
	wkt := r.ds.Projection()
	if wkt == "" {
		return nil, nil
	}
	sr, err := godal.NewSpatialRefFromWKT(wkt)
	if err != nil {
		return &geometa.CRS{WKT: wkt}, nil
	}
	defer sr.Close()
	crs := crsOf(sr)
	if crs == nil {
		return &geometa.CRS{WKT: wkt}, nil
	}
	crs.WKT = wkt
	return crs, nil
}

// Close closes the dataset.
func (r *Raster) Close() error {
	if r.ds == nil {
		return nil
	}
	err := r.ds.Close()
	r.ds = nil
	return err
}
