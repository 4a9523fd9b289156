// Package engine routes sources to the package that reads them. FlatGeobuf,
// Shapefile, PostGIS and world-file rasters open in pure Go; everything
// else, and every reprojection outside Web Mercator, goes through GDAL when
// the binary is built with the gdal tag and GDAL is enabled.
package engine

import (
	"context"
	"path/filepath"
	"strings"

	geometa "github.com/tingold/orb-geometa"
	"github.com/tingold/orb-geometa/fgb"
	"github.com/tingold/orb-geometa/postgis"
	"github.com/tingold/orb-geometa/project"
	"github.com/tingold/orb-geometa/shapefile"
	"github.com/tingold/orb-geometa/worldfile"
)

// Engine implements geometa.VectorOpener, geometa.RasterOpener,
// geometa.Reprojector and geometa.CRSIdentifier.
type Engine struct {
	// GDAL handles what the pure-Go packages cannot. Nil disables it.
	GDAL     Backend
	Postgres postgis.Options
}

// Backend is the general-purpose engine GDAL provides.
type Backend interface {
	geometa.VectorOpener
	geometa.RasterOpener
	geometa.Reprojector
	geometa.CRSIdentifier
}

// New returns an engine, with GDAL drivers registered when withGDAL is set
// and the binary carries them (see GDALAvailable).
func New(withGDAL bool) *Engine {
	e := &Engine{}
	if withGDAL {
		e.GDAL = newGDAL()
	}
	return e
}

func (e *Engine) OpenVector(ctx context.Context, src geometa.Source) (geometa.Layer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, geometa.NewError(geometa.KindSourceOpen, "open "+src.String(), err)
	}
	if src.Conn != nil {
		l, err := postgis.Open(ctx, *src.Conn, e.Postgres)
		if err != nil {
			return nil, err
		}
		return l, nil
	}

	switch strings.ToLower(filepath.Ext(src.Path)) {
	case ".fgb":
		l, err := fgb.Open(src.Path)
		if err != nil {
			return nil, err
		}
		return l, nil
	case ".shp":
		l, err := shapefile.Open(src.Path)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	if e.GDAL == nil {
		return nil, geometa.Errorf(geometa.KindSourceOpen, "open "+src.Path, "unsupported format %q without GDAL", filepath.Ext(src.Path))
	}
	return e.GDAL.OpenVector(ctx, src)
}

// OpenRaster prefers a world file sidecar over GDAL.
func (e *Engine) OpenRaster(ctx context.Context, path string) (geometa.Raster, error) {
	if err := ctx.Err(); err != nil {
		return nil, geometa.NewError(geometa.KindSourceOpen, "open "+path, err)
	}
	if worldfile.Find(path) != "" || e.GDAL == nil {
		return worldfile.Opener{}.OpenRaster(ctx, path)
	}
	return e.GDAL.OpenRaster(ctx, path)
}

// Reproject uses the pure-Go Mercator transform when it applies.
func (e *Engine) Reproject(r geometa.Ring, from *geometa.CRS, toEPSG int) (geometa.Ring, error) {
	pr := project.Reprojector{}
	if pr.Supports(from, toEPSG) || e.GDAL == nil {
		return pr.Reproject(r, from, toEPSG)
	}
	return e.GDAL.Reproject(r, from, toEPSG)
}

// IdentifyEPSG needs GDAL; without it nothing is identified.
func (e *Engine) IdentifyEPSG(crs *geometa.CRS) (int, error) {
	if e.GDAL == nil {
		return 0, nil
	}
	return e.GDAL.IdentifyEPSG(crs)
}

// Extractor returns an extractor wired to e.
func (e *Engine) Extractor(opts ...func(*geometa.Extractor)) *geometa.Extractor {
	x := &geometa.Extractor{
		Vectors:     e,
		Rasters:     e,
		Identifier:  e,
		Reprojector: e,
	}
	for _, o := range opts {
		o(x)
	}
	return x
}

// ExtentWriterFor picks the writer for path's extension: .shp or .fgb.
func ExtentWriterFor(path string) (geometa.ExtentWriter, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return shapefile.ExtentWriter{}, nil
	case ".fgb":
		return fgb.ExtentWriter{}, nil
	}
	return nil, geometa.Errorf(geometa.KindSourceOpen, "write "+path, "extent output must be .shp or .fgb")
}
