//go:build gdal

// Package gdal is the general-purpose engine backed by GDAL/OGR through
// godal. It opens any OGR vector source or PostgreSQL table, any GDAL
// raster, reprojects rings with OGR coordinate transformations and
// identifies EPSG codes with OSRAutoIdentifyEPSG.
package gdal

import (
	"context"
	"strings"
	"sync"

	"github.com/airbusgeo/godal"

	geometa "github.com/tingold/orb-geometa"
	"github.com/tingold/orb-geometa/postgis"
)

var registerOnce sync.Once

// Engine implements geometa.VectorOpener, geometa.RasterOpener,
// geometa.Reprojector and geometa.CRSIdentifier.
type Engine struct {
	// SSLMode is passed to libpq for connection sources, "prefer" when empty.
	SSLMode string
}

// New registers the GDAL drivers on first use and returns an engine.
func New() *Engine {
	registerOnce.Do(godal.RegisterAll)
	return &Engine{}
}

// ConnString renders conn as an OGR PostgreSQL datasource name restricted
// to the connection's table.
func (e *Engine) ConnString(conn geometa.Connection) string {
	sslmode := e.SSLMode
	if sslmode == "" {
		sslmode = "prefer"
	}
	return "PG:" + postgis.DSN(conn, postgis.Options{SSLMode: sslmode}) + " tables=" + conn.Table
}

// OpenVector opens src and returns its first layer.
func (e *Engine) OpenVector(ctx context.Context, src geometa.Source) (geometa.Layer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, geometa.NewError(geometa.KindSourceOpen, "open "+src.String(), err)
	}

	name := src.Path
	if src.Conn != nil {
		name = e.ConnString(*src.Conn)
	}
	ds, err := godal.Open(name, godal.VectorOnly())
	if err != nil {
		return nil, classify("open "+src.String(), err, src.Conn != nil)
	}

	layers := ds.Layers()
	if len(layers) == 0 {
		_ = ds.Close()
		if src.Conn != nil {
			return nil, geometa.Errorf(geometa.KindTableNotFound, "open "+src.String(), "table %q not found", src.Conn.Table)
		}
		return nil, geometa.Errorf(geometa.KindSourceOpen, "open "+src.String(), "no vector layers")
	}
	return &Layer{ds: ds, layer: layers[0]}, nil
}

// OpenRaster opens the raster at path.
func (e *Engine) OpenRaster(ctx context.Context, path string) (geometa.Raster, error) {
	if err := ctx.Err(); err != nil {
		return nil, geometa.NewError(geometa.KindSourceOpen, "open "+path, err)
	}
	ds, err := godal.Open(path, godal.RasterOnly())
	if err != nil {
		return nil, classify("open "+path, err, false)
	}
	return &Raster{ds: ds}, nil
}

// classify maps an OGR open failure to an error kind from its message, the
// only detail GDAL drivers report. Missing files also read "does not exist",
// so only database sources can be a missing table.
func classify(op string, err error, database bool) error {
	msg := strings.ToLower(err.Error())
	switch {
	case database && strings.Contains(msg, `database "`):
		return geometa.NewError(geometa.KindSourceOpen, op, err)
	case database && strings.Contains(msg, "permission denied"):
		return geometa.NewError(geometa.KindInsufficientPermission, op, err)
	case database && strings.Contains(msg, "does not exist"):
		return geometa.NewError(geometa.KindTableNotFound, op, err)
	default:
		return geometa.NewError(geometa.KindSourceOpen, op, err)
	}
}
