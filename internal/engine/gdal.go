//go:build gdal

package engine

import "github.com/tingold/orb-geometa/gdal"

// GDALAvailable reports whether the binary was built with GDAL support.
const GDALAvailable = true

func newGDAL() Backend { return gdal.New() }
