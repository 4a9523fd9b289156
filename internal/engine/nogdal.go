//go:build !gdal

package engine

// GDALAvailable reports whether the binary was built with GDAL support.
const GDALAvailable = false

func newGDAL() Backend { return nil }
