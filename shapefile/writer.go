package shapefile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	shp "github.com/jonas-p/go-shp"

	geometa "github.com/tingold/orb-geometa"
)

// ExtentWriter writes extent polygons as single-feature shapefiles with an
// integer "id" attribute. The CRS WKT goes to the .prj sidecar.
type ExtentWriter struct{}

// WriteExtent implements geometa.ExtentWriter. Shapefiles carry no EPSG
// code, so epsg is only used when wkt is empty and it names WGS 84.
func (ExtentWriter) WriteExtent(path string, ring geometa.Ring, id int, epsg int, wkt string) error {
	if !strings.EqualFold(filepath.Ext(path), ".shp") {
		return fmt.Errorf("write %s: %w", path, ErrNotShapefile)
	}
	if wkt == "" && epsg == geometa.EPSGWGS84 {
		wkt = geometa.WGS84WKT
	}

	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := w.SetFields([]shp.Field{shp.NumberField("id", 9)}); err != nil {
		w.Close()
		return fmt.Errorf("set fields: %w", err)
	}
	row := w.Write(shapePolygon(ring))
	if err := w.WriteAttribute(int(row), 0, id); err != nil {
		w.Close()
		return fmt.Errorf("write attribute: %w", err)
	}
	w.Close()

	base := strings.TrimSuffix(path, filepath.Ext(path))
	if err := os.WriteFile(base+".cpg", []byte("UTF-8"), 0o644); err != nil {
		return fmt.Errorf("write cpg: %w", err)
	}
	if wkt == "" {
		return nil
	}
	if err := os.WriteFile(base+".prj", []byte(wkt), 0o644); err != nil {
		return fmt.Errorf("write prj: %w", err)
	}
	return nil
}
