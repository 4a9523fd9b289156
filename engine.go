package geometa

import (
	"context"
	"fmt"
	"strings"
)

// Source identifies a vector source: a filesystem path or a database table.
// Exactly one of Path and Conn is set.
type Source struct {
	Path string      `json:"path,omitempty"`
	Conn *Connection `json:"conn,omitempty"`
}

func (s Source) String() string {
	if s.Conn != nil {
		return s.Conn.String()
	}
	return s.Path
}

// Validate checks that exactly one of Path and Conn is set.
func (s Source) Validate() error {
	switch {
	case s.Path == "" && s.Conn == nil:
		return Errorf(KindSourceOpen, "source", "neither path nor connection given")
	case s.Path != "" && s.Conn != nil:
		return Errorf(KindSourceOpen, "source", "both path and connection given")
	case s.Conn != nil:
		return s.Conn.Validate()
	}
	return nil
}

// Connection describes a database-backed vector layer.
type Connection struct {
	Host     string `json:"host"`
	Port     int    `json:"port,omitempty"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password,omitempty"`
	Table    string `json:"table"`
}

// Validate requires host, database, user and table.
func (c *Connection) Validate() error {
	var missing []string
	if c.Host == "" {
		missing = append(missing, "host")
	}
	if c.Database == "" {
		missing = append(missing, "database")
	}
	if c.User == "" {
		missing = append(missing, "user")
	}
	if c.Table == "" {
		missing = append(missing, "table")
	}
	if len(missing) > 0 {
		return Errorf(KindSourceOpen, "connection", "missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// String renders the connection without its password.
func (c *Connection) String() string {
	port := c.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("postgres://%s@%s:%d/%s?table=%s", c.User, c.Host, port, c.Database, c.Table)
}

// FieldDescriptor describes one attribute column. Type uses OGR field type
// names.
type FieldDescriptor struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// OGR field type names shared by all engines.
const (
	FieldInteger       = "Integer"
	FieldInteger64     = "Integer64"
	FieldReal          = "Real"
	FieldString        = "String"
	FieldDate          = "Date"
	FieldTime          = "Time"
	FieldDateTime      = "DateTime"
	FieldBinary        = "Binary"
	FieldIntegerList   = "IntegerList"
	FieldInteger64List = "Integer64List"
	FieldRealList      = "RealList"
	FieldStringList    = "StringList"
)

// Layer is an open vector layer.
type Layer interface {
	FeatureCount() (int, error)
	// Extent returns the layer bounds in native CRS units.
	Extent() (BoundingBox, error)
	// CRS returns nil, nil when the layer has no spatial reference.
	CRS() (*CRS, error)
	Fields() ([]FieldDescriptor, error)
	GeometryType() string
	// Values returns field's value for every feature in iteration order.
	// Null values are returned as empty strings.
	Values(field string) ([]string, error)
	Close() error
}

// Feature is one vector feature rendered for display.
type Feature struct {
	Geometry   string            `json:"geometry"`
	Attributes map[string]string `json:"attributes"`
}

// FeatureLister is implemented by layers that can enumerate their features.
type FeatureLister interface {
	Features() ([]Feature, error)
}

// VectorOpener opens vector sources.
type VectorOpener interface {
	OpenVector(ctx context.Context, src Source) (Layer, error)
}

// Raster is an open georeferenced raster.
type Raster interface {
	GeoTransform() (AffineTransform, error)
	Size() (width, height int)
	// CRS returns nil, nil when the raster has no spatial reference.
	CRS() (*CRS, error)
	Close() error
}

// RasterOpener opens raster sources.
type RasterOpener interface {
	OpenRaster(ctx context.Context, path string) (Raster, error)
}

// Reprojector transforms a ring between coordinate reference systems. The
// result has the same point count and order as the input.
type Reprojector interface {
	Reproject(r Ring, from *CRS, toEPSG int) (Ring, error)
}

// ExtentWriter writes a single polygon feature with an integer "id"
// attribute, replacing any existing file at path. epsg and wkt describe the
// ring's CRS; either may be zero.
type ExtentWriter interface {
	WriteExtent(path string, ring Ring, id int, epsg int, wkt string) error
}

// Observer receives one call per finished extraction.
type Observer interface {
	ObserveExtraction(source string, err error, seconds float64)
}
