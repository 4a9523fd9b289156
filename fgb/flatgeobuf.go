// Package fgb exposes FlatGeobuf files as geometa layers and writes extent
// polygons in FlatGeobuf format.
package fgb

import (
	"errors"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/paulmach/orb"

	geometa "github.com/tingold/orb-geometa"
)

// Common errors returned by this package.
var (
	ErrNilGeometry    = errors.New("fgb: nil geometry")
	ErrInvalidData    = errors.New("fgb: invalid data")
	ErrNoIndex        = errors.New("fgb: file has no spatial index")
	ErrUnknownColumn  = errors.New("fgb: unknown column")
	ErrColumnMismatch = errors.New("fgb: record does not match columns")
)

// Column declares a property column for writing.
type Column struct {
	Name string
	Type flattypes.ColumnType
}

// Record is one feature to write. Values follow Options.Columns; a nil value
// is omitted from the feature.
type Record struct {
	Geometry orb.Geometry
	Values   []any
}

// Options configures FlatGeobuf writing.
type Options struct {
	Name         string       // Layer name
	Description  string       // Layer description
	IncludeIndex bool         // Include packed R-tree index
	CRS          *geometa.CRS // Coordinate reference system (optional)
	Columns      []Column     // Property schema
}

// DefaultOptions returns options that include a spatial index.
func DefaultOptions() *Options {
	return &Options{
		IncludeIndex: true,
	}
}

// ColumnInfo describes a property column of a FlatGeobuf file.
type ColumnInfo struct {
	Name        string               // Column name
	Type        flattypes.ColumnType // FlatGeobuf column type
	Title       string               // Human-readable title
	Description string               // Column description
	Nullable    bool                 // Whether the column can hold nulls
}

// Header contains metadata about a FlatGeobuf file.
type Header struct {
	Name          string                 // Layer name
	Description   string                 // Layer description
	GeometryType  flattypes.GeometryType // Declared geometry type
	FeaturesCount uint64                 // Number of features
	Envelope      [4]float64             // [minX, minY, maxX, maxY]
	HasEnvelope   bool                   // Whether Envelope was present
	CRS           *geometa.CRS           // nil when the file declares none
	HasIndex      bool                   // Whether the file has a spatial index
	Columns       []ColumnInfo           // Property schema
}
