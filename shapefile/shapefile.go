// Package shapefile exposes ESRI Shapefiles as geometa layers and writes
// extent polygons as shapefiles.
package shapefile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"golang.org/x/text/encoding"

	geometa "github.com/tingold/orb-geometa"
)

// Common errors returned by this package.
var (
	ErrNotShapefile  = errors.New("shapefile: path must end in .shp")
	ErrUnknownColumn = errors.New("shapefile: unknown column")
)

// Layer is an open shapefile. It implements geometa.Layer and
// geometa.FeatureLister.
type Layer struct {
	path   string
	reader *shp.Reader
	fields []shp.Field
	crs    *geometa.CRS
	dec    *encoding.Decoder
}

// Open opens the shapefile at path together with its .dbf, and the .prj
// and .cpg sidecars when present.
func Open(path string) (*Layer, error) {
	if !strings.EqualFold(filepath.Ext(path), ".shp") {
		return nil, geometa.NewError(geometa.KindSourceOpen, "open "+path, ErrNotShapefile)
	}
	r, err := shp.Open(path)
	if err != nil {
		return nil, geometa.NewError(geometa.KindSourceOpen, "open "+path, err)
	}

	l := &Layer{path: path, reader: r, fields: r.Fields()}
	if l.crs, err = readPrj(sidecar(path, ".prj")); err != nil {
		_ = r.Close()
		return nil, geometa.NewError(geometa.KindSourceOpen, "read prj", err)
	}
	if l.dec, err = readCpg(sidecar(path, ".cpg")); err != nil {
		_ = r.Close()
		return nil, geometa.NewError(geometa.KindSourceOpen, "read cpg", err)
	}
	return l, nil
}

// sidecar returns the path of the companion file with extension ext,
// preferring a lower-case extension.
func sidecar(path, ext string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	for _, cand := range []string{base + ext, base + strings.ToUpper(ext)} {
		if _, err := os.Stat(cand); err == nil {
			return cand
		}
	}
	return base + ext
}

// readPrj returns the CRS held in a .prj file, nil when the file is absent
// or empty.
func readPrj(path string) (*geometa.CRS, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	wkt := geometa.FlattenWKT(strings.TrimSpace(strings.TrimPrefix(string(data), "\ufeff")))
	if wkt == "" {
		return nil, nil
	}
	return &geometa.CRS{WKT: wkt}, nil
}

// FeatureCount returns the number of DBF records.
func (l *Layer) FeatureCount() (int, error) {
	return l.reader.AttributeCount(), nil
}

// Extent returns the bounding box from the .shp header.
func (l *Layer) Extent() (geometa.BoundingBox, error) {
	b := l.reader.BBox()
	return geometa.BoundingBox{XMin: b.MinX, XMax: b.MaxX, YMin: b.MinY, YMax: b.MaxY}, nil
}

// CRS returns the .prj definition, nil when absent.
func (l *Layer) CRS() (*geometa.CRS, error) {
	if l.crs == nil {
		return nil, nil
	}
	c := *l.crs
	return &c, nil
}

// Fields describes the DBF columns.
func (l *Layer) Fields() ([]geometa.FieldDescriptor, error) {
	out := make([]geometa.FieldDescriptor, 0, len(l.fields))
	for _, f := range l.fields {
		out = append(out, geometa.FieldDescriptor{Name: l.decode(f.String()), Type: fieldType(f)})
	}
	return out, nil
}

// GeometryType returns the OGR name of the shape type.
func (l *Layer) GeometryType() string {
	return geometryTypeName(l.reader.GeometryType)
}

// Values returns the value of field for every record, in file order.
func (l *Layer) Values(field string) ([]string, error) {
	idx := l.fieldIndex(field)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, field)
	}
	n := l.reader.AttributeCount()
	out := make([]string, 0, n)
	for row := 0; row < n; row++ {
		out = append(out, l.attribute(l.reader.ReadAttribute(row, idx)))
	}
	return out, nil
}

// Features lists every shape with its attributes. Shapes are read through a
// second reader so the layer's own reader keeps its position.
func (l *Layer) Features() ([]geometa.Feature, error) {
	r, err := shp.Open(l.path)
	if err != nil {
		return nil, geometa.NewError(geometa.KindSourceOpen, "open "+l.path, err)
	}
	defer func() { _ = r.Close() }()

	var out []geometa.Feature
	for r.Next() {
		row, shape := r.Shape()
		attrs := make(map[string]string, len(l.fields))
		for i, f := range l.fields {
			attrs[l.decode(f.String())] = l.attribute(r.ReadAttribute(row, i))
		}
		out = append(out, geometa.Feature{Geometry: shapeWKT(shape), Attributes: attrs})
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read shapes: %w", err)
	}
	return out, nil
}

// Close closes the underlying files.
func (l *Layer) Close() error {
	if l.reader == nil {
		return nil
	}
	err := l.reader.Close()
	l.reader = nil
	return err
}

func (l *Layer) fieldIndex(name string) int {
	for i, f := range l.fields {
		if l.decode(f.String()) == name {
			return i
		}
	}
	return -1
}

func (l *Layer) attribute(raw string) string {
	return l.decode(strings.TrimRight(strings.TrimSpace(raw), "\x00"))
}

// fieldType maps a DBF column to its OGR field type name.
func fieldType(f shp.Field) string {
	switch f.Fieldtype {
	case 'N':
		if f.Precision > 0 {
			return geometa.FieldReal
		}
		if f.Size < 10 {
			return geometa.FieldInteger
		}
		if f.Size < 19 {
			return geometa.FieldInteger64
		}
		return geometa.FieldReal
	case 'F':
		return geometa.FieldReal
	case 'D':
		return geometa.FieldDate
	default:
		return geometa.FieldString
	}
}
