package fgb

import (
	"fmt"
	"math"
	"strings"

	flatgeobuf "github.com/flatgeobuf/flatgeobuf/src/go"
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	geometa "github.com/tingold/orb-geometa"
)

// Layer is an open FlatGeobuf file. It implements geometa.Layer and
// geometa.FeatureLister.
type Layer struct {
	fgb    *flatgeobuf.FlatGeoBuf
	header *Header
}

// Open memory-maps the FlatGeobuf file at path.
func Open(path string) (*Layer, error) {
	f, err := flatgeobuf.New(path)
	if err != nil {
		return nil, geometa.NewError(geometa.KindSourceOpen, "open "+path, err)
	}
	return newLayer(f)
}

// OpenData reads a FlatGeobuf file held in memory.
func OpenData(data []byte) (*Layer, error) {
	f, err := flatgeobuf.NewWithData(data)
	if err != nil {
		return nil, geometa.NewError(geometa.KindSourceOpen, "open data", err)
	}
	return newLayer(f)
}

func newLayer(f *flatgeobuf.FlatGeoBuf) (*Layer, error) {
	h := f.Header()
	if h == nil {
		return nil, geometa.NewError(geometa.KindSourceOpen, "read header", ErrInvalidData)
	}
	return &Layer{fgb: f, header: readHeader(h)}, nil
}

func readHeader(h *flattypes.Header) *Header {
	header := &Header{
		Name:          string(h.Name()),
		Description:   string(h.Description()),
		GeometryType:  h.GeometryType(),
		FeaturesCount: h.FeaturesCount(),
		HasIndex:      h.IndexNodeSize() > 0,
	}

	if h.EnvelopeLength() >= 4 {
		header.Envelope = [4]float64{h.Envelope(0), h.Envelope(1), h.Envelope(2), h.Envelope(3)}
		header.HasEnvelope = true
	}

	var crs flattypes.Crs
	if h.Crs(&crs) != nil {
		header.CRS = readCRS(&crs)
	}

	for i := 0; i < h.ColumnsLength(); i++ {
		var col flattypes.Column
		if h.Columns(&col, i) {
			header.Columns = append(header.Columns, ColumnInfo{
				Name:        string(col.Name()),
				Type:        col.Type(),
				Title:       string(col.Title()),
				Description: string(col.Description()),
				Nullable:    col.Nullable(),
			})
		}
	}
	return header
}

// readCRS converts the header CRS. Writers without a WKT slot, this package
// included, keep the definition in the description.
func readCRS(c *flattypes.Crs) *geometa.CRS {
	out := &geometa.CRS{
		Authority: string(c.Org()),
		Code:      int(c.Code()),
		WKT:       string(c.Wkt()),
	}
	if out.WKT == "" && looksLikeWKT(string(c.Description())) {
		out.WKT = string(c.Description())
	}
	if out.Authority == "" && out.Code > 0 {
		out.Authority = "EPSG"
	}
	if out.Code == 0 && out.WKT == "" {
		return nil
	}
	return out
}

func looksLikeWKT(s string) bool {
	i := strings.IndexByte(s, '[')
	if i <= 0 {
		return false
	}
	return strings.ToUpper(s[:i]) == s[:i] && strings.HasSuffix(strings.TrimSpace(s), "]")
}

// Header returns the file metadata.
func (l *Layer) Header() *Header { return l.header }

// FeatureCount returns the feature count declared in the header.
func (l *Layer) FeatureCount() (int, error) {
	return int(l.header.FeaturesCount), nil
}

// Extent returns the header envelope, or the union of feature bounds when
// the header carries none.
func (l *Layer) Extent() (geometa.BoundingBox, error) {
	if l.header.HasEnvelope {
		e := l.header.Envelope
		return geometa.BoundingBox{XMin: e[0], XMax: e[2], YMin: e[1], YMax: e[3]}, nil
	}

	feats, err := l.features()
	if err != nil {
		return geometa.BoundingBox{}, err
	}
	geoms := make([]orb.Geometry, 0, len(feats))
	for _, f := range feats {
		if g := geometryFromFGB(f.Geometry(new(flattypes.Geometry)), l.header.GeometryType); g != nil {
			geoms = append(geoms, g)
		}
	}
	return extentOf(len(feats), geoms)
}

// extentOf unions the bounds of geoms. A layer without features has the
// zero box; features that all lack geometry have no extent.
func extentOf(features int, geoms []orb.Geometry) (geometa.BoundingBox, error) {
	if len(geoms) == 0 {
		if features == 0 {
			return geometa.BoundingBox{}, nil
		}
		return geometa.BoundingBox{}, geometa.Errorf(geometa.KindInvalidGeometry, "extent",
			"none of %d features has a geometry", features)
	}
	bound := geoms[0].Bound()
	for _, g := range geoms[1:] {
		bound = bound.Union(g.Bound())
	}
	return geometa.BoxFromBound(bound), nil
}

// CRS returns the header CRS, nil when absent.
func (l *Layer) CRS() (*geometa.CRS, error) {
	if l.header.CRS == nil {
		return nil, nil
	}
	c := *l.header.CRS
	return &c, nil
}

// Fields describes the property columns.
func (l *Layer) Fields() ([]geometa.FieldDescriptor, error) {
	out := make([]geometa.FieldDescriptor, 0, len(l.header.Columns))
	for _, c := range l.header.Columns {
		out = append(out, geometa.FieldDescriptor{Name: c.Name, Type: fieldType(c.Type)})
	}
	return out, nil
}

// GeometryType returns the OGR name of the declared geometry type.
func (l *Layer) GeometryType() string {
	return geometryTypeName(l.header.GeometryType)
}

// Values returns the value of field for every feature, in file order.
func (l *Layer) Values(field string) ([]string, error) {
	known := false
	for _, c := range l.header.Columns {
		if c.Name == field {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, field)
	}

	feats, err := l.features()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(feats))
	for _, f := range feats {
		out = append(out, l.properties(f)[field])
	}
	return out, nil
}

// Features lists every feature with its geometry as WKT.
func (l *Layer) Features() ([]geometa.Feature, error) {
	feats, err := l.features()
	if err != nil {
		return nil, err
	}
	out := make([]geometa.Feature, 0, len(feats))
	for _, f := range feats {
		var s string
		if g := geometryFromFGB(f.Geometry(new(flattypes.Geometry)), l.header.GeometryType); g != nil {
			s = wkt.MarshalString(g)
		}
		out = append(out, geometa.Feature{Geometry: s, Attributes: l.properties(f)})
	}
	return out, nil
}

// Search returns the geometries whose bounding boxes intersect bounds.
func (l *Layer) Search(bounds orb.Bound) ([]orb.Geometry, error) {
	if !l.header.HasIndex {
		return nil, ErrNoIndex
	}
	feats, err := l.fgb.Search(bounds.Min[0], bounds.Min[1], bounds.Max[0], bounds.Max[1])
	if err != nil {
		return nil, err
	}
	out := make([]orb.Geometry, 0, len(feats))
	for _, f := range feats {
		if g := geometryFromFGB(f.Geometry(new(flattypes.Geometry)), l.header.GeometryType); g != nil {
			out = append(out, g)
		}
	}
	return out, nil
}

// Close releases the reader. The mapping is reclaimed by the finalizer of
// the underlying reader.
func (l *Layer) Close() error {
	l.fgb = nil
	return nil
}

// features reads every feature through the packed R-tree, searching the
// header envelope or the whole plane.
func (l *Layer) features() ([]*flattypes.Feature, error) {
	if l.fgb == nil {
		return nil, fmt.Errorf("%w: layer closed", ErrInvalidData)
	}
	if l.header.FeaturesCount == 0 {
		return nil, nil
	}
	if !l.header.HasIndex {
		return nil, ErrNoIndex
	}

	minX, minY, maxX, maxY := -math.MaxFloat64, -math.MaxFloat64, math.MaxFloat64, math.MaxFloat64
	if l.header.HasEnvelope {
		e := l.header.Envelope
		minX, minY, maxX, maxY = e[0], e[1], e[2], e[3]
	}
	feats, err := l.fgb.Search(minX, minY, maxX, maxY)
	if err != nil {
		return nil, fmt.Errorf("search features: %w", err)
	}
	return feats, nil
}

func (l *Layer) properties(f *flattypes.Feature) map[string]string {
	n := f.PropertiesLength()
	if n == 0 || len(l.header.Columns) == 0 {
		return map[string]string{}
	}
	data := make([]byte, n)
	for i := 0; i < n; i++ {
		data[i] = byte(f.Properties(i))
	}
	return decodeProperties(data, l.header.Columns)
}
