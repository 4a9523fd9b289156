//go:build gdal

package gdal

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/airbusgeo/godal"

	geometa "github.com/tingold/orb-geometa"
)

// Layer is the first layer of an OGR dataset. It implements geometa.Layer
// and geometa.FeatureLister.
type Layer struct {
	ds    *godal.Dataset
	layer godal.Layer
}

// FeatureCount asks the driver for the feature count.
func (l *Layer) FeatureCount() (int, error) {
	n, err := l.layer.FeatureCount()
	if err != nil {
		return 0, fmt.Errorf("feature count: %w", err)
	}
	return n, nil
}

// each calls fn for every feature from the start of the layer. The feature
// is released after fn returns.
func (l *Layer) each(fn func(f *godal.Feature) error) error {
	l.layer.ResetReading()
	defer l.layer.ResetReading()
	for {
		f := l.layer.NextFeature()
		if f == nil {
			return nil
		}
		err := fn(f)
		f.Close()
		if err != nil {
			return err
		}
	}
}

// Extent asks the driver for the layer envelope. A layer without features
// has the zero box.
func (l *Layer) Extent() (geometa.BoundingBox, error) {
	b, err := l.layer.Bounds()
	if err != nil {
		if n, cerr := l.layer.FeatureCount(); cerr == nil && n == 0 {
			return geometa.BoundingBox{}, nil
		}
		return geometa.BoundingBox{}, geometa.NewError(geometa.KindInvalidGeometry, "layer extent", err)
	}
	return geometa.BoundingBox{XMin: b[0], YMin: b[1], XMax: b[2], YMax: b[3]}, nil
}

// CRS exports the layer spatial reference, nil when the layer has none.
func (l *Layer) CRS() (*geometa.CRS, error) {
	return crsOf(l.layer.SpatialRef()), nil
}

// Fields describes the layer schema, sorted by name. The schema is read from
// a blank feature built on the layer definition, so empty layers report
// their columns too.
func (l *Layer) Fields() ([]geometa.FieldDescriptor, error) {
	blank, err := l.layer.NewFeature(nil)
	if err != nil {
		return nil, fmt.Errorf("layer definition: %w", err)
	}
	defer blank.Close()
	return describe(blank.Fields()), nil
}

func describe(fields map[string]godal.Field) []geometa.FieldDescriptor {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]geometa.FieldDescriptor, 0, len(names))
	for _, name := range names {
		out = append(out, geometa.FieldDescriptor{Name: name, Type: fieldType(fields[name].Type())})
	}
	return out
}

// GeometryType names the declared geometry type of the layer.
func (l *Layer) GeometryType() string {
	return geometryTypeName(l.layer.Type())
}

// Values returns field for every feature in reading order.
func (l *Layer) Values(field string) ([]string, error) {
	var out []string
	found := false
	err := l.each(func(f *godal.Feature) error {
		v, ok := f.Fields()[field]
		if ok {
			found = true
		}
		out = append(out, v.String())
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) > 0 && !found {
		return nil, fmt.Errorf("gdal: unknown field %q", field)
	}
	return out, nil
}

// Features lists every feature with its geometry as WKT.
func (l *Layer) Features() ([]geometa.Feature, error) {
	var out []geometa.Feature
	err := l.each(func(f *godal.Feature) error {
		feat := geometa.Feature{Attributes: map[string]string{}}
		for name, v := range f.Fields() {
			feat.Attributes[name] = v.String()
		}
		if g := f.Geometry(); g != nil && !g.Empty() {
			wkt, err := g.WKT()
			if err != nil {
				return fmt.Errorf("export geometry: %w", err)
			}
			feat.Geometry = wkt
		}
		out = append(out, feat)
		return nil
	})
	return out, err
}

// Close closes the dataset.
func (l *Layer) Close() error {
	if l.ds == nil {
		return nil
	}
	err := l.ds.Close()
	l.ds = nil
	return err
}

// crsOf exports sr, returning nil when it is empty or cannot be exported.
func crsOf(sr *godal.SpatialRef) *geometa.CRS {
	if sr == nil {
		return nil
	}
	wkt, err := sr.WKT()
	if err != nil || wkt == "" {
		return nil
	}
	crs := &geometa.CRS{WKT: wkt}
	if name := sr.AuthorityName(""); name != "" {
		if code, err := strconv.Atoi(sr.AuthorityCode("")); err == nil {
			crs.Authority, crs.Code = strings.ToUpper(name), code
		}
	}
	return crs
}

// fieldType maps OGR field types to their names.
func fieldType(t godal.FieldType) string {
	switch t {
	case godal.FTInt:
		return geometa.FieldInteger
	case godal.FTInt64:
		return geometa.FieldInteger64
	case godal.FTReal:
		return geometa.FieldReal
	case godal.FTDate:
		return geometa.FieldDate
	case godal.FTTime:
		return geometa.FieldTime
	case godal.FTDateTime:
		return geometa.FieldDateTime
	case godal.FTBinary:
		return geometa.FieldBinary
	case godal.FTIntList:
		return geometa.FieldIntegerList
	case godal.FTInt64List:
		return geometa.FieldInteger64List
	case godal.FTRealList:
		return geometa.FieldRealList
	case godal.FTStringList:
		return geometa.FieldStringList
	default:
		return geometa.FieldString
	}
}

var geometryTypeNames = map[godal.GeometryType]string{
	godal.GTNone:                  "None",
	godal.GTUnknown:               "Unknown (any)",
	godal.GTPoint:                 "Point",
	godal.GTPoint25D:              "3D Point",
	godal.GTLineString:            "Line String",
	godal.GTLineString25D:         "3D Line String",
	godal.GTPolygon:               "Polygon",
	godal.GTPolygon25D:            "3D Polygon",
	godal.GTMultiPoint:            "Multi Point",
	godal.GTMultiPoint25D:         "3D Multi Point",
	godal.GTMultiLineString:       "Multi Line String",
	godal.GTMultiLineString25D:    "3D Multi Line String",
	godal.GTMultiPolygon:          "Multi Polygon",
	godal.GTMultiPolygon25D:       "3D Multi Polygon",
	godal.GTGeometryCollection:    "Geometry Collection",
	godal.GTGeometryCollection25D: "3D Geometry Collection",
}

// geometryTypeName maps an OGR geometry type to its OGR name.
func geometryTypeName(t godal.GeometryType) string {
	if name, ok := geometryTypeNames[t]; ok {
		return name
	}
	return "Unknown (any)"
}
