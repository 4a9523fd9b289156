package fgb

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb"

	geometa "github.com/tingold/orb-geometa"
)

// Write writes records as a FlatGeobuf file.
func Write(w io.Writer, records []Record, opts *Options) error {
	if opts == nil {
		opts = DefaultOptions()
	}
	if len(records) == 0 {
		return ErrNilGeometry
	}

	geomType := flattypes.GeometryTypeUnknown
	for i, r := range records {
		if r.Geometry == nil {
			return fmt.Errorf("record %d: %w", i, ErrNilGeometry)
		}
		t := geometryType(r.Geometry)
		if i == 0 {
			geomType = t
		} else if t != geomType {
			geomType = flattypes.GeometryTypeUnknown
		}
	}

	props := make([][]byte, len(records))
	for i, r := range records {
		p, err := encodeProperties(opts.Columns, r.Values)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		props[i] = p
	}

	builder := flatbuffers.NewBuilder(4096)
	header := writer.NewHeader(builder)
	header.SetGeometryType(geomType)
	if opts.Name != "" {
		header.SetName(opts.Name)
	}
	if opts.Description != "" {
		header.SetDescription(opts.Description)
	}
	if len(opts.Columns) > 0 {
		header.SetColumns(buildColumns(opts.Columns, builder))
	}

	if opts.CRS != nil {
		crs := writer.NewCrs(builder)
		org := opts.CRS.Authority
		if org == "" {
			org = "EPSG"
		}
		crs.SetOrg(org)
		if opts.CRS.Code > 0 {
			crs.SetCode(int32(opts.CRS.Code))
		}
		if opts.CRS.WKT != "" {
			crs.SetDescription(opts.CRS.WKT)
		}
		header.SetCrs(crs)
	}

	gen := &recordGenerator{records: records, props: props}
	_, err := writer.NewWriter(header, opts.IncludeIndex, gen, nil).Write(w)
	return err
}

// recordGenerator feeds records to the FlatGeobuf writer.
type recordGenerator struct {
	records []Record
	props   [][]byte
	index   int
}

func (g *recordGenerator) Generate() *writer.Feature {
	for g.index < len(g.records) {
		r, props := g.records[g.index], g.props[g.index]
		g.index++

		builder := flatbuffers.NewBuilder(1024)
		geom := geometryToFGB(r.Geometry, builder)
		if geom == nil {
			continue
		}
		feature := writer.NewFeature(builder)
		feature.SetGeometry(geom)
		if len(props) > 0 {
			feature.SetProperties(props)
		}
		return feature
	}
	return nil
}

// ExtentWriter writes extent polygons as single-feature FlatGeobuf files.
type ExtentWriter struct {
	// LayerName defaults to the file's base name without extension.
	LayerName string
}

// WriteExtent implements geometa.ExtentWriter.
func (e ExtentWriter) WriteExtent(path string, ring geometa.Ring, id int, epsg int, wkt string) error {
	name := e.LayerName
	if name == "" {
		name = layerName(path)
	}
	opts := &Options{
		Name:         name,
		IncludeIndex: true,
		Columns:      []Column{{Name: "id", Type: flattypes.ColumnTypeInt}},
	}
	if epsg > 0 || wkt != "" {
		opts.CRS = &geometa.CRS{Code: epsg, WKT: wkt}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	err = Write(f, []Record{{Geometry: orb.Polygon{ring}, Values: []any{id}}}, opts)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func layerName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
