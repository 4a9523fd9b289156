package fgb

import (
	"testing"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/paulmach/orb"
)

func TestMultiPolygon_RoundTrip(t *testing.T) {
	mp := orb.MultiPolygon{
		{{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}, {{1, 1}, {1, 2}, {2, 2}, {2, 1}, {1, 1}}},
		{{{10, 10}, {12, 10}, {12, 12}, {10, 10}}},
	}
	layer, err := OpenData(writeData(t, []Record{{Geometry: mp}}, nil))
	if err != nil {
		t.Fatalf("OpenData failed: %v", err)
	}
	if got := layer.GeometryType(); got != "Multi Polygon" {
		t.Errorf("GeometryType = %q, want Multi Polygon", got)
	}

	geoms, err := layer.Search(mp.Bound())
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(geoms) != 1 {
		t.Fatalf("expected 1 geometry, got %d", len(geoms))
	}
	got, ok := geoms[0].(orb.MultiPolygon)
	if !ok {
		t.Fatalf("expected MultiPolygon, got %T", geoms[0])
	}
	if !got.Equal(mp) {
		t.Errorf("got %v, want %v", got, mp)
	}
}

func TestPolygonWithHole_RoundTrip(t *testing.T) {
	poly := orb.Polygon{
		{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}},
		{{1, 1}, {1, 2}, {2, 2}, {2, 1}, {1, 1}},
	}
	layer, err := OpenData(writeData(t, []Record{{Geometry: poly}}, nil))
	if err != nil {
		t.Fatalf("OpenData failed: %v", err)
	}
	feats, err := layer.Features()
	if err != nil {
		t.Fatalf("Features failed: %v", err)
	}
	want := "POLYGON((0 0,4 0,4 4,0 4,0 0),(1 1,1 2,2 2,2 1,1 1))"
	if len(feats) != 1 || feats[0].Geometry != want {
		t.Errorf("Features = %+v, want %s", feats, want)
	}
}

func TestGeometryTypeName(t *testing.T) {
	tests := []struct {
		in   flattypes.GeometryType
		want string
	}{
		{flattypes.GeometryTypePoint, "Point"},
		{flattypes.GeometryTypeLineString, "Line String"},
		{flattypes.GeometryTypePolygon, "Polygon"},
		{flattypes.GeometryTypeMultiPoint, "Multi Point"},
		{flattypes.GeometryTypeMultiLineString, "Multi Line String"},
		{flattypes.GeometryTypeMultiPolygon, "Multi Polygon"},
		{flattypes.GeometryTypeGeometryCollection, "Geometry Collection"},
		{flattypes.GeometryTypeUnknown, "Unknown (any)"},
	}

	for _, tt := range tests {
		if got := geometryTypeName(tt.in); got != tt.want {
			t.Errorf("geometryTypeName(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGeometryType_Unsupported(t *testing.T) {
	if got := geometryType(orb.Collection{orb.Point{0, 0}}); got != flattypes.GeometryTypeUnknown {
		t.Errorf("expected Unknown for collections, got %d", got)
	}
}
