package postgis

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	geometa "github.com/tingold/orb-geometa"
)

const qualified = `"public"."indice"`

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// expectOpen queues the catalog probes NewLayer issues for a readable
// polygon table with an integer primary key.
func expectOpen(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(regexp.QuoteMeta(queryExists)).WithArgs(qualified).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta(queryPrivilege)).WithArgs(qualified).
		WillReturnRows(sqlmock.NewRows([]string{"allowed"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta(queryGeometry)).WithArgs("public", "indice").
		WillReturnRows(sqlmock.NewRows([]string{"f_geometry_column", "srid", "type"}).AddRow("geom", 4326, "MULTIPOLYGON"))
	mock.ExpectQuery(regexp.QuoteMeta(queryPrimaryKey)).WithArgs(qualified).
		WillReturnRows(sqlmock.NewRows([]string{"attname", "format_type"}).AddRow("gid", "integer"))
	mock.ExpectQuery(regexp.QuoteMeta(queryColumns)).WithArgs("public", "indice").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "udt_name"}).
			AddRow("gid", "integer", "int4").
			AddRow("nombre", "character varying", "varchar").
			AddRow("area", "double precision", "float8").
			AddRow("fecha", "date", "date").
			AddRow("geom", "USER-DEFINED", "geometry"))
}

func TestNewLayer_Metadata(t *testing.T) {
	db, mock := newMock(t)
	expectOpen(mock)

	layer, err := NewLayer(context.Background(), db, "indice")
	if err != nil {
		t.Fatalf("NewLayer failed: %v", err)
	}

	if got := layer.GeometryType(); got != "Multi Polygon" {
		t.Errorf("GeometryType = %q, want Multi Polygon", got)
	}
	fields, _ := layer.Fields()
	want := []geometa.FieldDescriptor{
		{Name: "nombre", Type: geometa.FieldString},
		{Name: "area", Type: geometa.FieldReal},
		{Name: "fecha", Type: geometa.FieldDate},
	}
	if len(fields) != len(want) {
		t.Fatalf("Fields = %+v, want %+v", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("field %d = %+v, want %+v", i, fields[i], want[i])
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestNewLayer_TableNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(queryExists)).WithArgs(`"gis"."missing"`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := NewLayer(context.Background(), db, "gis.missing")
	if !errors.Is(err, geometa.ErrTableNotFound) {
		t.Errorf("expected ErrTableNotFound, got %v", err)
	}
}

func TestNewLayer_InsufficientPermission(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(queryExists)).WithArgs(qualified).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta(queryPrivilege)).WithArgs(qualified).
		WillReturnRows(sqlmock.NewRows([]string{"allowed"}).AddRow(false))

	_, err := NewLayer(context.Background(), db, "indice")
	if !errors.Is(err, geometa.ErrInsufficientPermission) {
		t.Errorf("expected ErrInsufficientPermission, got %v", err)
	}
	if errors.Is(err, geometa.ErrTableNotFound) {
		t.Error("permission failure must not read as table not found")
	}
}

func TestNewLayer_DriverErrors(t *testing.T) {
	tests := []struct {
		name string
		code pq.ErrorCode
		want error
	}{
		{"undefined table", "42P01", geometa.ErrTableNotFound},
		{"insufficient privilege", "42501", geometa.ErrInsufficientPermission},
		{"bad password", "28P01", geometa.ErrSourceOpen},
		{"other", "XX000", geometa.ErrSourceOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			mock.ExpectQuery(regexp.QuoteMeta(queryExists)).
				WillReturnError(&pq.Error{Code: tt.code, Message: tt.name})

			_, err := NewLayer(context.Background(), db, "indice")
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLayer_CountExtentCRS(t *testing.T) {
	db, mock := newMock(t)
	expectOpen(mock)
	layer, err := NewLayer(context.Background(), db, "indice")
	if err != nil {
		t.Fatalf("NewLayer failed: %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM ` + qualified)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(`ST_Extent("geom")`)).
		WillReturnRows(sqlmock.NewRows([]string{"xmin", "xmax", "ymin", "ymax"}).AddRow(-99.5, -98.5, 19.0, 20.0))
	mock.ExpectQuery(regexp.QuoteMeta(querySRS)).WithArgs(4326).
		WillReturnRows(sqlmock.NewRows([]string{"auth_name", "auth_srid", "srtext"}).AddRow("EPSG", 4326, geometa.WGS84WKT))

	if n, err := layer.FeatureCount(); err != nil || n != 3 {
		t.Errorf("FeatureCount = %d, %v; want 3", n, err)
	}
	box, err := layer.Extent()
	if err != nil {
		t.Fatalf("Extent failed: %v", err)
	}
	if box != (geometa.BoundingBox{XMin: -99.5, XMax: -98.5, YMin: 19, YMax: 20}) {
		t.Errorf("unexpected extent %+v", box)
	}
	crs, err := layer.CRS()
	if err != nil {
		t.Fatalf("CRS failed: %v", err)
	}
	if crs.EPSG() != 4326 || crs.WKT != geometa.WGS84WKT {
		t.Errorf("unexpected CRS %+v", crs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestLayer_CRSWithoutCatalogRow(t *testing.T) {
	db, mock := newMock(t)
	expectOpen(mock)
	layer, err := NewLayer(context.Background(), db, "indice")
	if err != nil {
		t.Fatalf("NewLayer failed: %v", err)
	}
	mock.ExpectQuery(regexp.QuoteMeta(querySRS)).WithArgs(4326).
		WillReturnRows(sqlmock.NewRows([]string{"auth_name", "auth_srid", "srtext"}))

	crs, err := layer.CRS()
	if err != nil {
		t.Fatalf("CRS failed: %v", err)
	}
	if crs.EPSG() != 4326 || crs.WKT != "" {
		t.Errorf("unexpected CRS %+v", crs)
	}
}

func TestLayer_Values(t *testing.T) {
	db, mock := newMock(t)
	expectOpen(mock)
	layer, err := NewLayer(context.Background(), db, "indice")
	if err != nil {
		t.Fatalf("NewLayer failed: %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "nombre"::text FROM ` + qualified + ` ORDER BY "gid"`)).
		WillReturnRows(sqlmock.NewRows([]string{"nombre"}).AddRow("a.tif").AddRow(nil).AddRow("c.tif"))

	got, err := layer.Values("nombre")
	if err != nil {
		t.Fatalf("Values failed: %v", err)
	}
	want := []string{"a.tif", "", "c.tif"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Values = %q, want %q", got, want)
	}

	if _, err := layer.Values("gid"); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("expected ErrUnknownColumn for the key column, got %v", err)
	}
}

func TestLayer_NoGeometryColumn(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(queryExists)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta(queryPrivilege)).
		WillReturnRows(sqlmock.NewRows([]string{"allowed"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta(queryGeometry)).
		WillReturnRows(sqlmock.NewRows([]string{"f_geometry_column", "srid", "type"}))
	mock.ExpectQuery(regexp.QuoteMeta(queryPrimaryKey)).
		WillReturnRows(sqlmock.NewRows([]string{"attname", "format_type"}))
	mock.ExpectQuery(regexp.QuoteMeta(queryColumns)).
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "udt_name"}).AddRow("nombre", "text", "text"))

	layer, err := NewLayer(context.Background(), db, "indice")
	if err != nil {
		t.Fatalf("NewLayer failed: %v", err)
	}
	if got := layer.GeometryType(); got != "None" {
		t.Errorf("GeometryType = %q, want None", got)
	}
	if crs, _ := layer.CRS(); crs != nil {
		t.Errorf("expected nil CRS, got %+v", crs)
	}
	if _, err := layer.Extent(); !errors.Is(err, geometa.ErrInvalidGeometry) {
		t.Errorf("expected ErrInvalidGeometry, got %v", err)
	}
}

func TestBuildRecord_Index(t *testing.T) {
	db, mock := newMock(t)
	expectOpen(mock)
	layer, err := NewLayer(context.Background(), db, "indice")
	if err != nil {
		t.Fatalf("NewLayer failed: %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*)`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta(querySRS)).
		WillReturnRows(sqlmock.NewRows([]string{"auth_name", "auth_srid", "srtext"}).AddRow("EPSG", 4326, geometa.WGS84WKT))
	mock.ExpectQuery(regexp.QuoteMeta(`ST_Extent`)).
		WillReturnRows(sqlmock.NewRows([]string{"xmin", "xmax", "ymin", "ymax"}).AddRow(0.0, 1.0, 0.0, 1.0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "nombre"::text`)).
		WillReturnRows(sqlmock.NewRows([]string{"nombre"}).AddRow("a.tif").AddRow("b.tif"))

	rec, err := geometa.BuildRecord(layer, geometa.BuildOptions{Kind: geometa.Index})
	if err != nil {
		t.Fatalf("BuildRecord failed: %v", err)
	}
	if rec.FeatureCount != 2 || len(rec.Members) != 2 || rec.Members[1] != "b.tif" {
		t.Errorf("unexpected record %+v", rec)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDSN(t *testing.T) {
	conn := geometa.Connection{Host: "db.local", Database: "catastro", User: "lector", Password: "it's secret", Table: "indice"}
	got := DSN(conn, Options{ConnectTimeout: 5})
	want := `host=db.local port=5432 dbname=catastro user=lector sslmode=disable password='it\'s secret' connect_timeout=5`
	if got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}

func TestOpen_InvalidConnection(t *testing.T) {
	_, err := Open(context.Background(), geometa.Connection{Host: "db.local"}, Options{})
	if !errors.Is(err, geometa.ErrSourceOpen) {
		t.Errorf("expected ErrSourceOpen, got %v", err)
	}
}

func TestFieldType(t *testing.T) {
	tests := []struct {
		dataType, udt, want string
	}{
		{"integer", "int4", geometa.FieldInteger},
		{"boolean", "bool", geometa.FieldInteger},
		{"bigint", "int8", geometa.FieldInteger64},
		{"numeric", "numeric", geometa.FieldReal},
		{"timestamp with time zone", "timestamptz", geometa.FieldDateTime},
		{"time without time zone", "time", geometa.FieldTime},
		{"bytea", "bytea", geometa.FieldBinary},
		{"ARRAY", "_int4", geometa.FieldIntegerList},
		{"ARRAY", "_int8", geometa.FieldInteger64List},
		{"ARRAY", "_float8", geometa.FieldRealList},
		{"ARRAY", "_text", geometa.FieldStringList},
		{"text", "text", geometa.FieldString},
	}
	for _, tt := range tests {
		if got := fieldType(tt.dataType, tt.udt); got != tt.want {
			t.Errorf("fieldType(%q, %q) = %q, want %q", tt.dataType, tt.udt, got, tt.want)
		}
	}
}
