package postgis

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	geometa "github.com/tingold/orb-geometa"
)

const (
	queryExists    = `SELECT to_regclass($1) IS NOT NULL`
	queryPrivilege = `SELECT has_table_privilege($1, 'SELECT')`
	queryGeometry  = `SELECT f_geometry_column, srid, type FROM geometry_columns ` +
		`WHERE f_table_schema = $1 AND f_table_name = $2 ORDER BY f_geometry_column LIMIT 1`
	queryPrimaryKey = `SELECT a.attname, format_type(a.atttypid, a.atttypmod) FROM pg_index i ` +
		`JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey) ` +
		`WHERE i.indrelid = $1::regclass AND i.indisprimary`
	queryColumns = `SELECT column_name, data_type, udt_name FROM information_schema.columns ` +
		`WHERE table_schema = $1 AND table_name = $2 ORDER BY ordinal_position`
	querySRS = `SELECT auth_name, auth_srid, srtext FROM spatial_ref_sys WHERE srid = $1`
)

// Layer is one PostGIS table. It implements geometa.Layer.
type Layer struct {
	// ctx bounds every query of the layer; Layer methods take no context.
	ctx    context.Context
	db     *sql.DB
	ownsDB bool

	schema, table string
	qualified     string
	geomColumn    string
	srid          int
	geomType      string
	pk            string
	columns       []column
}

type column struct {
	name, dataType, udtName string
}

// NewLayer opens table on db. The table name may be schema-qualified.
// It fails with geometa.KindTableNotFound when the relation does not exist
// and geometa.KindInsufficientPermission when it cannot be read.
func NewLayer(ctx context.Context, db *sql.DB, table string) (*Layer, error) {
	schema, name := splitTable(table)
	l := &Layer{
		ctx:       ctx,
		db:        db,
		schema:    schema,
		table:     name,
		qualified: pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(name),
	}

	var exists bool
	if err := db.QueryRowContext(ctx, queryExists, l.qualified).Scan(&exists); err != nil {
		return nil, classify("probe "+table, err, geometa.KindSourceOpen)
	}
	if !exists {
		return nil, geometa.Errorf(geometa.KindTableNotFound, "open "+table, "relation %s does not exist", l.qualified)
	}

	var allowed bool
	if err := db.QueryRowContext(ctx, queryPrivilege, l.qualified).Scan(&allowed); err != nil {
		return nil, classify("probe "+table, err, geometa.KindSourceOpen)
	}
	if !allowed {
		return nil, geometa.Errorf(geometa.KindInsufficientPermission, "open "+table, "no SELECT privilege on %s", l.qualified)
	}

	if err := l.loadGeometry(); err != nil {
		return nil, err
	}
	if err := l.loadPrimaryKey(); err != nil {
		return nil, err
	}
	if err := l.loadColumns(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Layer) loadGeometry() error {
	var srid sql.NullInt64
	var typ sql.NullString
	err := l.db.QueryRowContext(l.ctx, queryGeometry, l.schema, l.table).Scan(&l.geomColumn, &srid, &typ)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return classify("read geometry_columns", err, geometa.KindSourceOpen)
	}
	l.srid = int(srid.Int64)
	l.geomType = typ.String
	return nil
}

// loadPrimaryKey records a single integer primary key, which serves as the
// feature id and is hidden from the field list.
func (l *Layer) loadPrimaryKey() error {
	rows, err := l.db.QueryContext(l.ctx, queryPrimaryKey, l.qualified)
	if err != nil {
		return classify("read primary key", err, geometa.KindSourceOpen)
	}
	defer func() { _ = rows.Close() }()

	var keys [][2]string
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return classify("read primary key", err, geometa.KindSourceOpen)
		}
		keys = append(keys, [2]string{name, typ})
	}
	if err := rows.Err(); err != nil {
		return classify("read primary key", err, geometa.KindSourceOpen)
	}
	if len(keys) == 1 {
		switch keys[0][1] {
		case "integer", "bigint", "smallint":
			l.pk = keys[0][0]
		}
	}
	return nil
}

func (l *Layer) loadColumns() error {
	rows, err := l.db.QueryContext(l.ctx, queryColumns, l.schema, l.table)
	if err != nil {
		return classify("read columns", err, geometa.KindSourceOpen)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var c column
		if err := rows.Scan(&c.name, &c.dataType, &c.udtName); err != nil {
			return classify("read columns", err, geometa.KindSourceOpen)
		}
		if c.name == l.geomColumn || c.name == l.pk {
			continue
		}
		l.columns = append(l.columns, c)
	}
	if err := rows.Err(); err != nil {
		return classify("read columns", err, geometa.KindSourceOpen)
	}
	return nil
}

// FeatureCount counts the table rows.
func (l *Layer) FeatureCount() (int, error) {
	var n int
	if err := l.db.QueryRowContext(l.ctx, "SELECT count(*) FROM "+l.qualified).Scan(&n); err != nil {
		return 0, classify("count "+l.qualified, err, geometa.KindSourceOpen)
	}
	return n, nil
}

// Extent aggregates the geometry column with ST_Extent. An empty table
// yields the zero box.
func (l *Layer) Extent() (geometa.BoundingBox, error) {
	if l.geomColumn == "" {
		return geometa.BoundingBox{}, geometa.Errorf(geometa.KindInvalidGeometry, "extent "+l.qualified, "table has no geometry column")
	}
	q := fmt.Sprintf(`SELECT ST_XMin(e), ST_XMax(e), ST_YMin(e), ST_YMax(e) FROM (SELECT ST_Extent(%s) AS e FROM %s) s`,
		pq.QuoteIdentifier(l.geomColumn), l.qualified)

	var xmin, xmax, ymin, ymax sql.NullFloat64
	if err := l.db.QueryRowContext(l.ctx, q).Scan(&xmin, &xmax, &ymin, &ymax); err != nil {
		return geometa.BoundingBox{}, classify("extent "+l.qualified, err, geometa.KindSourceOpen)
	}
	return geometa.BoundingBox{XMin: xmin.Float64, XMax: xmax.Float64, YMin: ymin.Float64, YMax: ymax.Float64}, nil
}

// CRS looks the column SRID up in spatial_ref_sys.
func (l *Layer) CRS() (*geometa.CRS, error) {
	if l.srid <= 0 {
		return nil, nil
	}
	var auth, wkt sql.NullString
	var code sql.NullInt64
	err := l.db.QueryRowContext(l.ctx, querySRS, l.srid).Scan(&auth, &code, &wkt)
	if errors.Is(err, sql.ErrNoRows) {
		return &geometa.CRS{Authority: "EPSG", Code: l.srid}, nil
	}
	if err != nil {
		return nil, classify("read spatial_ref_sys", err, geometa.KindSourceOpen)
	}
	crs := &geometa.CRS{Authority: strings.ToUpper(auth.String), Code: int(code.Int64), WKT: wkt.String}
	if crs.Authority == "" {
		crs.Authority, crs.Code = "EPSG", l.srid
	}
	return crs, nil
}

// Fields describes the attribute columns, excluding the geometry column and
// an integer primary key.
func (l *Layer) Fields() ([]geometa.FieldDescriptor, error) {
	out := make([]geometa.FieldDescriptor, 0, len(l.columns))
	for _, c := range l.columns {
		out = append(out, geometa.FieldDescriptor{Name: c.name, Type: fieldType(c.dataType, c.udtName)})
	}
	return out, nil
}

// GeometryType returns the OGR name of the geometry_columns type.
func (l *Layer) GeometryType() string {
	return geometryTypeName(l.geomType)
}

// Values returns field as text for every row, ordered by the primary key
// when there is one. NULL becomes "".
func (l *Layer) Values(field string) ([]string, error) {
	known := false
	for _, c := range l.columns {
		if c.name == field {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, field)
	}

	q := fmt.Sprintf("SELECT %s::text FROM %s", pq.QuoteIdentifier(field), l.qualified)
	if l.pk != "" {
		q += " ORDER BY " + pq.QuoteIdentifier(l.pk)
	}
	rows, err := l.db.QueryContext(l.ctx, q)
	if err != nil {
		return nil, classify("read "+field, err, geometa.KindSourceOpen)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, classify("read "+field, err, geometa.KindSourceOpen)
		}
		out = append(out, v.String)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("read "+field, err, geometa.KindSourceOpen)
	}
	return out, nil
}

// Close closes the connection pool when the layer opened it.
func (l *Layer) Close() error {
	if !l.ownsDB || l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

// fieldType maps information_schema types to OGR field type names.
func fieldType(dataType, udtName string) string {
	switch dataType {
	case "smallint", "integer", "boolean":
		return geometa.FieldInteger
	case "bigint":
		return geometa.FieldInteger64
	case "real", "double precision", "numeric":
		return geometa.FieldReal
	case "date":
		return geometa.FieldDate
	case "time without time zone", "time with time zone":
		return geometa.FieldTime
	case "timestamp without time zone", "timestamp with time zone":
		return geometa.FieldDateTime
	case "bytea":
		return geometa.FieldBinary
	case "ARRAY":
		switch udtName {
		case "_int2", "_int4", "_bool":
			return geometa.FieldIntegerList
		case "_int8":
			return geometa.FieldInteger64List
		case "_float4", "_float8", "_numeric":
			return geometa.FieldRealList
		default:
			return geometa.FieldStringList
		}
	default:
		return geometa.FieldString
	}
}

// geometryTypeName maps PostGIS type names, with or without an M suffix, to
// OGR names.
func geometryTypeName(t string) string {
	switch strings.TrimSuffix(strings.ToUpper(t), "M") {
	case "POINT":
		return "Point"
	case "LINESTRING":
		return "Line String"
	case "POLYGON":
		return "Polygon"
	case "MULTIPOINT":
		return "Multi Point"
	case "MULTILINESTRING":
		return "Multi Line String"
	case "MULTIPOLYGON":
		return "Multi Polygon"
	case "GEOMETRYCOLLECTION":
		return "Geometry Collection"
	case "":
		return "None"
	default:
		return "Unknown (any)"
	}
}
