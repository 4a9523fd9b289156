// Package postgis exposes PostGIS tables as geometa layers.
//
// Opening a layer probes the catalog first so a missing table and a missing
// SELECT privilege are reported as distinct error kinds, even on servers
// that hide one behind the other.
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

// DefaultSchema is used for table names without a schema qualifier.
const DefaultSchema = "public"

// ErrUnknownColumn is returned by Values for a column the table lacks.
var ErrUnknownColumn = errors.New("postgis: unknown column")

// Options tunes connection settings not carried by geometa.Connection.
type Options struct {
	SSLMode        string // lib/pq sslmode, "disable" when empty
	ConnectTimeout int    // seconds, 0 for the driver default
}

// DSN renders conn as a lib/pq key/value connection string.
func DSN(conn geometa.Connection, opts Options) string {
	sslmode := opts.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	port := conn.Port
	if port == 0 {
		port = 5432
	}
	parts := []string{
		"host=" + quoteValue(conn.Host),
		fmt.Sprintf("port=%d", port),
		"dbname=" + quoteValue(conn.Database),
		"user=" + quoteValue(conn.User),
		"sslmode=" + sslmode,
	}
	if conn.Password != "" {
		parts = append(parts, "password="+quoteValue(conn.Password))
	}
	if opts.ConnectTimeout > 0 {
		parts = append(parts, fmt.Sprintf("connect_timeout=%d", opts.ConnectTimeout))
	}
	return strings.Join(parts, " ")
}

func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
	return "'" + v + "'"
}

// Open connects to the database described by conn and opens its table.
// The returned layer owns the connection pool.
func Open(ctx context.Context, conn geometa.Connection, opts Options) (*Layer, error) {
	if err := conn.Validate(); err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", DSN(conn, opts))
	if err != nil {
		return nil, geometa.NewError(geometa.KindSourceOpen, "connect "+conn.String(), err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, classify("connect "+conn.String(), err, geometa.KindSourceOpen)
	}

	l, err := NewLayer(ctx, db, conn.Table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	l.ownsDB = true
	return l, nil
}

// classify maps a driver error to a geometa error, using fallback for codes
// with no dedicated kind.
func classify(op string, err error, fallback geometa.Kind) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "42P01", "3F000":
			return geometa.NewError(geometa.KindTableNotFound, op, err)
		case "42501":
			return geometa.NewError(geometa.KindInsufficientPermission, op, err)
		case "28000", "28P01", "3D000":
			return geometa.NewError(geometa.KindSourceOpen, op, err)
		}
	}
	return geometa.NewError(fallback, op, err)
}

// splitTable splits "schema.table" and applies DefaultSchema.
func splitTable(name string) (schema, table string) {
	if i := strings.IndexByte(name, '.'); i > 0 {
		return name[:i], name[i+1:]
	}
	return DefaultSchema, name
}
