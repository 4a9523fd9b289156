// Package geometa extracts descriptive metadata and spatial extents from
// geospatial sources and renders CRS definitions as readable text.
// It builds closed extent rings from vector bounds or raster geotransforms,
// decides whether they must be reprojected to EPSG:4326, and assembles a
// MetadataRecord describing the source. File, database and projection
// access are delegated to engines implementing the interfaces in engine.go.
package geometa

import (
	"errors"
	"fmt"
)

// Kind classifies extraction failures. Callers branch on the kind, never on
// the concrete engine error.
type Kind int

const (
	KindUnknown Kind = iota
	KindSourceOpen
	KindMissingCRS
	KindReprojection
	KindInvalidGeometry
	KindMalformedWKT
	KindTableNotFound
	KindInsufficientPermission
)

var kindNames = map[Kind]string{
	KindUnknown:                "unknown",
	KindSourceOpen:             "source open",
	KindMissingCRS:             "missing crs",
	KindReprojection:           "reprojection",
	KindInvalidGeometry:        "invalid geometry",
	KindMalformedWKT:           "malformed wkt",
	KindTableNotFound:          "table not found",
	KindInsufficientPermission: "insufficient permission",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinel errors, one per kind, for use with errors.Is.
var (
	ErrSourceOpen             = errors.New("geometa: source open")
	ErrMissingCRS             = errors.New("geometa: missing crs")
	ErrReprojection           = errors.New("geometa: reprojection")
	ErrInvalidGeometry        = errors.New("geometa: invalid geometry")
	ErrMalformedWKT           = errors.New("geometa: malformed wkt")
	ErrTableNotFound          = errors.New("geometa: table not found")
	ErrInsufficientPermission = errors.New("geometa: insufficient permission")
)

var kindSentinels = map[Kind]error{
	KindSourceOpen:             ErrSourceOpen,
	KindMissingCRS:             ErrMissingCRS,
	KindReprojection:           ErrReprojection,
	KindInvalidGeometry:        ErrInvalidGeometry,
	KindMalformedWKT:           ErrMalformedWKT,
	KindTableNotFound:          ErrTableNotFound,
	KindInsufficientPermission: ErrInsufficientPermission,
}

// Error is a classified extraction failure.
type Error struct {
	Kind Kind   // Failure class
	Op   string // Operation that failed, e.g. "open", "reproject"
	Err  error  // Underlying cause, may be nil
}

// NewError returns an *Error of the given kind wrapping err.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf returns an *Error of the given kind with a formatted cause.
func Errorf(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	msg := "geometa: " + e.Kind.String()
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
