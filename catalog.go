package geometa

import (
	"fmt"
	"io"
	"log/slog"
)

// IndexField is the attribute whose presence marks an index layer. Each
// feature of an index layer names one member product.
const IndexField = "nombre"

// SourceKind tells the catalog builder whether to collect index members.
type SourceKind int

const (
	Standard SourceKind = iota
	Index
)

func (k SourceKind) String() string {
	if k == Index {
		return "index"
	}
	return "standard"
}

// DetectSourceKind returns Index when fields contain IndexField.
func DetectSourceKind(fields []FieldDescriptor) SourceKind {
	for _, f := range fields {
		if f.Name == IndexField {
			return Index
		}
	}
	return Standard
}

// FieldInfo is a field catalog entry.
type FieldInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// MetadataRecord describes one vector source.
type MetadataRecord struct {
	FeatureCount int                  `json:"feature_count"`
	FieldCount   int                  `json:"field_count"`
	Fields       map[string]FieldInfo `json:"fields"`
	BBox         BoundingBox          `json:"bbox"`     // Native CRS units
	BBoxWKT      string               `json:"bbox_wkt"` // Always EPSG:4326
	CRS          CRS                  `json:"crs"`      // Native CRS
	CRSPretty    []string             `json:"crs_pretty,omitempty"`
	GeometryType string               `json:"geometry_type"`
	// Members is nil for layers that are not index layers, and non-nil
	// (possibly empty) for index layers.
	Members []string `json:"members"`
}

// IsIndex reports whether the record describes an index layer.
func (m *MetadataRecord) IsIndex() bool { return m.Members != nil }

// BuildOptions configures BuildRecord.
type BuildOptions struct {
	Kind        SourceKind
	Identifier  CRSIdentifier
	Reprojector Reprojector
	Logger      *slog.Logger
}

// BuildRecord assembles the metadata record of layer. Any failure aborts the
// build; no partial record is returned.
func BuildRecord(layer Layer, opts BuildOptions) (*MetadataRecord, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	count, err := layer.FeatureCount()
	if err != nil {
		return nil, fmt.Errorf("feature count: %w", err)
	}

	native, err := layer.CRS()
	if err != nil {
		return nil, fmt.Errorf("layer crs: %w", err)
	}
	crs, err := ResolveCRS(native, opts.Identifier)
	if err != nil {
		return nil, err
	}

	bbox, err := layer.Extent()
	if err != nil {
		return nil, fmt.Errorf("layer extent: %w", err)
	}
	if err := bbox.Validate(); err != nil {
		return nil, err
	}
	ring, err := ReprojectRing(opts.Reprojector, RingFromBounds(bbox), crs)
	if err != nil {
		return nil, err
	}

	fields, err := layer.Fields()
	if err != nil {
		return nil, fmt.Errorf("layer fields: %w", err)
	}
	catalog := make(map[string]FieldInfo, len(fields))
	for _, f := range fields {
		catalog[f.Name] = FieldInfo{Type: f.Type}
	}

	rec := &MetadataRecord{
		FeatureCount: count,
		FieldCount:   len(fields),
		Fields:       catalog,
		BBox:         bbox,
		BBoxWKT:      RingWKT(ring),
		CRS:          *crs,
		GeometryType: layer.GeometryType(),
	}

	if crs.WKT != "" {
		pretty, err := PrettyWKT(crs.WKT)
		if err != nil {
			log.Warn("crs wkt not pretty-printable", "crs", crs.String(), "err", err)
		} else {
			rec.CRSPretty = pretty
		}
	}

	if opts.Kind == Index {
		if DetectSourceKind(fields) != Index {
			log.Debug("index layer without member field", "field", IndexField)
			return rec, nil
		}
		members, err := layer.Values(IndexField)
		if err != nil {
			return nil, fmt.Errorf("index members: %w", err)
		}
		if members == nil {
			members = []string{}
		}
		rec.Members = members
	}
	return rec, nil
}
