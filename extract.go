package geometa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// KindSelector chooses how an extraction decides the SourceKind.
type KindSelector int

const (
	// KindAuto probes the layer fields for IndexField.
	KindAuto KindSelector = iota
	KindStandard
	KindIndex
)

func (s KindSelector) String() string {
	switch s {
	case KindStandard:
		return "standard"
	case KindIndex:
		return "index"
	}
	return "auto"
}

// ParseKindSelector parses "auto", "standard" or "index". The empty string
// is KindAuto.
func ParseKindSelector(s string) (KindSelector, error) {
	switch s {
	case "", "auto":
		return KindAuto, nil
	case "standard":
		return KindStandard, nil
	case "index":
		return KindIndex, nil
	}
	return KindAuto, fmt.Errorf("unknown source kind %q", s)
}

// Extractor runs extractions against injected engines. Each call opens its
// own source handle and releases it before returning, also on failure.
type Extractor struct {
	Vectors     VectorOpener
	Rasters     RasterOpener
	Identifier  CRSIdentifier
	Reprojector Reprojector
	Logger      *slog.Logger
	Observer    Observer
}

func (e *Extractor) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e.Logger
}

func (e *Extractor) observe(source string, start time.Time, err error) {
	if e.Observer != nil {
		e.Observer.ObserveExtraction(source, err, time.Since(start).Seconds())
	}
}

func (e *Extractor) openVector(ctx context.Context, src Source) (Layer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if e.Vectors == nil {
		return nil, Errorf(KindSourceOpen, "open", "no vector engine configured")
	}
	layer, err := e.Vectors.OpenVector(ctx, src)
	if err != nil {
		if KindOf(err) == KindUnknown {
			return nil, NewError(KindSourceOpen, "open "+src.String(), err)
		}
		return nil, err
	}
	return layer, nil
}

// ExtractVector builds the metadata record of a vector source.
func (e *Extractor) ExtractVector(ctx context.Context, src Source, sel KindSelector) (rec *MetadataRecord, err error) {
	start := time.Now()
	defer func() { e.observe("vector", start, err) }()
	log := e.logger().With("source", src.String())

	layer, err := e.openVector(ctx, src)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := layer.Close(); cerr != nil {
			log.Warn("close layer", "err", cerr)
		}
	}()

	kind := Standard
	switch sel {
	case KindIndex:
		kind = Index
	case KindAuto:
		fields, ferr := layer.Fields()
		if ferr != nil {
			return nil, fmt.Errorf("layer fields: %w", ferr)
		}
		kind = DetectSourceKind(fields)
	}
	log.Debug("extracting vector metadata", "kind", kind.String())

	rec, err = BuildRecord(layer, BuildOptions{
		Kind:        kind,
		Identifier:  e.Identifier,
		Reprojector: e.Reprojector,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}
	log.Info("vector metadata extracted",
		"features", rec.FeatureCount,
		"fields", rec.FieldCount,
		"crs", rec.CRS.String(),
	)
	return rec, nil
}

// ExtractRaster computes the footprint of the raster at path.
func (e *Extractor) ExtractRaster(ctx context.Context, path string) (res *RasterExtentResult, err error) {
	start := time.Now()
	defer func() { e.observe("raster", start, err) }()
	log := e.logger().With("source", path)

	if e.Rasters == nil {
		return nil, Errorf(KindSourceOpen, "open", "no raster engine configured")
	}
	r, err := e.Rasters.OpenRaster(ctx, path)
	if err != nil {
		if KindOf(err) == KindUnknown {
			return nil, NewError(KindSourceOpen, "open "+path, err)
		}
		return nil, err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			log.Warn("close raster", "err", cerr)
		}
	}()

	res, err = RasterExtent(r, RasterOptions{
		Identifier:  e.Identifier,
		Reprojector: e.Reprojector,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}
	log.Info("raster extent computed", "size", fmt.Sprintf("%dx%d", res.Width, res.Height), "reprojected", res.Reprojected)
	return res, nil
}

// ErrNoFeatureListing is returned by Features for layers that cannot
// enumerate their features.
var ErrNoFeatureListing = errors.New("geometa: layer cannot list features")

// Features lists the features of a vector source.
func (e *Extractor) Features(ctx context.Context, src Source) (feats []Feature, err error) {
	start := time.Now()
	defer func() { e.observe("features", start, err) }()

	layer, err := e.openVector(ctx, src)
	if err != nil {
		return nil, err
	}
	defer func() { _ = layer.Close() }()

	fl, ok := layer.(FeatureLister)
	if !ok {
		return nil, ErrNoFeatureListing
	}
	return fl.Features()
}
