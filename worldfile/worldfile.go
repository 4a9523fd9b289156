// Package worldfile opens rasters georeferenced by an ESRI world file
// sidecar without GDAL. Image dimensions come from the image header and the
// CRS from a .prj sidecar.
package worldfile

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	geometa "github.com/tingold/orb-geometa"
)

// ErrNoWorldFile is returned when no world file sits next to the image.
var ErrNoWorldFile = errors.New("worldfile: no world file found")

// WorldFile holds the six world file coefficients. X and Y locate the
// center of the upper-left pixel.
type WorldFile struct {
	A float64 // line 1: pixel width
	D float64 // line 2: rotation term for y
	B float64 // line 3: rotation term for x
	E float64 // line 4: pixel height, negative for north-up
	C float64 // line 5: x of the upper-left pixel center
	F float64 // line 6: y of the upper-left pixel center
}

// Parse reads the six coefficients of a world file.
func Parse(data []byte) (*WorldFile, error) {
	fields := strings.Fields(string(data))
	if len(fields) < 6 {
		return nil, fmt.Errorf("world file: expected 6 values, got %d", len(fields))
	}
	var v [6]float64
	for i := range v {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("world file line %d: %w", i+1, err)
		}
		v[i] = f
	}
	return &WorldFile{A: v[0], D: v[1], B: v[2], E: v[3], C: v[4], F: v[5]}, nil
}

// GeoTransform converts w to a GDAL geotransform, moving the origin from
// the pixel center to the pixel corner.
func (w *WorldFile) GeoTransform() geometa.AffineTransform {
	return geometa.AffineTransform{
		w.C - w.A/2 - w.B/2,
		w.A,
		w.B,
		w.F - w.D/2 - w.E/2,
		w.D,
		w.E,
	}
}

// Find returns the world file next to imagePath, or "" when there is none.
// It tries the three-letter convention (.tfw, .pgw, .jgw), the extension
// plus "w" (.tifw) and .wld, in lower and upper case.
func Find(imagePath string) string {
	ext := filepath.Ext(imagePath)
	base := strings.TrimSuffix(imagePath, ext)
	e := strings.TrimPrefix(strings.ToLower(ext), ".")

	var cands []string
	if len(e) >= 2 {
		cands = append(cands, "."+e[:1]+e[len(e)-1:]+"w")
	}
	if e != "" {
		cands = append(cands, "."+e+"w")
	}
	cands = append(cands, ".wld")

	for _, c := range cands {
		for _, p := range []string{base + c, base + strings.ToUpper(c)} {
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}

// Raster is a world-file georeferenced image. It implements geometa.Raster.
type Raster struct {
	gt     geometa.AffineTransform
	width  int
	height int
	crs    *geometa.CRS
}

// Open reads the image header, its world file and its .prj sidecar.
func Open(path string) (*Raster, error) {
	wf := Find(path)
	if wf == "" {
		return nil, geometa.NewError(geometa.KindSourceOpen, "open "+path, ErrNoWorldFile)
	}
	data, err := os.ReadFile(wf)
	if err != nil {
		return nil, geometa.NewError(geometa.KindSourceOpen, "read "+wf, err)
	}
	w, err := Parse(data)
	if err != nil {
		return nil, geometa.NewError(geometa.KindInvalidGeometry, "parse "+wf, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, geometa.NewError(geometa.KindSourceOpen, "open "+path, err)
	}
	defer func() { _ = f.Close() }()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, geometa.NewError(geometa.KindSourceOpen, "decode "+path, err)
	}

	crs, err := readPrj(strings.TrimSuffix(path, filepath.Ext(path)) + ".prj")
	if err != nil {
		return nil, geometa.NewError(geometa.KindSourceOpen, "read prj", err)
	}
	return &Raster{gt: w.GeoTransform(), width: cfg.Width, height: cfg.Height, crs: crs}, nil
}

func readPrj(path string) (*geometa.CRS, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	wkt := geometa.FlattenWKT(strings.TrimSpace(string(data)))
	if wkt == "" {
		return nil, nil
	}
	return &geometa.CRS{WKT: wkt}, nil
}

func (r *Raster) GeoTransform() (geometa.AffineTransform, error) { return r.gt, nil }

func (r *Raster) Size() (width, height int) { return r.width, r.height }

// CRS returns the .prj definition, nil when there is none.
func (r *Raster) CRS() (*geometa.CRS, error) {
	if r.crs == nil {
		return nil, nil
	}
	c := *r.crs
	return &c, nil
}

func (r *Raster) Close() error { return nil }

// Opener implements geometa.RasterOpener for world-file rasters.
type Opener struct{}

func (Opener) OpenRaster(_ context.Context, path string) (geometa.Raster, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	return r, nil
}
