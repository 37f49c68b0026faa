// Package render cuts subsets out of referenceable datasets. The pixel
// window is derived from the subsets, composed as a VRT and handed to an
// Encoder producing the output format.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DREAM-ODA-OS/eoxserver/internal/coverage"
	"github.com/DREAM-ODA-OS/eoxserver/internal/reftools"
	"github.com/DREAM-ODA-OS/eoxserver/internal/vrt"
	"github.com/DREAM-ODA-OS/eoxserver/pkg/geo"
	"github.com/DREAM-ODA-OS/eoxserver/pkg/rect"
	"github.com/DREAM-ODA-OS/eoxserver/pkg/subset"
)

// RenderError is a request the renderer refuses. Locator names the
// offending parameter.
type RenderError struct {
	Message string
	Locator string
}

func (e *RenderError) Error() string {
	return e.Message
}

// Params contains all rendering parameters
type Params struct {
	Coverage *coverage.Coverage
	Subsets  *subset.Subsets

	// Format is the output MIME type, defaulting to the native format.
	Format      string
	RangeSubset []string
	ScaleFactor *float64
	Scales      []string
	MediaType   string

	EncodingParams map[string]string
}

// ResultFile is one file of the result.
type ResultFile struct {
	Path      string `json:"path"`
	MimeType  string `json:"mime_type"`
	Filename  string `json:"filename"`
	ContentID string `json:"content_id,omitempty"`
}

// Result contains the rendering result
type Result struct {
	Coverage string       `json:"coverage"`
	Files    []ResultFile `json:"files"`
	SrcRect  rect.Rect    `json:"src_rect"`
	DstRect  rect.Rect    `json:"dst_rect"`
	Format   string       `json:"format"`
	Driver   string       `json:"driver"`
	Bands    []int        `json:"bands"`
	Options  []Option     `json:"options,omitempty"`

	// Set for multipart media types when both x and y are subsetted.
	Footprint  string           `json:"footprint,omitempty"`
	Extent     *geo.BoundingBox `json:"extent,omitempty"`
	ExtentSRID int              `json:"extent_srid,omitempty"`

	DryRun bool `json:"dry_run,omitempty"`
}

// Config holds the renderer settings.
type Config struct {
	// MaxSize limits width and height of the output; 0 is unlimited.
	MaxSize int
	TempDir string
	DryRun  bool
}

// Renderer renders referenceable datasets.
type Renderer struct {
	config  Config
	formats *Registry
	encoder Encoder
	now     func() time.Time
}

// New creates a renderer. A nil registry uses DefaultRegistry.
func New(config Config, formats *Registry, encoder Encoder) *Renderer {
	if formats == nil {
		formats = DefaultRegistry()
	}
	if config.TempDir == "" {
		config.TempDir = os.TempDir()
	}
	return &Renderer{
		config:  config,
		formats: formats,
		encoder: encoder,
		now:     time.Now,
	}
}

// Render subsets the coverage and encodes the result.
func (r *Renderer) Render(ctx context.Context, p *Params) (*Result, error) {
	cov := p.Coverage
	items := cov.BandItems()

	srcRect, dstRect, err := GetSrcAndDstRect(cov, p.Subsets)
	if err != nil {
		return nil, err
	}

	// native format of the source, only defined for a single data item
	var sourceFormat string
	if len(items) == 1 {
		sourceFormat = items[0].Format
	}
	var nativeFormat string
	if sourceFormat != "" {
		if f, ok := r.formats.NativeWCS20(sourceFormat); ok {
			nativeFormat = f.MimeType
		}
	}

	outputFormat := p.Format
	if outputFormat == "" {
		outputFormat = nativeFormat
	}
	if outputFormat == "" {
		return nil, &RenderError{
			Message: "Failed to deduce the native format of the coverage. Output format must be provided!",
			Locator: "format",
		}
	}

	if p.ScaleFactor != nil || len(p.Scales) > 0 {
		locator := "scale"
		if p.ScaleFactor != nil {
			locator = "scalefactor"
		}
		return nil, &RenderError{Message: "ReferenceableDataset cannot be scaled.", Locator: locator}
	}

	if limit := r.config.MaxSize; limit > 0 && (limit < dstRect.SizeX || limit < dstRect.SizeY) {
		return nil, &RenderError{
			Message: fmt.Sprintf("Requested image size %dpx x %dpx exceeds the allowed limit maxsize=%dpx!",
				dstRect.SizeX, dstRect.SizeY, limit),
			Locator: "size",
		}
	}

	format, ok := r.formats.ByMIME(outputFormat)
	if !ok {
		return nil, &RenderError{Message: fmt.Sprintf("Unsupported output format %s!", outputFormat), Locator: "format"}
	}
	backend, driver := format.Backend()
	if backend != "GDAL" {
		return nil, &RenderError{Message: fmt.Sprintf("Invalid output format backend name %s!", backend), Locator: "format"}
	}

	bands, err := cov.BandSelection(p.RangeSubset)
	if err != nil {
		return nil, &RenderError{Message: err.Error(), Locator: "rangesubset"}
	}

	var options []Option
	if format.MimeType == "image/tiff" {
		if options, err = GTiffOptions(p.EncodingParams); err != nil {
			return nil, err
		}
	}

	result := &Result{
		Coverage: cov.Identifier,
		SrcRect:  srcRect,
		DstRect:  dstRect,
		Format:   format.MimeType,
		Driver:   driver,
		Bands:    bands,
		Options:  options,
		DryRun:   r.config.DryRun,
	}

	var paths []string
	if r.config.DryRun {
		paths = []string{filepath.Join(r.config.TempDir, "eoxs_tmp_<uuid>")}
	} else {
		if paths, err = r.encode(ctx, cov, items, bands, srcRect, dstRect, driver, options); err != nil {
			return nil, err
		}
	}

	filenameBase := fmt.Sprintf("%s_%s", cov.Identifier, r.now().Format("20060102150405"))
	for i, path := range paths {
		file := ResultFile{
			Path:     path,
			MimeType: format.MimeType,
			Filename: fmt.Sprintf("%s.%s", filenameBase, format.Extension),
		}
		if i == 0 {
			file.ContentID = "cid:coverage/" + cov.Identifier
		}
		result.Files = append(result.Files, file)
	}

	if strings.HasPrefix(p.MediaType, "multipart") && p.Subsets.HasX() && p.Subsets.HasY() {
		if err := r.describeSubset(result, cov, p.Subsets, srcRect); err != nil {
			return nil, err
		}
	}

	slog.Info("coverage rendered",
		"coverage", cov.Identifier,
		"src_rect", srcRect.String(),
		"format", format.MimeType,
		"files", len(result.Files),
		"dry_run", r.config.DryRun)

	return result, nil
}

// GetSrcAndDstRect returns the pixel window of the coverage matching the
// subsets (src) and the same window anchored at the origin (dst).
func GetSrcAndDstRect(cov *coverage.Coverage, subsets *subset.Subsets) (rect.Rect, rect.Rect, error) {
	imageRect := rect.New(0, 0, cov.SizeX, cov.SizeY)

	var subsetRect rect.Rect
	switch {
	case subsets.IsEmpty():
		subsetRect = imageRect

	case subsets.IsPixel():
		minx, miny, maxx, maxy := subsets.XYBBox()
		// bounds beyond the image are pulled in to one pixel outside of it
		loX, hiX := imageRect.OffsetX-1, imageRect.UpperX()+1
		loY, hiY := imageRect.OffsetY-1, imageRect.UpperY()+1
		subsetRect = rect.FromBounds(
			boundOr(minx, imageRect.OffsetX, loX, hiX),
			boundOr(miny, imageRect.OffsetY, loY, hiY),
			boundOr(maxx, imageRect.UpperX(), loX, hiX),
			boundOr(maxy, imageRect.UpperY(), loY, hiY),
		)

	default:
		t, err := reftools.ForCoverage(cov)
		if err != nil {
			return rect.Rect{}, rect.Rect{}, georeferenceError(err)
		}
		bbox, err := geoBBox(t, cov, subsets)
		if err != nil {
			return rect.Rect{}, rect.Rect{}, err
		}
		subsetRect, err = t.RectFromSubset(*subsets.SRID, bbox.MinX, bbox.MinY, bbox.MaxX, bbox.MaxY)
		if err != nil {
			if errors.Is(err, geo.ErrUnsupportedSRID) {
				return rect.Rect{}, rect.Rect{}, &RenderError{Message: err.Error(), Locator: "subset"}
			}
			return rect.Rect{}, rect.Rect{}, err
		}
	}

	if !imageRect.Intersects(subsetRect) {
		return rect.Rect{}, rect.Rect{}, &RenderError{Message: "Subset outside coverage extent.", Locator: "subset"}
	}

	src := subsetRect.Intersection(imageRect)
	dst := src.Sub(src.Offset())
	return src, dst, nil
}

// georeferenceError reports unusable ground control points against the
// subset that needs them.
func georeferenceError(err error) error {
	if errors.Is(err, reftools.ErrTooFewGCPs) || errors.Is(err, reftools.ErrDegenerateGCPs) {
		return &RenderError{Message: err.Error(), Locator: "subset"}
	}
	return err
}

// boundOr truncates a pixel bound clamped to lo..hi or falls back to def.
func boundOr(v *float64, def, lo, hi int) int {
	if v == nil {
		return def
	}
	return int(math.Max(float64(lo), math.Min(float64(hi), *v)))
}

// geoBBox fills the open bounds of geographic subsets with the coverage
// footprint extent.
func geoBBox(t *reftools.Transformer, cov *coverage.Coverage, subsets *subset.Subsets) (geo.BoundingBox, error) {
	minx, miny, maxx, maxy := subsets.XYBBox()
	var extent geo.BoundingBox
	if minx == nil || miny == nil || maxx == nil || maxy == nil {
		var err error
		extent, err = t.Footprint(cov.SizeX, cov.SizeY).ExtentIn(*subsets.SRID)
		if err != nil {
			return geo.BoundingBox{}, &RenderError{Message: err.Error(), Locator: "subset"}
		}
	}
	return geo.BoundingBox{
		MinX: valueOr(minx, extent.MinX),
		MinY: valueOr(miny, extent.MinY),
		MaxX: valueOr(maxx, extent.MaxX),
		MaxY: valueOr(maxy, extent.MaxY),
	}, nil
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// encode writes the source and subset VRTs and runs the encoder.
func (r *Renderer) encode(ctx context.Context, cov *coverage.Coverage, items []coverage.DataItem,
	bands []int, srcRect, dstRect rect.Rect, driver string, options []Option) ([]string, error) {
	if r.encoder == nil {
		return nil, errors.New("no encoder configured")
	}

	source, cleanup, err := r.sourceDataset(cov, items)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	subsetVRT, err := SubsetVRT(cov, source, bands, srcRect, dstRect)
	if err != nil {
		return nil, err
	}
	subsetPath, err := r.tempPath(".vrt")
	if err != nil {
		return nil, err
	}
	if err := subsetVRT.WriteFile(subsetPath); err != nil {
		return nil, fmt.Errorf("writing subset VRT: %w", err)
	}
	defer os.Remove(subsetPath)

	output, err := r.tempPath("")
	if err != nil {
		return nil, err
	}

	files, err := r.encoder.Encode(ctx, &EncodeJob{
		Driver:  driver,
		Source:  subsetPath,
		Output:  output,
		Options: options,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding coverage %s: %w", cov.Identifier, err)
	}
	return files, nil
}

// sourceDataset returns the file holding all bands of the coverage: the
// data item itself or a temporary VRT composing all items.
func (r *Renderer) sourceDataset(cov *coverage.Coverage, items []coverage.DataItem) (string, func(), error) {
	if len(items) == 1 {
		return items[0].Path, func() {}, nil
	}

	b, err := SourceVRT(cov, items)
	if err != nil {
		return "", nil, err
	}
	path, err := r.tempPath(".vrt")
	if err != nil {
		return "", nil, err
	}
	if err := b.WriteFile(path); err != nil {
		return "", nil, fmt.Errorf("writing source VRT: %w", err)
	}
	return path, func() { os.Remove(path) }, nil
}

// tempPath returns an unused eoxs_tmp_<uuid> path in the temp directory.
func (r *Renderer) tempPath(ext string) (string, error) {
	for i := 0; i < 10; i++ {
		name := "eoxs_tmp_" + strings.ReplaceAll(uuid.NewString(), "-", "") + ext
		path := filepath.Join(r.config.TempDir, name)
		if !fileExists(path) {
			return path, nil
		}
	}
	return "", fmt.Errorf("no free temporary file name in %s", r.config.TempDir)
}

// SourceVRT composes the bands of several data items in band order.
func SourceVRT(cov *coverage.Coverage, items []coverage.DataItem) (*vrt.Builder, error) {
	b := vrt.NewBuilder(cov.SizeX, cov.SizeY)

	compound := 0
	for _, item := range items {
		indices, err := item.BandIndices()
		if err != nil {
			return nil, err
		}
		for _, idx := range indices {
			if idx.SetIndex != compound+1 {
				return nil, fmt.Errorf("coverage %s: band %d missing in data items", cov.Identifier, compound+1)
			}
			compound = idx.SetIndex

			band := cov.RangeType[idx.SetIndex-1]
			b.AddBand(band.DataType, band.NoData)
			if err := b.AddSimpleSource(idx.SetIndex, item.Path, idx.ItemIndex, nil, nil); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}

// SubsetVRT cuts srcRect out of the source dataset, keeping only the
// selected bands.
func SubsetVRT(cov *coverage.Coverage, source string, bands []int, srcRect, dstRect rect.Rect) (*vrt.Builder, error) {
	b := vrt.NewBuilder(srcRect.SizeX, srcRect.SizeY)

	for dstIndex, srcIndex := range bands {
		band := cov.RangeType[srcIndex-1]
		b.AddBand(band.DataType, band.NoData)
		if err := b.AddSimpleSource(dstIndex+1, source, srcIndex, &srcRect, &dstRect); err != nil {
			return nil, err
		}
	}

	b.CopyMetadata(cov.Metadata)
	b.CopyGCPs(cov.GCPs, cov.GCPSRID, &srcRect)
	return b, nil
}

// describeSubset adds footprint and extent of the rendered window.
func (r *Renderer) describeSubset(result *Result, cov *coverage.Coverage, subsets *subset.Subsets, srcRect rect.Rect) error {
	shifted := make([]coverage.GCP, len(cov.GCPs))
	for i, g := range cov.GCPs {
		g.Pixel -= float64(srcRect.OffsetX)
		g.Line -= float64(srcRect.OffsetY)
		shifted[i] = g
	}
	t, err := reftools.NewTransformer(shifted, cov.GCPSRID, 0)
	if err != nil {
		return georeferenceError(fmt.Errorf("coverage %s: %w", cov.Identifier, err))
	}

	fp := t.Footprint(srcRect.SizeX, srcRect.SizeY)
	result.Footprint = fp.WKT()

	if subsets.IsPixel() {
		extent := fp.Extent
		result.Extent = &extent
		result.ExtentSRID = fp.SRID
		return nil
	}

	full, err := reftools.ForCoverage(cov)
	if err != nil {
		return georeferenceError(err)
	}
	extent, err := geoBBox(full, cov, subsets)
	if err != nil {
		return err
	}
	result.Extent = &extent
	result.ExtentSRID = *subsets.SRID
	return nil
}
