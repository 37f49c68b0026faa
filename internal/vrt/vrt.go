// Package vrt builds GDAL virtual raster (VRT) documents that compose bands
// of existing files and cut pixel windows out of them without copying
// pixel data.
package vrt

import (
	"encoding/xml"
	"fmt"
	"os"
	"sort"

	"github.com/DREAM-ODA-OS/eoxserver/internal/coverage"
	"github.com/DREAM-ODA-OS/eoxserver/pkg/rect"
)

type Dataset struct {
	XMLName     xml.Name      `xml:"VRTDataset"`
	RasterXSize int           `xml:"rasterXSize,attr"`
	RasterYSize int           `xml:"rasterYSize,attr"`
	Metadata    *Metadata     `xml:"Metadata,omitempty"`
	GCPList     *GCPList      `xml:"GCPList,omitempty"`
	Bands       []*RasterBand `xml:"VRTRasterBand"`
}

type Metadata struct {
	Items []MDI `xml:"MDI"`
}

type MDI struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

type GCPList struct {
	Projection string `xml:"Projection,attr"`
	GCPs       []GCP  `xml:"GCP"`
}

type GCP struct {
	ID    string  `xml:"Id,attr"`
	Pixel float64 `xml:"Pixel,attr"`
	Line  float64 `xml:"Line,attr"`
	X     float64 `xml:"X,attr"`
	Y     float64 `xml:"Y,attr"`
	Z     float64 `xml:"Z,attr"`
}

type RasterBand struct {
	DataType    string         `xml:"dataType,attr"`
	Band        int            `xml:"band,attr"`
	NoDataValue *float64       `xml:"NoDataValue,omitempty"`
	Sources     []SimpleSource `xml:"SimpleSource"`
}

type SimpleSource struct {
	SourceFilename SourceFilename
	SourceBand     int
	SrcRect        *Rect `xml:"SrcRect,omitempty"`
	DstRect        *Rect `xml:"DstRect,omitempty"`
}

type Bool bool

func (b Bool) MarshalText() (text []byte, err error) {
	if b {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

func (b *Bool) UnmarshalText(text []byte) error {
	*b = string(text) == "1"
	return nil
}

type SourceFilename struct {
	RelativeToVRT Bool   `xml:"relativeToVRT,attr"`
	Shared        Bool   `xml:"shared,attr"`
	Filename      string `xml:",chardata"`
}

type Rect struct {
	XOff  int `xml:"xOff,attr"`
	YOff  int `xml:"yOff,attr"`
	XSize int `xml:"xSize,attr"`
	YSize int `xml:"ySize,attr"`
}

func fromRect(r *rect.Rect) *Rect {
	if r == nil {
		return nil
	}
	return &Rect{XOff: r.OffsetX, YOff: r.OffsetY, XSize: r.SizeX, YSize: r.SizeY}
}

// Rect converts back into pixel rectangle arithmetic.
func (r *Rect) Rect() rect.Rect {
	return rect.New(r.XOff, r.YOff, r.XSize, r.YSize)
}

// Builder assembles a Dataset band by band.
type Builder struct {
	ds Dataset
}

// NewBuilder starts a VRT of sizeX x sizeY pixels.
func NewBuilder(sizeX, sizeY int) *Builder {
	return &Builder{ds: Dataset{RasterXSize: sizeX, RasterYSize: sizeY}}
}

// AddBand appends a band and returns its 1-based index.
func (b *Builder) AddBand(dataType string, nodata *float64) int {
	band := &RasterBand{
		DataType:    dataType,
		Band:        len(b.ds.Bands) + 1,
		NoDataValue: nodata,
	}
	b.ds.Bands = append(b.ds.Bands, band)
	return band.Band
}

// AddSimpleSource reads srcBand of filename into band. srcRect and dstRect
// may be nil to map the whole source onto the whole band.
func (b *Builder) AddSimpleSource(band int, filename string, srcBand int, srcRect, dstRect *rect.Rect) error {
	if band < 1 || band > len(b.ds.Bands) {
		return fmt.Errorf("vrt: no band %d (have %d)", band, len(b.ds.Bands))
	}
	if srcBand < 1 {
		return fmt.Errorf("vrt: invalid source band %d", srcBand)
	}

	b.ds.Bands[band-1].Sources = append(b.ds.Bands[band-1].Sources, SimpleSource{
		SourceFilename: SourceFilename{Filename: filename, Shared: false, RelativeToVRT: false},
		SourceBand:     srcBand,
		SrcRect:        fromRect(srcRect),
		DstRect:        fromRect(dstRect),
	})
	return nil
}

// CopyMetadata sets the dataset metadata items in key order.
func (b *Builder) CopyMetadata(md map[string]string) {
	if len(md) == 0 {
		return
	}
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.ds.Metadata = &Metadata{}
	for _, k := range keys {
		b.ds.Metadata.Items = append(b.ds.Metadata.Items, MDI{Key: k, Value: md[k]})
	}
}

// CopyGCPs attaches the ground control points. With a subset rectangle the
// pixel/line positions are shifted into the subset's pixel space.
func (b *Builder) CopyGCPs(gcps []coverage.GCP, srid int, subset *rect.Rect) {
	if len(gcps) == 0 {
		return
	}

	var dx, dy float64
	if subset != nil {
		dx, dy = float64(subset.OffsetX), float64(subset.OffsetY)
	}

	list := &GCPList{Projection: fmt.Sprintf("EPSG:%d", srid)}
	for i, g := range gcps {
		id := g.ID
		if id == "" {
			id = fmt.Sprintf("%d", i+1)
		}
		list.GCPs = append(list.GCPs, GCP{
			ID:    id,
			Pixel: g.Pixel - dx,
			Line:  g.Line - dy,
			X:     g.X,
			Y:     g.Y,
			Z:     g.Z,
		})
	}
	b.ds.GCPList = list
}

// Dataset returns the document built so far.
func (b *Builder) Dataset() *Dataset {
	return &b.ds
}

// Marshal encodes the document.
func (b *Builder) Marshal() ([]byte, error) {
	return xml.MarshalIndent(&b.ds, "", "  ")
}

// WriteFile encodes the document to path.
func (b *Builder) WriteFile(path string) error {
	data, err := b.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Parse decodes a VRT document.
func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := xml.Unmarshal(data, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}
