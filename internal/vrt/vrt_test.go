package vrt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DREAM-ODA-OS/eoxserver/internal/coverage"
	"github.com/DREAM-ODA-OS/eoxserver/pkg/rect"
)

func TestBuilderSubset(t *testing.T) {
	src := rect.New(100, 200, 50, 50)
	dst := src.Sub(src.Offset())

	b := NewBuilder(dst.SizeX, dst.SizeY)
	band := b.AddBand("UInt16", nil)
	if band != 1 {
		t.Fatalf("expected band 1, got %d", band)
	}
	if err := b.AddSimpleSource(band, "/data/scene.tif", 3, &src, &dst); err != nil {
		t.Fatalf("AddSimpleSource failed: %v", err)
	}
	b.CopyMetadata(map[string]string{"b": "2", "a": "1"})
	b.CopyGCPs([]coverage.GCP{{Pixel: 110, Line: 220, X: 11, Y: 47}}, 4326, &src)

	data, err := b.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	text := string(data)
	for _, want := range []string{
		`<VRTDataset rasterXSize="50" rasterYSize="50">`,
		`<SourceFilename relativeToVRT="0" shared="0">/data/scene.tif</SourceFilename>`,
		`<SourceBand>3</SourceBand>`,
		`<SrcRect xOff="100" yOff="200" xSize="50" ySize="50"></SrcRect>`,
		`<DstRect xOff="0" yOff="0" xSize="50" ySize="50"></DstRect>`,
		`<GCPList Projection="EPSG:4326">`,
		`<GCP Id="1" Pixel="10" Line="20" X="11" Y="47" Z="0"></GCP>`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("VRT does not contain %s:\n%s", want, text)
		}
	}
	if strings.Index(text, `key="a"`) > strings.Index(text, `key="b"`) {
		t.Error("metadata items are not sorted")
	}

	ds, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(ds.Bands) != 1 || ds.Bands[0].Sources[0].SrcRect.Rect() != src {
		t.Errorf("round trip lost the source window: %+v", ds.Bands)
	}
}

func TestBuilderErrors(t *testing.T) {
	b := NewBuilder(10, 10)
	if err := b.AddSimpleSource(1, "x.tif", 1, nil, nil); err == nil {
		t.Error("expected error for missing band")
	}
	b.AddBand("Byte", nil)
	if err := b.AddSimpleSource(1, "x.tif", 0, nil, nil); err == nil {
		t.Error("expected error for source band 0")
	}
}

func TestWriteFile(t *testing.T) {
	nodata := 0.0
	b := NewBuilder(4, 4)
	b.AddBand("Float32", &nodata)
	if err := b.AddSimpleSource(1, "a.tif", 1, nil, nil); err != nil {
		t.Fatalf("AddSimpleSource failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.vrt")
	if err := b.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), "<NoDataValue>0</NoDataValue>") {
		t.Errorf("nodata missing:\n%s", data)
	}
	if strings.Contains(string(data), "SrcRect") {
		t.Errorf("unexpected source window:\n%s", data)
	}
}
