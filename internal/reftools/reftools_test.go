package reftools

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/DREAM-ODA-OS/eoxserver/internal/coverage"
	"github.com/DREAM-ODA-OS/eoxserver/pkg/geo"
	"github.com/DREAM-ODA-OS/eoxserver/pkg/rect"
)

// affineGCPs describe a 100x100 image covering lon 10..20, lat 40..50.
func affineGCPs() []coverage.GCP {
	var gcps []coverage.GCP
	for _, pl := range [][2]float64{{0, 0}, {100, 0}, {0, 100}, {100, 100}, {50, 50}} {
		gcps = append(gcps, coverage.GCP{
			Pixel: pl[0],
			Line:  pl[1],
			X:     10 + pl[0]*0.1,
			Y:     50 - pl[1]*0.1,
		})
	}
	return gcps
}

func TestSuggestOrder(t *testing.T) {
	testCases := map[int]int{3: 1, 5: 1, 6: 2, 9: 2, 10: 3, 40: 3}
	for n, want := range testCases {
		if got := SuggestOrder(n); got != want {
			t.Errorf("SuggestOrder(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestAffineTransformer(t *testing.T) {
	tr, err := NewTransformer(affineGCPs(), 4326, 0)
	if err != nil {
		t.Fatalf("NewTransformer failed: %v", err)
	}
	if tr.Order != 1 {
		t.Errorf("expected order 1, got %d", tr.Order)
	}

	x, y := tr.PixelToGeo(25, 75)
	if math.Abs(x-12.5) > 1e-9 || math.Abs(y-42.5) > 1e-9 {
		t.Errorf("PixelToGeo(25, 75) = %v, %v", x, y)
	}

	p, l := tr.GeoToPixel(12.5, 42.5)
	if math.Abs(p-25) > 1e-9 || math.Abs(l-75) > 1e-9 {
		t.Errorf("GeoToPixel(12.5, 42.5) = %v, %v", p, l)
	}
}

func TestQuadraticTransformer(t *testing.T) {
	var gcps []coverage.GCP
	for _, p := range []float64{0, 50, 100} {
		for _, l := range []float64{0, 50, 100} {
			gcps = append(gcps, coverage.GCP{
				Pixel: p,
				Line:  l,
				X:     p + 0.001*p*p,
				Y:     l + 0.002*p*l,
			})
		}
	}

	tr, err := NewTransformer(gcps, 4326, 0)
	if err != nil {
		t.Fatalf("NewTransformer failed: %v", err)
	}
	if tr.Order != 2 {
		t.Fatalf("expected order 2 for 9 GCPs, got %d", tr.Order)
	}

	x, y := tr.PixelToGeo(20, 30)
	if math.Abs(x-20.4) > 1e-6 || math.Abs(y-31.2) > 1e-6 {
		t.Errorf("PixelToGeo(20, 30) = %v, %v", x, y)
	}
}

func TestTransformerErrors(t *testing.T) {
	if _, err := NewTransformer(affineGCPs()[:2], 4326, 0); !errors.Is(err, ErrTooFewGCPs) {
		t.Errorf("expected ErrTooFewGCPs, got %v", err)
	}

	collinear := []coverage.GCP{
		{Pixel: 0, Line: 0, X: 0, Y: 0},
		{Pixel: 1, Line: 1, X: 1, Y: 1},
		{Pixel: 2, Line: 2, X: 2, Y: 2},
	}
	if _, err := NewTransformer(collinear, 4326, 1); !errors.Is(err, ErrDegenerateGCPs) {
		t.Errorf("expected ErrDegenerateGCPs, got %v", err)
	}

	duplicated := []coverage.GCP{
		{Pixel: 0, Line: 0, X: 0, Y: 0},
		{Pixel: 0, Line: 0, X: 0, Y: 0},
		{Pixel: 5, Line: 0, X: 5, Y: 0},
	}
	if _, err := NewTransformer(duplicated, 4326, 1); !errors.Is(err, ErrDegenerateGCPs) {
		t.Errorf("expected ErrDegenerateGCPs, got %v", err)
	}

	if _, err := NewTransformer(affineGCPs(), 4326, 3); err == nil {
		t.Error("expected error for order 3 with 5 GCPs")
	}
}

func TestRectFromSubset(t *testing.T) {
	tr, err := NewTransformer(affineGCPs(), 4326, 0)
	if err != nil {
		t.Fatalf("NewTransformer failed: %v", err)
	}

	got, err := tr.RectFromSubset(4326, 12, 45, 14, 48)
	if err != nil {
		t.Fatalf("RectFromSubset failed: %v", err)
	}
	if want := rect.New(20, 20, 20, 30); got != want {
		t.Errorf("RectFromSubset = %v, want %v", got, want)
	}

	minx, miny := geo.ProjectLatLon(45, 12)
	maxx, maxy := geo.ProjectLatLon(48, 14)
	got, err = tr.RectFromSubset(3857, minx, miny, maxx, maxy)
	if err != nil {
		t.Fatalf("RectFromSubset in EPSG:3857 failed: %v", err)
	}
	if want := rect.New(20, 20, 20, 30); got != want {
		t.Errorf("RectFromSubset(EPSG:3857) = %v, want %v", got, want)
	}

	if _, err := tr.RectFromSubset(999999, 0, 0, 1, 1); !errors.Is(err, geo.ErrUnsupportedSRID) {
		t.Errorf("expected ErrUnsupportedSRID, got %v", err)
	}
}

func TestRectFromSubsetSlice(t *testing.T) {
	tr, err := NewTransformer(affineGCPs(), 4326, 0)
	if err != nil {
		t.Fatalf("NewTransformer failed: %v", err)
	}

	testCases := []struct {
		name                   string
		minx, miny, maxx, maxy float64
		want                   rect.Rect
	}{
		{"point on pixel corner", 12, 45, 12, 45, rect.New(20, 50, 1, 1)},
		{"point inside pixel", 12.05, 44.95, 12.05, 44.95, rect.New(20, 50, 1, 1)},
		{"longitude slice", 12, 45, 12, 48, rect.New(20, 20, 1, 30)},
		{"latitude slice", 12, 45, 14, 45, rect.New(20, 50, 20, 1)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tr.RectFromSubset(4326, tc.minx, tc.miny, tc.maxx, tc.maxy)
			if err != nil {
				t.Fatalf("RectFromSubset failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("RectFromSubset = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRectFromSubsetHugeBounds(t *testing.T) {
	tr, err := NewTransformer(affineGCPs(), 4326, 0)
	if err != nil {
		t.Fatalf("NewTransformer failed: %v", err)
	}

	got, err := tr.RectFromSubset(4326, -1e300, -1e300, 1e300, 1e300)
	if err != nil {
		t.Fatalf("RectFromSubset failed: %v", err)
	}
	image := rect.New(0, 0, 100, 100)
	if !got.Intersects(image) || got.Intersection(image) != image {
		t.Errorf("expected %v to cover the image", got)
	}
}

func TestFootprint(t *testing.T) {
	tr, err := NewTransformer(affineGCPs(), 4326, 0)
	if err != nil {
		t.Fatalf("NewTransformer failed: %v", err)
	}

	fp := tr.Footprint(100, 100)
	if len(fp.Points) != 4*edgeSamples+1 {
		t.Errorf("unexpected number of points %d", len(fp.Points))
	}
	if fp.Points[0] != fp.Points[len(fp.Points)-1] {
		t.Error("footprint ring is not closed")
	}

	ext := fp.Extent
	if math.Abs(ext.MinX-10) > 1e-9 || math.Abs(ext.MaxX-20) > 1e-9 ||
		math.Abs(ext.MinY-40) > 1e-9 || math.Abs(ext.MaxY-50) > 1e-9 {
		t.Errorf("unexpected extent %+v", ext)
	}

	wkt := fp.WKT()
	if !strings.HasPrefix(wkt, "POLYGON((10 50,") || !strings.HasSuffix(wkt, "10 50))") {
		t.Errorf("unexpected WKT %s", wkt)
	}

	for _, tc := range []struct {
		srid   int
		x, y   float64
		inside bool
	}{
		{4326, 15, 45, true},
		{4326, 10.5, 49.5, true},
		{4326, 21, 45, false},
		{4326, 15, 39.9, false},
	} {
		got, err := fp.Contains(tc.srid, tc.x, tc.y)
		if err != nil {
			t.Fatalf("Contains failed: %v", err)
		}
		if got != tc.inside {
			t.Errorf("Contains(%v, %v) = %v, want %v", tc.x, tc.y, got, tc.inside)
		}
	}
	mx, my := geo.ProjectLatLon(45, 15)
	if inside, err := fp.Contains(3857, mx, my); err != nil || !inside {
		t.Errorf("Contains in EPSG:3857 = %v, %v", inside, err)
	}

	merc, err := fp.ExtentIn(3857)
	if err != nil {
		t.Fatalf("ExtentIn failed: %v", err)
	}
	wantX, _ := geo.ProjectLatLon(0, 20)
	if math.Abs(merc.MaxX-wantX) > 1e-3 {
		t.Errorf("unexpected mercator extent %+v", merc)
	}
}
