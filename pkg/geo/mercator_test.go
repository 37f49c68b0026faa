package geo

import (
	"errors"
	"math"
	"testing"
)

func TestProjectRoundTrip(t *testing.T) {
	points := [][2]float64{{0, 0}, {37.7749, -122.4194}, {-33.86, 151.2}, {60, 10}}

	for _, p := range points {
		x, y := ProjectLatLon(p[0], p[1])
		lat, lon := UnprojectXY(x, y)
		if math.Abs(lat-p[0]) > 1e-9 || math.Abs(lon-p[1]) > 1e-9 {
			t.Errorf("round trip of %v gave %v,%v", p, lat, lon)
		}
	}
}

func TestProjectKnownValues(t *testing.T) {
	x, y := ProjectLatLon(0, 180)
	if math.Abs(x-originShift) > 1e-6 || math.Abs(y) > 1e-6 {
		t.Errorf("unexpected projection of the antimeridian: %v,%v", x, y)
	}
}

func TestTransform(t *testing.T) {
	x, y, err := Transform(SRIDWGS84, SRIDWebMercator, 10, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lon, lat, err := Transform(SRIDGoogleMercator, SRIDWGS84, x, y)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(lon-10) > 1e-9 || math.Abs(lat-60) > 1e-9 {
		t.Errorf("unexpected round trip %v,%v", lon, lat)
	}

	if _, _, err := Transform(SRIDWGS84, 999999, 0, 0); !errors.Is(err, ErrUnsupportedSRID) {
		t.Errorf("expected ErrUnsupportedSRID, got %v", err)
	}
	if !Supported(32633, 32633) || Supported(SRIDWGS84, -1) {
		t.Error("unexpected Supported result")
	}
}

func TestTransformPoints(t *testing.T) {
	xs := []float64{0, 10, -170}
	ys := []float64{0, 60, -45}
	if err := TransformPoints(SRIDWGS84, SRIDWebMercator, xs, ys); err != nil {
		t.Fatalf("TransformPoints failed: %v", err)
	}
	for i, lonlat := range [][2]float64{{0, 0}, {10, 60}, {-170, -45}} {
		x, y := ProjectLatLon(lonlat[1], lonlat[0])
		if math.Abs(xs[i]-x) > 1e-9 || math.Abs(ys[i]-y) > 1e-9 {
			t.Errorf("point %d: got %v,%v want %v,%v", i, xs[i], ys[i], x, y)
		}
	}

	if err := TransformPoints(SRIDWGS84, SRIDWebMercator, []float64{1}, nil); err == nil {
		t.Error("expected error for slices of different length")
	}
}

func TestBoundingBoxExtend(t *testing.T) {
	b := EmptyBoundingBox()
	b.Extend(1, 2)
	b.Extend(-3, 5)
	if b != (BoundingBox{MinX: -3, MinY: 2, MaxX: 1, MaxY: 5}) {
		t.Errorf("unexpected box %+v", b)
	}
}
