package geo

import (
	"errors"
	"fmt"
	"math"
)

// EPSG codes understood by Transform.
const (
	SRIDWGS84          = 4326
	SRIDWebMercator    = 3857
	SRIDGoogleMercator = 900913
)

// originShift is 2 * pi * 6378137 / 2
const originShift = 20037508.342789244

// maxMercatorLat is where the spherical mercator square ends.
const maxMercatorLat = 85.051128779806604

// ErrUnsupportedSRID is returned for coordinate systems Transform cannot convert.
var ErrUnsupportedSRID = errors.New("unsupported spatial reference")

// BoundingBox represents bounds in a single coordinate system.
type BoundingBox struct {
	MinX, MinY, MaxX, MaxY float64
}

// Extend grows the box to include x, y.
func (b *BoundingBox) Extend(x, y float64) {
	b.MinX = math.Min(b.MinX, x)
	b.MinY = math.Min(b.MinY, y)
	b.MaxX = math.Max(b.MaxX, x)
	b.MaxY = math.Max(b.MaxY, y)
}

// EmptyBoundingBox returns a box that any Extend call replaces.
func EmptyBoundingBox() BoundingBox {
	return BoundingBox{
		MinX: math.Inf(1),
		MinY: math.Inf(1),
		MaxX: math.Inf(-1),
		MaxY: math.Inf(-1),
	}
}

// ProjectLatLon converts lat/lon in WGS84 to XY in Spherical Mercator (EPSG:900913/3857)
func ProjectLatLon(lat, lon float64) (float64, float64) {
	lat = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))
	x := lon * originShift / 180.0
	y := math.Log(math.Tan((90+lat)*math.Pi/360.0)) / (math.Pi / 180.0)
	y = y * originShift / 180.0

	return x, y
}

// UnprojectXY converts Spherical Mercator XY back to WGS84 lat/lon.
func UnprojectXY(x, y float64) (float64, float64) {
	lon := x / originShift * 180.0
	lat := y / originShift * 180.0
	lat = 180 / math.Pi * (2*math.Atan(math.Exp(lat*math.Pi/180.0)) - math.Pi/2.0)

	return lat, lon
}

func isMercator(srid int) bool {
	return srid == SRIDWebMercator || srid == SRIDGoogleMercator
}

// Reprojector converts points between EPSG systems in place.
type Reprojector func(src, dst int, xs, ys []float64) error

// reprojector handles the pairs the spherical mercator formulas cannot.
// It is nil unless built with GDAL support.
var reprojector Reprojector

// Supported reports whether Transform can convert between src and dst.
func Supported(src, dst int) bool {
	if src == dst {
		return true
	}
	known := func(s int) bool { return s == SRIDWGS84 || isMercator(s) }
	if known(src) && known(dst) {
		return true
	}
	return reprojector != nil && src > 0 && dst > 0
}

// Transform converts the point x, y (easting/longitude first) from src to
// dst.
func Transform(src, dst int, x, y float64) (float64, float64, error) {
	xs, ys := []float64{x}, []float64{y}
	if err := TransformPoints(src, dst, xs, ys); err != nil {
		return 0, 0, err
	}
	return xs[0], ys[0], nil
}

// TransformPoints converts the points in place. Identical systems and
// WGS84 <-> spherical mercator are computed directly, everything else goes
// through the GDAL reprojector when available.
func TransformPoints(src, dst int, xs, ys []float64) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("coordinate slices differ in length: %d != %d", len(xs), len(ys))
	}

	switch {
	case src == dst, isMercator(src) && isMercator(dst):
		return nil
	case src == SRIDWGS84 && isMercator(dst):
		for i := range xs {
			xs[i], ys[i] = ProjectLatLon(ys[i], xs[i])
		}
		return nil
	case isMercator(src) && dst == SRIDWGS84:
		for i := range xs {
			lat, lon := UnprojectXY(xs[i], ys[i])
			xs[i], ys[i] = lon, lat
		}
		return nil
	}

	if reprojector == nil || src <= 0 || dst <= 0 {
		return fmt.Errorf("%w: EPSG:%d to EPSG:%d", ErrUnsupportedSRID, src, dst)
	}
	if len(xs) == 0 {
		return nil
	}
	return reprojector(src, dst, xs, ys)
}
