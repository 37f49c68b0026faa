//go:build gdal

package geo

import (
	"fmt"

	"github.com/airbusgeo/godal"
)

func init() {
	reprojector = osrReproject
}

// osrReproject transforms through OGR spatial references. godal keeps the
// traditional GIS axis order, easting/longitude first.
func osrReproject(src, dst int, xs, ys []float64) error {
	srcSRS, err := godal.NewSpatialRefFromEPSG(src)
	if err != nil {
		return fmt.Errorf("%w: EPSG:%d: %v", ErrUnsupportedSRID, src, err)
	}
	defer srcSRS.Close()

	dstSRS, err := godal.NewSpatialRefFromEPSG(dst)
	if err != nil {
		return fmt.Errorf("%w: EPSG:%d: %v", ErrUnsupportedSRID, dst, err)
	}
	defer dstSRS.Close()

	transform, err := godal.NewTransform(srcSRS, dstSRS)
	if err != nil {
		return fmt.Errorf("%w: EPSG:%d to EPSG:%d: %v", ErrUnsupportedSRID, src, dst, err)
	}
	defer transform.Close()

	successful := make([]bool, len(xs))
	if err := transform.TransformEx(xs, ys, nil, successful); err != nil {
		return fmt.Errorf("transforming EPSG:%d to EPSG:%d: %w", src, dst, err)
	}
	return nil
}
