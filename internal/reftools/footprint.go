package reftools

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/DREAM-ODA-OS/eoxserver/pkg/geo"
	"github.com/DREAM-ODA-OS/eoxserver/pkg/rect"
)

// samples per axis when mapping a bounding box into pixel space
const gridSamples = 21

// points per image edge in a footprint
const edgeSamples = 10

// pixelLimit bounds pixel positions before integer conversion.
const pixelLimit = 1 << 31

// RectFromSubset returns the pixel rectangle covering the bounding box
// minx, miny, maxx, maxy given in srid. The result is not clipped to the
// image but spans at least one pixel per axis.
func (t *Transformer) RectFromSubset(srid int, minx, miny, maxx, maxy float64) (rect.Rect, error) {
	if !geo.Supported(srid, t.SRID) {
		return rect.Rect{}, fmt.Errorf("%w: subset in EPSG:%d, GCPs in EPSG:%d", geo.ErrUnsupportedSRID, srid, t.SRID)
	}

	xs := make([]float64, 0, gridSamples*gridSamples)
	ys := make([]float64, 0, gridSamples*gridSamples)
	for i := 0; i < gridSamples; i++ {
		x := minx + (maxx-minx)*float64(i)/float64(gridSamples-1)
		for j := 0; j < gridSamples; j++ {
			xs = append(xs, x)
			ys = append(ys, miny+(maxy-miny)*float64(j)/float64(gridSamples-1))
		}
	}
	if err := geo.TransformPoints(srid, t.SRID, xs, ys); err != nil {
		return rect.Rect{}, err
	}

	minP, minL := math.Inf(1), math.Inf(1)
	maxP, maxL := math.Inf(-1), math.Inf(-1)
	for i := range xs {
		p, l := t.GeoToPixel(xs[i], ys[i])
		if math.IsNaN(p) || math.IsNaN(l) || math.IsInf(p, 0) || math.IsInf(l, 0) {
			continue
		}
		minP, maxP = math.Min(minP, p), math.Max(maxP, p)
		minL, maxL = math.Min(minL, l), math.Max(maxL, l)
	}

	if math.IsInf(minP, 0) || math.IsInf(minL, 0) {
		return rect.Rect{}, fmt.Errorf("subset could not be transformed into pixel space")
	}

	offX, offY := pixelFloor(minP), pixelFloor(minL)
	upX, upY := pixelCeil(maxP), pixelCeil(maxL)
	// a slice of the axis still covers the pixel it falls into
	return rect.FromUpper(offX, offY, max(upX, offX+1), max(upY, offY+1)), nil
}

func pixelFloor(v float64) int {
	return int(math.Max(-pixelLimit, math.Min(pixelLimit, math.Floor(snap(v)))))
}

func pixelCeil(v float64) int {
	return int(math.Max(-pixelLimit, math.Min(pixelLimit, math.Ceil(snap(v)))))
}

// snap rounds values within fitting noise of an integer.
func snap(v float64) float64 {
	if r := math.Round(v); math.Abs(v-r) < 1e-6 {
		return r
	}
	return v
}

// Footprint is the outline of an image in the GCP coordinate system.
type Footprint struct {
	SRID   int
	Points [][2]float64
	Extent geo.BoundingBox
}

// Footprint traces the outline of a sizeX x sizeY image.
func (t *Transformer) Footprint(sizeX, sizeY int) *Footprint {
	corners := [][2]float64{
		{0, 0},
		{float64(sizeX), 0},
		{float64(sizeX), float64(sizeY)},
		{0, float64(sizeY)},
	}

	fp := &Footprint{SRID: t.SRID, Extent: geo.EmptyBoundingBox()}
	for c := range corners {
		from, to := corners[c], corners[(c+1)%len(corners)]
		for s := 0; s < edgeSamples; s++ {
			f := float64(s) / edgeSamples
			x, y := t.PixelToGeo(from[0]+(to[0]-from[0])*f, from[1]+(to[1]-from[1])*f)
			fp.Points = append(fp.Points, [2]float64{x, y})
			fp.Extent.Extend(x, y)
		}
	}
	// close the ring
	fp.Points = append(fp.Points, fp.Points[0])

	return fp
}

// ExtentIn returns the footprint extent converted to srid.
func (fp *Footprint) ExtentIn(srid int) (geo.BoundingBox, error) {
	if srid == fp.SRID {
		return fp.Extent, nil
	}
	xs := make([]float64, len(fp.Points))
	ys := make([]float64, len(fp.Points))
	for i, p := range fp.Points {
		xs[i], ys[i] = p[0], p[1]
	}
	if err := geo.TransformPoints(fp.SRID, srid, xs, ys); err != nil {
		return geo.BoundingBox{}, err
	}
	ext := geo.EmptyBoundingBox()
	for i := range xs {
		ext.Extend(xs[i], ys[i])
	}
	return ext, nil
}

// Contains reports whether the point x, y given in srid lies inside the
// footprint or on its outline.
func (fp *Footprint) Contains(srid int, x, y float64) (bool, error) {
	if srid != fp.SRID {
		var err error
		if x, y, err = geo.Transform(srid, fp.SRID, x, y); err != nil {
			return false, err
		}
	}
	ring := make(orb.Ring, len(fp.Points))
	for i, p := range fp.Points {
		ring[i] = orb.Point{p[0], p[1]}
	}
	return planar.RingContains(ring, orb.Point{x, y}), nil
}

// formatCoord writes at most 10 decimals.
func formatCoord(v float64) string {
	r := math.Round(v*1e10) / 1e10
	if r == 0 {
		r = 0 // no "-0"
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// WKT encodes the footprint as a WKT polygon.
func (fp *Footprint) WKT() string {
	var b strings.Builder
	b.WriteString("POLYGON((")
	for i, p := range fp.Points {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(formatCoord(p[0]))
		b.WriteString(" ")
		b.WriteString(formatCoord(p[1]))
	}
	b.WriteString("))")
	return b.String()
}
