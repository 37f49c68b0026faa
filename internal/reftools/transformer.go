// Package reftools georeferences referenceable datasets through their
// ground control points: pixel rectangles for geographic subsets and
// footprints for the outline of the image.
package reftools

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/DREAM-ODA-OS/eoxserver/internal/coverage"
)

var (
	// ErrTooFewGCPs is returned when a polynomial cannot be fitted.
	ErrTooFewGCPs = errors.New("at least 3 ground control points are required")
	// ErrDegenerateGCPs is returned for collinear or duplicated GCPs.
	ErrDegenerateGCPs = errors.New("ground control points are degenerate (collinear or duplicated)")
)

// MaxOrder is the highest supported polynomial order.
const MaxOrder = 3

// SuggestOrder picks the polynomial order for n GCPs the same way GDAL does
// when no order is requested.
func SuggestOrder(n int) int {
	switch {
	case n < 6:
		return 1
	case n < 10:
		return 2
	default:
		return 3
	}
}

func termCount(order int) int {
	return (order + 1) * (order + 2) / 2
}

// terms evaluates 1, u, v, u², uv, v², u³, u²v, uv², v³ up to order.
func terms(order int, u, v float64, out []float64) {
	i := 0
	for d := 0; d <= order; d++ {
		for k := 0; k <= d; k++ {
			out[i] = math.Pow(u, float64(d-k)) * math.Pow(v, float64(k))
			i++
		}
	}
}

// normalization maps coordinates into roughly [-1, 1] to keep the design
// matrix well conditioned.
type normalization struct {
	cu, cv, su, sv float64
}

func newNormalization(us, vs []float64) normalization {
	n := normalization{su: 1, sv: 1}
	if len(us) == 0 {
		return n
	}
	minU, maxU := us[0], us[0]
	minV, maxV := vs[0], vs[0]
	for i := range us {
		minU, maxU = math.Min(minU, us[i]), math.Max(maxU, us[i])
		minV, maxV = math.Min(minV, vs[i]), math.Max(maxV, vs[i])
	}
	n.cu, n.cv = (minU+maxU)/2, (minV+maxV)/2
	if d := (maxU - minU) / 2; d > 0 {
		n.su = d
	}
	if d := (maxV - minV) / 2; d > 0 {
		n.sv = d
	}
	return n
}

func (n normalization) apply(u, v float64) (float64, float64) {
	return (u - n.cu) / n.su, (v - n.cv) / n.sv
}

// maxCondition bounds the condition number of an acceptable design matrix.
const maxCondition = 1e10

// polynomial maps (u, v) to (a, b) with one coefficient vector per output.
type polynomial struct {
	order int
	norm  normalization
	ca    []float64
	cb    []float64
}

// fitPolynomial solves the least squares problem design * coeffs = targets
// for both outputs at once.
func fitPolynomial(order int, us, vs, as, bs []float64) (*polynomial, error) {
	m := termCount(order)
	n := len(us)
	if n < m {
		return nil, fmt.Errorf("order %d polynomial needs %d GCPs, have %d", order, m, n)
	}

	p := &polynomial{order: order, norm: newNormalization(us, vs)}

	design := mat.NewDense(n, m, nil)
	targets := mat.NewDense(n, 2, nil)
	row := make([]float64, m)
	for i := range us {
		u, v := p.norm.apply(us[i], vs[i])
		terms(order, u, v, row)
		design.SetRow(i, row)
		targets.Set(i, 0, as[i])
		targets.Set(i, 1, bs[i])
	}

	if c := mat.Cond(design, 2); math.IsNaN(c) || c > maxCondition {
		return nil, ErrDegenerateGCPs
	}

	var coeffs mat.Dense
	if err := coeffs.Solve(design, targets); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateGCPs, err)
	}
	p.ca = mat.Col(nil, 0, &coeffs)
	p.cb = mat.Col(nil, 1, &coeffs)
	return p, nil
}

func (p *polynomial) eval(u, v float64) (float64, float64) {
	nu, nv := p.norm.apply(u, v)
	row := make([]float64, len(p.ca))
	terms(p.order, nu, nv, row)

	var a, b float64
	for i, t := range row {
		a += p.ca[i] * t
		b += p.cb[i] * t
	}
	return a, b
}

// Transformer converts between pixel/line and the GCP coordinate system.
type Transformer struct {
	Order   int
	SRID    int
	forward *polynomial
	inverse *polynomial
}

// NewTransformer fits forward and inverse polynomials of the given order
// to the GCPs. Order 0 picks SuggestOrder(len(gcps)).
func NewTransformer(gcps []coverage.GCP, srid, order int) (*Transformer, error) {
	if len(gcps) < coverage.MinGCPs {
		return nil, ErrTooFewGCPs
	}
	if order == 0 {
		order = SuggestOrder(len(gcps))
	}
	if order < 1 || order > MaxOrder {
		return nil, fmt.Errorf("unsupported polynomial order %d", order)
	}

	n := len(gcps)
	pixels, lines := make([]float64, n), make([]float64, n)
	xs, ys := make([]float64, n), make([]float64, n)
	for i, g := range gcps {
		pixels[i], lines[i], xs[i], ys[i] = g.Pixel, g.Line, g.X, g.Y
	}

	forward, err := fitPolynomial(order, pixels, lines, xs, ys)
	if err != nil {
		return nil, err
	}
	inverse, err := fitPolynomial(order, xs, ys, pixels, lines)
	if err != nil {
		return nil, err
	}

	return &Transformer{Order: order, SRID: srid, forward: forward, inverse: inverse}, nil
}

// ForCoverage builds the suggested transformer for a coverage.
func ForCoverage(cov *coverage.Coverage) (*Transformer, error) {
	t, err := NewTransformer(cov.GCPs, cov.GCPSRID, 0)
	if err != nil {
		return nil, fmt.Errorf("coverage %s: %w", cov.Identifier, err)
	}
	return t, nil
}

// PixelToGeo transforms a pixel/line position into GCP coordinates.
func (t *Transformer) PixelToGeo(pixel, line float64) (float64, float64) {
	return t.forward.eval(pixel, line)
}

// GeoToPixel transforms GCP coordinates into a pixel/line position.
func (t *Transformer) GeoToPixel(x, y float64) (float64, float64) {
	return t.inverse.eval(x, y)
}
