// Package subset parses and validates spatial subset requests. A request is
// either a pixel subset (imageCRS) or a geographic bounding box tagged with
// an EPSG code; the two never mix.
package subset

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ValidationError reports a malformed subset before any rectangle is built.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Axis identifies a horizontal axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	if a == AxisY {
		return "y"
	}
	return "x"
}

// Interval is a closed range on one axis. A nil bound is open.
type Interval struct {
	Low  *float64 `json:"low,omitempty"`
	High *float64 `json:"high,omitempty"`
}

// Subsets is the spatial part of a coverage request.
type Subsets struct {
	// SRID is nil for pixel (imageCRS) subsets.
	SRID *int      `json:"srid,omitempty"`
	X    *Interval `json:"x,omitempty"`
	Y    *Interval `json:"y,omitempty"`
}

// IsEmpty reports whether no axis is restricted.
func (s *Subsets) IsEmpty() bool {
	return s == nil || (s.X == nil && s.Y == nil)
}

// HasX reports whether the x axis is restricted.
func (s *Subsets) HasX() bool { return s != nil && s.X != nil }

// HasY reports whether the y axis is restricted.
func (s *Subsets) HasY() bool { return s != nil && s.Y != nil }

// IsPixel reports whether the subsets are given in image coordinates.
func (s *Subsets) IsPixel() bool { return s == nil || s.SRID == nil }

// XYBBox returns minx, miny, maxx, maxy; nil entries are unbounded.
func (s *Subsets) XYBBox() (minx, miny, maxx, maxy *float64) {
	if s == nil {
		return nil, nil, nil, nil
	}
	if s.X != nil {
		minx, maxx = s.X.Low, s.X.High
	}
	if s.Y != nil {
		miny, maxy = s.Y.Low, s.Y.High
	}
	return minx, miny, maxx, maxy
}

var axisNames = map[string]Axis{
	"x":    AxisX,
	"i":    AxisX,
	"e":    AxisX,
	"lon":  AxisX,
	"long": AxisX,
	"y":    AxisY,
	"j":    AxisY,
	"n":    AxisY,
	"lat":  AxisY,
}

// geographicAxes imply EPSG:4326 when no CRS is given.
var geographicAxes = map[string]bool{"lon": true, "long": true, "lat": true}

// axis[,crs](low[,high])
var subsetRegexp = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*(?:,\s*([^()]+?))?\s*\(\s*([^,()]*?)\s*(?:,\s*([^,()]*?)\s*)?\)\s*$`)

var (
	crsURLRegexp = regexp.MustCompile(`^https?://www\.opengis\.net/def/crs/EPSG/0/(\d+)$`)
	crsURNRegexp = regexp.MustCompile(`^(?i)urn:ogc:def:crs:EPSG:[^:]*:(\d+)$`)
	crsCodeRegex = regexp.MustCompile(`^(?i)EPSG:(\d+)$`)
)

// ParseCRS converts a CRS reference into an EPSG code. imageCRS references
// return nil.
func ParseCRS(ref string) (*int, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "", strings.EqualFold(ref, "imageCRS"),
		strings.HasSuffix(ref, "/def/crs/OGC/0/Index2D"):
		return nil, nil
	}

	for _, re := range []*regexp.Regexp{crsURLRegexp, crsURNRegexp, crsCodeRegex} {
		if m := re.FindStringSubmatch(ref); m != nil {
			code, err := strconv.Atoi(m[1])
			if err != nil || code <= 0 {
				return nil, invalid("crs", "invalid EPSG code in %q", ref)
			}
			return &code, nil
		}
	}

	return nil, invalid("crs", "unsupported CRS reference %q", ref)
}

func parseBound(field, value string) (*float64, error) {
	if value == "*" {
		return nil, nil
	}
	if value == "" {
		return nil, invalid(field, "missing bound")
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, invalid(field, "bound %q is not a number", value)
	}
	return &v, nil
}

type parsedSubset struct {
	axis     Axis
	srid     *int
	explicit bool
	interval Interval
}

func parseOne(value string) (*parsedSubset, error) {
	m := subsetRegexp.FindStringSubmatch(value)
	if m == nil {
		return nil, invalid("subset", "malformed subset %q, expected 'axis[,crs](low,high)'", value)
	}

	name := strings.ToLower(m[1])
	axis, ok := axisNames[name]
	if !ok {
		return nil, invalid("subset", "unsupported axis %q", m[1])
	}

	p := &parsedSubset{axis: axis}
	if m[2] != "" {
		srid, err := ParseCRS(m[2])
		if err != nil {
			return nil, err
		}
		p.srid = srid
		p.explicit = true
	} else if geographicAxes[name] {
		wgs84 := 4326
		p.srid = &wgs84
	}

	field := "subset " + m[1]
	low, err := parseBound(field, m[3])
	if err != nil {
		return nil, err
	}
	// a single value slices the axis
	high := low
	body := value[strings.LastIndex(value, "("):]
	if strings.Contains(body, ",") {
		high, err = parseBound(field, m[4])
		if err != nil {
			return nil, err
		}
	}
	if low != nil && high != nil && *low > *high {
		return nil, invalid(field, "lower bound %g exceeds upper bound %g", *low, *high)
	}

	p.interval = Interval{Low: low, High: high}
	return p, nil
}

// Parse builds Subsets from WCS 2.0 style KVP subset values such as
// "x(100,149)" or "Lat,http://www.opengis.net/def/crs/EPSG/0/4326(32,47)".
// subsettingCRS applies to every subset that does not name its own CRS.
func Parse(values []string, subsettingCRS string) (*Subsets, error) {
	defaultSRID, err := ParseCRS(subsettingCRS)
	if err != nil {
		return nil, err
	}

	s := &Subsets{}
	sridSet := false
	for _, value := range values {
		p, err := parseOne(value)
		if err != nil {
			return nil, err
		}

		srid := p.srid
		if !p.explicit && subsettingCRS != "" {
			srid = defaultSRID
		}

		if sridSet && !sameSRID(s.SRID, srid) {
			return nil, invalid("subset", "all subsets must use the same CRS")
		}
		s.SRID = srid
		sridSet = true

		interval := p.interval
		switch p.axis {
		case AxisX:
			if s.X != nil {
				return nil, invalid("subset", "axis x subsetted more than once")
			}
			s.X = &interval
		case AxisY:
			if s.Y != nil {
				return nil, invalid("subset", "axis y subsetted more than once")
			}
			s.Y = &interval
		}
	}

	return s, nil
}

func sameSRID(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
