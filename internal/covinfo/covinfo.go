// Package covinfo finds the top-most coverage of a collection at a point
// of interest and describes it as a small HTML page.
package covinfo

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/DREAM-ODA-OS/eoxserver/internal/coverage"
	"github.com/DREAM-ODA-OS/eoxserver/internal/reftools"
	"github.com/DREAM-ODA-OS/eoxserver/pkg/geo"
	"github.com/DREAM-ODA-OS/eoxserver/pkg/timetools"
)

// ErrUnknownCollection is returned when no coverage belongs to the
// requested collection.
var ErrUnknownCollection = errors.New("unknown collection")

// InputError reports an invalid query input.
type InputError struct {
	Input   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Input, e.Message)
}

// Query selects coverages of a collection whose footprint contains the
// point and whose time span overlaps Begin..End.
type Query struct {
	Collection string
	Longitude  float64
	Latitude   float64
	Begin      *time.Time
	End        *time.Time
}

// Validate checks the query inputs.
func (q Query) Validate() error {
	if q.Collection == "" {
		return &InputError{"collection", "a collection name is required"}
	}
	if !(q.Latitude >= -90 && q.Latitude <= 90) {
		return &InputError{"latitude", fmt.Sprintf("%g not in [-90, 90]", q.Latitude)}
	}
	if !(q.Longitude >= -180 && q.Longitude <= 180) {
		return &InputError{"longitude", fmt.Sprintf("%g not in [-180, 180]", q.Longitude)}
	}
	return nil
}

func (q Query) overlaps(cov *coverage.Coverage) bool {
	if q.End != nil && (cov.BeginTime == nil || cov.BeginTime.After(*q.End)) {
		return false
	}
	if q.Begin != nil && (cov.EndTime == nil || cov.EndTime.Before(*q.Begin)) {
		return false
	}
	return true
}

// Find returns the most recent matching coverage, nil when none matches.
// Ties are broken by the later end time, then the greater identifier.
func Find(catalog *coverage.Catalog, q Query) (*coverage.Coverage, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	known := false
	var matches []*coverage.Coverage
	for _, id := range catalog.Identifiers() {
		cov, _ := catalog.Get(id)
		if !slices.Contains(cov.Collections, q.Collection) {
			continue
		}
		known = true
		if !q.overlaps(cov) {
			continue
		}

		t, err := reftools.ForCoverage(cov)
		if err != nil {
			slog.Warn("skipping coverage without usable GCPs", "coverage", id, "error", err)
			continue
		}
		inside, err := t.Footprint(cov.SizeX, cov.SizeY).Contains(geo.SRIDWGS84, q.Longitude, q.Latitude)
		if err != nil {
			slog.Warn("skipping coverage", "coverage", id, "error", err)
			continue
		}
		if inside {
			matches = append(matches, cov)
		}
	}
	if !known {
		return nil, fmt.Errorf("%w '%s'", ErrUnknownCollection, q.Collection)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	slices.SortFunc(matches, func(a, b *coverage.Coverage) int {
		if c := compareTimes(b.BeginTime, a.BeginTime); c != 0 {
			return c
		}
		if c := compareTimes(b.EndTime, a.EndTime); c != 0 {
			return c
		}
		return strings.Compare(b.Identifier, a.Identifier)
	})
	return matches[0], nil
}

// compareTimes orders unset times first.
func compareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

// browseSize is the larger side of the browse image.
const browseSize = 200

// Info is what the HTML page shows about a coverage.
type Info struct {
	Identifier string
	BrowseURL  string
	Subtype    string
	SizeX      int
	SizeY      int
	Bands      int
	Begin      string
	End        string
	SRID       int
	Extent     geo.BoundingBox
}

// Describe collects the page contents. serviceURL is the base of the
// WMS browse request.
func Describe(cov *coverage.Coverage, serviceURL string) (*Info, error) {
	t, err := reftools.ForCoverage(cov)
	if err != nil {
		return nil, err
	}
	ext, err := t.Footprint(cov.SizeX, cov.SizeY).ExtentIn(geo.SRIDWGS84)
	if err != nil {
		return nil, err
	}

	info := &Info{
		Identifier: cov.Identifier,
		BrowseURL:  browseURL(serviceURL, cov.Identifier, ext),
		Subtype:    "ReferenceableDataset",
		SizeX:      cov.SizeX,
		SizeY:      cov.SizeY,
		Bands:      len(cov.RangeType),
		SRID:       cov.GCPSRID,
		Extent:     ext,
	}
	if cov.BeginTime != nil {
		info.Begin = timetools.Format(*cov.BeginTime)
	}
	if cov.EndTime != nil {
		info.End = timetools.Format(*cov.EndTime)
	}
	return info, nil
}

// browseURL builds a WMS 1.3.0 GetMap request; EPSG:4326 takes the bbox
// in latitude, longitude order.
func browseURL(serviceURL, identifier string, ext geo.BoundingBox) string {
	extX, extY := ext.MaxX-ext.MinX, ext.MaxY-ext.MinY
	sizeX, sizeY := browseSize, browseSize
	if extX < extY {
		sizeX = max(1, int(browseSize*extX/extY))
	}
	if extY < extX {
		sizeY = max(1, int(browseSize*extY/extX))
	}

	if serviceURL != "" && !strings.HasSuffix(serviceURL, "?") && !strings.HasSuffix(serviceURL, "&") {
		if strings.Contains(serviceURL, "?") {
			serviceURL += "&"
		} else {
			serviceURL += "?"
		}
	}

	var b strings.Builder
	b.WriteString(serviceURL)
	b.WriteString("SERVICE=WMS&VERSION=1.3.0&REQUEST=GetMap&STYLES=")
	b.WriteString("&FORMAT=image/png&DPI=96&TRANSPARENT=TRUE")
	fmt.Fprintf(&b, "&CRS=EPSG:4326&WIDTH=%d&HEIGHT=%d", sizeX, sizeY)
	fmt.Fprintf(&b, "&BBOX=%s,%s,%s,%s", bboxCoord(ext.MinY), bboxCoord(ext.MinX), bboxCoord(ext.MaxY), bboxCoord(ext.MaxX))
	fmt.Fprintf(&b, "&LAYERS=%s,%s_outlines", identifier, identifier)
	return b.String()
}

func bboxCoord(v float64) string {
	if v == 0 {
		v = math.Abs(v) // no "-0"
	}
	return fmt.Sprintf("%.7g", v)
}
