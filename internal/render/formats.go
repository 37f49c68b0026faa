package render

import (
	"strings"
	"sync"
)

// Format describes an output or source file format.
type Format struct {
	MimeType string
	// Driver is "<backend>/<driver>", e.g. "GDAL/GTiff".
	Driver    string
	Extension string
	Writable  bool
}

// Backend splits the driver into backend and driver name.
func (f Format) Backend() (backend, driver string) {
	backend, driver, _ = strings.Cut(f.Driver, "/")
	return backend, driver
}

// Registry maps MIME types to formats and source formats to the native
// WCS 2.0 output format.
type Registry struct {
	mu            sync.RWMutex
	formats       map[string]Format
	native        map[string]string
	defaultNative string
}

// NewRegistry returns an empty registry. Unmapped writable source formats
// are their own native format, everything else falls back to
// defaultNative.
func NewRegistry(defaultNative string) *Registry {
	return &Registry{
		formats:       make(map[string]Format),
		native:        make(map[string]string),
		defaultNative: defaultNative,
	}
}

// DefaultRegistry knows the formats the GDAL command line tools commonly
// write.
func DefaultRegistry() *Registry {
	r := NewRegistry("image/tiff")
	for _, f := range []Format{
		{MimeType: "image/tiff", Driver: "GDAL/GTiff", Extension: "tif", Writable: true},
		{MimeType: "image/jp2", Driver: "GDAL/JPEG2000", Extension: "jp2", Writable: true},
		{MimeType: "image/png", Driver: "GDAL/PNG", Extension: "png", Writable: true},
		{MimeType: "image/jpeg", Driver: "GDAL/JPEG", Extension: "jpg", Writable: true},
		{MimeType: "application/x-netcdf", Driver: "GDAL/netCDF", Extension: "nc", Writable: true},
		{MimeType: "application/x-hdf", Driver: "GDAL/HDF4Image", Extension: "hdf", Writable: true},
		{MimeType: "application/x-esa-envisat", Driver: "GDAL/ESAT", Extension: "n1"},
		{MimeType: "application/x-ers", Driver: "GDAL/ERS", Extension: "ers", Writable: true},
	} {
		r.Register(f)
	}
	r.MapNative("application/x-esa-envisat", "image/tiff")
	return r
}

// Register adds or replaces a format.
func (r *Registry) Register(f Format) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formats[strings.ToLower(f.MimeType)] = f
}

// MapNative sets the native output format of a source format.
func (r *Registry) MapNative(source, native string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.native[strings.ToLower(source)] = strings.ToLower(native)
}

// ByMIME looks a format up by MIME type.
func (r *Registry) ByMIME(mime string) (Format, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formats[strings.ToLower(strings.TrimSpace(mime))]
	return f, ok
}

// NativeWCS20 returns the native output format of a source format.
func (r *Registry) NativeWCS20(source string) (Format, bool) {
	src, ok := r.ByMIME(source)
	if !ok {
		return Format{}, false
	}

	r.mu.RLock()
	mapped, found := r.native[strings.ToLower(src.MimeType)]
	r.mu.RUnlock()

	switch {
	case found:
		return r.ByMIME(mapped)
	case src.Writable:
		return src, true
	default:
		return r.ByMIME(r.defaultNative)
	}
}
