package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/DREAM-ODA-OS/eoxserver/internal/api"
	"github.com/DREAM-ODA-OS/eoxserver/internal/coverage"
	"github.com/DREAM-ODA-OS/eoxserver/internal/covinfo"
	"github.com/DREAM-ODA-OS/eoxserver/internal/render"
	"github.com/DREAM-ODA-OS/eoxserver/pkg/rect"
	"github.com/DREAM-ODA-OS/eoxserver/pkg/subset"
	"github.com/DREAM-ODA-OS/eoxserver/pkg/timetools"
)

// Server implements the ServerInterface from the generated API
type Server struct {
	startTime time.Time
	version   string

	catalog    *coverage.Catalog
	renderer   *render.Renderer
	paths      *Id2PathView
	serviceURL string
}

// NewServer creates a new server instance. A nil paths view disables the
// id2path endpoint.
func NewServer(version string, catalog *coverage.Catalog, renderer *render.Renderer, paths *Id2PathView) *Server {
	if catalog == nil {
		catalog, _ = coverage.NewCatalog()
	}
	return &Server{
		startTime: time.Now(),
		version:   version,
		catalog:   catalog,
		renderer:  renderer,
		paths:     paths,
	}
}

// SetServiceURL sets the base URL of the browse images linked from the
// coverage info pages.
func (s *Server) SetServiceURL(serviceURL string) {
	s.serviceURL = serviceURL
}

// GetHealth implements the health check endpoint
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	uptime := int(time.Since(s.startTime).Seconds())

	response := api.HealthResponse{
		Status:    api.Healthy,
		Timestamp: time.Now(),
		Uptime:    &uptime,
		Version:   &s.version,
	}

	writeJSON(w, http.StatusOK, response)
}

// ListCoverages returns the identifiers of the catalog.
func (s *Server) ListCoverages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.CoverageList{Coverages: s.catalog.Identifiers()})
}

// GetCoverageInfo describes the top-most coverage of a collection at a
// point. The body is empty when no coverage matches.
func (s *Server) GetCoverageInfo(w http.ResponseWriter, r *http.Request, params api.GetCoverageInfoParams) {
	requestID := requestIDFrom(r)

	q := covinfo.Query{
		Collection: params.Collection,
		Longitude:  params.Lon,
		Latitude:   params.Lat,
	}
	for _, bound := range []struct {
		name  string
		value *string
		dst   **time.Time
	}{
		{"begin", params.Begin, &q.Begin},
		{"end", params.End, &q.End},
	} {
		if bound.value == nil {
			continue
		}
		t, err := timetools.ParseISO8601(*bound.value)
		if err != nil {
			s.writeValidationErrorResponse(w, bound.name, err.Error(), &requestID)
			return
		}
		*bound.dst = &t
	}

	cov, err := covinfo.Find(s.catalog, q)
	var inputErr *covinfo.InputError
	switch {
	case errors.As(err, &inputErr):
		s.writeValidationErrorResponse(w, inputErr.Input, inputErr.Error(), &requestID)
		return
	case errors.Is(err, covinfo.ErrUnknownCollection):
		s.writeValidationErrorResponse(w, "collection", err.Error(), &requestID)
		return
	case err != nil:
		slog.Error("coverage info lookup failed", "error", err, "request_id", requestID)
		s.writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Internal server error", &requestID, nil)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if cov == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	info, err := covinfo.Describe(cov, s.serviceURL)
	if err != nil {
		slog.Error("describing coverage", "coverage", cov.Identifier, "error", err, "request_id", requestID)
		s.writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Internal server error", &requestID, nil)
		return
	}
	w.WriteHeader(http.StatusOK)
	if err := info.WriteHTML(w); err != nil {
		slog.Error("writing coverage info", "error", err, "request_id", requestID)
	}
}

// RenderCoverage cuts and encodes a subset of one coverage.
func (s *Server) RenderCoverage(w http.ResponseWriter, r *http.Request, coverageId string, params api.RenderCoverageParams) {
	requestID := requestIDFrom(r)

	cov, ok := s.catalog.Get(coverageId)
	if !ok {
		s.writeErrorResponse(w, http.StatusNotFound, "NOT_FOUND",
			fmt.Sprintf("No such coverage %s", coverageId), &requestID, nil)
		return
	}

	p, err := convertToRenderParams(cov, params)
	if err != nil {
		s.handleRenderError(w, err, &requestID)
		return
	}

	if s.renderer == nil {
		s.writeErrorResponse(w, http.StatusServiceUnavailable, "RENDERER_UNAVAILABLE",
			"Rendering is not configured", &requestID, nil)
		return
	}

	result, err := s.renderer.Render(r.Context(), p)
	if err != nil {
		s.handleRenderError(w, err, &requestID)
		return
	}

	writeJSON(w, http.StatusOK, convertRenderResult(result))
}

// GetId2path serves the tracked paths of a data object.
func (s *Server) GetId2path(w http.ResponseWriter, r *http.Request) {
	if s.paths == nil {
		writeText(w, http.StatusNotFound, "Error: id2path service is disabled!")
		return
	}
	s.paths.ServeHTTP(w, r)
}

// convertToRenderParams converts the query parameters to renderer params
func convertToRenderParams(cov *coverage.Coverage, params api.RenderCoverageParams) (*render.Params, error) {
	var values []string
	if params.Subset != nil {
		values = *params.Subset
	}
	subsets, err := subset.Parse(values, valueOf(params.SubsettingCrs))
	if err != nil {
		return nil, err
	}

	p := &render.Params{
		Coverage:    cov,
		Subsets:     subsets,
		Format:      valueOf(params.Format),
		MediaType:   valueOf(params.Mediatype),
		ScaleFactor: params.Scalefactor,
		RangeSubset: splitList(valueOf(params.Rangesubset)),
		Scales:      splitList(valueOf(params.Scaleaxes)),
	}

	encoding := map[string]string{}
	if params.Compression != nil {
		encoding["compression"] = *params.Compression
	}
	if params.JpegQuality != nil {
		encoding["jpeg_quality"] = strconv.Itoa(*params.JpegQuality)
	}
	if params.Predictor != nil {
		encoding["predictor"] = *params.Predictor
	}
	if params.Interleave != nil {
		encoding["interleave"] = *params.Interleave
	}
	if params.Tiling != nil {
		encoding["tiling"] = strconv.FormatBool(*params.Tiling)
	}
	if params.Tilewidth != nil {
		encoding["tilewidth"] = strconv.Itoa(*params.Tilewidth)
	}
	if params.Tileheight != nil {
		encoding["tileheight"] = strconv.Itoa(*params.Tileheight)
	}
	if len(encoding) > 0 {
		p.EncodingParams = encoding
	}

	return p, nil
}

func convertRenderResult(result *render.Result) api.RenderResult {
	response := api.RenderResult{
		Coverage: result.Coverage,
		Files:    make([]api.ResultFile, len(result.Files)),
		SrcRect:  pixelRect(result.SrcRect),
		DstRect:  pixelRect(result.DstRect),
		Format:   result.Format,
		Driver:   result.Driver,
		Bands:    result.Bands,
	}

	for i, f := range result.Files {
		response.Files[i] = api.ResultFile{
			Path:     f.Path,
			MimeType: f.MimeType,
			Filename: f.Filename,
		}
		if f.ContentID != "" {
			contentID := f.ContentID
			response.Files[i].ContentId = &contentID
		}
	}

	if len(result.Options) > 0 {
		options := make([]string, len(result.Options))
		for i, o := range result.Options {
			options[i] = o.String()
		}
		response.Options = &options
	}
	if result.Footprint != "" {
		footprint := result.Footprint
		response.Footprint = &footprint
	}
	if result.Extent != nil {
		response.Extent = &api.Extent{
			MinX: result.Extent.MinX,
			MinY: result.Extent.MinY,
			MaxX: result.Extent.MaxX,
			MaxY: result.Extent.MaxY,
			Srid: result.ExtentSRID,
		}
	}
	if result.DryRun {
		dryRun := true
		response.DryRun = &dryRun
	}

	return response
}

func pixelRect(r rect.Rect) api.PixelRect {
	return api.PixelRect{OffsetX: r.OffsetX, OffsetY: r.OffsetY, SizeX: r.SizeX, SizeY: r.SizeY}
}

// handleRenderError maps renderer failures to HTTP responses
func (s *Server) handleRenderError(w http.ResponseWriter, err error, requestID *string) {
	var validationErr *subset.ValidationError
	if errors.As(err, &validationErr) {
		field := validationErr.Field
		if field == "" {
			field = "subset"
		}
		s.writeValidationErrorResponse(w, field, validationErr.Error(), requestID)
		return
	}

	var renderErr *render.RenderError
	if errors.As(err, &renderErr) {
		response := api.ErrorResponse{
			Error:     "RENDER_ERROR",
			Message:   renderErr.Message,
			RequestId: requestID,
		}
		if renderErr.Locator != "" {
			locator := renderErr.Locator
			response.Locator = &locator
		}
		writeJSON(w, http.StatusBadRequest, response)
		return
	}

	slog.Error("rendering failed", "error", err, "request_id", valueOf(requestID))
	s.writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR",
		"Internal server error", requestID, nil)
}

// writeErrorResponse writes a standard error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string, requestID *string, details map[string]interface{}) {
	response := api.ErrorResponse{
		Error:     errorCode,
		Message:   message,
		RequestId: requestID,
	}

	if details != nil {
		response.Details = &details
	}

	writeJSON(w, statusCode, response)
}

// writeValidationErrorResponse writes a validation error response
func (s *Server) writeValidationErrorResponse(w http.ResponseWriter, field, message string, requestID *string) {
	response := api.ValidationErrorResponse{
		Error:     api.VALIDATIONERROR,
		Message:   message,
		RequestId: requestID,
		ValidationErrors: []struct {
			Code    *string `json:"code,omitempty"`
			Field   string  `json:"field"`
			Message string  `json:"message"`
		}{
			{
				Field:   field,
				Message: message,
			},
		},
	}

	writeJSON(w, http.StatusBadRequest, response)
}

// invalidParamHandler reports query binding failures as validation errors.
func (s *Server) invalidParamHandler(w http.ResponseWriter, r *http.Request, err error) {
	requestID := requestIDFrom(r)
	field := "request"
	var paramErr *api.InvalidParamFormatError
	var requiredErr *api.RequiredParamError
	switch {
	case errors.As(err, &paramErr):
		field = paramErr.ParamName
	case errors.As(err, &requiredErr):
		field = requiredErr.ParamName
	}
	s.writeValidationErrorResponse(w, field, err.Error(), &requestID)
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func valueOf(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// requestIDFrom prefers the id assigned by the RequestID middleware.
func requestIDFrom(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return generateRequestID()
}

// generateRequestID generates a unique request ID
func generateRequestID() string {
	return fmt.Sprintf("req_%d", time.Now().UnixNano())
}
