package api

import (
	"encoding/json"
	"errors"
	"math"
	"mime"
	"net/http"

	"github.com/Khoshkhah/routing-engine/pkg/graph"
	"github.com/Khoshkhah/routing-engine/pkg/locate"
	"github.com/Khoshkhah/routing-engine/pkg/query"
)

const defaultCandidates = 4

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	store   *graph.Store
	locator *locate.Index
}

// NewHandlers creates handlers over the loaded store. locator may be nil
// when no edge carries a position; the coordinate endpoint then reports
// every point as too far.
func NewHandlers(store *graph.Store, locator *locate.Index) *Handlers {
	return &Handlers{store: store, locator: locator}
}

// HandleRoute handles POST /api/v1/route: an edge-to-edge query.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var result query.Result
	switch req.Algorithm {
	case "", "classic":
		result = query.Classic(h.store, req.Source, req.Target)
	case "pruned":
		result = query.Pruned(h.store, req.Source, req.Target)
	default:
		writeError(w, http.StatusBadRequest, "unknown_algorithm", "algorithm")
		return
	}

	writeResult(w, result)
}

// HandleRouteCoords handles POST /api/v1/route/coords: endpoints are
// resolved to candidate edge sets and answered by the multi-endpoint
// query, with the approach and egress legs priced by distance.
func (h *Handlers) HandleRouteCoords(w http.ResponseWriter, r *http.Request) {
	var req CoordRouteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateCoord(req.Start); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "start")
		return
	}
	if err := validateCoord(req.End); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "end")
		return
	}
	if h.locator == nil {
		writeError(w, http.StatusUnprocessableEntity, "point_too_far", "")
		return
	}

	k := req.Candidates
	if k <= 0 {
		k = defaultCandidates
	}

	sources, sourceDists, err := h.locator.Endpoints(req.Start.Lat, req.Start.Lng, k)
	if err != nil {
		writeLocateError(w, err, "start")
		return
	}
	targets, targetDists, err := h.locator.Endpoints(req.End.Lat, req.End.Lng, k)
	if err != nil {
		writeLocateError(w, err, "end")
		return
	}

	writeResult(w, query.Multi(h.store, sources, sourceDists, targets, targetDists))
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.store.Stats())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return false
	}
	return true
}

func writeResult(w http.ResponseWriter, result query.Result) {
	path := result.Path
	if path == nil {
		path = []uint32{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RouteResponse{
		Distance:  result.Distance,
		Path:      path,
		Reachable: result.Reachable,
	})
}

func writeLocateError(w http.ResponseWriter, err error, field string) {
	if errors.Is(err, locate.ErrPointTooFar) {
		writeError(w, http.StatusUnprocessableEntity, "point_too_far", field)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", "")
}

func validateCoord(ll LatLngJSON) error {
	if math.IsNaN(ll.Lat) || math.IsNaN(ll.Lng) || math.IsInf(ll.Lat, 0) || math.IsInf(ll.Lng, 0) {
		return errors.New("coordinates must be finite numbers")
	}
	if ll.Lat < -90 || ll.Lat > 90 || ll.Lng < -180 || ll.Lng > 180 {
		return errors.New("coordinates out of range")
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, code, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: code, Field: field})
}
