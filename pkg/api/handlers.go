package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mapstack/osmindex/pkg/geo"
	"github.com/mapstack/osmindex/pkg/profile"
	"github.com/mapstack/osmindex/pkg/router"
	"github.com/mapstack/osmindex/pkg/routegraph"
)

// Handlers holds the HTTP handlers and their per-database dependencies
// (spec §6.5/§6.6's behavioral API, generalized from one graph to a
// named set so a deployment can span several route-node databases).
//
// `routegraph.Build` emits one pre-filtered graph per vehicle profile
// (§4.7 "one output file set per vehicle profile"), so graphs/snappers
// are keyed by the compound (database, vehicle) pair via databaseKey,
// not by database name alone -- a "car" query against a "foot"-only
// graph would silently mis-cost every edge.
type Handlers struct {
	graphs     map[string]router.Graph
	snappers   map[string]*router.Snapper
	variants   map[string]*routegraph.VariantTable // same (database, vehicle) key; nil entry falls back to ceiling speed
	databases  map[string]bool                     // distinct database names, for resolveDatabase
	nodeCounts map[string]int
	// twins is keyed by vehicle: a DatabaseSet bundles one graph per
	// database for a single vehicle, so cross-database expansion for a
	// "car" query must use a different twin table than a "foot" query.
	// Absent (or a nil entry) means single-database for that vehicle.
	twins    map[string]*router.DatabaseSet
	logger   *zap.Logger
	validate *validator.Validate
}

// databaseKey builds the compound map key a (database, vehicle) pair is
// stored under.
func databaseKey(database, vehicle string) string {
	return database + ":" + vehicle
}

// Loaded is one (database, vehicle) graph a deployment has loaded, the
// unit cmd/routeserver builds one of per vehicle subdirectory it finds
// under a database's graph directory.
type Loaded struct {
	Database string
	Vehicle  string
	Graph    router.Graph
	Snapper  *router.Snapper
	Variants *routegraph.VariantTable
	NumNodes int
}

// NewHandlers builds the handler set from the graphs a deployment has
// loaded. twins may be nil, or missing an entry for a given vehicle, for
// a single-database deployment.
func NewHandlers(loaded []Loaded, twins map[string]*router.DatabaseSet, logger *zap.Logger) *Handlers {
	graphs := make(map[string]router.Graph, len(loaded))
	snappers := make(map[string]*router.Snapper, len(loaded))
	variants := make(map[string]*routegraph.VariantTable, len(loaded))
	nodeCounts := make(map[string]int, len(loaded))
	dbSet := make(map[string]bool, len(loaded))
	for _, l := range loaded {
		key := databaseKey(l.Database, l.Vehicle)
		graphs[key] = l.Graph
		snappers[key] = l.Snapper
		variants[key] = l.Variants
		nodeCounts[key] = l.NumNodes
		dbSet[l.Database] = true
	}
	return &Handlers{
		graphs:     graphs,
		snappers:   snappers,
		variants:   variants,
		nodeCounts: nodeCounts,
		databases:  dbSet,
		twins:      twins,
		logger:     logger,
		validate:   validator.New(),
	}
}

// HandleRoute handles POST /api/v1/route.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())
	if requestID == "" {
		requestID = uuid.NewString()
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		h.writeError(w, requestID, http.StatusBadRequest, "invalid_request", "")
		return
	}

	var req RouteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 2048)).Decode(&req); err != nil {
		h.writeError(w, requestID, http.StatusBadRequest, "invalid_request", "")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		field := ""
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field = verrs[0].Field()
		}
		h.writeError(w, requestID, http.StatusBadRequest, "invalid_request", field)
		return
	}

	vehicle, ok := profile.Parse(req.Vehicle)
	if !ok {
		h.writeError(w, requestID, http.StatusBadRequest, "invalid_vehicle", "vehicle")
		return
	}

	dbID, err := h.resolveDatabase(req.Database)
	if err != nil {
		h.writeError(w, requestID, http.StatusBadRequest, "unknown_database", "database")
		return
	}

	key := databaseKey(dbID, req.Vehicle)
	g, ok := h.graphs[key]
	if !ok {
		h.writeError(w, requestID, http.StatusBadRequest, "vehicle_not_available_for_database", "vehicle")
		return
	}
	snapper := h.snappers[key]

	start := geo.GeoCoord{Lat: req.Start.Lat, Lon: req.Start.Lon}
	target := geo.GeoCoord{Lat: req.Target.Lat, Lon: req.Target.Lon}

	desc, err := router.Query(r.Context(), snapper, g, vehicle, start, target, h.twins[req.Vehicle], h.variants[key])
	if err != nil {
		h.writeRouteError(w, requestID, err)
		return
	}

	resp := RouteResponse{
		RequestID:           requestID,
		TotalCostSeconds:    desc.TotalCost,
		TotalDistanceMeters: desc.TotalDistance,
	}
	for _, p := range desc.Points {
		resp.Points = append(resp.Points, GeoCoordJSON{Lat: p.Lat, Lon: p.Lon})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *Handlers) writeRouteError(w http.ResponseWriter, requestID string, err error) {
	switch {
	case errors.Is(err, router.ErrPointTooFar):
		h.writeError(w, requestID, http.StatusUnprocessableEntity, "point_too_far_from_road", "")
	case errors.Is(err, router.ErrNoRoute):
		h.writeError(w, requestID, http.StatusNotFound, "no_route_found", "")
	case errors.Is(err, router.ErrCancelled), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, requestID, http.StatusServiceUnavailable, "request_timeout", "")
	default:
		h.logger.Error("route query failed", zap.String("request_id", requestID), zap.Error(err))
		h.writeError(w, requestID, http.StatusInternalServerError, "internal_error", "")
	}
}

// resolveDatabase picks the requested database, or the sole registered
// one when the request omits it.
func (h *Handlers) resolveDatabase(requested string) (string, error) {
	if requested != "" {
		if !h.databases[requested] {
			return "", fmt.Errorf("api: unknown database %q", requested)
		}
		return requested, nil
	}
	if len(h.databases) == 1 {
		for id := range h.databases {
			return id, nil
		}
	}
	return "", fmt.Errorf("api: database is required when more than one is loaded")
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := StatsResponse{Databases: make(map[string]DatabaseStats, len(h.nodeCounts))}
	for id, n := range h.nodeCounts {
		stats.Databases[id] = DatabaseStats{NumNodes: n}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func (h *Handlers) writeError(w http.ResponseWriter, requestID string, status int, code, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{RequestID: requestID, Error: code, Field: field})
}

type requestIDKey struct{}

func withRequestID(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return context.WithValue(ctx, requestIDKey{}, id), id
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
