package handler

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/api/models"
	"github.com/safepath/safepath/internal/api/response"
	"github.com/safepath/safepath/internal/geo"
	"github.com/safepath/safepath/internal/geocoding"
	"github.com/safepath/safepath/internal/routing"
)

// RoutePlanner scores route alternatives between two points.
type RoutePlanner interface {
	PlanRoute(ctx context.Context, origin, destination geo.Point) ([]routing.ScoredRoute, error)
	ProviderName() string
}

// AddressGeocoder resolves a free-text address.
type AddressGeocoder interface {
	Geocode(ctx context.Context, address string) (*geocoding.Result, error)
}

// RouteHandler handles route planning.
type RouteHandler struct {
	planner  RoutePlanner
	geocoder AddressGeocoder
	logger   zerolog.Logger
}

// NewRouteHandler creates a RouteHandler. geocoder may be nil, in which case
// only coordinate endpoints are accepted.
func NewRouteHandler(planner RoutePlanner, geocoder AddressGeocoder, logger zerolog.Logger) *RouteHandler {
	return &RouteHandler{planner: planner, geocoder: geocoder, logger: logger}
}

// PlanRoute handles POST /v1/routes:plan.
func (h *RouteHandler) PlanRoute(w http.ResponseWriter, r *http.Request) {
	var input models.PlanRouteRequest
	if err := readJSON(w, r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	origin, err := h.resolveEndpoint(r.Context(), "origin", input.Origin, input.OriginAddress)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	destination, err := h.resolveEndpoint(r.Context(), "destination", input.Destination, input.DestinationAddress)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	routes, err := h.planner.PlanRoute(r.Context(), origin, destination)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := models.PlanRouteResponse{
		GeneratedAt: models.Timestamp(time.Now()),
		Origin:      models.PointFromGeo(origin),
		Destination: models.PointFromGeo(destination),
		Provider:    h.planner.ProviderName(),
		Routes:      make([]models.RouteOption, 0, len(routes)),
	}
	for i, sr := range routes {
		resp.Routes = append(resp.Routes, toRouteOption(i+1, sr, input.IncludePath))
	}

	w.Header().Set("Cache-Control", "no-store")
	response.JSON(w, r, http.StatusOK, resp)
}

// resolveEndpoint prefers explicit coordinates and falls back to geocoding the address.
func (h *RouteHandler) resolveEndpoint(ctx context.Context, field string, p *models.Point, address string) (geo.Point, error) {
	if p != nil {
		return p.ToGeo(), nil
	}

	address = strings.TrimSpace(address)
	if address == "" {
		return geo.Point{}, &requestError{
			detail: field + " is required",
			fields: []models.FieldError{{
				Field:   field,
				Message: "either " + field + " or " + field + "Address is required",
				Code:    "REQUIRED",
			}},
		}
	}
	if h.geocoder == nil {
		return geo.Point{}, &requestError{detail: "address lookup is not available; send coordinates"}
	}

	result, err := h.geocoder.Geocode(ctx, address)
	if err != nil {
		return geo.Point{}, err
	}
	return result.Point, nil
}

func toRouteOption(rank int, sr routing.ScoredRoute, includePath bool) models.RouteOption {
	opt := models.RouteOption{
		Rank:             rank,
		Summary:          sr.Summary,
		SafetyScore:      sr.SafetyScore,
		SafetyLevel:      string(sr.SafetyLevel),
		WaypointCount:    sr.WaypointCount,
		RatedWaypoints:   sr.RatedWaypoints,
		DistanceMeters:   sr.DistanceMeters,
		DistanceText:     sr.DistanceText,
		DurationSeconds:  sr.DurationSeconds,
		DurationText:     sr.DurationText,
		OverviewPolyline: sr.OverviewPolyline,
	}

	if includePath {
		// A corrupt polyline only costs the optional path.
		if path, err := geo.DecodePolyline(sr.OverviewPolyline); err == nil {
			opt.Path = make([]models.Point, 0, len(path))
			for _, p := range path {
				opt.Path = append(opt.Path, models.PointFromGeo(p))
			}
			opt.PathLengthMeters = math.Round(geo.PathLength(path))
		}
	}
	return opt
}
