package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/api/middleware"
	"github.com/safepath/safepath/internal/api/models"
	"github.com/safepath/safepath/internal/api/response"
	"github.com/safepath/safepath/internal/contacts"
	"github.com/safepath/safepath/internal/geo"
	"github.com/safepath/safepath/internal/geocoding"
	"github.com/safepath/safepath/internal/incident"
	"github.com/safepath/safepath/internal/location"
	"github.com/safepath/safepath/internal/provider/resilience"
	"github.com/safepath/safepath/internal/routing"
	"github.com/safepath/safepath/internal/safety"
	"github.com/safepath/safepath/internal/validation"
	"github.com/safepath/safepath/internal/weather"
)

// writeError maps a domain error to its problem response.
//
//	invalid input                            400
//	unknown resource, no route or address    404
//	per-user limit, incident already closed  409
//	provider quota exhausted                 429
//	malformed upstream payload               502
//	provider unavailable, chain exhausted    503
//	anything else                            500
func writeError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	var reqErr *requestError
	var valErr *validation.Error
	var chainErr *geocoding.ChainError

	switch {
	case errors.As(err, &reqErr):
		response.BadRequest(w, r, reqErr.detail, reqErr.fields)

	case errors.As(err, &valErr):
		fields := make([]models.FieldError, 0, len(valErr.Errors))
		for _, fe := range valErr.Errors {
			fields = append(fields, models.FieldError{Field: fe.Field, Message: fe.Message})
		}
		response.BadRequest(w, r, "invalid "+valErr.Subject, fields)

	case errors.Is(err, geo.ErrInvalidCoordinates),
		errors.Is(err, geocoding.ErrInvalidAddress):
		response.BadRequest(w, r, err.Error(), nil)

	case errors.As(err, &chainErr):
		writeChainError(w, r, log, chainErr)

	case errors.Is(err, safety.ErrRatingNotFound),
		errors.Is(err, contacts.ErrContactNotFound),
		errors.Is(err, incident.ErrIncidentNotFound),
		errors.Is(err, location.ErrGeofenceNotFound),
		errors.Is(err, location.ErrLocationNotFound):
		response.NotFound(w, r, err.Error())

	case errors.Is(err, contacts.ErrContactLimitReached):
		response.Conflict(w, r, fmt.Sprintf("at most %d emergency contacts are allowed", contacts.MaxContactsPerUser))

	case errors.Is(err, location.ErrGeofenceLimitReached):
		response.Conflict(w, r, fmt.Sprintf("at most %d geofences are allowed", location.MaxGeofencesPerUser))

	case errors.Is(err, incident.ErrIncidentClosed):
		response.Conflict(w, r, err.Error())

	case errors.Is(err, routing.ErrNoRouteFound):
		response.NotFound(w, r, "no route found between the given points")

	case errors.Is(err, geocoding.ErrNoResults):
		response.NotFound(w, r, "address could not be resolved")

	case errors.Is(err, geocoding.ErrQuotaExceeded):
		response.QuotaExceeded(w, r, "daily geocoding quota exhausted", secondsUntilMidnight(time.Now()))

	case errors.Is(err, routing.ErrMalformedResponse),
		errors.Is(err, geocoding.ErrMalformedResponse),
		errors.Is(err, weather.ErrMalformedResponse):
		log.Error().Err(err).Str("request_id", middleware.GetRequestID(r.Context())).Msg("malformed upstream response")
		response.BadGateway(w, r, "upstream provider returned an unexpected response")

	case errors.Is(err, routing.ErrProviderUnavailable),
		errors.Is(err, routing.ErrRateLimitExceeded),
		errors.Is(err, geocoding.ErrProviderUnavailable),
		errors.Is(err, weather.ErrProviderUnavailable),
		errors.Is(err, resilience.ErrCircuitOpen),
		errors.Is(err, context.DeadlineExceeded):
		log.Warn().Err(err).Str("request_id", middleware.GetRequestID(r.Context())).Msg("upstream provider unavailable")
		response.ServiceUnavailable(w, r, "upstream provider is temporarily unavailable")

	default:
		log.Error().Err(err).Str("request_id", middleware.GetRequestID(r.Context())).Msg("request failed")
		response.InternalError(w, r, "an unexpected error occurred")
	}
}

// writeChainError classifies an exhausted geocoding chain by what its providers reported.
func writeChainError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err *geocoding.ChainError) {
	switch {
	case err.OnlyQuotaExceeded():
		response.QuotaExceeded(w, r, "daily geocoding quota exhausted for every provider", secondsUntilMidnight(time.Now()))
	case allFailuresAre(err, geocoding.ErrNoResults):
		response.NotFound(w, r, "address could not be resolved")
	default:
		log.Warn().Err(err).Str("request_id", middleware.GetRequestID(r.Context())).Msg("geocoding chain exhausted")
		response.ServiceUnavailable(w, r, "no geocoding provider could resolve the address")
	}
}

func allFailuresAre(err *geocoding.ChainError, target error) bool {
	if len(err.Failures) == 0 {
		return false
	}
	for _, f := range err.Failures {
		if !errors.Is(f, target) {
			return false
		}
	}
	return true
}

// secondsUntilMidnight is when local daily quotas reset.
func secondsUntilMidnight(now time.Time) int {
	y, m, d := now.Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	return int(next.Sub(now).Seconds()) + 1
}
