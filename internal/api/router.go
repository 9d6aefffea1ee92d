// Package api wires the SafePath HTTP API.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/api/handler"
	"github.com/safepath/safepath/internal/api/middleware"
	"github.com/safepath/safepath/internal/api/models"
	"github.com/safepath/safepath/internal/detection"
)

// RouterConfig holds the router's dependencies. Geocoder, Weather, Feeds,
// Contacts, Incidents and Locations are optional; their endpoints are not
// mounted when nil.
type RouterConfig struct {
	Version     string
	BuildTime   string
	ServiceName string
	Logger      zerolog.Logger
	Metrics     *middleware.Metrics
	RequireTLS  bool

	Verifier        middleware.TokenValidator
	Planner         handler.RoutePlanner
	Geocoder        handler.AddressGeocoder
	Quotas          handler.QuotaReporter
	Ratings         handler.RatingStore
	Weather         handler.WeatherSource
	Feeds           *detection.Feeds
	Contacts        handler.ContactStore
	Incidents       handler.IncidentStore
	Locations       handler.LocationStore
	Providers       handler.ProviderHealthReporter
	Scoring         *handler.ScoringSettings
	ReadinessChecks []handler.ReadinessCheck
}

// NewRouter creates a chi router with every API route configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "safepath-api"
	}

	// Order matters: the request ID must exist before tracing and logging read it.
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		p := models.NewNotFound(middleware.GetRequestID(r.Context()), "no such endpoint")
		p.Instance = r.URL.Path
		p.Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		p := models.NewProblem(models.ProblemTypeMethodNotAllowed, "Method not allowed",
			http.StatusMethodNotAllowed, middleware.GetRequestID(r.Context()))
		p.Instance = r.URL.Path
		p.Write(w)
	})

	opsHandler := handler.NewOpsHandler(handler.OpsHandlerConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Providers: cfg.Providers,
		Quotas:    cfg.Quotas,
		Scoring:   cfg.Scoring,
		Checks:    cfg.ReadinessChecks,
		Logger:    cfg.Logger,
	})
	routeHandler := handler.NewRouteHandler(cfg.Planner, cfg.Geocoder, cfg.Logger)
	ratingHandler := handler.NewRatingHandler(cfg.Ratings, cfg.Logger)
	detectionHandler := handler.NewDetectionHandler(cfg.Feeds, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.Verifier)
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(standardRateLimit).Get("/status", opsHandler.SystemStatus)
		})

		r.With(middleware.RateLimitByIP(middleware.RoutePlanRateLimit), middleware.RequireJSON).
			Post("/routes:plan", routeHandler.PlanRoute)

		if cfg.Geocoder != nil {
			geocodeHandler := handler.NewGeocodeHandler(cfg.Geocoder, cfg.Logger)
			r.With(middleware.RateLimitByIP(middleware.GeocodeRateLimit)).Get("/geocode", geocodeHandler.Geocode)
		}

		r.Route("/ratings", func(r chi.Router) {
			r.With(standardRateLimit).Get("/", ratingHandler.ListRatings)
			r.With(standardRateLimit).Get("/{ratingId}", ratingHandler.GetRating)
			r.With(
				authMiddleware,
				middleware.RateLimitByUser(middleware.ReportRateLimit),
				middleware.RequireJSON,
			).Post("/", ratingHandler.SubmitRating)
		})

		r.Route("/detections", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RateLimitByUser(middleware.StandardRateLimit))
			r.Use(middleware.RequireJSON)
			r.Post("/speech", detectionHandler.AnalyzeSpeech)
			r.Post("/vision", detectionHandler.AnalyzeVision)
			if cfg.Feeds != nil {
				r.Post("/vision/feed", detectionHandler.FeedVision)
				r.Delete("/vision/feed", detectionHandler.ResetVisionFeed)
			}
		})

		if cfg.Weather != nil {
			weatherHandler := handler.NewWeatherHandler(cfg.Weather, cfg.Logger)
			r.With(standardRateLimit).Get("/weather", weatherHandler.GetWeather)
		}

		// Emergency features act on the caller's own data only.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RateLimitByUser(middleware.StandardRateLimit))

			if cfg.Contacts != nil {
				contactHandler := handler.NewContactHandler(cfg.Contacts, cfg.Logger)
				r.Route("/contacts", func(r chi.Router) {
					r.Get("/", contactHandler.ListContacts)
					r.With(middleware.RequireJSON).Post("/", contactHandler.AddContact)
					r.With(middleware.RequireJSON).Patch("/{contactId}", contactHandler.UpdateContact)
					r.Delete("/{contactId}", contactHandler.RemoveContact)
				})
			}

			if cfg.Incidents != nil {
				incidentHandler := handler.NewIncidentHandler(cfg.Incidents, cfg.Logger)
				r.Route("/incidents", func(r chi.Router) {
					r.Get("/", incidentHandler.ListIncidents)
					r.With(middleware.RequireJSON).Post("/", incidentHandler.TriggerSOS)
					r.Post("/cancel", incidentHandler.CancelSOS)
					r.Get("/{incidentId}", incidentHandler.GetIncident)
					r.Post("/{incidentId}/resolve", incidentHandler.ResolveIncident)
				})
			}

			if cfg.Locations != nil {
				locationHandler := handler.NewLocationHandler(cfg.Locations, cfg.Logger)
				r.Get("/me/location", locationHandler.GetLocation)
				r.With(middleware.RequireJSON).Put("/me/location", locationHandler.UpdateLocation)
				r.Route("/geofences", func(r chi.Router) {
					r.Get("/", locationHandler.ListGeofences)
					r.With(middleware.RequireJSON).Post("/", locationHandler.CreateGeofence)
					r.With(middleware.RequireJSON).Patch("/{geofenceId}", locationHandler.UpdateGeofence)
					r.Delete("/{geofenceId}", locationHandler.DeleteGeofence)
				})
			}
		})
	})

	return r
}
