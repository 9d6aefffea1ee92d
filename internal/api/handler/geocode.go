package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/api/models"
	"github.com/safepath/safepath/internal/api/response"
)

// GeocodeHandler resolves addresses.
type GeocodeHandler struct {
	geocoder AddressGeocoder
	logger   zerolog.Logger
}

func NewGeocodeHandler(geocoder AddressGeocoder, logger zerolog.Logger) *GeocodeHandler {
	return &GeocodeHandler{geocoder: geocoder, logger: logger}
}

// Geocode handles GET /v1/geocode?address=.
func (h *GeocodeHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if len(address) > 300 {
		response.BadRequest(w, r, "address is too long", []models.FieldError{
			{Field: "address", Message: "must be at most 300 characters", Code: "MAX"},
		})
		return
	}

	result, err := h.geocoder.Geocode(r.Context(), address)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.GeocodeResponse{
		Address:          address,
		Point:            models.PointFromGeo(result.Point),
		Confidence:       result.Confidence,
		FormattedAddress: result.FormattedAddress,
		Provider:         result.Provider,
	})
}
