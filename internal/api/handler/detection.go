package handler

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/api/models"
	"github.com/safepath/safepath/internal/api/response"
	"github.com/safepath/safepath/internal/detection"
)

// DetectionHandler runs the threat heuristics. Speech and vision analysis are
// stateless; the vision feed keeps a rolling window per user in feeds.
type DetectionHandler struct {
	feeds  *detection.Feeds
	logger zerolog.Logger
}

func NewDetectionHandler(feeds *detection.Feeds, logger zerolog.Logger) *DetectionHandler {
	return &DetectionHandler{feeds: feeds, logger: logger}
}

// AnalyzeSpeech handles POST /v1/detections/speech.
func (h *DetectionHandler) AnalyzeSpeech(w http.ResponseWriter, r *http.Request) {
	var input models.SpeechDetectionRequest
	if err := readJSON(w, r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result := detection.AnalyzeSpeech(input.Text)
	if result.IsHarassment {
		h.logger.Info().
			Str("user_id", GetUserID(r.Context())).
			Int("matched_patterns", len(result.Threats)).
			Float64("confidence", result.Confidence).
			Msg("speech threat detected")
	}
	response.JSON(w, r, http.StatusOK, models.SpeechDetectionResponse{
		SpeechAnalysis:  result,
		PatternsChecked: detection.SpeechPatternCount(),
	})
}

// AnalyzeVision handles POST /v1/detections/vision.
func (h *DetectionHandler) AnalyzeVision(w http.ResponseWriter, r *http.Request) {
	var input models.VisionDetectionRequest
	if err := readJSON(w, r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	history := input.Detections
	if len(history) > detection.MaxHistory {
		history = history[len(history)-detection.MaxHistory:]
	}
	if !h.validDetections(w, r, input.Detections, history) {
		return
	}

	result := detection.AnalyzeStalking(history)
	h.logStalking(r, result)
	response.JSON(w, r, http.StatusOK, result)
}

// FeedVision handles POST /v1/detections/vision/feed. The detections extend
// the caller's rolling window, which is scored as a whole.
func (h *DetectionHandler) FeedVision(w http.ResponseWriter, r *http.Request) {
	var input models.VisionDetectionRequest
	if err := readJSON(w, r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	batch := input.Detections
	if len(batch) > detection.MaxHistory {
		batch = batch[len(batch)-detection.MaxHistory:]
	}
	if !h.validDetections(w, r, input.Detections, batch) {
		return
	}

	result := h.feeds.Append(GetUserID(r.Context()), batch)
	h.logStalking(r, result)
	response.JSON(w, r, http.StatusOK, models.VisionFeedResponse{
		StalkingAnalysis: result,
		WindowSize:       detection.MaxHistory,
	})
}

// ResetVisionFeed handles DELETE /v1/detections/vision/feed.
func (h *DetectionHandler) ResetVisionFeed(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	n := h.feeds.Reset(userID)
	h.logger.Debug().Str("user_id", userID).Int("discarded", n).Msg("vision feed reset")
	response.NoContent(w, r)
}

// validDetections writes a 400 naming every invalid box of kept, the tail of all.
func (h *DetectionHandler) validDetections(w http.ResponseWriter, r *http.Request, all, kept []detection.Detection) bool {
	var fields []models.FieldError
	for i, d := range kept {
		if err := d.Validate(); err != nil {
			fields = append(fields, models.FieldError{
				Field:   "detections[" + strconv.Itoa(len(all)-len(kept)+i) + "].bbox",
				Message: err.Error(),
				Code:    "INVALID",
			})
		}
	}
	if len(fields) > 0 {
		response.BadRequest(w, r, "invalid detection history", fields)
		return false
	}
	return true
}

func (h *DetectionHandler) logStalking(r *http.Request, result detection.StalkingAnalysis) {
	if result.IsStalking {
		h.logger.Info().
			Str("user_id", GetUserID(r.Context())).
			Float64("confidence", result.Confidence).
			Msg("possible stalking pattern detected")
	}
}
