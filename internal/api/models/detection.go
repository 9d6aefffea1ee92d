package models

import "github.com/safepath/safepath/internal/detection"

// SpeechDetectionRequest carries a transcript to screen for threats.
type SpeechDetectionRequest struct {
	Text string `json:"text" validate:"required,max=5000"`
}

// VisionDetectionRequest carries a person-detection history, oldest first.
// Only the most recent entries are analyzed.
type VisionDetectionRequest struct {
	Detections []detection.Detection `json:"detections" validate:"required,max=1000"`
}

// SpeechDetectionResponse is a speech analysis plus the size of the pattern
// set it was checked against.
type SpeechDetectionResponse struct {
	detection.SpeechAnalysis
	PatternsChecked int `json:"patternsChecked"`
}

// VisionFeedResponse is the analysis of the caller's rolling detection window.
type VisionFeedResponse struct {
	detection.StalkingAnalysis
	WindowSize int `json:"windowSize"`
}
