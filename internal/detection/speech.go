// Package detection implements heuristic threat detectors over pre-computed inputs:
// speech transcripts and person bounding boxes.
package detection

import (
	"regexp"
	"strings"
)

// speechPatterns are the threat phrases checked against a transcript, in order.
var speechPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)threat|kill|hurt|follow|stalk`),
	regexp.MustCompile(`(?i)get you|watch out|watch your`),
	regexp.MustCompile(`(?i)gonna|going to.*hurt`),
	regexp.MustCompile(`(?i)don't.*scream|be quiet`),
}

// SpeechThreat is one pattern that matched a transcript.
type SpeechThreat struct {
	Pattern string `json:"pattern"`
	Match   string `json:"match"`
}

// SpeechAnalysis is the result of AnalyzeSpeech.
type SpeechAnalysis struct {
	IsHarassment bool           `json:"isHarassment"`
	Confidence   float64        `json:"confidence"` // matched patterns / total patterns
	Threats      []SpeechThreat `json:"threats"`
	Text         string         `json:"text"`
}

// SpeechPatternCount returns the number of threat patterns.
func SpeechPatternCount() int {
	return len(speechPatterns)
}

// AnalyzeSpeech matches text against the threat patterns.
// Confidence is the fraction of patterns that matched; zero when none did.
func AnalyzeSpeech(text string) SpeechAnalysis {
	lowered := strings.ToLower(text)

	threats := make([]SpeechThreat, 0, len(speechPatterns))
	for _, p := range speechPatterns {
		if m := p.FindString(lowered); m != "" {
			threats = append(threats, SpeechThreat{Pattern: p.String(), Match: m})
		}
	}

	if len(threats) == 0 {
		return SpeechAnalysis{Threats: threats, Text: text}
	}

	return SpeechAnalysis{
		IsHarassment: true,
		Confidence:   float64(len(threats)) / float64(len(speechPatterns)),
		Threats:      threats,
		Text:         text,
	}
}
