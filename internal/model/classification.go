package model

import "math"

// Confidence is a coarse bucket derived from a classification score.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Sentinel labels used when the service cannot name a species.
const (
	UnknownCommonName     = "Unknown Frog"
	UnknownScientificName = "Unknown"
	UnknownFolder         = "unknown"
)

const (
	highConfidenceScore   = 0.6
	mediumConfidenceScore = 0.3
)

// Classification is the normalized outcome of classifying a single image.
type Classification struct {
	CommonName     string     `json:"common_name"`
	ScientificName string     `json:"scientific_name"`
	Score          float64    `json:"score"`
	Confidence     Confidence `json:"confidence"`
	FolderName     string     `json:"folder_name"`
}

// UnknownClassification is returned when the service produced no results.
func UnknownClassification() Classification {
	return Classification{
		CommonName:     UnknownCommonName,
		ScientificName: UnknownScientificName,
		Score:          0,
		Confidence:     ConfidenceLow,
		FolderName:     UnknownFolder,
	}
}

// IsUnknown reports whether the classification was routed to the unknown folder.
func (c Classification) IsUnknown() bool {
	return c.FolderName == UnknownFolder
}

// ConfidenceFor buckets a score: >= 0.6 high, >= 0.3 medium, otherwise low.
func ConfidenceFor(score float64) Confidence {
	switch {
	case score >= highConfidenceScore:
		return ConfidenceHigh
	case score >= mediumConfidenceScore:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// RoundScore rounds a score to three decimal places for storage.
func RoundScore(score float64) float64 {
	return math.Round(score*1000) / 1000
}
