package common

import "time"

const (
	// MaxSurveyRequestBody limits JSON request bodies for survey commands.
	MaxSurveyRequestBody = 1 << 20
	// DefaultRequestTimeout bounds a single store round-trip.
	DefaultRequestTimeout = 5 * time.Second
)
