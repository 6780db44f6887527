package common

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// WriteJSON serializes payload to JSON with status and logs on failure.
func WriteJSON(logger logrus.FieldLogger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.WithError(err).Error("failed to encode JSON response")
	}
}

// WriteRawJSON writes an already serialized payload verbatim.
// A nil payload produces 200 with an empty body.
func WriteRawJSON(logger logrus.FieldLogger, w http.ResponseWriter, payload json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if len(payload) == 0 {
		return
	}
	if _, err := w.Write(payload); err != nil && logger != nil {
		logger.WithError(err).Warn("failed to write response body")
	}
}
