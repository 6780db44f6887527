package survey

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/sngm3741/survey-manager-api/internal/interfaces/http/common"
	"github.com/sngm3741/survey-manager-api/internal/survey/domain"
)

const defaultTokenUsername = "test user"

type tokenResponse struct {
	Token string `json:"token"`
}

func newUserID() string {
	return uuid.NewString()
}

// tokenHandler issues a token for the synthetic "test user" identity. Every call gets a fresh user id.
// The username query parameter is ignored unless AllowUsernameOverride is set.
func (h *Handler) tokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := defaultTokenUsername
		if h.allowUsernameOverride {
			if requested := strings.TrimSpace(r.URL.Query().Get("username")); requested != "" {
				username = requested
			}
		}

		token, err := h.tokens.Encode(username, h.newID())
		if err != nil {
			h.fail(w, r, domain.Internal("issue token", err))
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, tokenResponse{Token: token})
	}
}
