package survey

import (
	"context"
	"net/http"

	"github.com/sngm3741/survey-manager-api/internal/interfaces/http/common"
)

// createSurveyHandler serves POST /survey. The route needs no token, but the author must come from somewhere:
// with a valid bearer token the token subject is the author and a different body "author" is rejected;
// without a token the body "author" is required, so an anonymous {"title":"t"} gets 400.
func (h *Handler) createSurveyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSurveyRequest
		if err := decodeJSONBody(w, r, &req); err != nil {
			h.fail(w, r, err)
			return
		}

		user, _ := common.UserFromContext(r.Context())
		cmd, err := req.toCommand(user.Username)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		id, err := h.commands.Dispatch(ctx, cmd)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, commandResponse{ID: id.String()})
	}
}

func (h *Handler) updateSurveyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateSurveyRequest
		if err := decodeJSONBody(w, r, &req); err != nil {
			h.fail(w, r, err)
			return
		}

		user, _ := common.UserFromContext(r.Context())
		cmd, err := req.toCommand(user.Username)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		id, err := h.commands.Dispatch(ctx, cmd)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, commandResponse{ID: id.String()})
	}
}
