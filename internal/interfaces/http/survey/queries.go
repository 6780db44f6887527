package survey

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/survey-manager-api/internal/interfaces/http/common"
	"github.com/sngm3741/survey-manager-api/internal/survey/application"
	"github.com/sngm3741/survey-manager-api/internal/survey/domain"
)

func (h *Handler) surveyListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := common.UserFromContext(r.Context())
		if !ok {
			h.fail(w, r, domain.TokenMissing())
			return
		}

		page, err := parsePageConfig(r.URL.Query())
		if err != nil {
			h.fail(w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		payload, err := h.queries.Dispatch(ctx, application.FindSurveysByAuthor{Author: user.Username, Page: page})
		if err != nil {
			h.fail(w, r, err)
			return
		}
		common.WriteRawJSON(h.logger, w, payload)
	}
}

// surveyDetailHandler answers with an empty body when the caller does not own the survey.
func (h *Handler) surveyDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := common.UserFromContext(r.Context())
		if !ok {
			h.fail(w, r, domain.TokenMissing())
			return
		}

		id := domain.SurveyID(chi.URLParam(r, "id"))

		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		payload, err := h.queries.Dispatch(ctx, application.FindSurveyByID{ID: id, RequestingAuthor: user.Username})
		if err != nil {
			h.fail(w, r, err)
			return
		}
		common.WriteRawJSON(h.logger, w, payload)
	}
}
