// Package memory keeps surveys in process memory. It backs STORE_DRIVER=memory and the end-to-end tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/sngm3741/survey-manager-api/internal/survey/application"
	"github.com/sngm3741/survey-manager-api/internal/survey/domain"
)

type SurveyRepository struct {
	mu      sync.RWMutex
	surveys map[domain.SurveyID]domain.Survey
}

var _ application.SurveyStore = (*SurveyRepository)(nil)

func NewSurveyRepository() *SurveyRepository {
	return &SurveyRepository{surveys: make(map[domain.SurveyID]domain.Survey)}
}

func (r *SurveyRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *SurveyRepository) Create(ctx context.Context, survey domain.Survey) (domain.SurveyID, error) {
	if err := ctx.Err(); err != nil {
		return "", domain.StoreFailure("create survey", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.surveys[survey.ID]; exists {
		return "", domain.StoreFailure("create survey", fmt.Errorf("duplicate survey id %q", survey.ID))
	}
	survey.Questions = domain.CloneQuestions(survey.Questions)
	r.surveys[survey.ID] = survey
	return survey.ID, nil
}

func (r *SurveyRepository) Update(ctx context.Context, patch domain.SurveyPatch) (domain.SurveyID, error) {
	if err := ctx.Err(); err != nil {
		return "", domain.StoreFailure("update survey", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	survey, ok := r.surveys[patch.ID]
	if !ok || !patch.Matches(survey) {
		return "", domain.NotFound("survey", patch.ID)
	}
	patch.Apply(&survey)
	r.surveys[patch.ID] = survey
	return patch.ID, nil
}

func (r *SurveyRepository) FindByID(ctx context.Context, id domain.SurveyID, requestingAuthor string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.StoreFailure("find survey", err)
	}

	r.mu.RLock()
	survey, ok := r.surveys[id]
	r.mu.RUnlock()

	if !ok || survey.Author != requestingAuthor {
		return nil, nil
	}
	payload, err := json.Marshal(domain.NewSurveyView(survey))
	if err != nil {
		return nil, domain.StoreFailure("encode survey", err)
	}
	return payload, nil
}

// FindByAuthor orders surveys newest first, ties broken by id.
func (r *SurveyRepository) FindByAuthor(ctx context.Context, author string, page *application.PageConfig) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.StoreFailure("list surveys", err)
	}

	r.mu.RLock()
	owned := make([]domain.Survey, 0)
	for _, s := range r.surveys {
		if s.Author == author {
			owned = append(owned, s)
		}
	}
	r.mu.RUnlock()

	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].CreatedAt.After(owned[j].CreatedAt)
		}
		return owned[i].ID < owned[j].ID
	})

	if page != nil {
		start := page.Offset()
		if start >= len(owned) || page.Size <= 0 {
			owned = owned[:0]
		} else {
			end := len(owned)
			if page.Size < end-start {
				end = start + page.Size
			}
			owned = owned[start:end]
		}
	}

	views := make([]domain.SurveyView, 0, len(owned))
	for _, s := range owned {
		views = append(views, domain.NewSurveyView(s))
	}
	payload, err := json.Marshal(views)
	if err != nil {
		return nil, domain.StoreFailure("encode surveys", err)
	}
	return payload, nil
}
