package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sngm3741/survey-manager-api/internal/survey/domain"
)

// Command is a write instruction. The set of variants is closed: CreateSurvey and UpdateSurvey.
type Command interface {
	commandName() string
}

// CreateSurvey creates a new survey owned by Author.
type CreateSurvey struct {
	Author      string
	Title       string
	Description string
	Category    string
	Questions   []domain.Question
}

// UpdateSurvey changes the non-nil fields of survey ID.
// When RequestingAuthor is set only a survey owned by that author is updated.
type UpdateSurvey struct {
	ID               domain.SurveyID
	RequestingAuthor string
	Title            *string
	Description      *string
	Category         *string
	Questions        *[]domain.Question
}

func (CreateSurvey) commandName() string { return "create_survey" }
func (UpdateSurvey) commandName() string { return "update_survey" }

// CommandDispatcher routes commands to the store. It keeps no per-request state.
type CommandDispatcher struct {
	store    SurveyStore
	observer Observer
	newID    func() domain.SurveyID
	now      func() time.Time
}

// NewCommandDispatcher binds the dispatcher to a store. observer may be nil.
func NewCommandDispatcher(store SurveyStore, observer Observer) *CommandDispatcher {
	return &CommandDispatcher{
		store:    store,
		observer: observerOrNop(observer),
		newID:    func() domain.SurveyID { return domain.SurveyID(uuid.NewString()) },
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Dispatch performs exactly one store round-trip and returns the id of the affected survey.
func (d *CommandDispatcher) Dispatch(ctx context.Context, cmd Command) (domain.SurveyID, error) {
	started := time.Now()
	var (
		id  domain.SurveyID
		err error
		op  = "unknown"
	)

	switch c := cmd.(type) {
	case CreateSurvey:
		op = c.commandName()
		id, err = d.createSurvey(ctx, c)
	case UpdateSurvey:
		op = c.commandName()
		id, err = d.updateSurvey(ctx, c)
	default:
		err = fmt.Errorf("unsupported command %T", cmd)
	}

	d.observer.ObserveDispatch("command", op, time.Since(started), err)
	return id, err
}

func (d *CommandDispatcher) createSurvey(ctx context.Context, c CreateSurvey) (domain.SurveyID, error) {
	now := d.now()
	survey := domain.Survey{
		ID:          d.newID(),
		Author:      c.Author,
		Title:       c.Title,
		Description: c.Description,
		Category:    c.Category,
		Questions:   domain.CloneQuestions(c.Questions),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	stored, err := d.store.Create(ctx, survey)
	if err != nil {
		return "", err
	}
	if stored != survey.ID {
		return "", domain.StoreFailure("create survey", fmt.Errorf("store assigned id %q, expected %q", stored, survey.ID))
	}
	return survey.ID, nil
}

func (d *CommandDispatcher) updateSurvey(ctx context.Context, c UpdateSurvey) (domain.SurveyID, error) {
	patch := domain.SurveyPatch{
		ID:               c.ID,
		RequestingAuthor: c.RequestingAuthor,
		Title:            c.Title,
		Description:      c.Description,
		Category:         c.Category,
		Questions:        c.Questions,
		UpdatedAt:        d.now(),
	}

	updated, err := d.store.Update(ctx, patch)
	if err != nil {
		return "", err
	}
	if updated != c.ID {
		return "", domain.StoreFailure("update survey", fmt.Errorf("store updated id %q, expected %q", updated, c.ID))
	}
	return c.ID, nil
}
