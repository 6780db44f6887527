package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sngm3741/survey-manager-api/internal/survey/domain"
)

// Query is a read instruction. The set of variants is closed: FindSurveyByID and FindSurveysByAuthor.
type Query interface {
	queryName() string
}

// FindSurveyByID looks up one survey on behalf of RequestingAuthor.
type FindSurveyByID struct {
	ID               domain.SurveyID
	RequestingAuthor string
}

// FindSurveysByAuthor lists the surveys owned by Author. A nil Page lists everything.
type FindSurveysByAuthor struct {
	Author string
	Page   *PageConfig
}

func (FindSurveyByID) queryName() string      { return "find_survey" }
func (FindSurveysByAuthor) queryName() string { return "find_surveys_by_author" }

var emptyList = json.RawMessage("[]")

// QueryDispatcher routes queries to the store.
type QueryDispatcher struct {
	store    SurveyStore
	observer Observer
}

// NewQueryDispatcher binds the dispatcher to a store. observer may be nil.
func NewQueryDispatcher(store SurveyStore, observer Observer) *QueryDispatcher {
	return &QueryDispatcher{store: store, observer: observerOrNop(observer)}
}

// Dispatch returns the serialized result. A nil payload means nothing was found.
// Both queries are identity-scoped; an empty identity is rejected before the store is called.
func (d *QueryDispatcher) Dispatch(ctx context.Context, q Query) (json.RawMessage, error) {
	started := time.Now()
	var (
		payload json.RawMessage
		err     error
		op      = "unknown"
	)

	switch c := q.(type) {
	case FindSurveyByID:
		op = c.queryName()
		payload, err = d.findSurvey(ctx, c)
	case FindSurveysByAuthor:
		op = c.queryName()
		payload, err = d.findSurveysByAuthor(ctx, c)
	default:
		err = fmt.Errorf("unsupported query %T", q)
	}

	d.observer.ObserveDispatch("query", op, time.Since(started), err)
	return payload, err
}

func (d *QueryDispatcher) findSurvey(ctx context.Context, q FindSurveyByID) (json.RawMessage, error) {
	if q.RequestingAuthor == "" {
		return nil, domain.TokenMissing()
	}
	return d.store.FindByID(ctx, q.ID, q.RequestingAuthor)
}

func (d *QueryDispatcher) findSurveysByAuthor(ctx context.Context, q FindSurveysByAuthor) (json.RawMessage, error) {
	if q.Author == "" {
		return nil, domain.TokenMissing()
	}
	if q.Page != nil && !q.Page.OffsetInRange() {
		return nil, domain.Validation(domain.FieldError{Field: "page", Reason: "out of range"})
	}
	payload, err := d.store.FindByAuthor(ctx, q.Author, q.Page)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return emptyList, nil
	}
	return payload, nil
}
