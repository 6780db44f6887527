package application

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/sngm3741/survey-manager-api/internal/survey/domain"
)

// SurveyStore is the persistence port both dispatchers route to.
// Read operations return payloads that are already serialized to the public survey JSON.
type SurveyStore interface {
	Create(ctx context.Context, survey domain.Survey) (domain.SurveyID, error)
	// Update returns a NotFound error when no survey matched the patch.
	Update(ctx context.Context, patch domain.SurveyPatch) (domain.SurveyID, error)
	// FindByID returns a nil payload when the survey does not exist or is not owned by requestingAuthor.
	FindByID(ctx context.Context, id domain.SurveyID, requestingAuthor string) (json.RawMessage, error)
	// FindByAuthor returns a JSON array. A nil page means no pagination constraint.
	FindByAuthor(ctx context.Context, author string, page *PageConfig) (json.RawMessage, error)
}

// MaxPageSize caps PageConfig.Size.
const MaxPageSize = 100

// MaxOffset is the largest number of records a page may skip.
// It fits a signed 32-bit OFFSET on every store.
const MaxOffset = math.MaxInt32

// PageConfig constrains a listing to one page.
type PageConfig struct {
	Number int
	Size   int
}

// Offset is the number of records to skip. It saturates at math.MaxInt instead of overflowing.
func (p PageConfig) Offset() int {
	if p.Number <= 1 || p.Size <= 0 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}

// OffsetInRange reports whether the page starts within MaxOffset.
func (p PageConfig) OffsetInRange() bool {
	return p.Offset() <= MaxOffset
}

// Observer receives one call per dispatched command or query.
type Observer interface {
	ObserveDispatch(kind, operation string, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveDispatch(string, string, time.Duration, error) {}

func observerOrNop(o Observer) Observer {
	if o == nil {
		return nopObserver{}
	}
	return o
}
