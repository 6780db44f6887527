package survey

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/sngm3741/survey-manager-api/internal/interfaces/http/common"
	"github.com/sngm3741/survey-manager-api/internal/survey/application"
	"github.com/sngm3741/survey-manager-api/internal/survey/domain"
)

// CommandDispatcher executes survey commands.
type CommandDispatcher interface {
	Dispatch(ctx context.Context, cmd application.Command) (domain.SurveyID, error)
}

// QueryDispatcher executes survey queries and returns serialized results.
type QueryDispatcher interface {
	Dispatch(ctx context.Context, q application.Query) (json.RawMessage, error)
}

// TokenIssuer signs tokens for the /token endpoint.
type TokenIssuer interface {
	Encode(username, userID string) (string, error)
}

// Handler wires survey HTTP endpoints to the dispatchers.
type Handler struct {
	logger   logrus.FieldLogger
	commands CommandDispatcher
	queries  QueryDispatcher
	tokens   TokenIssuer
	timeout  time.Duration
	newID    func() string

	allowUsernameOverride bool
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger   logrus.FieldLogger
	Commands CommandDispatcher
	Queries  QueryDispatcher
	Tokens   TokenIssuer
	Timeout  time.Duration

	// AllowUsernameOverride lets GET /token?username= choose the token subject.
	// Only for local development: anyone reaching /token can then act as any author.
	AllowUsernameOverride bool
}

// NewHandler constructs the survey handler set.
func NewHandler(cfg Config) *Handler {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = common.DefaultRequestTimeout
	}
	return &Handler{
		logger:   cfg.Logger,
		commands: cfg.Commands,
		queries:  cfg.Queries,
		tokens:   cfg.Tokens,
		timeout:  timeout,
		newID:    newUserID,

		allowUsernameOverride: cfg.AllowUsernameOverride,
	}
}

// Register mounts the survey routes. requireAuth guards identity-scoped reads;
// optionalAuth lets commands bind the caller when a token is supplied.
// POST /survey without a token must name the author in the body.
func (h *Handler) Register(r chi.Router, requireAuth, optionalAuth func(http.Handler) http.Handler) {
	r.With(optionalAuth).Post("/survey", h.createSurveyHandler())
	r.With(optionalAuth).Patch("/survey", h.updateSurveyHandler())
	r.With(requireAuth).Get("/survey", h.surveyListHandler())
	r.With(requireAuth).Get("/survey/{id}", h.surveyDetailHandler())
	r.Get("/token", h.tokenHandler())
}

type commandResponse struct {
	ID string `json:"id"`
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	common.WriteError(h.logger, w, r, err)
}
