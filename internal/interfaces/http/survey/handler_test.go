package survey

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/survey-manager-api/internal/interfaces/http/common"
	"github.com/sngm3741/survey-manager-api/internal/survey/application"
	"github.com/sngm3741/survey-manager-api/internal/survey/domain"
)

type countingStore struct {
	calls   int
	payload json.RawMessage
}

func (s *countingStore) Create(_ context.Context, survey domain.Survey) (domain.SurveyID, error) {
	s.calls++
	return survey.ID, nil
}

func (s *countingStore) Update(_ context.Context, patch domain.SurveyPatch) (domain.SurveyID, error) {
	s.calls++
	return patch.ID, nil
}

func (s *countingStore) FindByID(context.Context, domain.SurveyID, string) (json.RawMessage, error) {
	s.calls++
	return s.payload, nil
}

func (s *countingStore) FindByAuthor(context.Context, string, *application.PageConfig) (json.RawMessage, error) {
	s.calls++
	return s.payload, nil
}

type stubCommands struct {
	got []application.Command
	id  domain.SurveyID
	err error
}

func (s *stubCommands) Dispatch(_ context.Context, cmd application.Command) (domain.SurveyID, error) {
	s.got = append(s.got, cmd)
	return s.id, s.err
}

type stubQueries struct {
	got     []application.Query
	payload json.RawMessage
	err     error
}

func (s *stubQueries) Dispatch(_ context.Context, q application.Query) (json.RawMessage, error) {
	s.got = append(s.got, q)
	return s.payload, s.err
}

type stubTokens struct {
	username, userID string
	err              error
}

func (s *stubTokens) Encode(username, userID string) (string, error) {
	s.username, s.userID = username, userID
	if s.err != nil {
		return "", s.err
	}
	return "signed-" + username, nil
}

// fakeAuth authenticates "Bearer <username>" without any signature.
func fakeAuth(required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				if required {
					common.WriteError(nil, w, r, domain.TokenMissing())
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			user := common.AuthenticatedUser{Username: strings.TrimPrefix(header, "Bearer ")}
			next.ServeHTTP(w, r.WithContext(common.ContextWithUser(r.Context(), user)))
		})
	}
}

func newRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	NewHandler(cfg).Register(r, fakeAuth(true), fakeAuth(false))
	return r
}

func do(t *testing.T, h http.Handler, method, target, body, user string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) common.ErrorResponse {
	t.Helper()
	var body common.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCreateSurvey_BindsTokenAuthor(t *testing.T) {
	commands := &stubCommands{id: "new-id"}
	h := newRouter(Config{Commands: commands})

	rec := do(t, h, http.MethodPost, "/survey", `{"title":"  Lunch  ","questions":[{"text":"Pizza?","kind":"single_choice","choices":["yes","no"]}]}`, "alice")

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"id":"new-id"}`, rec.Body.String())
	require.Len(t, commands.got, 1)
	cmd := commands.got[0].(application.CreateSurvey)
	require.Equal(t, "alice", cmd.Author)
	require.Equal(t, "Lunch", cmd.Title)
	require.Equal(t, []domain.Question{{Text: "Pizza?", Kind: domain.QuestionSingleChoice, Choices: []string{"yes", "no"}}}, cmd.Questions)
}

func TestCreateSurvey_AnonymousUsesBodyAuthor(t *testing.T) {
	commands := &stubCommands{id: "new-id"}
	h := newRouter(Config{Commands: commands})

	rec := do(t, h, http.MethodPost, "/survey", `{"author":"bob","title":"t"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "bob", commands.got[0].(application.CreateSurvey).Author)
}

func TestCreateSurvey_Validation(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		user   string
		fields []string
	}{
		{name: "empty body", body: "", user: "alice", fields: []string{"body"}},
		{name: "malformed", body: `{"title":`, user: "alice", fields: []string{"body"}},
		{name: "id injection", body: `{"id":"x","title":"t"}`, user: "alice", fields: []string{"id"}},
		{name: "unknown field", body: `{"title":"t","owner":"x"}`, user: "alice", fields: []string{"owner"}},
		{name: "wrong type", body: `{"title":5}`, user: "alice", fields: []string{"title"}},
		{name: "missing title and author", body: `{}`, fields: []string{"author", "title"}},
		{name: "anonymous without author", body: `{"title":"t"}`, fields: []string{"author"}},
		{name: "author mismatch", body: `{"author":"mallory","title":"t"}`, user: "alice", fields: []string{"author"}},
		{name: "title too long", body: `{"title":"` + strings.Repeat("x", 201) + `"}`, user: "alice", fields: []string{"title"}},
		{name: "bad question", body: `{"title":"t","questions":[{"text":"","kind":"essay"}]}`, user: "alice", fields: []string{"questions[0].text", "questions[0].kind"}},
		{name: "too few choices", body: `{"title":"t","questions":[{"text":"q","kind":"multiple_choice","choices":["a"]}]}`, user: "alice", fields: []string{"questions[0].choices"}},
		{name: "trailing data", body: `{"title":"t"} {}`, user: "alice", fields: []string{"body"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			commands := &stubCommands{}
			h := newRouter(Config{Commands: commands})

			rec := do(t, h, http.MethodPost, "/survey", tc.body, tc.user)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			body := errorBody(t, rec)
			require.Equal(t, "validation_error", body.Error)
			var fields []string
			for _, f := range body.Fields {
				fields = append(fields, f.Field)
			}
			require.Equal(t, tc.fields, fields)
			require.Empty(t, commands.got)
		})
	}
}

func TestCreateSurvey_BodyTooLarge(t *testing.T) {
	commands := &stubCommands{}
	h := newRouter(Config{Commands: commands})

	body := `{"title":"` + strings.Repeat("x", common.MaxSurveyRequestBody) + `"}`
	rec := do(t, h, http.MethodPost, "/survey", body, "alice")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, commands.got)
}

func TestUpdateSurvey_WithoutIDNeverReachesStore(t *testing.T) {
	store := &countingStore{}
	h := newRouter(Config{Commands: application.NewCommandDispatcher(store, nil)})

	rec := do(t, h, http.MethodPatch, "/survey", `{"title":"renamed"}`, "alice")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := errorBody(t, rec)
	require.Equal(t, "validation_error", body.Error)
	require.Equal(t, "id", body.Fields[0].Field)
	require.Zero(t, store.calls)
}

func TestUpdateSurvey_EchoesID(t *testing.T) {
	store := &countingStore{}
	h := newRouter(Config{Commands: application.NewCommandDispatcher(store, nil)})

	id := "7b0f4a49-6a43-4f7e-9c2e-3a1f1d1e2c3b"
	rec := do(t, h, http.MethodPatch, "/survey", `{"id":"`+id+`","description":"new"}`, "alice")

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"id":"`+id+`"}`, rec.Body.String())
	require.Equal(t, 1, store.calls)
}

func TestUpdateSurvey_PassesScopeAndPartialFields(t *testing.T) {
	commands := &stubCommands{id: "7b0f4a49-6a43-4f7e-9c2e-3a1f1d1e2c3b"}
	h := newRouter(Config{Commands: commands})

	rec := do(t, h, http.MethodPatch, "/survey", `{"id":"7b0f4a49-6a43-4f7e-9c2e-3a1f1d1e2c3b","questions":[]}`, "alice")
	require.Equal(t, http.StatusOK, rec.Code)

	cmd := commands.got[0].(application.UpdateSurvey)
	require.Equal(t, "alice", cmd.RequestingAuthor)
	require.Nil(t, cmd.Title)
	require.NotNil(t, cmd.Questions)
	require.Empty(t, *cmd.Questions)
}

func TestUpdateSurvey_Validation(t *testing.T) {
	cases := map[string]string{
		"bad uuid":      `{"id":"abc","title":"t"}`,
		"nothing to do": `{"id":"7b0f4a49-6a43-4f7e-9c2e-3a1f1d1e2c3b"}`,
		"blank title":   `{"id":"7b0f4a49-6a43-4f7e-9c2e-3a1f1d1e2c3b","title":"   "}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			commands := &stubCommands{}
			h := newRouter(Config{Commands: commands})
			rec := do(t, h, http.MethodPatch, "/survey", body, "alice")
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Empty(t, commands.got)
		})
	}
}

func TestUpdateSurvey_NotFound(t *testing.T) {
	commands := &stubCommands{err: domain.NotFound("survey", "7b0f4a49-6a43-4f7e-9c2e-3a1f1d1e2c3b")}
	h := newRouter(Config{Commands: commands})

	rec := do(t, h, http.MethodPatch, "/survey", `{"id":"7b0f4a49-6a43-4f7e-9c2e-3a1f1d1e2c3b","title":"t"}`, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "not_found", errorBody(t, rec).Error)
}

func TestCommands_StoreFailureIsGeneric(t *testing.T) {
	commands := &stubCommands{err: domain.StoreFailure("create survey", errors.New("dial tcp: refused"))}
	h := newRouter(Config{Commands: commands})

	rec := do(t, h, http.MethodPost, "/survey", `{"title":"t"}`, "alice")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "refused")
}

func TestSurveyDetail_WritesPayloadVerbatim(t *testing.T) {
	queries := &stubQueries{payload: json.RawMessage(`{"id":"abc","title":"t"}`)}
	h := newRouter(Config{Queries: queries})

	rec := do(t, h, http.MethodGet, "/survey/abc", "", "alice")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, `{"id":"abc","title":"t"}`, rec.Body.String())
	require.Equal(t, application.FindSurveyByID{ID: "abc", RequestingAuthor: "alice"}, queries.got[0])
}

func TestSurveyDetail_NoneIsEmptyBody(t *testing.T) {
	queries := &stubQueries{}
	h := newRouter(Config{Queries: queries})

	rec := do(t, h, http.MethodGet, "/survey/abc", "", "bob")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Body.String())
}

func TestSurveyQueries_RequireToken(t *testing.T) {
	queries := &stubQueries{}
	h := newRouter(Config{Queries: queries})

	for _, target := range []string{"/survey", "/survey/abc"} {
		rec := do(t, h, http.MethodGet, target, "", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, domain.MissingTokenMessage, errorBody(t, rec).Message)
	}
	require.Empty(t, queries.got)
}

func TestSurveyList_Paging(t *testing.T) {
	queries := &stubQueries{payload: json.RawMessage(`[]`)}
	h := newRouter(Config{Queries: queries})

	rec := do(t, h, http.MethodGet, "/survey", "", "alice")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]", rec.Body.String())
	require.Equal(t, application.FindSurveysByAuthor{Author: "alice"}, queries.got[0])

	rec = do(t, h, http.MethodGet, "/survey?page=2&size=10", "", "alice")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, &application.PageConfig{Number: 2, Size: 10}, queries.got[1].(application.FindSurveysByAuthor).Page)

	rec = do(t, h, http.MethodGet, "/survey?page=3", "", "alice")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, &application.PageConfig{Number: 3, Size: application.MaxPageSize}, queries.got[2].(application.FindSurveysByAuthor).Page)

	for _, bad := range []string{"page=0", "size=-1", "page=x", "size=101", "page=100000000000000001&size=100", "page=9223372036854775807"} {
		rec = do(t, h, http.MethodGet, "/survey?"+bad, "", "alice")
		require.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
	require.Len(t, queries.got, 3)
}

func TestSurveyList_HugePageNamesField(t *testing.T) {
	queries := &stubQueries{}
	h := newRouter(Config{Queries: queries})

	rec := do(t, h, http.MethodGet, "/survey?page=100000000000000001&size=100", "", "alice")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := errorBody(t, rec)
	require.Equal(t, "validation_error", body.Error)
	require.Len(t, body.Fields, 1)
	require.Equal(t, "page", body.Fields[0].Field)
	require.Empty(t, queries.got)
}

func TestToken_IssuesForSyntheticUser(t *testing.T) {
	tokens := &stubTokens{}
	h := newRouter(Config{Tokens: tokens})

	rec := do(t, h, http.MethodGet, "/token", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"token":"signed-test user"}`, rec.Body.String())
	require.Equal(t, "test user", tokens.username)
	require.NotEmpty(t, tokens.userID)

	first := tokens.userID
	rec = do(t, h, http.MethodGet, "/token?username=alice", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "test user", tokens.username)
	require.NotEqual(t, first, tokens.userID)
}

func TestToken_UsernameOverrideWhenEnabled(t *testing.T) {
	tokens := &stubTokens{}
	h := newRouter(Config{Tokens: tokens, AllowUsernameOverride: true})

	rec := do(t, h, http.MethodGet, "/token?username=alice", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "alice", tokens.username)

	rec = do(t, h, http.MethodGet, "/token?username=%20", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "test user", tokens.username)
}

func TestToken_SigningFailure(t *testing.T) {
	h := newRouter(Config{Tokens: &stubTokens{err: errors.New("no key")}})

	rec := do(t, h, http.MethodGet, "/token", "", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "internal_error", errorBody(t, rec).Error)
}
