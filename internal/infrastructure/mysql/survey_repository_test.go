package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/survey-manager-api/internal/survey/application"
	"github.com/sngm3741/survey-manager-api/internal/survey/domain"
)

var (
	created = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	columns = []string{"id", "author", "title", "description", "category", "questions", "created_at", "updated_at"}
)

func newMock(t *testing.T) (*SurveyRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewSurveyRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO surveys")).
		WithArgs("abc", "alice", "Lunch", "", "food", []byte(`[{"text":"Pizza?","kind":"single_choice","choices":["yes","no"]}]`), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := repo.Create(context.Background(), domain.Survey{
		ID:        "abc",
		Author:    "alice",
		Title:     "Lunch",
		Category:  "food",
		Questions: []domain.Question{{Text: "Pizza?", Kind: domain.QuestionSingleChoice, Choices: []string{"yes", "no"}}},
		CreatedAt: created,
		UpdatedAt: created,
	})
	require.NoError(t, err)
	require.Equal(t, domain.SurveyID("abc"), id)
}

func TestCreate_DuplicateIsStoreFailure(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO surveys")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'abc' for key 'PRIMARY'"})

	_, err := repo.Create(context.Background(), domain.Survey{ID: "abc", Author: "alice", Title: "t"})
	require.Equal(t, domain.KindStore, domain.KindOf(err))
	var myErr *mysql.MySQLError
	require.True(t, errors.As(err, &myErr))
}

func TestUpdate_ScopedToAuthor(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE surveys SET updated_at = ?, title = ? WHERE id = ? AND author = ?")).
		WithArgs(sqlmock.AnyArg(), "renamed", "abc", "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))

	title := "renamed"
	id, err := repo.Update(context.Background(), domain.SurveyPatch{ID: "abc", RequestingAuthor: "alice", Title: &title, UpdatedAt: created})
	require.NoError(t, err)
	require.Equal(t, domain.SurveyID("abc"), id)
}

func TestUpdate_Unscoped(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE surveys SET updated_at = ?, description = ?, questions = ? WHERE id = ?")).
		WithArgs(sqlmock.AnyArg(), "d", []byte("[]"), "abc").
		WillReturnResult(sqlmock.NewResult(0, 1))

	description := "d"
	questions := []domain.Question{}
	_, err := repo.Update(context.Background(), domain.SurveyPatch{ID: "abc", Description: &description, Questions: &questions, UpdatedAt: created})
	require.NoError(t, err)
}

func TestUpdate_NoMatchIsNotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE surveys")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	title := "renamed"
	_, err := repo.Update(context.Background(), domain.SurveyPatch{ID: "missing", Title: &title, UpdatedAt: created})
	require.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestUpdate_DriverErrorIsStoreFailure(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE surveys")).
		WillReturnError(errors.New("connection reset"))

	title := "renamed"
	_, err := repo.Update(context.Background(), domain.SurveyPatch{ID: "abc", Title: &title, UpdatedAt: created})
	require.Equal(t, domain.KindStore, domain.KindOf(err))
}

func TestFindByID(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ? AND author = ?")).
		WithArgs("abc", "alice").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("abc", "alice", "Lunch", "", "", []byte(`[{"text":"Why?","kind":"text"}]`), created, created))

	payload, err := repo.FindByID(context.Background(), "abc", "alice")
	require.NoError(t, err)

	var view domain.SurveyView
	require.NoError(t, json.Unmarshal(payload, &view))
	require.Equal(t, "abc", view.ID)
	require.Equal(t, "Lunch", view.Title)
	require.Equal(t, []domain.QuestionView{{Text: "Why?", Kind: "text"}}, view.Questions)
}

func TestFindByID_OtherAuthorIsNone(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ? AND author = ?")).
		WithArgs("abc", "bob").
		WillReturnRows(sqlmock.NewRows(columns))

	payload, err := repo.FindByID(context.Background(), "abc", "bob")
	require.NoError(t, err)
	require.Nil(t, payload)
}

func TestFindByAuthor_Paged(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE author = ? ORDER BY created_at DESC, id ASC LIMIT ? OFFSET ?")).
		WithArgs("alice", 10, 10).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("b", "alice", "second", "", "", []byte(`[]`), created.Add(time.Hour), created).
			AddRow("a", "alice", "first", "", "", []byte(`[]`), created, created))

	payload, err := repo.FindByAuthor(context.Background(), "alice", &application.PageConfig{Number: 2, Size: 10})
	require.NoError(t, err)

	var views []domain.SurveyView
	require.NoError(t, json.Unmarshal(payload, &views))
	require.Len(t, views, 2)
	require.Equal(t, "b", views[0].ID)
	require.Empty(t, views[0].Questions)
}

func TestFindByAuthor_EmptyIsArray(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE author = ? ORDER BY created_at DESC, id ASC")).
		WithArgs("carol").
		WillReturnRows(sqlmock.NewRows(columns))

	payload, err := repo.FindByAuthor(context.Background(), "carol", nil)
	require.NoError(t, err)
	require.Equal(t, "[]", string(payload))
}

func TestFindByAuthor_CorruptQuestionsIsStoreFailure(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE author = ?")).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("a", "alice", "first", "", "", []byte(`{not json`), created, created))

	_, err := repo.FindByAuthor(context.Background(), "alice", nil)
	require.Equal(t, domain.KindStore, domain.KindOf(err))
}

func TestEnsureSchema(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS surveys")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
}

func TestParseDSN_ForcesStoreOptions(t *testing.T) {
	cfg, err := ParseDSN("user:pass@tcp(db:3306)/surveys")
	require.NoError(t, err)
	require.True(t, cfg.ParseTime)
	require.True(t, cfg.ClientFoundRows)
	require.Equal(t, "surveys", cfg.DBName)

	_, err = ParseDSN("not a dsn")
	require.Error(t, err)
}
