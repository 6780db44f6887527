package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sngm3741/survey-manager-api/internal/survey/application"
	"github.com/sngm3741/survey-manager-api/internal/survey/domain"
)

const schema = `CREATE TABLE IF NOT EXISTS surveys (
	id          CHAR(36)     NOT NULL PRIMARY KEY,
	author      VARCHAR(255) NOT NULL,
	title       VARCHAR(200) NOT NULL,
	description TEXT         NOT NULL,
	category    VARCHAR(100) NOT NULL,
	questions   JSON         NOT NULL,
	created_at  DATETIME(6)  NOT NULL,
	updated_at  DATETIME(6)  NOT NULL,
	INDEX idx_surveys_author_created (author, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const selectColumns = `SELECT id, author, title, description, category, questions, created_at, updated_at FROM surveys`

type questionRow struct {
	Text    string   `json:"text"`
	Kind    string   `json:"kind"`
	Choices []string `json:"choices,omitempty"`
}

// SurveyRepository stores surveys in a single table; questions are kept as a JSON column.
type SurveyRepository struct {
	db *sql.DB
}

var _ application.SurveyStore = (*SurveyRepository)(nil)

func NewSurveyRepository(db *sql.DB) *SurveyRepository {
	return &SurveyRepository{db: db}
}

// EnsureSchema creates the surveys table when missing.
func (r *SurveyRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create surveys table: %w", err)
	}
	return nil
}

func (r *SurveyRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SurveyRepository) Create(ctx context.Context, survey domain.Survey) (domain.SurveyID, error) {
	questions, err := encodeQuestions(survey.Questions)
	if err != nil {
		return "", domain.StoreFailure("create survey", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO surveys (id, author, title, description, category, questions, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		survey.ID.String(), survey.Author, survey.Title, survey.Description, survey.Category, questions,
		survey.CreatedAt.UTC(), survey.UpdatedAt.UTC(),
	)
	if err != nil {
		return "", domain.StoreFailure("create survey", err)
	}
	return survey.ID, nil
}

// Update changes the patched columns. RowsAffected counts matched rows, so zero means no survey matched.
func (r *SurveyRepository) Update(ctx context.Context, patch domain.SurveyPatch) (domain.SurveyID, error) {
	sets := []string{"updated_at = ?"}
	args := []any{patch.UpdatedAt.UTC()}
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *patch.Category)
	}
	if patch.Questions != nil {
		questions, err := encodeQuestions(*patch.Questions)
		if err != nil {
			return "", domain.StoreFailure("update survey", err)
		}
		sets = append(sets, "questions = ?")
		args = append(args, questions)
	}

	query := "UPDATE surveys SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, patch.ID.String())
	if patch.RequestingAuthor != "" {
		query += " AND author = ?"
		args = append(args, patch.RequestingAuthor)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return "", domain.StoreFailure("update survey", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return "", domain.StoreFailure("update survey", err)
	}
	if affected == 0 {
		return "", domain.NotFound("survey", patch.ID)
	}
	return patch.ID, nil
}

func (r *SurveyRepository) FindByID(ctx context.Context, id domain.SurveyID, requestingAuthor string) (json.RawMessage, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ? AND author = ?`, id.String(), requestingAuthor)
	survey, err := scanSurvey(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.StoreFailure("find survey", err)
	}

	payload, err := json.Marshal(domain.NewSurveyView(survey))
	if err != nil {
		return nil, domain.StoreFailure("encode survey", err)
	}
	return payload, nil
}

func (r *SurveyRepository) FindByAuthor(ctx context.Context, author string, page *application.PageConfig) (json.RawMessage, error) {
	query := selectColumns + ` WHERE author = ? ORDER BY created_at DESC, id ASC`
	args := []any{author}
	if page != nil {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, page.Size, page.Offset())
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.StoreFailure("list surveys", err)
	}
	defer rows.Close()

	views := make([]domain.SurveyView, 0)
	for rows.Next() {
		survey, err := scanSurvey(rows)
		if err != nil {
			return nil, domain.StoreFailure("list surveys", err)
		}
		views = append(views, domain.NewSurveyView(survey))
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreFailure("list surveys", err)
	}

	payload, err := json.Marshal(views)
	if err != nil {
		return nil, domain.StoreFailure("encode surveys", err)
	}
	return payload, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSurvey(s scanner) (domain.Survey, error) {
	var (
		survey    domain.Survey
		id        string
		questions []byte
	)
	if err := s.Scan(&id, &survey.Author, &survey.Title, &survey.Description, &survey.Category, &questions, &survey.CreatedAt, &survey.UpdatedAt); err != nil {
		return domain.Survey{}, err
	}
	survey.ID = domain.SurveyID(id)

	decoded, err := decodeQuestions(questions)
	if err != nil {
		return domain.Survey{}, fmt.Errorf("survey %s: %w", id, err)
	}
	survey.Questions = decoded
	return survey, nil
}

func encodeQuestions(questions []domain.Question) ([]byte, error) {
	rows := make([]questionRow, 0, len(questions))
	for _, q := range questions {
		rows = append(rows, questionRow{Text: q.Text, Kind: string(q.Kind), Choices: q.Choices})
	}
	return json.Marshal(rows)
}

func decodeQuestions(raw []byte) ([]domain.Question, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var rows []questionRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	questions := make([]domain.Question, 0, len(rows))
	for _, q := range rows {
		questions = append(questions, domain.Question{Text: q.Text, Kind: domain.QuestionKind(q.Kind), Choices: q.Choices})
	}
	return questions, nil
}
