package mongo

import (
	"time"

	"github.com/sngm3741/survey-manager-api/internal/survey/domain"
)

// SurveyDocument は MongoDB 上でのアンケートスキーマ。_id にはアプリ側で採番した UUID を格納する。
type SurveyDocument struct {
	ID          string             `bson:"_id"`
	Author      string             `bson:"author"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	Category    string             `bson:"category,omitempty"`
	Questions   []QuestionDocument `bson:"questions"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

// QuestionDocument は設問の埋め込みドキュメント。
type QuestionDocument struct {
	Text    string   `bson:"text"`
	Kind    string   `bson:"kind"`
	Choices []string `bson:"choices,omitempty"`
}

func newSurveyDocument(s domain.Survey) SurveyDocument {
	return SurveyDocument{
		ID:          s.ID.String(),
		Author:      s.Author,
		Title:       s.Title,
		Description: s.Description,
		Category:    s.Category,
		Questions:   mapQuestionDocuments(s.Questions),
		CreatedAt:   s.CreatedAt.UTC(),
		UpdatedAt:   s.UpdatedAt.UTC(),
	}
}

func mapQuestionDocuments(questions []domain.Question) []QuestionDocument {
	docs := make([]QuestionDocument, 0, len(questions))
	for _, q := range questions {
		docs = append(docs, QuestionDocument{
			Text:    q.Text,
			Kind:    string(q.Kind),
			Choices: append([]string(nil), q.Choices...),
		})
	}
	return docs
}

func (d SurveyDocument) toDomain() domain.Survey {
	questions := make([]domain.Question, 0, len(d.Questions))
	for _, q := range d.Questions {
		questions = append(questions, domain.Question{
			Text:    q.Text,
			Kind:    domain.QuestionKind(q.Kind),
			Choices: append([]string(nil), q.Choices...),
		})
	}
	return domain.Survey{
		ID:          domain.SurveyID(d.ID),
		Author:      d.Author,
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		Questions:   questions,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
