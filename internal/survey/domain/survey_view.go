package domain

import "time"

// SurveyView is the public JSON shape of a survey returned by the query endpoints.
type SurveyView struct {
	ID          string         `json:"id"`
	Author      string         `json:"author"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Category    string         `json:"category,omitempty"`
	Questions   []QuestionView `json:"questions"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// QuestionView is the public JSON shape of a question.
type QuestionView struct {
	Text    string   `json:"text"`
	Kind    string   `json:"kind"`
	Choices []string `json:"choices,omitempty"`
}

// NewSurveyView projects a survey onto its public view.
func NewSurveyView(s Survey) SurveyView {
	questions := make([]QuestionView, 0, len(s.Questions))
	for _, q := range s.Questions {
		questions = append(questions, QuestionView{
			Text:    q.Text,
			Kind:    string(q.Kind),
			Choices: append([]string(nil), q.Choices...),
		})
	}
	return SurveyView{
		ID:          s.ID.String(),
		Author:      s.Author,
		Title:       s.Title,
		Description: s.Description,
		Category:    s.Category,
		Questions:   questions,
		CreatedAt:   s.CreatedAt.UTC(),
		UpdatedAt:   s.UpdatedAt.UTC(),
	}
}
