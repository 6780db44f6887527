package domain

import "time"

// SurveyID is the opaque identifier of a survey. It is assigned once on creation
// and echoed unchanged by every later command and query.
type SurveyID string

func (id SurveyID) String() string {
	return string(id)
}

// QuestionKind enumerates the answer formats a question may take.
type QuestionKind string

const (
	QuestionText           QuestionKind = "text"
	QuestionSingleChoice   QuestionKind = "single_choice"
	QuestionMultipleChoice QuestionKind = "multiple_choice"
	QuestionRating         QuestionKind = "rating"
)

// Valid reports whether k is one of the known kinds.
func (k QuestionKind) Valid() bool {
	switch k {
	case QuestionText, QuestionSingleChoice, QuestionMultipleChoice, QuestionRating:
		return true
	}
	return false
}

// HasChoices reports whether questions of this kind carry a choice list.
func (k QuestionKind) HasChoices() bool {
	return k == QuestionSingleChoice || k == QuestionMultipleChoice
}

// Question is a single survey question.
type Question struct {
	Text    string
	Kind    QuestionKind
	Choices []string
}

// Survey is the aggregate persisted by the stores.
type Survey struct {
	ID          SurveyID
	Author      string
	Title       string
	Description string
	Category    string
	Questions   []Question
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SurveyPatch describes a partial update. Nil fields are left untouched.
// RequestingAuthor, when set, restricts the update to surveys owned by that author.
type SurveyPatch struct {
	ID               SurveyID
	RequestingAuthor string
	Title            *string
	Description      *string
	Category         *string
	Questions        *[]Question
	UpdatedAt        time.Time
}

// Matches reports whether the patch targets s.
func (p SurveyPatch) Matches(s Survey) bool {
	if p.ID != s.ID {
		return false
	}
	return p.RequestingAuthor == "" || p.RequestingAuthor == s.Author
}

// Apply copies the patched fields onto s.
func (p SurveyPatch) Apply(s *Survey) {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.Questions != nil {
		s.Questions = CloneQuestions(*p.Questions)
	}
	s.UpdatedAt = p.UpdatedAt
}

// CloneQuestions deep-copies a question list.
func CloneQuestions(questions []Question) []Question {
	if questions == nil {
		return nil
	}
	result := make([]Question, 0, len(questions))
	for _, q := range questions {
		result = append(result, Question{
			Text:    q.Text,
			Kind:    q.Kind,
			Choices: append([]string(nil), q.Choices...),
		})
	}
	return result
}
