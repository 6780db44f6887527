package survey

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/sngm3741/survey-manager-api/internal/interfaces/http/common"
	"github.com/sngm3741/survey-manager-api/internal/survey/application"
	"github.com/sngm3741/survey-manager-api/internal/survey/domain"
)

const (
	maxTitleRunes       = 200
	maxDescriptionRunes = 2000
	maxCategoryRunes    = 100
	maxQuestions        = 50
	maxQuestionRunes    = 500
	maxChoices          = 20
	minChoices          = 2
)

type questionRequest struct {
	Text    string   `json:"text"`
	Kind    string   `json:"kind"`
	Choices []string `json:"choices,omitempty"`
}

type createSurveyRequest struct {
	ID          *string           `json:"id,omitempty"`
	Author      string            `json:"author,omitempty"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Category    string            `json:"category,omitempty"`
	Questions   []questionRequest `json:"questions,omitempty"`
}

type updateSurveyRequest struct {
	ID          *string            `json:"id"`
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	Category    *string            `json:"category,omitempty"`
	Questions   *[]questionRequest `json:"questions,omitempty"`
}

// fieldErrors accumulates every offending field so a single response lists them all.
type fieldErrors []domain.FieldError

func (f *fieldErrors) add(field, reason string) {
	*f = append(*f, domain.FieldError{Field: field, Reason: reason})
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return domain.Validation(f...)
}

// toCommand maps the request onto CreateSurvey. tokenUser is the bearer subject, empty when anonymous.
func (req createSurveyRequest) toCommand(tokenUser string) (application.CreateSurvey, error) {
	var errs fieldErrors

	if req.ID != nil {
		errs.add("id", "must not be supplied when creating a survey")
	}

	author := strings.TrimSpace(req.Author)
	switch {
	case tokenUser != "" && author != "" && author != tokenUser:
		errs.add("author", "does not match the bearer token")
	case tokenUser != "":
		author = tokenUser
	case author == "":
		errs.add("author", "required when no bearer token is supplied")
	}

	title := strings.TrimSpace(req.Title)
	validateTitle(&errs, title)
	description := strings.TrimSpace(req.Description)
	validateLength(&errs, "description", description, maxDescriptionRunes)
	category := strings.TrimSpace(req.Category)
	validateLength(&errs, "category", category, maxCategoryRunes)
	questions := mapQuestions(&errs, req.Questions)

	if err := errs.err(); err != nil {
		return application.CreateSurvey{}, err
	}
	return application.CreateSurvey{
		Author:      author,
		Title:       title,
		Description: description,
		Category:    category,
		Questions:   questions,
	}, nil
}

// toCommand maps the request onto UpdateSurvey. A non-empty tokenUser scopes the update to that author.
func (req updateSurveyRequest) toCommand(tokenUser string) (application.UpdateSurvey, error) {
	var errs fieldErrors

	var id string
	if req.ID == nil || strings.TrimSpace(*req.ID) == "" {
		errs.add("id", "required")
	} else {
		id = strings.TrimSpace(*req.ID)
		if _, err := uuid.Parse(id); err != nil {
			errs.add("id", "must be a UUID")
		}
	}

	cmd := application.UpdateSurvey{
		ID:               domain.SurveyID(id),
		RequestingAuthor: tokenUser,
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		validateTitle(&errs, title)
		cmd.Title = &title
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		validateLength(&errs, "description", description, maxDescriptionRunes)
		cmd.Description = &description
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		validateLength(&errs, "category", category, maxCategoryRunes)
		cmd.Category = &category
	}
	if req.Questions != nil {
		questions := mapQuestions(&errs, *req.Questions)
		if questions == nil {
			questions = []domain.Question{}
		}
		cmd.Questions = &questions
	}

	if req.Title == nil && req.Description == nil && req.Category == nil && req.Questions == nil {
		errs.add("body", "at least one field must be updated")
	}

	if err := errs.err(); err != nil {
		return application.UpdateSurvey{}, err
	}
	return cmd, nil
}

func validateTitle(errs *fieldErrors, title string) {
	if title == "" {
		errs.add("title", "required")
		return
	}
	validateLength(errs, "title", title, maxTitleRunes)
}

func validateLength(errs *fieldErrors, field, value string, max int) {
	if utf8.RuneCountInString(value) > max {
		errs.add(field, fmt.Sprintf("must be at most %d characters", max))
	}
}

func mapQuestions(errs *fieldErrors, input []questionRequest) []domain.Question {
	if len(input) > maxQuestions {
		errs.add("questions", fmt.Sprintf("at most %d questions are allowed", maxQuestions))
		return nil
	}
	if len(input) == 0 {
		return nil
	}

	result := make([]domain.Question, 0, len(input))
	for i, q := range input {
		prefix := fmt.Sprintf("questions[%d]", i)

		text := strings.TrimSpace(q.Text)
		if text == "" {
			errs.add(prefix+".text", "required")
		} else {
			validateLength(errs, prefix+".text", text, maxQuestionRunes)
		}

		kind := domain.QuestionKind(strings.ToLower(strings.TrimSpace(q.Kind)))
		if !kind.Valid() {
			errs.add(prefix+".kind", "must be one of text, single_choice, multiple_choice, rating")
		}

		var choices []string
		for j, c := range q.Choices {
			c = strings.TrimSpace(c)
			if c == "" {
				errs.add(fmt.Sprintf("%s.choices[%d]", prefix, j), "must not be empty")
				continue
			}
			choices = append(choices, c)
		}
		switch {
		case kind.HasChoices() && len(q.Choices) < minChoices:
			errs.add(prefix+".choices", fmt.Sprintf("at least %d choices are required", minChoices))
		case kind.HasChoices() && len(q.Choices) > maxChoices:
			errs.add(prefix+".choices", fmt.Sprintf("at most %d choices are allowed", maxChoices))
		case kind.Valid() && !kind.HasChoices() && len(q.Choices) > 0:
			errs.add(prefix+".choices", "not allowed for this kind")
		}

		result = append(result, domain.Question{Text: text, Kind: kind, Choices: choices})
	}
	return result
}

// parsePageConfig reads page and size. Both absent means no paging constraint.
func parsePageConfig(values url.Values) (*application.PageConfig, error) {
	var errs fieldErrors

	number, hasNumber, err := common.ParseOptionalPositiveInt(values.Get("page"))
	if err != nil {
		errs.add("page", err.Error())
	}
	size, hasSize, err := common.ParseOptionalPositiveInt(values.Get("size"))
	if err != nil {
		errs.add("size", err.Error())
	} else if size > application.MaxPageSize {
		errs.add("size", fmt.Sprintf("must be at most %d", application.MaxPageSize))
	}

	if err := errs.err(); err != nil {
		return nil, err
	}
	if !hasNumber && !hasSize {
		return nil, nil
	}
	if !hasNumber {
		number = 1
	}
	if !hasSize {
		size = application.MaxPageSize
	}
	page := &application.PageConfig{Number: number, Size: size}
	if !page.OffsetInRange() {
		return nil, domain.Validation(domain.FieldError{
			Field:  "page",
			Reason: fmt.Sprintf("skips more than %d surveys", application.MaxOffset),
		})
	}
	return page, nil
}

// decodeJSONBody decodes exactly one JSON object into dst, rejecting unknown fields.
// Decode failures are reported as validation errors naming the offending field where possible.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, common.MaxSurveyRequestBody))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return decodeError(err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return domain.Validation(domain.FieldError{Field: "body", Reason: "must contain a single JSON object"})
	}
	return nil
}

func decodeError(err error) error {
	var (
		syntaxErr   *json.SyntaxError
		typeErr     *json.UnmarshalTypeError
		maxBytesErr *http.MaxBytesError
	)
	switch {
	case errors.Is(err, io.EOF):
		return domain.Validation(domain.FieldError{Field: "body", Reason: "required"})
	case errors.As(err, &maxBytesErr):
		return domain.Validation(domain.FieldError{Field: "body", Reason: fmt.Sprintf("must not exceed %d bytes", maxBytesErr.Limit)})
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return domain.Validation(domain.FieldError{Field: "body", Reason: "malformed JSON"})
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return domain.Validation(domain.FieldError{Field: field, Reason: "must be of type " + typeErr.Type.String()})
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		name := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return domain.Validation(domain.FieldError{Field: name, Reason: "unknown field"})
	default:
		return domain.Validation(domain.FieldError{Field: "body", Reason: "malformed JSON"})
	}
}
