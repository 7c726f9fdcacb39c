package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/STPREETHI/learning-portal/core/classroom"
)

// Schema types understood by a TextGenerator.
const (
	TypeArray  = "array"
	TypeObject = "object"
	TypeString = "string"
)

type (
	// Schema describes the JSON document a TextGenerator must answer with.
	Schema struct {
		Type       string
		Items      *Schema
		Properties map[string]*Schema
		Required   []string
	}

	// TextGenerator is the external generative model.
	TextGenerator interface {
		// GenerateJSON returns the raw JSON text produced for the prompt, constrained by schema.
		GenerateJSON(ctx context.Context, prompt string, schema *Schema) (string, error)
		GenerateText(ctx context.Context, prompt string) (string, error)
	}

	Service interface {
		GenerateQuiz(ctx context.Context, sourceText string, questionCount int) ([]classroom.Question, error)
		GenerateReview(ctx context.Context, questions []classroom.Question, userAnswers []string, score float64) (string, error)
	}

	service struct {
		gen TextGenerator
	}
)

var _ Service = (*service)(nil)

// QuizSchema is an array of {question, options, correctAnswer}.
var QuizSchema = &Schema{
	Type: TypeArray,
	Items: &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"question":      {Type: TypeString},
			"options":       {Type: TypeArray, Items: &Schema{Type: TypeString}},
			"correctAnswer": {Type: TypeString},
		},
		Required: []string{"question", "options", "correctAnswer"},
	},
}

// ServiceError reports any failure of the generative model, its transport or its output.
type ServiceError struct {
	Msg string
	Err error
}

func (e *ServiceError) Error() string { return e.Msg }
func (e *ServiceError) Unwrap() error { return e.Err }

func NewService(gen TextGenerator) Service {
	return &service{gen: gen}
}

func (svc *service) GenerateQuiz(ctx context.Context, sourceText string, questionCount int) ([]classroom.Question, error) {
	text, err := svc.gen.GenerateJSON(ctx, QuizPrompt(sourceText, questionCount), QuizSchema)
	if err != nil {
		return nil, &ServiceError{Msg: "failed to generate quiz from AI service", Err: err}
	}

	questions := make([]classroom.Question, 0)
	if err = json.Unmarshal([]byte(text), &questions); err != nil {
		return nil, &ServiceError{Msg: "failed to generate quiz from AI service", Err: errors.Wrap(err, "parsing quiz")}
	}
	return questions, nil
}

func (svc *service) GenerateReview(ctx context.Context, questions []classroom.Question, userAnswers []string, score float64) (string, error) {
	review, err := svc.gen.GenerateText(ctx, ReviewPrompt(questions, userAnswers, score))
	if err != nil {
		return "", &ServiceError{Msg: "failed to generate performance review", Err: err}
	}
	return review, nil
}

func QuizPrompt(sourceText string, questionCount int) string {
	return fmt.Sprintf(
		"Based on the following text, generate a multiple-choice quiz with exactly %d questions. "+
			"Each question should have 4 options. For each question, identify the single correct answer. "+
			"Ensure the 'correctAnswer' field exactly matches one of the strings in the 'options' array. "+
			"Text: --- %s ---",
		questionCount, sourceText,
	)
}

func ReviewPrompt(questions []classroom.Question, userAnswers []string, score float64) string {
	incorrect := make([]string, 0, len(questions))
	for i, q := range questions {
		var answer string
		if i < len(userAnswers) {
			answer = userAnswers[i]
		}
		if answer != q.CorrectAnswer {
			incorrect = append(incorrect, fmt.Sprintf("- Question: \"%s\", Correct Answer: \"%s\", Their Answer: \"%s\"", q.Question, q.CorrectAnswer, answer))
		}
	}

	list := "None. Great job!"
	if len(incorrect) > 0 {
		list = strings.Join(incorrect, "\n")
	}
	return fmt.Sprintf(
		"A student has just completed a quiz. Their score was %s%%. "+
			"Here are the questions they answered incorrectly: %s "+
			"Please provide a brief, constructive, and encouraging performance review (2-4 sentences).",
		decimal.NewFromFloat(score).StringFixed(0), list,
	)
}
