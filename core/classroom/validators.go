package classroom

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/STPREETHI/learning-portal/core"
)

var (
	statusTag  = "attendance_status"
	statusText = "status must be one of: " + strings.Join(AllStatuses, ", ")

	correctAnswerTag  = "correctanswer"
	correctAnswerText = "correct answer must match one of the options"
)

// InitValidators registers the classroom validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)

	validate.RegisterStructValidation(questionStructValidation, Question{})
	core.RegisterCustomTranslation(validate, translator, correctAnswerTag, correctAnswerText)
}

func statusValidation(fl validator.FieldLevel) bool {
	status := fl.Field().String()
	for _, s := range AllStatuses {
		if status == s {
			return true
		}
	}
	return false
}

// questionStructValidation checks that the correct answer is one of the question's options.
func questionStructValidation(sl validator.StructLevel) {
	q, ok := sl.Current().Interface().(Question)
	if !ok || q.CorrectAnswer == "" {
		return
	}
	if indexOf(q.Options, q.CorrectAnswer) < 0 {
		sl.ReportError(q.CorrectAnswer, "correctAnswer", "CorrectAnswer", correctAnswerTag, "")
	}
}
