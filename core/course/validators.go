package course

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/hogandenver05/Norse-Interview/core"
)

var (
	quizAnswerTag  = "quizanswer"
	quizAnswerText = "answer must be one of the options"
)

// InitValidators registers the Course validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(quizStructValidation, Quiz{})
	core.RegisterCustomTranslation(validate, translator, quizAnswerTag, quizAnswerText)
}

// quizStructValidation checks that a Quiz can be answered: its answer is one of its options.
// Grading compares option texts, so a quiz whose answer matches no option could never be passed.
func quizStructValidation(sl validator.StructLevel) {
	quiz, ok := sl.Current().Interface().(Quiz)
	if !ok || quiz.Answer == "" {
		return
	}
	for _, opt := range quiz.Options {
		if opt == quiz.Answer {
			return
		}
	}
	sl.ReportError(quiz.Answer, "answer", "Answer", quizAnswerTag, "")
}
