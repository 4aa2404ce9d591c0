package progress

import "github.com/hogandenver05/Norse-Interview/core/course"

const (
	NextCourse = "next_course"
	NextRetake = "retake"
)

// Answers maps a quiz question index (1..5) to the selected option index (0-based).
type Answers map[int]int

type QuestionResult struct {
	Question int    `json:"question"`
	Answered bool   `json:"answered"`
	Selected string `json:"selected,omitempty"`
	Correct  bool   `json:"correct"`
	Answer   string `json:"answer,omitempty"` // only disclosed for incorrect answers
}

type Grade struct {
	Results    []QuestionResult `json:"results"`
	AllCorrect bool             `json:"all_correct"`
	Completion int              `json:"completion"`
	Next       string           `json:"next"`
}

// GradeQuiz grades every quiz question of c. An answer is correct iff the text of the
// selected option equals the quiz answer; unanswered and out of range selections are incorrect.
func GradeQuiz(c course.Course, answers Answers) Grade {
	grade := Grade{
		Results:    make([]QuestionResult, 0, course.NumQuizzes),
		AllCorrect: true,
	}
	for q := 1; q <= course.NumQuizzes; q++ {
		res := QuestionResult{Question: q}
		quiz, ok := c.Quiz(q)
		opt, answered := answers[q]
		if ok && answered && opt >= 0 && opt < len(quiz.Options) {
			res.Answered = true
			res.Selected = quiz.Options[opt]
			res.Correct = res.Selected == quiz.Answer
		}
		if !res.Correct {
			res.Answer = quiz.Answer
			grade.AllCorrect = false
		}
		grade.Results = append(grade.Results, res)
	}

	grade.Next = NextRetake
	if grade.AllCorrect {
		grade.Next = NextCourse
	}
	return grade
}
