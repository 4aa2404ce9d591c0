package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hogandenver05/Norse-Interview/core/course"
	"github.com/hogandenver05/Norse-Interview/testutil"
)

func gradingCourse() course.Course {
	nc := testutil.NewCourse("Runes")
	return course.Course{ID: "c1", Title: nc.Title, Topics: nc.Topics, Quizzes: nc.Quizzes}
}

func allCorrect() Answers {
	answers := make(Answers, course.NumQuizzes)
	for q := 1; q <= course.NumQuizzes; q++ {
		answers[q] = testutil.CorrectOption
	}
	return answers
}

func TestGradeQuiz(t *testing.T) {
	c := gradingCourse()

	oneWrong := allCorrect()
	oneWrong[3] = 0

	missing := allCorrect()
	delete(missing, 5)

	outOfRange := allCorrect()
	outOfRange[2] = 3
	negative := allCorrect()
	negative[4] = -1

	tests := []struct {
		name          string
		answers       Answers
		wantAll       bool
		wantIncorrect []int
	}{
		{name: "all correct", answers: allCorrect(), wantAll: true},
		{name: "one wrong", answers: oneWrong, wantIncorrect: []int{3}},
		{name: "unanswered", answers: missing, wantIncorrect: []int{5}},
		{name: "out of range", answers: outOfRange, wantIncorrect: []int{2}},
		{name: "negative", answers: negative, wantIncorrect: []int{4}},
		{name: "nothing", answers: nil, wantIncorrect: []int{1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grade := GradeQuiz(c, tt.answers)
			assert.Equal(t, tt.wantAll, grade.AllCorrect)
			assert.Len(t, grade.Results, course.NumQuizzes)

			var incorrect []int
			for _, res := range grade.Results {
				if !res.Correct {
					incorrect = append(incorrect, res.Question)
					quiz, _ := c.Quiz(res.Question)
					assert.Equal(t, quiz.Answer, res.Answer, "the answer of incorrect question %d is disclosed", res.Question)
				} else {
					assert.Empty(t, res.Answer)
				}
			}
			assert.Equal(t, tt.wantIncorrect, incorrect)

			if tt.wantAll {
				assert.Equal(t, NextCourse, grade.Next)
			} else {
				assert.Equal(t, NextRetake, grade.Next)
			}
		})
	}
}

func TestGradeQuiz_comparesOptionText(t *testing.T) {
	c := gradingCourse()
	// same text as the answer at another index
	c.Quizzes[0].Options = []string{"right 1", "other", "right 1"}

	answers := allCorrect()
	answers[1] = 2
	assert.True(t, GradeQuiz(c, answers).AllCorrect)

	answers[1] = 1
	grade := GradeQuiz(c, answers)
	assert.False(t, grade.AllCorrect)
	assert.True(t, grade.Results[0].Answered)
	assert.Equal(t, "other", grade.Results[0].Selected)
}
