package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hogandenver05/Norse-Interview/core"
)

const (
	// NumTopics is the number of content topics of every Course.
	NumTopics = 5
	// NumQuizzes is the number of quiz questions closing every Course.
	NumQuizzes = 5

	DefaultImage = "assets/images/default-course.jpg"
)

type Topic struct {
	Topic   string `json:"topic" validate:"required"`
	Goal    string `json:"goal" validate:"required"`
	Content string `json:"content" validate:"required"`
}

type Quiz struct {
	Question string   `json:"question" validate:"required"`
	Options  []string `json:"options" validate:"min=2,dive,required"`
	Answer   string   `json:"answer" validate:"required"`
}

type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Topics      []Topic   `json:"topics"`
	Quizzes     []Quiz    `json:"quizzes"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// Topic returns the 1-based topic n.
func (c Course) Topic(n int) (Topic, bool) {
	if n < 1 || n > len(c.Topics) {
		return Topic{}, false
	}
	return c.Topics[n-1], true
}

// Quiz returns the 1-based quiz question n.
func (c Course) Quiz(n int) (Quiz, bool) {
	if n < 1 || n > len(c.Quizzes) {
		return Quiz{}, false
	}
	return c.Quizzes[n-1], true
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"required"`
	Image       string  `json:"image"`
	Topics      []Topic `json:"topics" validate:"len=5,dive"`
	Quizzes     []Quiz  `json:"quizzes" validate:"len=5,dive"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.Image = core.CleanString(nc.Image)
	if nc.Image == "" {
		nc.Image = DefaultImage
	}
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// Empty fields are left unchanged.
type UpdateCourse struct {
	Title       string  `json:"title" validate:"max=200"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Topics      []Topic `json:"topics" validate:"omitempty,len=5,dive"`
	Quizzes     []Quiz  `json:"quizzes" validate:"omitempty,len=5,dive"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	uc.Title = core.CleanString(uc.Title)
	uc.Description = core.CleanString(uc.Description)
	uc.Image = core.CleanString(uc.Image)
	return validate.Struct(uc)
}

// apply copies the set fields of uc onto c.
func (uc UpdateCourse) apply(c *Course) {
	if uc.Title != "" {
		c.Title = uc.Title
	}
	if uc.Description != "" {
		c.Description = uc.Description
	}
	if uc.Image != "" {
		c.Image = uc.Image
	}
	if uc.Topics != nil {
		c.Topics = uc.Topics
	}
	if uc.Quizzes != nil {
		c.Quizzes = uc.Quizzes
	}
}

type QueryFilter struct {
	Search string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
