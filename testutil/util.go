package testutil

import (
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hogandenver05/Norse-Interview/core"
	"github.com/hogandenver05/Norse-Interview/core/course"
	"github.com/hogandenver05/Norse-Interview/core/user"
	logsvc "github.com/hogandenver05/Norse-Interview/services/logger"
)

// NewLogger returns a silent logger which reports nothing to Rollbar.
func NewLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
	logger.Enable(false)
	return logger
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	isAdmin bool,
	enrollments ...user.Enrollment,
) user.User {
	tstamp := time.Now().UTC()
	usr := user.User{
		Name:            name,
		Email:           email,
		IsAdmin:         isAdmin,
		EnrolledCourses: append([]user.Enrollment{}, enrollments...),
		CreatedAt:       tstamp,
		UpdatedAt:       tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// NewCourse returns a valid NewCourse whose quiz answers are always the second option.
func NewCourse(title string) course.NewCourse {
	nc := course.NewCourse{
		Title:       title,
		Description: "All about " + title,
		Topics:      make([]course.Topic, 0, course.NumTopics),
		Quizzes:     make([]course.Quiz, 0, course.NumQuizzes),
	}
	for i := 1; i <= course.NumTopics; i++ {
		nc.Topics = append(nc.Topics, course.Topic{
			Topic:   fmt.Sprintf("%s topic %d", title, i),
			Goal:    fmt.Sprintf("Understand part %d", i),
			Content: fmt.Sprintf("Content of part %d", i),
		})
	}
	for i := 1; i <= course.NumQuizzes; i++ {
		nc.Quizzes = append(nc.Quizzes, course.Quiz{
			Question: fmt.Sprintf("Question %d?", i),
			Options:  []string{fmt.Sprintf("wrong %d", i), fmt.Sprintf("right %d", i), fmt.Sprintf("nope %d", i)},
			Answer:   fmt.Sprintf("right %d", i),
		})
	}
	return nc
}

// CorrectOption is the option index of every quiz answer of NewCourse courses.
const CorrectOption = 1

func CreateCourse(t *testing.T, repo course.Repository, title string, createdAt ...time.Time) course.Course {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	nc := NewCourse(title)
	c, err := repo.CreateCourse(context.Background(), course.Course{
		ID:          uuid.New().String(),
		Title:       nc.Title,
		Description: nc.Description,
		Image:       course.DefaultImage,
		Topics:      nc.Topics,
		Quizzes:     nc.Quizzes,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	})
	if err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return c
}
