package progress

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/hogandenver05/Norse-Interview/core"
	"github.com/hogandenver05/Norse-Interview/core/course"
	"github.com/hogandenver05/Norse-Interview/core/user"
)

var (
	// errors
	ErrNotEnrolled = errors.New("user is not enrolled in this course")

	// errUnchanged aborts a user.Service.Mutate without saving.
	errUnchanged = errors.New("unchanged")
)

type (
	UserStore interface {
		GetByEmail(ctx context.Context, email string) (user.User, error)
		Mutate(ctx context.Context, email string, fn func(*user.User) error) (user.User, error)
	}

	CourseStore interface {
		GetByID(ctx context.Context, id string) (course.Course, error)
	}

	// Engine tracks the enrollments of users, their position within each course and
	// grades course quizzes. Every write goes through the user record.
	Engine struct {
		users   UserStore
		courses CourseStore
		mailSvc core.EmailService
		logger  core.Logger
	}
)

func NewEngine(users UserStore, courses CourseStore, mailSvc core.EmailService, logger core.Logger) *Engine {
	return &Engine{users: users, courses: courses, mailSvc: mailSvc, logger: logger}
}

// Enroll enrolls the user in the course with a completion of 0.
// Enrolling twice is a no-op which returns the existing enrollment and created == false.
func (eng *Engine) Enroll(ctx context.Context, email, courseID string) (enr user.Enrollment, created bool, err error) {
	if _, err = eng.courses.GetByID(ctx, courseID); err != nil {
		return user.Enrollment{}, false, err
	}
	_, err = eng.users.Mutate(ctx, email, func(u *user.User) error {
		if enr, created = u.Enroll(courseID); !created {
			return errUnchanged
		}
		return nil
	})
	if err != nil && err != errUnchanged {
		return user.Enrollment{}, false, err
	}
	return enr, created, nil
}

// AdvanceTopic records that the user reached topic (1..6) of the course:
// completion becomes min(topic*15, 75), so going back to an earlier topic lowers it.
// A completed enrollment is left unchanged.
func (eng *Engine) AdvanceTopic(ctx context.Context, email, courseID string, topic int) (user.Enrollment, error) {
	if topic < 1 || topic > QuizTopic {
		msg := fmt.Sprintf("topic must be between 1 and %d", QuizTopic)
		return user.Enrollment{}, core.NewValidationError(errors.New(msg), core.FieldError{Field: "topic", Error: msg})
	}
	return eng.setCompletion(ctx, email, courseID, CompletionForTopic(topic), false)
}

// RecordCompletion sets a navigation completion: one of 0, 15, 30, 45, 60 or 75.
// A completion of 100 is only granted by SubmitQuiz.
func (eng *Engine) RecordCompletion(ctx context.Context, email, courseID string, completion int) (user.Enrollment, error) {
	if completion < 0 || completion > NavigationCap || completion%TopicStep != 0 {
		msg := fmt.Sprintf("completion must be a multiple of %d between 0 and %d", TopicStep, NavigationCap)
		return user.Enrollment{}, core.NewValidationError(errors.New(msg), core.FieldError{Field: "completion", Error: msg})
	}
	return eng.setCompletion(ctx, email, courseID, completion, false)
}

func (eng *Engine) setCompletion(ctx context.Context, email, courseID string, completion int, force bool) (user.Enrollment, error) {
	var enr user.Enrollment
	_, err := eng.users.Mutate(ctx, email, func(u *user.User) error {
		cur, ok := u.Enrollment(courseID)
		if !ok {
			return ErrNotEnrolled
		}
		if cur.Completion == completion || (cur.Completion >= CompletionDone && !force) {
			enr = cur
			return errUnchanged
		}
		enr, _ = u.SetCompletion(courseID, completion)
		return nil
	})
	if err != nil && err != errUnchanged {
		return user.Enrollment{}, err
	}
	return enr, nil
}

// Resume rebuilds the user's Session in the course from the stored completion.
func (eng *Engine) Resume(ctx context.Context, email, courseID string) (Session, error) {
	if _, err := eng.courses.GetByID(ctx, courseID); err != nil {
		return Session{}, err
	}
	usr, err := eng.users.GetByEmail(ctx, email)
	if err != nil {
		return Session{}, err
	}
	if enr, ok := usr.Enrollment(courseID); ok {
		return NewSession(courseID, &enr), nil
	}
	return NewSession(courseID, nil), nil
}

// Navigate applies move to sess and records the topic reached.
// sess is left untouched if the move is not allowed or cannot be saved.
func (eng *Engine) Navigate(ctx context.Context, email string, sess *Session, move Move) error {
	next := *sess
	if err := next.Apply(move); err != nil {
		return err
	}
	enr, err := eng.AdvanceTopic(ctx, email, sess.CourseID, next.Topic)
	if err != nil {
		return err
	}
	next.Completion = enr.Completion
	*sess = next
	return nil
}

// SubmitQuiz grades answers against the course quiz. When every answer is correct the
// enrollment is completed (completion 100); otherwise nothing is saved.
// The quiz opens once the last topic has been reached.
func (eng *Engine) SubmitQuiz(ctx context.Context, email, courseID string, answers Answers) (Grade, error) {
	c, err := eng.courses.GetByID(ctx, courseID)
	if err != nil {
		return Grade{}, err
	}
	usr, err := eng.users.GetByEmail(ctx, email)
	if err != nil {
		return Grade{}, err
	}
	enr, ok := usr.Enrollment(courseID)
	if !ok {
		return Grade{}, ErrNotEnrolled
	}
	if TopicFromCompletion(enr.Completion) < course.NumTopics {
		return Grade{}, ErrInvalidMove
	}

	grade := GradeQuiz(c, answers)
	grade.Completion = enr.Completion
	if !grade.AllCorrect {
		return grade, nil
	}

	if _, err = eng.setCompletion(ctx, email, courseID, CompletionDone, true); err != nil {
		return Grade{}, errors.Wrap(err, "completing course")
	}
	grade.Completion = CompletionDone
	if enr.Completion < CompletionDone {
		eng.sendCompletedMail(usr, c)
	}
	return grade, nil
}

// SubmitSession grades the answers selected in sess. On success sess becomes Completed;
// otherwise it stays at the quiz with its selection cleared.
func (eng *Engine) SubmitSession(ctx context.Context, email string, sess *Session) (Grade, error) {
	if sess.State != StateAtQuiz {
		return Grade{}, ErrInvalidMove
	}
	grade, err := eng.SubmitQuiz(ctx, email, sess.CourseID, sess.Selected)
	if err != nil {
		return Grade{}, err
	}
	if grade.AllCorrect {
		sess.complete()
	} else {
		sess.Retake()
	}
	return grade, nil
}

func (eng *Engine) sendCompletedMail(usr user.User, c course.Course) {
	eng.logger.Info(fmt.Sprintf("%s completed course %s", usr.Email, c.ID))
	eng.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      fmt.Sprintf("You completed %s", c.Title),
		TemplateName: "course_completed",
		TemplateData: map[string]string{
			"Name":        usr.Name,
			"CourseTitle": c.Title,
		},
	})
}
