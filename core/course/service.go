package course

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hogandenver05/Norse-Interview/core"
)

var (
	// errors
	ErrNotFound = errors.New("course not found")

	// OrderingFields are the fields courses may be ordered by.
	OrderingFields = map[string]bool{"title": true, "created_at": true, "updated_at": true}

	purgeAttempts = 3
	sleepFunc     = time.Sleep // mockable
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		// QueryCourses lists courses; QueryFilter.Search does a case-insensitive match
		// on one of Course.Title or Course.Description. Default ordering is by -created_at.
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		DeleteCourse(ctx context.Context, id string) error
	}

	// EnrollmentPurger removes a course's enrollment from every user holding one.
	EnrollmentPurger interface {
		PurgeEnrollments(ctx context.Context, courseID string) error
	}

	Service struct {
		repo   Repository
		purger EnrollmentPurger
		logger core.Logger
	}
)

func NewService(repo Repository, purger EnrollmentPurger, logger core.Logger) *Service {
	return &Service{repo: repo, purger: purger, logger: logger}
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	now := core.NowFunc()
	c := Course{
		ID:          uuid.New().String(),
		Title:       nc.Title,
		Description: nc.Description,
		Image:       nc.Image,
		Topics:      nc.Topics,
		Quizzes:     nc.Quizzes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c, err := svc.repo.CreateCourse(ctx, c)
	return c, errors.Wrap(err, "inserting course")
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, core.CleanString(id))
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	for _, ord := range ordering {
		if !OrderingFields[ord.Field] {
			msg := fmt.Sprintf("cannot order by %q", ord.Field)
			return nil, core.NewValidationError(errors.New(msg), core.FieldError{Field: "ordering", Error: msg})
		}
	}
	if filter == nil {
		filter = new(QueryFilter)
	}
	return svc.repo.QueryCourses(ctx, filter, ordering)
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	c, err := svc.GetByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	uc.apply(&c)
	c.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateCourse(ctx, c)
}

// Delete removes the Course, then its enrollments from every user, as two sequential steps.
// The second step runs even when the Course is already gone, so that repeating a Delete
// which failed half-way completes the cascade (and still reports ErrNotFound).
func (svc *Service) Delete(ctx context.Context, id string) error {
	id = core.CleanString(id)

	err := svc.repo.DeleteCourse(ctx, id)
	notFound := errors.Cause(err) == ErrNotFound
	if err != nil && !notFound {
		return errors.Wrap(err, "deleting course")
	}

	if err = svc.purgeEnrollments(ctx, id); err != nil {
		svc.logger.Error(fmt.Sprintf("course %s deleted but enrollments remain", id), err)
		return errors.Wrap(err, "cascading course deletion")
	}
	if notFound {
		return ErrNotFound
	}
	return nil
}

// purgeEnrollments waits 100ms longer between each attempt.
func (svc *Service) purgeEnrollments(ctx context.Context, id string) error {
	var err error
	for attempt := 1; attempt <= purgeAttempts; attempt++ {
		if err = svc.purger.PurgeEnrollments(ctx, id); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt < purgeAttempts {
			svc.logger.Warn(fmt.Sprintf("purging enrollments of course %s (attempt %d)", id, attempt), err)
			sleepFunc(time.Duration(attempt) * 100 * time.Millisecond)
		}
	}
	return err
}
