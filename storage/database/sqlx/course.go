package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/hogandenver05/Norse-Interview/core"
	"github.com/hogandenver05/Norse-Interview/core/course"
)

const courseColumns = `id, title, description, image, topics, quizzes, created_at, updated_at`

type courseRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Image       string         `db:"image"`
	Topics      types.JSONText `db:"topics"`
	Quizzes     types.JSONText `db:"quizzes"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo courseRepository) toRow(c course.Course) (courseRow, error) {
	topics, err := json.Marshal(c.Topics)
	if err != nil {
		return courseRow{}, errors.Wrap(err, "encoding topics")
	}
	quizzes, err := json.Marshal(c.Quizzes)
	if err != nil {
		return courseRow{}, errors.Wrap(err, "encoding quizzes")
	}
	return courseRow{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Image:       c.Image,
		Topics:      types.JSONText(topics),
		Quizzes:     types.JSONText(quizzes),
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}, nil
}

func (repo courseRepository) fromRow(row courseRow) (course.Course, error) {
	c := course.Course{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Image:       row.Image,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
	if err := row.Topics.Unmarshal(&c.Topics); err != nil {
		return course.Course{}, errors.Wrapf(err, "decoding topics of %s", row.ID)
	}
	if err := row.Quizzes.Unmarshal(&c.Quizzes); err != nil {
		return course.Course{}, errors.Wrapf(err, "decoding quizzes of %s", row.ID)
	}
	return c, nil
}

// trapNoRowsErr maps psql "no rows" err to course.ErrNotFound
func (repo courseRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return course.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	row, err := repo.toRow(c)
	if err != nil {
		return course.Course{}, err
	}
	q := `INSERT INTO course (` + courseColumns + `) VALUES (
		:id, :title, :description, :image, :topics, :quizzes, :created_at, :updated_at)`
	if _, err = repo.db.NamedExecContext(ctx, q, row); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return repo.fromRow(row)
}

func (repo courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}
	var row courseRow
	q := `SELECT ` + courseColumns + ` FROM course WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return course.Course{}, repo.trapNoRowsErr(err, "finding course by ID")
	}
	return repo.fromRow(row)
}

func (repo courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	var args []interface{}
	q := `SELECT ` + courseColumns + ` FROM course`

	// courses with Title or Description matching the search keyword
	if filter != nil && filter.Search != "" {
		val := "%" + filter.Search + "%"
		q += " WHERE (title ILIKE ? OR description ILIKE ?)"
		args = append(args, val, val)
	}

	orderList := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		if course.OrderingFields[ord.Field] {
			orderList = append(orderList, ord.String())
		}
	}
	if len(orderList) == 0 {
		orderList = append(orderList, core.DBOrdering{Field: "created_at"}.String())
	}
	q += " ORDER BY " + strings.Join(append(orderList, "id ASC"), ", ")

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		c, err := repo.fromRow(row)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	row, err := repo.toRow(c)
	if err != nil {
		return course.Course{}, err
	}
	q := `UPDATE course SET
		title = :title,
		description = :description,
		image = :image,
		topics = :topics,
		quizzes = :quizzes,
		updated_at = :updated_at
	WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	} else if n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return repo.GetCourseByID(ctx, c.ID)
}

func (repo courseRepository) DeleteCourse(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return course.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM course WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if n == 0 {
		return course.ErrNotFound
	}
	return nil
}
