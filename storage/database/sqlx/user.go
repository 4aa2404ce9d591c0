package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/hogandenver05/Norse-Interview/core/user"
)

const (
	userColumns = `email, name, is_admin, password_hash, enrolled_courses, revision, created_at, updated_at, last_login`

	uniqueViolation = "23505"
)

type userRow struct {
	Email           string         `db:"email"`
	Name            string         `db:"name"`
	IsAdmin         bool           `db:"is_admin"`
	PasswordHash    []byte         `db:"password_hash"`
	EnrolledCourses types.JSONText `db:"enrolled_courses"`
	Revision        int            `db:"revision"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	LastLogin       null.Time      `db:"last_login"`
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) toRow(usr user.User) (userRow, error) {
	enrollments := usr.EnrolledCourses
	if enrollments == nil {
		enrollments = []user.Enrollment{}
	}
	enrolled, err := json.Marshal(enrollments)
	if err != nil {
		return userRow{}, errors.Wrap(err, "encoding enrollments")
	}
	return userRow{
		Email:           usr.Email,
		Name:            usr.Name,
		IsAdmin:         usr.IsAdmin,
		PasswordHash:    usr.PasswordHash,
		EnrolledCourses: types.JSONText(enrolled),
		Revision:        usr.Revision,
		CreatedAt:       usr.CreatedAt.UTC(),
		UpdatedAt:       usr.UpdatedAt.UTC(),
		LastLogin:       null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}, nil
}

func (repo userRepository) fromRow(row userRow) (user.User, error) {
	usr := user.User{
		Email:           row.Email,
		Name:            row.Name,
		IsAdmin:         row.IsAdmin,
		PasswordHash:    row.PasswordHash,
		EnrolledCourses: []user.Enrollment{},
		Revision:        row.Revision,
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
	if row.LastLogin.Valid {
		usr.LastLogin = row.LastLogin.Time.UTC()
	}
	if err := row.EnrolledCourses.Unmarshal(&usr.EnrolledCourses); err != nil {
		return user.User{}, errors.Wrapf(err, "decoding enrollments of %s", row.Email)
	}
	return usr, nil
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.Revision = 1
	row, err := repo.toRow(usr)
	if err != nil {
		return user.User{}, err
	}

	q := `INSERT INTO "user" (` + userColumns + `) VALUES (
		:email, :name, :is_admin, :password_hash, :enrolled_courses, :revision, :created_at, :updated_at, :last_login)`
	if _, err = repo.db.NamedExecContext(ctx, q, row); err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.fromRow(row)
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var row userRow
	q := `SELECT ` + userColumns + ` FROM "user" WHERE email = $1`
	if err := repo.db.GetContext(ctx, &row, q, email); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by email")
	}
	return repo.fromRow(row)
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter) ([]user.User, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter != nil {
		// users enrolled in the course
		if filter.CourseID != "" {
			enrolled, err := json.Marshal([]map[string]string{{"courseId": filter.CourseID}})
			if err != nil {
				return nil, errors.Wrap(err, "encoding course filter")
			}
			where = append(where, "enrolled_courses @> ?::jsonb")
			args = append(args, types.JSONText(enrolled))
		}
		// users with Name or Email matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			where = append(where, "(name ILIKE ? OR email ILIKE ?)")
			args = append(args, val, val)
		}
		if filter.IsAdmin != nil {
			where = append(where, "is_admin = ?")
			args = append(args, *filter.IsAdmin)
		}
	}

	q := `SELECT ` + userColumns + ` FROM "user"`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY email ASC"

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		usr, err := repo.fromRow(row)
		if err != nil {
			return nil, err
		}
		users = append(users, usr)
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row, err := repo.toRow(usr)
	if err != nil {
		return user.User{}, err
	}

	q := `UPDATE "user" SET
		name = :name,
		is_admin = :is_admin,
		password_hash = :password_hash,
		enrolled_courses = :enrolled_courses,
		revision = revision + 1,
		updated_at = :updated_at,
		last_login = :last_login
	WHERE email = :email AND revision = :revision`
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n == 0 {
		if _, err = repo.GetUserByEmail(ctx, usr.Email); err != nil {
			return user.User{}, err
		}
		return user.User{}, user.ErrStaleRevision
	}
	return repo.GetUserByEmail(ctx, usr.Email)
}
