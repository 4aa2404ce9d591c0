package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/hogandenver05/Norse-Interview/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db.user}
}

// copyUser detaches the slices of usr from the stored record.
func copyUser(usr user.User) user.User {
	if usr.EnrolledCourses != nil {
		usr.EnrolledCourses = append(make([]user.Enrollment, 0, len(usr.EnrolledCourses)), usr.EnrolledCourses...)
	}
	if usr.PasswordHash != nil {
		usr.PasswordHash = append([]byte(nil), usr.PasswordHash...)
	}
	return usr
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[usr.Email]; ok {
		return user.User{}, user.ErrEmailExists
	}
	if usr.EnrolledCourses == nil {
		usr.EnrolledCourses = []user.Enrollment{}
	}
	usr.Revision = 1
	stored := copyUser(usr)
	repo.db.table[usr.Email] = &stored
	return copyUser(stored), nil
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.table[email]; ok {
		return copyUser(*usr), nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := make([]user.User, 0, len(repo.db.table))
	for _, usr := range repo.db.table {
		if filter != nil && !matchUser(usr, filter) {
			continue
		}
		users = append(users, copyUser(*usr))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func matchUser(usr *user.User, filter *user.QueryFilter) bool {
	if filter.CourseID != "" {
		if _, ok := usr.Enrollment(filter.CourseID); !ok {
			return false
		}
	}
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(usr.Name), search) && !strings.Contains(usr.Email, search) {
			return false
		}
	}
	if filter.IsAdmin != nil && usr.IsAdmin != *filter.IsAdmin {
		return false
	}
	return true
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	origUsr, ok := repo.db.table[usr.Email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if origUsr.Revision != usr.Revision {
		return user.User{}, user.ErrStaleRevision
	}
	usr.Revision++
	if usr.PasswordHash == nil {
		usr.PasswordHash = origUsr.PasswordHash
	}
	usr.CreatedAt = origUsr.CreatedAt
	stored := copyUser(usr)
	repo.db.table[usr.Email] = &stored
	return copyUser(stored), nil
}
