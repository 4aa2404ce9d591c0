package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/hogandenver05/Norse-Interview/core"
	"github.com/hogandenver05/Norse-Interview/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db.course}
}

func copyCourse(c course.Course) course.Course {
	if c.Topics != nil {
		c.Topics = append(make([]course.Topic, 0, len(c.Topics)), c.Topics...)
	}
	if c.Quizzes != nil {
		quizzes := make([]course.Quiz, 0, len(c.Quizzes))
		for _, quiz := range c.Quizzes {
			quiz.Options = append([]string(nil), quiz.Options...)
			quizzes = append(quizzes, quiz)
		}
		c.Quizzes = quizzes
	}
	return c
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored := copyCourse(c)
	repo.db.table[c.ID] = &stored
	return copyCourse(stored), nil
}

func (repo *courseRepository) GetCourseByID(_ context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.table[id]; ok {
		return copyCourse(*c), nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var search string
	if filter != nil {
		search = strings.ToLower(filter.Search)
	}
	courses := make([]course.Course, 0, len(repo.db.table))
	for _, c := range repo.db.table {
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Title), search) &&
			!strings.Contains(strings.ToLower(c.Description), search) {
			continue
		}
		courses = append(courses, copyCourse(*c))
	}

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	sort.SliceStable(courses, func(i, j int) bool {
		for _, ord := range ordering {
			cmp := compareCourses(courses[i], courses[j], ord.Field)
			if cmp == 0 {
				continue
			}
			if ord.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return courses[i].ID < courses[j].ID
	})
	return courses, nil
}

func compareCourses(a, b course.Course, field string) int {
	switch field {
	case "title":
		return strings.Compare(a.Title, b.Title)
	case "created_at":
		return compareTimes(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
	case "updated_at":
		return compareTimes(a.UpdatedAt.UnixNano(), b.UpdatedAt.UnixNano())
	}
	return 0
}

func compareTimes(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[c.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	c.CreatedAt = orig.CreatedAt
	stored := copyCourse(c)
	repo.db.table[c.ID] = &stored
	return copyCourse(stored), nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return course.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
