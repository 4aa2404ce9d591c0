package inmemdb

import (
	"sync"

	"github.com/hogandenver05/Norse-Interview/core/course"
	"github.com/hogandenver05/Norse-Interview/core/user"
)

type (
	DB struct {
		user   *userTable
		course *courseTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User // by email
	}

	courseTable struct {
		sync.RWMutex
		table map[string]*course.Course // by ID
	}
)

func Open() *DB {
	return &DB{
		user:   &userTable{table: make(map[string]*user.User)},
		course: &courseTable{table: make(map[string]*course.Course)},
	}
}
