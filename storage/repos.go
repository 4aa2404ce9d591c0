package storage

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/hogandenver05/Norse-Interview/core"
	"github.com/hogandenver05/Norse-Interview/core/course"
	"github.com/hogandenver05/Norse-Interview/core/user"
	"github.com/hogandenver05/Norse-Interview/storage/database"
	inmemdb "github.com/hogandenver05/Norse-Interview/storage/database/inmem"
	sqlxrepos "github.com/hogandenver05/Norse-Interview/storage/database/sqlx"
)

const EngineMemory = "memory"

// Repos holds the repositories of the configured database engine.
type Repos struct {
	DB      *sqlx.DB // nil for the memory engine
	Users   user.Repository
	Courses course.Repository
}

// Open sets up the repositories of conf.Database.Engine. With a SQL engine, the database is
// created if it does not exist and, when migrate is set, migrated up.
func Open(conf *core.Config, migrate bool) (*Repos, error) {
	if conf.Database.Engine == EngineMemory {
		db := inmemdb.Open()
		return &Repos{
			Users:   inmemdb.NewUserRepository(db),
			Courses: inmemdb.NewCourseRepository(db),
		}, nil
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, errors.Wrap(err, "creating database")
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err = database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &Repos{
		DB:      db,
		Users:   sqlxrepos.NewUserRepository(db),
		Courses: sqlxrepos.NewCourseRepository(db),
	}, nil
}

func (r *Repos) Close() error {
	if r.DB == nil {
		return nil
	}
	return r.DB.Close()
}
