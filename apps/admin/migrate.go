package main

import (
	"errors"

	"github.com/pressly/goose/v3"

	"github.com/hogandenver05/Norse-Interview/storage/database"
)

var (
	gooseRunFunc = goose.Run // mockable

	errNoSQLDatabase = errors.New("migrations require a SQL database engine")
)

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoSQLDatabase
	}
	return gooseRunFunc(args[0], cli.db.DB, database.MigrationsDir, args[1:]...)
}
