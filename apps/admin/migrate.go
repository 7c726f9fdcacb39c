package main

import (
	"errors"

	"github.com/STPREETHI/learning-portal/storage/database"
)

var (
	runMigrationsFunc = database.RunMigrations // mockable

	errNoSQLDatabase = errors.New("migrations only apply to the postgres storage engine")
)

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoSQLDatabase
	}
	return runMigrationsFunc(cli.db, args[0], args[1:]...)
}
