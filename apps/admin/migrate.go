package main

import (
	"context"

	"github.com/pressly/goose/v3"

	appfs "github.com/trezcool/plantcare/fs"
)

var gooseRunFunc = goose.RunContext // mockable

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	if cli.db == nil {
		return errNeedsDB
	}
	goose.SetBaseFS(appfs.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return gooseRunFunc(ctx, args[0], cli.db, "migrations", args[1:]...)
}
