package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/trezcool/plantcare/core"
	"github.com/trezcool/plantcare/core/plant"
	"github.com/trezcool/plantcare/core/reminder"
	"github.com/trezcool/plantcare/core/user"
	emailsvc "github.com/trezcool/plantcare/services/email"
	logsvc "github.com/trezcool/plantcare/services/logger"
	"github.com/trezcool/plantcare/storage/database"
	inmemdb "github.com/trezcool/plantcare/storage/database/inmem"
	sqlxrepos "github.com/trezcool/plantcare/storage/database/sqlx"
)

var logger core.Logger = core.NopLogger{}

func main() {
	conf, err := core.NewConfig()
	errAndDie(err)
	logger, err = logsvc.NewLogger(conf)
	errAndDie(err)

	loc, err := conf.Reminder.Location()
	errAndDie(err)

	cli := commandLine{
		clock: core.SystemClock,
		loc:   loc,
		out:   os.Stdout,
	}

	// set up storage
	var (
		usrRepo   user.Repository
		plantRepo plant.Repository
	)
	if conf.Storage.Driver == "inmem" {
		db := inmemdb.Open()
		usrRepo = inmemdb.NewUserRepository(db)
		plantRepo = inmemdb.NewPlantRepository(db)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		errAndDie(database.CreateIfNotExist(ctx, conf))
		db, err := database.Open(ctx, conf)
		cancel()
		errAndDie(err)
		defer db.Close()

		cli.db = db.DB
		usrRepo = sqlxrepos.NewUserRepository(db)
		plantRepo = sqlxrepos.NewPlantRepository(db)
	}

	// set up services
	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	plant.InitValidators(validate, translator)

	cli.usrSvc = user.NewService(usrRepo, validate, translator)
	cli.plantSvc = plant.NewService(plantRepo, validate, translator, cli.clock)
	cli.sched = reminder.New(reminder.Deps{
		Users:           cli.usrSvc,
		Plants:          cli.plantSvc,
		Mail:            emailsvc.NewService(conf, logger),
		Clock:           cli.clock,
		Logger:          logger,
		Location:        loc,
		Subject:         conf.Reminder.Subject,
		FrontendBaseURL: conf.FrontendBaseURL,
	})

	// start CLI
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			_, _ = fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal("admin setup failed", err)
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
