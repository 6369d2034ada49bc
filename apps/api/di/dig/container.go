package dig_container

import (
	"context"
	"log"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/plantcare/apps/api/echo"
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

// Storage is the set of repositories selected by conf.Storage.Driver.
type Storage struct {
	dig.Out

	Users  user.Repository
	Plants plant.Repository
	Health echoapi.HealthChecker
	Closer func() error `name:"storageCloser"`
}

type StorageCloserParam struct {
	dig.In
	Close func() error `name:"storageCloser"`
}

type nopHealth struct{}

func (nopHealth) PingContext(context.Context) error { return nil }

func newStorage(conf *core.Config, logger core.Logger) (Storage, error) {
	if conf.Storage.Driver == "inmem" {
		logger.Warn("using in-memory storage: data is lost on exit")
		db := inmemdb.Open()
		return Storage{
			Users:  inmemdb.NewUserRepository(db),
			Plants: inmemdb.NewPlantRepository(db),
			Health: nopHealth{},
			Closer: func() error { return nil },
		}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return Storage{}, errors.Wrap(err, "setting up database")
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		return Storage{}, err
	}
	if err = database.Migrate(ctx, db.DB); err != nil {
		_ = db.Close()
		return Storage{}, err
	}
	return Storage{
		Users:  sqlxrepos.NewUserRepository(db),
		Plants: sqlxrepos.NewPlantRepository(db),
		Health: db,
		Closer: db.Close,
	}, nil
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := core.NewValidator(translator)
	plant.InitValidators(validate, translator)
	return validate
}

func newClock() core.Clock { return core.SystemClock }

func newPlantService(repo plant.Repository, validate *validator.Validate, translator ut.Translator, clock core.Clock) *plant.Service {
	return plant.NewService(repo, validate, translator, clock)
}

func newScheduler(
	conf *core.Config,
	logger core.Logger,
	usrSvc *user.Service,
	plantSvc *plant.Service,
	mailSvc core.EmailService,
	clock core.Clock,
) (*reminder.Scheduler, error) {
	loc, err := conf.Reminder.Location()
	if err != nil {
		return nil, err
	}
	return reminder.New(reminder.Deps{
		Users:           usrSvc,
		Plants:          plantSvc,
		Mail:            mailSvc,
		Clock:           clock,
		Logger:          logger,
		Location:        loc,
		Schedule:        conf.Reminder.Schedule,
		Subject:         conf.Reminder.Subject,
		FrontendBaseURL: conf.FrontendBaseURL,
	}), nil
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	clock core.Clock,
	sched *reminder.Scheduler,
	usrSvc *user.Service,
	plantSvc *plant.Service,
	health echoapi.HealthChecker,
) (*echoapi.Server, error) {
	loc, err := conf.Reminder.Location()
	if err != nil {
		return nil, err
	}
	return echoapi.NewServer(&echoapi.Options{
		Address:  conf.Server.Address,
		AppName:  conf.AppName,
		Debug:    conf.Debug,
		TestMode: conf.TestMode,
		AdminKey: conf.Server.AdminKey,
		Logger:   logger,
		Clock:    clock,
		Location: loc,
		Sweeper:  sched,
		UserSvc:  usrSvc,
		PlantSvc: plantSvc,
		Health:   health,
	}), nil
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(logsvc.NewLogger))
	must(c.Provide(newStorage))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newClock))
	must(c.Provide(user.NewService))
	must(c.Provide(newPlantService))
	must(c.Provide(newScheduler))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
