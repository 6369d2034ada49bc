package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/trezcool/plantcare/core"
	"github.com/trezcool/plantcare/core/plant"
	"github.com/trezcool/plantcare/core/reminder"
	"github.com/trezcool/plantcare/core/user"
)

var (
	errHelp        = errors.New("help provided")
	errNeedsDB     = errors.New("this command needs the postgres storage driver")
	errUserUnknown = errors.New("no user with this email")
)

type sweeper interface {
	RunNow(ctx context.Context) reminder.Report
}

type commandLine struct {
	db       *sql.DB // nil with in-memory storage
	usrSvc   *user.Service
	plantSvc *plant.Service
	sched    sweeper
	clock    core.Clock
	loc      *time.Location
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, ...)")
	_, _ = fmt.Fprintln(cli.out, "  adduser -name NAME -email EMAIL - create a user")
	_, _ = fmt.Fprintln(cli.out, "  addplant -owner EMAIL -name NAME -species SPECIES [-every DAYS] [-last TIME] - add a plant")
	_, _ = fmt.Fprintln(cli.out, "  water -plant ID [-at TIME] [-notes NOTES] [-by EMAIL] - record a watering")
	_, _ = fmt.Fprintln(cli.out, "  plants -owner EMAIL - list a user's plants and when they are due")
	_, _ = fmt.Fprintln(cli.out, "  remind - run the watering reminder sweep now")
	_, _ = fmt.Fprintln(cli.out, "TIME is YYYY-MM-DD, YYYY-MM-DDTHH:MM or RFC3339, in the reminder timezone.")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserName := addUserCmd.String("name", "", "The user's name.")
	addUserEmail := addUserCmd.String("email", "", "The user's email, where reminders are sent.")

	addPlantCmd := flag.NewFlagSet("addplant", flag.ExitOnError)
	addPlantOwner := addPlantCmd.String("owner", "", "The owner's email.")
	addPlantName := addPlantCmd.String("name", "", "The plant's name.")
	addPlantSpecies := addPlantCmd.String("species", "", "The plant's species.")
	addPlantEvery := addPlantCmd.Int("every", plant.DefaultWateringFrequencyDays, "Watering frequency, in days.")
	addPlantLast := addPlantCmd.String("last", "", "When the plant was last watered (default now).")

	waterCmd := flag.NewFlagSet("water", flag.ExitOnError)
	waterPlant := waterCmd.String("plant", "", "The plant's ID.")
	waterAt := waterCmd.String("at", "", "When the plant was watered (default now).")
	waterNotes := waterCmd.String("notes", "", "Free notes.")
	waterBy := waterCmd.String("by", "", "Email of the user who watered the plant.")

	plantsCmd := flag.NewFlagSet("plants", flag.ExitOnError)
	plantsOwner := plantsCmd.String("owner", "", "The owner's email.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(ctx, args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserName == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(ctx, *addUserName, *addUserEmail)

	case "addplant":
		if err := addPlantCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addPlantOwner == "" || *addPlantName == "" || *addPlantSpecies == "" {
			addPlantCmd.Usage()
			return errHelp
		}
		return cli.addPlant(ctx, *addPlantOwner, *addPlantName, *addPlantSpecies, *addPlantEvery, *addPlantLast)

	case "water":
		if err := waterCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *waterPlant == "" {
			waterCmd.Usage()
			return errHelp
		}
		return cli.water(ctx, *waterPlant, *waterAt, *waterNotes, *waterBy)

	case "plants":
		if err := plantsCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *plantsOwner == "" {
			plantsCmd.Usage()
			return errHelp
		}
		return cli.listPlants(ctx, *plantsOwner)

	case "remind":
		return cli.remind(ctx)

	default:
		cli.printUsage()
		return errHelp
	}
}

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// parseTime reads s in the CLI's location; an empty s is now.
func (cli *commandLine) parseTime(s string) (time.Time, error) {
	if s == "" {
		return cli.clock.Now(), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, cli.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}

func (cli *commandLine) findUser(ctx context.Context, email string) (user.User, error) {
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		return user.User{}, fmt.Errorf("%w: %s", errUserUnknown, email)
	}
	return usr, err
}
