package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/trezcool/plantcare/core/plant"
)

func (cli *commandLine) addPlant(ctx context.Context, ownerEmail, name, species string, every int, last string) error {
	owner, err := cli.findUser(ctx, ownerEmail)
	if err != nil {
		return err
	}
	lastWatered, err := cli.parseTime(last)
	if err != nil {
		return err
	}

	p, err := cli.plantSvc.Create(ctx, owner.ID, plant.NewPlant{
		Name:                  name,
		Species:               species,
		LastWatered:           &lastWatered,
		WateringFrequencyDays: &every,
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "plant %s created: %s, watered every %d days\n", p.ID, p.Name, p.WateringFrequencyDays)
	return nil
}

func (cli *commandLine) water(ctx context.Context, plantID, at, notes, byEmail string) error {
	when, err := cli.parseTime(at)
	if err != nil {
		return err
	}
	var by string
	if byEmail != "" {
		usr, err := cli.findUser(ctx, byEmail)
		if err != nil {
			return err
		}
		by = usr.ID
	}

	evt, err := cli.plantSvc.Water(ctx, plantID, when, notes, by)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "watered %s on %s\n", evt.PlantID, plant.FormatDisplayDate(evt.Date.In(cli.loc)))
	return nil
}

func (cli *commandLine) listPlants(ctx context.Context, ownerEmail string) error {
	owner, err := cli.findUser(ctx, ownerEmail)
	if err != nil {
		return err
	}
	statuses, err := cli.plantSvc.DueStatus(ctx, owner.ID, cli.clock.Now(), cli.loc)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSPECIES\tEVERY\tLAST WATERED\tNEXT\tDUE")
	for _, st := range statuses {
		next, due := st.Err, "-"
		if st.Err == "" {
			next = plant.FormatDisplayDate(st.NextWateringDate)
			due = "no"
			if st.IsDue {
				due = "yes"
			}
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			st.ID, st.Name, st.Species, st.WateringFrequencyDays,
			plant.FormatDisplayDate(st.LastWatered.In(cli.loc)), next, due)
	}
	return w.Flush()
}
