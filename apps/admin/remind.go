package main

import (
	"context"
	"encoding/json"
)

// remind runs a sweep and prints its report.
func (cli *commandLine) remind(ctx context.Context) error {
	rep := cli.sched.RunNow(ctx)
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
