package main

import (
	"context"
	"fmt"

	"github.com/trezcool/plantcare/core/user"
)

func (cli *commandLine) addUser(ctx context.Context, name, email string) error {
	usr, err := cli.usrSvc.Create(ctx, user.NewUser{Name: name, Email: email})
	if err != nil {
		return err
	}
	addr := usr.Address()
	_, _ = fmt.Fprintf(cli.out, "user %s created: %s\n", usr.ID, addr.String())
	return nil
}
