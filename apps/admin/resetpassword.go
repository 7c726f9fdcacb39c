package main

import (
	"context"
)

func (cli *commandLine) resetPassword(name, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByName(ctx, name)
	if err != nil {
		return err
	}
	_, err = cli.usrSvc.SetPassword(ctx, usr, pwd)
	return err
}
