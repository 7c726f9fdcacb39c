package main

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/STPREETHI/learning-portal/core/user"
)

// addUser creates a user.User, or sets the password of the user already holding that name.
func (cli *commandLine) addUser(name, email, role, pwd string) error {
	ctx := context.Background()

	usr, err := cli.usrSvc.GetByName(ctx, name)
	switch {
	case err == nil:
		_, err = cli.usrSvc.SetPassword(ctx, usr, pwd)
		return err
	case errors.Cause(err) != user.ErrNotFound:
		return err
	}

	nu := user.NewUser{Name: name, Email: email, Password: pwd, Role: role}
	if err = nu.Validate(cli.validate, cli.usrSvc); err != nil {
		return cli.describe(err)
	}
	_, err = cli.usrSvc.Create(ctx, nu)
	return err
}

// describe flattens validation errors into a single readable error.
func (cli *commandLine) describe(err error) error {
	vErrs, ok := errors.Cause(err).(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(vErrs))
	for _, vErr := range vErrs {
		msgs = append(msgs, vErr.Field()+": "+vErr.Translate(cli.translator))
	}
	return errors.New(strings.Join(msgs, "; "))
}
