package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/access"
	"github.com/trezcool/fypdesk/core/user"
)

func (cli *commandLine) login(ctx context.Context, args []string) error {
	fs := cli.flagSet("login")
	email := fs.String("email", "", "The account e-mail. The password will be prompted next.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *email == "" {
		return usage(fs)
	}
	pwd, err := cli.promptPassword(fs)
	if err != nil {
		return err
	}

	usr, err := cli.sess.Login(ctx, *email, pwd)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Logged in as %s (%s)\n", usr.FullName, usr.Role.Label())
	return nil
}

func (cli *commandLine) register(ctx context.Context, args []string) error {
	fs := cli.flagSet("register")
	name := fs.String("name", "", "The full name.")
	email := fs.String("email", "", "The account e-mail. The password will be prompted next.")
	role := fs.String("role", user.RoleNameStudent, "One of STUDENT, SUPERVISOR, COMMITTEE_MEMBER, FYP_COMMITTEE.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *name == "" || *email == "" {
		return usage(fs)
	}
	r, ok := user.RoleByName(strings.ToUpper(*role))
	if !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "roleId", Error: fmt.Sprintf("unknown role %q", *role)})
	}
	pwd, err := cli.promptPassword(fs)
	if err != nil {
		return err
	}

	msg, err := cli.sess.Register(ctx, user.RegisterForm{
		FullName: *name,
		Email:    *email,
		Password: pwd,
		RoleID:   r.ID,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, msg)
	return nil
}

func (cli *commandLine) logout() error {
	cli.sess.Logout()
	fmt.Fprintln(cli.out, "Logged out")
	return nil
}

func (cli *commandLine) whoami(ctx context.Context) error {
	usr, err := cli.enter(ctx, access.RouteDashboard)
	if err != nil {
		return err
	}

	tw := cli.table("NAME", "EMAIL", "ROLE", "GROUP")
	grp := "-"
	if usr.Group != nil {
		grp = fmt.Sprintf("%s (#%d)", usr.Group.Name, usr.Group.ID)
	}
	row(tw, usr.FullName, usr.Email, usr.Role.Label(), grp)
	if err := tw.Flush(); err != nil {
		return err
	}

	links := cli.gate.Links()
	labels := make([]string, 0, len(links))
	for _, l := range links {
		labels = append(labels, l.Label)
	}
	fmt.Fprintf(cli.out, "\nPages: %s\n", strings.Join(labels, ", "))
	return nil
}
