package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/access"
	"github.com/trezcool/fypdesk/core/deadline"
	"github.com/trezcool/fypdesk/core/document"
)

func (cli *commandLine) deadlines(ctx context.Context, args []string) error {
	sub, args := subcommand(args)
	if _, err := cli.enter(ctx, access.RouteDeadlines); err != nil {
		return err
	}

	mgr := deadline.NewManager(deadline.Deps{
		Repo:       cli.api,
		Session:    cli.sess,
		Logger:     cli.logger,
		Validate:   cli.validate,
		Translator: cli.translator,
	})

	switch sub {
	case "list":
		if err := mgr.Load(ctx); err != nil {
			return err
		}
		return cli.deadlineTable(mgr.Deadlines())
	case "create":
		return cli.createDeadline(ctx, mgr, args)
	case "delete":
		return cli.deleteDeadline(ctx, mgr, args)
	default:
		cli.printUsage()
		return errHelp
	}
}

// parseDueDate accepts RFC 3339 or the local `2006-01-02 15:04` layout.
func parseDueDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(timeLayout, s, time.Local)
}

func (cli *commandLine) createDeadline(ctx context.Context, mgr *deadline.Manager, args []string) error {
	fs := cli.flagSet("deadlines create")
	title := fs.String("title", "", "The deadline title.")
	desc := fs.String("description", "", "An optional description.")
	typ := fs.String("type", string(document.TypeProposal), "The document type it applies to.")
	due := fs.String("due", "", `The due date, "2006-01-02 15:04" or RFC 3339.`)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	form := deadline.Form{
		Title:        *title,
		Description:  *desc,
		DocumentType: document.Type(strings.ToUpper(*typ)),
	}
	if *due != "" {
		t, err := parseDueDate(*due)
		if err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "dueDate", Error: "dueDate must look like " + timeLayout})
		}
		form.DueDate = t
	}

	d, err := mgr.Create(ctx, form)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Created deadline %q (#%d) due %s\n", d.Title, d.ID, formatTime(&d.DueDate))
	return nil
}

func (cli *commandLine) deleteDeadline(ctx context.Context, mgr *deadline.Manager, args []string) error {
	fs := cli.flagSet("deadlines delete")
	id := fs.Int64("id", 0, "The deadline id.")
	yes := fs.Bool("yes", false, "Do not ask for confirmation.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *id == 0 {
		return usage(fs)
	}

	ok := cli.confirmed(*yes, fmt.Sprintf("Delete deadline #%d?", *id))
	if err := mgr.Delete(ctx, *id, ok); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Deadline #%d deleted\n", *id)
	return nil
}
