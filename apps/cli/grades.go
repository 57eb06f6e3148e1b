package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/access"
	"github.com/trezcool/fypdesk/core/grade"
)

func (cli *commandLine) grades(ctx context.Context, args []string) error {
	sub, args := subcommand(args)
	usr, err := cli.enter(ctx, access.RouteGrades)
	if err != nil {
		return err
	}

	ledger := grade.NewLedger(grade.Deps{
		Repo:       cli.api,
		Session:    cli.sess,
		Logger:     cli.logger,
		Validate:   cli.validate,
		Translator: cli.translator,
	})
	defer ledger.Close()
	if err := ledger.Load(ctx); err != nil {
		return err
	}

	switch sub {
	case "list":
		if access.For(usr.Role.ID).GradesView == access.GradesQueue {
			fmt.Fprintln(cli.out, "Awaiting grading:")
			return cli.documentTable(ledger.Queue())
		}
		if len(ledger.Grades()) == 0 {
			fmt.Fprintln(cli.out, "No grades released yet.")
			return nil
		}
		return cli.gradeTable(ledger.Grades())
	case "grade":
		return cli.gradeDocument(ctx, ledger, args)
	case "finalize":
		return cli.finalizeGrade(ctx, ledger, args)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) gradeDocument(ctx context.Context, ledger *grade.Ledger, args []string) error {
	fs := cli.flagSet("grades grade")
	docID := fs.Int64("doc", 0, "The id of an approved document.")
	score := fs.String("score", "", "The score, from 0 to 10.")
	feedback := fs.String("feedback", "", "The grading feedback.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *docID == 0 {
		return usage(fs)
	}

	form := grade.Form{Feedback: *feedback}
	if *score != "" {
		s, err := strconv.ParseFloat(*score, 64)
		if err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "score", Error: "score must be a number"})
		}
		form.Score = &s
	}

	g, err := ledger.Submit(ctx, *docID, form)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Recorded grade #%d for %s: %.1f (provisional)\n", g.ID, g.GroupName, g.Score)
	return nil
}

func (cli *commandLine) finalizeGrade(ctx context.Context, ledger *grade.Ledger, args []string) error {
	fs := cli.flagSet("grades finalize")
	id := fs.Int64("id", 0, "The grade id.")
	yes := fs.Bool("yes", false, "Do not ask for confirmation.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *id == 0 {
		return usage(fs)
	}

	ok := cli.confirmed(*yes, fmt.Sprintf("Release grade #%d to the students? This cannot be undone.", *id))
	if err := ledger.Finalize(ctx, *id, ok); err != nil {
		return errors.Wrapf(err, "finalizing grade %d", *id)
	}
	fmt.Fprintf(cli.out, "Grade #%d released\n", *id)
	return nil
}
