package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/fypdesk/core/access"
	"github.com/trezcool/fypdesk/core/document"
	"github.com/trezcool/fypdesk/core/workflow"
)

func (cli *commandLine) documents(ctx context.Context, args []string) error {
	sub, args := subcommand(args)
	route := access.RouteDocuments
	if sub == "reviews" {
		route = access.RouteReviews
	}
	if _, err := cli.enter(ctx, route); err != nil {
		return err
	}

	vm := workflow.NewViewModel(workflow.Deps{
		Repo:       cli.api,
		Session:    cli.sess,
		Logger:     cli.logger,
		Validate:   cli.validate,
		Translator: cli.translator,
		FileURL:    cli.api.FileURL,
	})
	defer vm.Close()

	switch sub {
	case "list":
		return cli.listDocuments(ctx, vm)
	case "upload":
		return cli.uploadDocument(ctx, vm, args)
	case "submit":
		return cli.submitDocument(ctx, vm, args)
	case "review":
		return cli.reviewDocument(ctx, vm, args)
	case "feedback":
		return cli.documentFeedback(ctx, vm, args)
	case "reviews":
		docs, err := vm.ReviewLog(ctx)
		if err != nil {
			return err
		}
		return cli.documentTable(docs)
	case "download":
		return cli.downloadDocument(ctx, vm, args)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) listDocuments(ctx context.Context, vm *workflow.ViewModel) error {
	if err := vm.Load(ctx); err != nil {
		return err
	}
	tw := cli.table("ID", "TITLE", "TYPE", "VERSION", "STATUS", "GROUP", "LATE", "ACTIONS")
	for _, r := range vm.Rows() {
		acts := make([]string, 0, len(r.Actions))
		for _, a := range r.Actions {
			acts = append(acts, string(a))
		}
		d := r.Document
		row(tw, d.ID, d.Title, d.Type.Label(), d.Version, d.Status, orDash(d.GroupName), d.IsLate, orDash(strings.Join(acts, ",")))
	}
	return tw.Flush()
}

func (cli *commandLine) uploadDocument(ctx context.Context, vm *workflow.ViewModel, args []string) error {
	fs := cli.flagSet("documents upload")
	path := fs.String("file", "", "The file to upload.")
	title := fs.String("title", "", "The document title.")
	typ := fs.String("type", string(document.TypeProposal), "PROPOSAL, PROGRESS_REPORT, FINAL_REPORT or PRESENTATION.")
	groupID := fs.Int64("group", 0, "The group id; defaults to your own group.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	form := document.UploadForm{
		Title:   *title,
		Type:    document.Type(strings.ToUpper(*typ)),
		GroupID: *groupID,
	}
	if *path != "" {
		f, err := os.Open(*path)
		if err != nil {
			return errors.Wrap(err, "opening upload")
		}
		defer f.Close()
		form.File = f
		form.FileName = filepath.Base(*path)
	}

	doc, err := vm.Upload(ctx, form)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Uploaded %q (#%d) version %d, status %s\n", doc.Title, doc.ID, doc.Version, doc.Status)
	return nil
}

func (cli *commandLine) submitDocument(ctx context.Context, vm *workflow.ViewModel, args []string) error {
	fs := cli.flagSet("documents submit")
	id := fs.Int64("id", 0, "The document id.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *id == 0 {
		return usage(fs)
	}
	if err := vm.Load(ctx); err != nil {
		return err
	}

	doc, err := vm.Submit(ctx, *id)
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("Submitted %q (#%d)", doc.Title, doc.ID)
	if doc.IsLate {
		msg += " after the deadline"
	}
	fmt.Fprintln(cli.out, msg)
	return nil
}

func (cli *commandLine) reviewDocument(ctx context.Context, vm *workflow.ViewModel, args []string) error {
	fs := cli.flagSet("documents review")
	id := fs.Int64("id", 0, "The document id.")
	decision := fs.String("decision", "", "APPROVE or REVISION.")
	comments := fs.String("comments", "", "The review comments.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *id == 0 {
		return usage(fs)
	}
	if err := vm.Load(ctx); err != nil {
		return err
	}

	doc, err := vm.Review(ctx, *id, document.ReviewForm{
		Decision: document.Decision(strings.ToUpper(*decision)),
		Comments: *comments,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Reviewed %q (#%d): %s\n", doc.Title, doc.ID, doc.Status)
	return nil
}

func (cli *commandLine) documentFeedback(ctx context.Context, vm *workflow.ViewModel, args []string) error {
	fs := cli.flagSet("documents feedback")
	id := fs.Int64("id", 0, "The document id.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *id == 0 {
		return usage(fs)
	}

	reviews, err := vm.Feedback(ctx, *id)
	if err != nil {
		return err
	}
	if len(reviews) == 0 {
		fmt.Fprintln(cli.out, "No feedback yet.")
		return nil
	}
	tw := cli.table("REVIEWER", "STATUS", "DATE", "COMMENTS")
	for _, r := range reviews {
		at := r.ReviewedAt
		row(tw, r.ReviewerName, r.Status, formatTime(&at), r.Comments)
	}
	return tw.Flush()
}

func (cli *commandLine) downloadDocument(ctx context.Context, vm *workflow.ViewModel, args []string) error {
	fs := cli.flagSet("documents download")
	id := fs.Int64("id", 0, "The document id.")
	dest := fs.String("o", "", "The output file; defaults to the stored file name.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *id == 0 {
		return usage(fs)
	}
	if err := vm.Load(ctx); err != nil {
		return err
	}

	var doc *document.Document
	for _, d := range vm.Documents() {
		if d.ID == *id {
			doc = &d
			break
		}
	}
	if doc == nil || doc.FilePath == "" {
		return errors.Errorf("document %d has no file you can access", *id)
	}
	out := *dest
	if out == "" {
		out = filepath.Base(doc.DownloadPath())
	}

	f, err := os.Create(out)
	if err != nil {
		return errors.Wrap(err, "creating output file")
	}
	n, err := cli.api.Download(ctx, doc.FilePath, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(out)
		return err
	}
	fmt.Fprintf(cli.out, "Saved %s (%d bytes)\n", out, n)
	return nil
}
