package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/trezcool/fypdesk/core/access"
	"github.com/trezcool/fypdesk/core/group"
)

func (cli *commandLine) groups(ctx context.Context, args []string) error {
	sub, args := subcommand(args)
	if _, err := cli.enter(ctx, access.RouteGroups); err != nil {
		return err
	}

	editor := group.NewEditor(group.Deps{
		Repo:       cli.api,
		Session:    cli.sess,
		Logger:     cli.logger,
		Validate:   cli.validate,
		Translator: cli.translator,
	})
	defer editor.Close()

	switch sub {
	case "list":
		if err := editor.Load(ctx); err != nil {
			return err
		}
		return cli.groupTable(editor.Groups())
	case "options":
		if err := editor.LoadOptions(ctx); err != nil {
			return err
		}
		tw := cli.table("ID", "NAME", "EMAIL", "ROLE")
		for _, p := range editor.Supervisors() {
			row(tw, p.ID, p.FullName, p.Email, "supervisor")
		}
		for _, p := range editor.AvailableStudents() {
			row(tw, p.ID, p.FullName, p.Email, "available student")
		}
		return tw.Flush()
	case "create":
		return cli.saveGroup(ctx, editor, args, true)
	case "update":
		return cli.saveGroup(ctx, editor, args, false)
	case "delete":
		return cli.deleteGroup(ctx, editor, args)
	case "add-member":
		return cli.addMember(ctx, editor, args)
	case "remove-member":
		return cli.removeMember(ctx, editor, args)
	default:
		cli.printUsage()
		return errHelp
	}
}

func groupFlags(fs *flag.FlagSet) (*group.Form, *int64) {
	var form group.Form
	fs.StringVar(&form.GroupName, "name", "", "The group name.")
	fs.StringVar(&form.ProjectTitle, "title", "", "The project title (5 characters at least).")
	fs.StringVar(&form.ProjectDescription, "description", "", "The project description.")
	fs.Int64Var(&form.SupervisorID, "supervisor", 0, "The supervisor user id.")
	id := fs.Int64("id", 0, "The group id (update only).")
	return &form, id
}

func (cli *commandLine) saveGroup(ctx context.Context, editor *group.Editor, args []string, create bool) error {
	name := "groups update"
	if create {
		name = "groups create"
	}
	fs := cli.flagSet(name)
	form, id := groupFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var (
		g   group.Group
		err error
	)
	if create {
		g, err = editor.Create(ctx, *form)
	} else {
		if *id == 0 {
			return usage(fs)
		}
		g, err = editor.Update(ctx, *id, *form)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Saved group %q (#%d)\n", g.GroupName, g.ID)
	return nil
}

func (cli *commandLine) deleteGroup(ctx context.Context, editor *group.Editor, args []string) error {
	fs := cli.flagSet("groups delete")
	id := fs.Int64("id", 0, "The group id.")
	yes := fs.Bool("yes", false, "Do not ask for confirmation.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *id == 0 {
		return usage(fs)
	}

	ok := cli.confirmed(*yes, fmt.Sprintf("Delete group #%d?", *id))
	if err := editor.Delete(ctx, *id, ok); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Group #%d deleted\n", *id)
	return nil
}

func memberFlags(fs *flag.FlagSet) (*int64, *int64) {
	return fs.Int64("group", 0, "The group id."), fs.Int64("user", 0, "The student user id.")
}

func (cli *commandLine) addMember(ctx context.Context, editor *group.Editor, args []string) error {
	fs := cli.flagSet("groups add-member")
	groupID, userID := memberFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *groupID == 0 {
		return usage(fs)
	}
	if err := editor.Load(ctx); err != nil {
		return err
	}

	g, err := editor.AddMember(ctx, *groupID, *userID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s now has %d/%d members\n", g.GroupName, g.Size(), group.MaxMembers)
	return nil
}

func (cli *commandLine) removeMember(ctx context.Context, editor *group.Editor, args []string) error {
	fs := cli.flagSet("groups remove-member")
	groupID, userID := memberFlags(fs)
	yes := fs.Bool("yes", false, "Do not ask for confirmation.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *groupID == 0 || *userID == 0 {
		return usage(fs)
	}

	ok := cli.confirmed(*yes, fmt.Sprintf("Remove user #%d from group #%d?", *userID, *groupID))
	g, err := editor.RemoveMember(ctx, *groupID, *userID, ok)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s now has %d/%d members\n", g.GroupName, g.Size(), group.MaxMembers)
	return nil
}
