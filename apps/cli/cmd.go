package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"text/tabwriter"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/access"
	"github.com/trezcool/fypdesk/core/session"
	"github.com/trezcool/fypdesk/core/user"
	restapi "github.com/trezcool/fypdesk/storage/rest"
)

const timeLayout = "2006-01-02 15:04"

var (
	readPasswordFunc = term.ReadPassword // mockable
	confirmFunc      = confirm           // mockable

	errHelp          = errors.New("help provided")
	errLoginRequired = errors.New("not logged in, run: fypctl login -email EMAIL")
)

type commandLine struct {
	conf       *core.Config
	out        io.Writer
	logger     core.Logger
	api        *restapi.Client
	sess       *session.Store
	gate       *access.Gate
	validate   *validator.Validate
	translator ut.Translator

	// expired is set once the session ends while a command runs.
	expired atomic.Bool
}

type cliDeps struct {
	Conf       *core.Config
	Out        io.Writer
	Logger     core.Logger
	API        *restapi.Client
	Tokens     core.KeyValueStore
	Validate   *validator.Validate
	Translator ut.Translator
}

func newCommandLine(deps cliDeps) *commandLine {
	sess := session.NewStore(session.Deps{
		Repo:       deps.API,
		Tokens:     deps.Tokens,
		Logger:     deps.Logger,
		Validate:   deps.Validate,
		Translator: deps.Translator,
	})
	cli := &commandLine{
		conf:       deps.Conf,
		out:        deps.Out,
		logger:     deps.Logger,
		api:        deps.API,
		sess:       sess,
		gate:       access.NewGate(sess),
		validate:   deps.Validate,
		translator: deps.Translator,
	}
	sess.OnLogout(func() { cli.expired.Store(true) })
	return cli
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -email EMAIL                       - log in (the password is prompted)")
	fmt.Fprintln(cli.out, "  register -name NAME -email EMAIL [-role] - create an account")
	fmt.Fprintln(cli.out, "  logout                                   - forget the stored session")
	fmt.Fprintln(cli.out, "  whoami                                   - show the current user and its pages")
	fmt.Fprintln(cli.out, "  dashboard                                - show the dashboard of your role")
	fmt.Fprintln(cli.out, "  documents [list|upload|submit|review|feedback|reviews|download]")
	fmt.Fprintln(cli.out, "  grades [list|grade|finalize]")
	fmt.Fprintln(cli.out, "  groups [list|options|create|update|delete|add-member|remove-member]")
	fmt.Fprintln(cli.out, "  deadlines [list|create|delete]")
	fmt.Fprintln(cli.out, "  notifications [list|read|read-all|delete|clear|watch]")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	cli.expired.Store(false)
	err := cli.dispatch(ctx, args[1], args[2:])
	if err != nil && err != errHelp && cli.expired.Load() {
		// the server rejected the token mid-command
		return errLoginRequired
	}
	return err
}

func (cli *commandLine) dispatch(ctx context.Context, cmd string, rest []string) error {
	switch cmd {
	case "login":
		return cli.login(ctx, rest)
	case "register":
		return cli.register(ctx, rest)
	case "logout":
		return cli.logout()
	case "whoami":
		return cli.whoami(ctx)
	case "dashboard":
		return cli.dashboard(ctx)
	case "documents":
		return cli.documents(ctx, rest)
	case "grades":
		return cli.grades(ctx, rest)
	case "groups":
		return cli.groups(ctx, rest)
	case "deadlines":
		return cli.deadlines(ctx, rest)
	case "notifications":
		return cli.notifications(ctx, rest)
	default:
		cli.printUsage()
		return errHelp
	}
}

// enter restores the session and asks the gate whether route may be shown.
func (cli *commandLine) enter(ctx context.Context, route string) (user.User, error) {
	if err := cli.sess.Bootstrap(ctx); err != nil {
		return user.User{}, err
	}
	switch d := cli.gate.Navigate(route); d.Kind {
	case access.Render:
	case access.Redirect:
		if d.To == access.RouteLogin {
			return user.User{}, errLoginRequired
		}
		return user.User{}, errors.Wrapf(core.ErrActionNotAllowed, "%s is not available to your role", route)
	default:
		return user.User{}, errors.Errorf("%s: session is still loading", route)
	}
	usr, _ := cli.sess.User()
	return usr, nil
}

func (cli *commandLine) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

// usage prints the flags of fs and reports errHelp.
func usage(fs *flag.FlagSet) error {
	fs.Usage()
	return errHelp
}

// subcommand splits `list` (the default) or the named action from its flags.
func subcommand(args []string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "list", args
	}
	return args[0], args[1:]
}

func (cli *commandLine) promptPassword(fs *flag.FlagSet) (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", usage(fs)
	}
	return string(pwd), nil
}

// confirmed asks before a destructive action, unless -yes was given.
func (cli *commandLine) confirmed(yes bool, question string) bool {
	if yes {
		return true
	}
	return confirmFunc(cli.out, question)
}

func confirm(out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func (cli *commandLine) table(header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func row(w io.Writer, cols ...interface{}) {
	strs := make([]string, len(cols))
	for i, c := range cols {
		strs[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(w, strings.Join(strs, "\t"))
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
