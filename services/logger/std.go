package logsvc

import (
	"io"
	"log"

	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/user"
)

// StdLogger writes leveled entries to a *log.Logger. Debug entries are dropped unless debug is on.
type StdLogger struct {
	std   *log.Logger
	debug bool
}

var _ core.Logger = (*StdLogger)(nil)

func NewStdLogger(std *log.Logger, debug bool) *StdLogger {
	return &StdLogger{std: std, debug: debug}
}

// New picks the backend for the configuration: Rollbar when a token is set, std otherwise.
func New(w io.Writer, conf *core.Config) core.Logger {
	std := log.New(w, conf.AppName+" : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	if conf.RollbarToken != "" {
		return NewRollbarLogger(std, conf)
	}
	return NewStdLogger(std, conf.Debug)
}

func (l StdLogger) Debug(msg string, args ...interface{}) {
	if l.debug {
		printArgs(l.std, "DEBUG", msg, args)
	}
}

func (l StdLogger) Info(msg string, args ...interface{}) {
	printArgs(l.std, "INFO", msg, args)
}

func (l StdLogger) Warn(msg string, args ...interface{}) {
	printArgs(l.std, "WARN", msg, args)
}

func (l StdLogger) Error(msg string, args ...interface{}) {
	printArgs(l.std, "ERROR", msg, args)
}

func (l StdLogger) Fatal(msg string, args ...interface{}) {
	printArgs(l.std, "FATAL", msg, args)
	l.std.Fatal(msg)
}

func printArgs(std *log.Logger, level, msg string, args []interface{}) {
	std.Printf("%s: %s", level, msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			std.Printf("\tuser: %d <%s>", a.ID, a.Email)
		case *user.User:
			if a != nil {
				std.Printf("\tuser: %d <%s>", a.ID, a.Email)
			}
		default:
			std.Printf("\t%+v", arg)
		}
	}
}
