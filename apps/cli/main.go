// Command fypctl is the terminal front-end of the FYP management API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/document"
	"github.com/trezcool/fypdesk/core/user"
	logsvc "github.com/trezcool/fypdesk/services/logger"
	filekv "github.com/trezcool/fypdesk/storage/kv/file"
	restapi "github.com/trezcool/fypdesk/storage/rest"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.New(os.Stderr, conf)

	tokens, err := filekv.NewStoreFromConfig(conf)
	if err != nil {
		logger.Fatal("opening session store", err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	document.InitValidators(validate, translator)

	cli := newCommandLine(cliDeps{
		Conf:       conf,
		Out:        os.Stdout,
		Logger:     logger,
		API:        restapi.NewClientFromConfig(conf, tokens, logger),
		Tokens:     tokens,
		Validate:   validate,
		Translator: translator,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = cli.run(ctx, os.Args)
	stop()
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "error: %s\n", core.UserMessage(err, err.Error()))
		}
		os.Exit(1)
	}
}
