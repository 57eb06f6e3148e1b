// Command fypdev serves an in-memory FYP API for local development.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/fypdesk/apps/devapi/echo"
	devstore "github.com/trezcool/fypdesk/apps/devapi/store"
	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/document"
	"github.com/trezcool/fypdesk/core/user"
	logsvc "github.com/trezcool/fypdesk/services/logger"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DEVAPI : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	document.InitValidators(validate, translator)

	store := devstore.New()
	if _, err := store.Seed(devstore.DefaultSeed...); err != nil {
		logger.Fatal(fmt.Sprintf("seeding accounts: %v", err), err)
	}

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Development API initializing : version %q", conf.Build))
	defer logger.Info("Development API stopped")

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			Store:      store,
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.DevServer.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
