package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/lusale/gpms/apps/api/echo"
	"github.com/lusale/gpms/core"
	"github.com/lusale/gpms/core/identity"
	"github.com/lusale/gpms/core/participant"
	emailsvc "github.com/lusale/gpms/services/email"
	logsvc "github.com/lusale/gpms/services/logger"
	"github.com/lusale/gpms/storage/docstore"
	pgstore "github.com/lusale/gpms/storage/docstore/pg"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("failed to close database", err)
		}
	}()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	store := pgstore.NewStore(db)
	resolver := identity.NewResolver(docstore.NewRoleDirectory(store))
	participantSvc := participant.NewService(docstore.NewParticipantRepository(store), resolver, mailSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:           conf,
			Logger:         logger,
			ParticipantSvc: participantSvc,
			Hub:            identity.NewHub(),
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := pgstore.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := pgstore.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = pgstore.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
