package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/darasahq/darasa/apps/api/echo"
	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/schedule"
	"github.com/darasahq/darasa/core/staff"
	emailsvc "github.com/darasahq/darasa/services/email"
	logsvc "github.com/darasahq/darasa/services/logger"
	suggestsvc "github.com/darasahq/darasa/services/suggest"
	"github.com/darasahq/darasa/storage/database"
	pgrepos "github.com/darasahq/darasa/storage/database/postgres"
	inmemdb "github.com/darasahq/darasa/storage/inmem"
	redisrepos "github.com/darasahq/darasa/storage/redis"
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

	scheduleRepo, staffRepo, closeStore := openStore(conf, logger)
	defer closeStore()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	scheduleSvc := schedule.NewService(scheduleRepo)
	staffSvc := staff.NewService(staffRepo)
	resolver := schedule.NewResolver(scheduleRepo)
	checker := schedule.NewAvailabilityChecker(resolver, scheduleRepo, staffRepo)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Conf:           conf,
		Logger:         logger,
		SignalShutdown: func() { shutdown <- syscall.SIGTERM },
		ScheduleSvc:    scheduleSvc,
		StaffSvc:       staffSvc,
		Resolver:       resolver,
		Checker:        checker,
		Suggester:      suggestsvc.NewRoundRobinSuggester(),
		Mailer:         mailSvc,
		Validate:       validate,
		Translator:     translator,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

// openStore wires the configured engine's repositories. With OfflineFallback
// set, an unreachable primary store degrades to the in-memory engine instead
// of aborting startup.
func openStore(conf *core.Config, logger core.Logger) (schedule.Repository, staff.Repository, func()) {
	fallback := func(reason error) (schedule.Repository, staff.Repository, func()) {
		if !conf.Store.OfflineFallback {
			logger.Fatal(fmt.Sprintf("opening %s store: %v", conf.Store.Engine, reason), reason)
		}
		logger.Warn(fmt.Sprintf("%s store unreachable, falling back to in-memory: %v", conf.Store.Engine, reason))
		db := inmemdb.NewDB()
		return inmemdb.NewScheduleRepository(db), inmemdb.NewStaffRepository(db), func() {}
	}

	switch conf.Store.Engine {
	case "postgres":
		if err := database.CreateIfNotExist(conf); err != nil {
			return fallback(err)
		}
		db, err := database.Open(conf)
		if err != nil {
			return fallback(err)
		}
		if err = database.Migrate(db); err != nil {
			return fallback(err)
		}
		closer := func() {
			if err := db.Close(); err != nil {
				logger.Error(fmt.Sprintf("closing database: %v", err), err)
			}
		}
		return pgrepos.NewScheduleRepository(db), pgrepos.NewStaffRepository(db), closer

	case "redis":
		client, err := redisrepos.Open(conf)
		if err != nil {
			return fallback(err)
		}
		closer := func() {
			if err := client.Close(); err != nil {
				logger.Error(fmt.Sprintf("closing redis client: %v", err), err)
			}
		}
		return redisrepos.NewScheduleRepository(client), redisrepos.NewStaffRepository(client), closer

	default: // "memory"
		db := inmemdb.NewDB()
		return inmemdb.NewScheduleRepository(db), inmemdb.NewStaffRepository(db), func() {}
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
