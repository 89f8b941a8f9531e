package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof on the default mux
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	echoapi "github.com/medatlas/medatlas/apps/api/echo"
	"github.com/medatlas/medatlas/core"
	"github.com/medatlas/medatlas/core/favorite"
	"github.com/medatlas/medatlas/core/payment"
	"github.com/medatlas/medatlas/core/place"
	"github.com/medatlas/medatlas/core/review"
	"github.com/medatlas/medatlas/core/schoollist"
	"github.com/medatlas/medatlas/core/user"
	emailsvc "github.com/medatlas/medatlas/services/email"
	logsvc "github.com/medatlas/medatlas/services/logger"
	metricsvc "github.com/medatlas/medatlas/services/metrics"
	"github.com/medatlas/medatlas/storage/database"
	inmemdb "github.com/medatlas/medatlas/storage/database/inmem"
	sqlxrepos "github.com/medatlas/medatlas/storage/database/sqlx"
)

type repositories struct {
	users      user.Repository
	places     place.Repository
	entries    schoollist.Repository
	reviews    review.Repository
	favorites  favorite.Repository
	payments   payment.Repository
	version    string // schema version
	statusFunc func(ctx context.Context) error
	closeFunc  func() error
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		logrus.Fatalf("loading config: %v", err)
	}

	// set up logger
	logger := logsvc.NewRollbarLogger(logsvc.NewLogrus(conf), conf)

	// set up DB
	repos, err := setUpRepositories(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = repos.closeFunc(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	// set up services
	mailSvc := emailsvc.NewService(conf, logger)
	metrics := metricsvc.New()
	usrSvc := user.NewService(repos.users, mailSvc, conf)
	placeSvc := place.NewService(repos.places, conf.Place.CacheTTL)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q, database schema %q", conf.Build, repos.version))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	place.InitValidators(validate, translator)
	schoollist.InitValidators(validate, translator)

	if err = core.ParseEmailTemplates(); err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	if conf.Server.DebugAddress != "" {
		go func() {
			if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
				logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()
	}

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.Deps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		Metrics:       metrics,
		StatusCheck:   repos.statusFunc,
		UserSvc:       usrSvc,
		PlaceSvc:      placeSvc,
		SchoolListSvc: schoollist.NewService(repos.entries, placeSvc, metrics),
		ReviewSvc:     review.NewService(repos.reviews, placeSvc, conf.Review.PreviewLimit),
		FavoriteSvc:   favorite.NewService(repos.favorites, placeSvc),
		PaymentSvc:    payment.NewService(repos.payments, usrSvc, mailSvc),
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)
		os.Exit(1)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}

		// let in-flight emails go out
		if w, ok := mailSvc.(emailsvc.Waiter); ok {
			w.Wait()
		}
	}
}

func setUpRepositories(conf *core.Config) (repositories, error) {
	if conf.Database.Engine == "memory" {
		db := inmemdb.Open()
		return repositories{
			users:      inmemdb.NewUserRepository(db),
			places:     inmemdb.NewPlaceRepository(db),
			entries:    inmemdb.NewSchoolListRepository(db),
			reviews:    inmemdb.NewReviewRepository(db),
			favorites:  inmemdb.NewFavoriteRepository(db),
			payments:   inmemdb.NewPaymentRepository(db),
			version:    "memory",
			statusFunc: func(context.Context) error { return nil },
			closeFunc:  func() error { return nil },
		}, nil
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		return repositories{}, err
	}
	db, err := database.Open(conf)
	if err != nil {
		return repositories{}, errors.Wrap(err, "opening database")
	}
	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return repositories{}, err
	}
	version, err := database.Version(db.DB)
	if err != nil {
		_ = db.Close()
		return repositories{}, err
	}

	return repositories{
		users:      sqlxrepos.NewUserRepository(db),
		places:     sqlxrepos.NewPlaceRepository(db),
		entries:    sqlxrepos.NewSchoolListRepository(db),
		reviews:    sqlxrepos.NewReviewRepository(db),
		favorites:  sqlxrepos.NewFavoriteRepository(db),
		payments:   sqlxrepos.NewPaymentRepository(db),
		version:    version,
		statusFunc: func(ctx context.Context) error { return database.StatusCheck(ctx, db) },
		closeFunc:  db.Close,
	}, nil
}
