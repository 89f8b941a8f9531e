package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/medatlas/medatlas/core"
	"github.com/medatlas/medatlas/core/payment"
	"github.com/medatlas/medatlas/core/place"
	"github.com/medatlas/medatlas/core/user"
	emailsvc "github.com/medatlas/medatlas/services/email"
	logsvc "github.com/medatlas/medatlas/services/logger"
	"github.com/medatlas/medatlas/storage/database"
	sqlxrepos "github.com/medatlas/medatlas/storage/database/sqlx"
)

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		logrus.Fatalf("loading config: %v", err)
	}
	if conf.Database.Engine != "postgres" {
		logrus.Fatalf("the admin CLI needs the postgres engine (got %q)", conf.Database.Engine)
	}
	logger := logsvc.NewRollbarLogger(logsvc.NewLogrus(conf, os.Stderr), conf)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	place.InitValidators(validate, translator)

	// set up services
	mailSvc := emailsvc.NewService(conf, logger)
	usrRepo := sqlxrepos.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)

	// start CLI
	cli := commandLine{
		db:       db.DB,
		usrRepo:  usrRepo,
		usrSvc:   usrSvc,
		placeSvc: place.NewService(sqlxrepos.NewPlaceRepository(db), conf.Place.CacheTTL),
		paySvc:   payment.NewService(sqlxrepos.NewPaymentRepository(db), usrSvc, mailSvc),
		validate: validate,
		out:      os.Stdout,
	}
	err = cli.run(os.Args)

	if w, ok := mailSvc.(emailsvc.Waiter); ok {
		w.Wait()
	}
	_ = db.Close()

	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}
