package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/mail"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medatlas/medatlas/core"
	"github.com/medatlas/medatlas/core/payment"
	"github.com/medatlas/medatlas/core/place"
	"github.com/medatlas/medatlas/core/user"
	emailsvc "github.com/medatlas/medatlas/services/email"
	logsvc "github.com/medatlas/medatlas/services/logger"
	inmemdb "github.com/medatlas/medatlas/storage/database/inmem"
)

const strongPassword = "Str0ng!Stetho#"

type testCLI struct {
	*commandLine
	db        *inmemdb.DB
	placeRepo place.Repository
	payRepo   payment.Repository
	mail      *emailsvc.ConsoleServiceMock
	out       *bytes.Buffer
}

func setup(t *testing.T) *testCLI {
	t.Helper()

	conf := &core.Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "MedAtlas",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "MedAtlas", Address: "noreply@medatlas.test"},
	}
	logger := logsvc.NewRollbarLogger(logsvc.NewLogrus(conf, io.Discard), conf)
	logger.Enable(false)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	place.InitValidators(validate, translator)

	// set up DB & repos
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	placeRepo := inmemdb.NewPlaceRepository(db)
	payRepo := inmemdb.NewPaymentRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)

	out := new(bytes.Buffer)
	return &testCLI{
		commandLine: &commandLine{
			usrRepo:  usrRepo,
			usrSvc:   usrSvc,
			placeSvc: place.NewService(placeRepo, time.Minute),
			paySvc:   payment.NewService(payRepo, usrSvc, mailSvc),
			validate: validate,
			out:      out,
		},
		db:        db,
		placeRepo: placeRepo,
		payRepo:   payRepo,
		mail:      mailSvc,
		out:       out,
	}
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
}

func runCLITests(t *testing.T, cli *testCLI, tests []cliTest, check func(t *testing.T, tt cliTest)) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt.pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Contains(t, err.Error(), tt.wantErrStr)
				}
			default:
				require.NoError(t, err)
				if check != nil {
					check(t, tt)
				}
			}
		})
	}
}

func Test_commandLine_help(t *testing.T) {
	cli := setup(t)
	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErrStr: `unknown command "lol"`},
	}, nil)
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var ran []string
	gooseRunFunc = func(command string, db *sql.DB, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		ran = append(ran, command)
		return nil
	}

	runCLITests(t, cli, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "add_programs", "sql"}},
	}, nil)

	assert.Equal(t, []string{"up", "up-to", "down-to", "status", "create"}, ran)
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no username nor email", args: []string{"adduser"}, pwd: strongPassword, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "--username", "root"}, wantErr: errHelp},
		{name: "weak password", args: []string{"adduser", "--username", "root"}, pwd: "password", wantErrStr: "'pwdcplx' tag"},
		{name: "create admin", args: []string{"adduser", "--username", "Root", "--email", "root@medatlas.test", "--admin"}, pwd: strongPassword},
		{name: "update existing", args: []string{"adduser", "--username", "root", "--name", "Super User"}, pwd: strongPassword + "2"},
	}, nil)

	usr, err := cli.usrRepo.GetUser(context.Background(), user.GetFilter{Username: "root"})
	require.NoError(t, err)
	assert.Equal(t, "Super User", usr.Name)
	assert.Equal(t, "root@medatlas.test", usr.Email)
	assert.True(t, usr.IsActive)
	assert.True(t, usr.IsAdmin())
	assert.NoError(t, usr.CheckPassword(strongPassword+"2"))
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	now := time.Now().UTC()
	usr := user.User{Name: "User", Username: "awe", Email: "awe@medatlas.test", IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, usr.SetPassword(strongPassword))
	usr, err := cli.usrRepo.CreateUser(context.Background(), usr)
	require.NoError(t, err)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "--username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "--username", "lol"}, pwd: "New.Pass-99", wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "--username", usr.Username}, pwd: "New.Pass-99"},
		{name: "reset with email", args: []string{"resetpassword", "--username", usr.Email}, pwd: "Other.Pass-42"},
	}
	runCLITests(t, cli, tests, func(t *testing.T, tt cliTest) {
		refreshed, err := cli.usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
		require.NoError(t, err)
		assert.NoError(t, refreshed.CheckPassword(tt.pwd))
	})
}

func Test_commandLine_addPlace(t *testing.T) {
	cli := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no name", args: []string{"addplace"}, wantErrStr: "'required' tag"},
		{name: "unknown type", args: []string{"addplace", "--name", "Vet School", "--type", "vet"}, wantErrStr: "'placetype' tag"},
		{
			name: "success",
			args: []string{
				"addplace", "--name", "Mayo Clinic", "--city", "Rochester", "--state", "MN",
				"--tag", "Research", "--tag", "rural", "--mcat-avg", "520", "--acceptance-rate", "2.1",
			},
		},
	}, nil)

	places, total, err := cli.placeRepo.QueryPlaces(context.Background(), place.QueryFilter{}, core.Pagination{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	p := places[0]
	assert.Equal(t, "Mayo Clinic", p.Name)
	assert.Equal(t, place.TypeMD, p.Type)
	assert.Equal(t, place.Tags{"research", "rural"}, p.Tags)
	assert.Equal(t, 520.0, p.Metrics.MCATAvg.Float64)
	assert.False(t, p.Metrics.GPAAvg.Valid)
	assert.Equal(t, 2.1, p.Metrics.AcceptanceRate.Float64)
	assert.Contains(t, cli.out.String(), "school "+p.ID+" added")
}

func Test_commandLine_grantPremium(t *testing.T) {
	cli := setup(t)

	now := time.Now().UTC()
	usr := user.User{Name: "Jane", Username: "jane", Email: "jane@medatlas.test", IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, usr.SetPassword(strongPassword))
	usr, err := cli.usrRepo.CreateUser(context.Background(), usr)
	require.NoError(t, err)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"grantpremium"}, wantErr: errHelp},
		{name: "invalid amount", args: []string{"grantpremium", "--user", "jane", "--amount", "lol"}, wantErrStr: "parsing amount"},
		{name: "negative amount", args: []string{"grantpremium", "--user", "jane", "--amount", "-5"}, wantErrStr: payment.ErrInvalidAmount.Error()},
		{name: "unknown user", args: []string{"grantpremium", "--user", "nobody", "--amount", "10"}, wantErr: user.ErrNotFound},
		{name: "success", args: []string{"grantpremium", "--user", "JANE", "--amount", "29.99", "--ref", "ch_42"}},
	}, nil)

	refreshed, err := cli.usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.True(t, refreshed.IsPremium)

	payments, err := cli.payRepo.QueryPayments(context.Background(), usr.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "29.99", payments[0].Amount.StringFixed(2))
	assert.Equal(t, payment.DefaultCurrency, payments[0].Currency)
	assert.Equal(t, "ch_42", payments[0].ProviderRef)
	assert.Len(t, cli.mail.SentMessages(), 1)
}
