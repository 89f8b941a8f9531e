package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	. "github.com/medatlas/medatlas/apps/api/echo"
	"github.com/medatlas/medatlas/core"
	"github.com/medatlas/medatlas/core/favorite"
	"github.com/medatlas/medatlas/core/payment"
	"github.com/medatlas/medatlas/core/place"
	"github.com/medatlas/medatlas/core/review"
	"github.com/medatlas/medatlas/core/schoollist"
	"github.com/medatlas/medatlas/core/user"
	"github.com/medatlas/medatlas/services/email"
	"github.com/medatlas/medatlas/services/logger"
	"github.com/medatlas/medatlas/services/metrics"
	"github.com/medatlas/medatlas/storage/database/inmem"
)

const testPassword = "Pwd.1234"

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	srv       *Server
	db        *inmemdb.DB
	mail      *emailsvc.ConsoleServiceMock
	metrics   *metricsvc.Metrics
	usrRepo   user.Repository
	placeRepo place.Repository
	entryRepo schoollist.Repository
}

func testConfig() *core.Config {
	return &core.Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "MedAtlas",
		SecretKey:        "test-secret-key-0123456789",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "MedAtlas", Address: "noreply@medatlas.test"},

		PasswordResetTimeout: 3 * 24 * time.Hour,

		Server: core.ServerConfig{
			Address:                   ":0",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 24 * time.Hour,
			LoginRateLimit:            100,
			LoginRateBurst:            100,
		},
		Database: core.DatabaseConfig{Engine: "memory"},
		Place:    core.PlaceConfig{CacheTTL: time.Minute},
		Review:   core.ReviewConfig{PreviewLimit: 2},
	}
}

func setup(t *testing.T, confFns ...func(conf *core.Config)) *testApp {
	t.Helper()

	conf := testConfig()
	for _, fn := range confFns {
		fn(conf)
	}
	log := logsvc.NewRollbarLogger(logsvc.NewLogrus(conf, io.Discard), conf)
	log.Enable(false)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	place.InitValidators(validate, translator)
	schoollist.InitValidators(validate, translator)

	// set up DB & repos
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	placeRepo := inmemdb.NewPlaceRepository(db)
	entryRepo := inmemdb.NewSchoolListRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf, log)
	m := metricsvc.New()
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	placeSvc := place.NewService(placeRepo, conf.Place.CacheTTL)

	srv := NewServer(Deps{
		Conf:           conf,
		Logger:         log,
		Validate:       validate,
		Translator:     translator,
		Metrics:        m,
		DisableReqLogs: true,
		UserSvc:        usrSvc,
		PlaceSvc:       placeSvc,
		SchoolListSvc:  schoollist.NewService(entryRepo, placeSvc, m),
		ReviewSvc:      review.NewService(inmemdb.NewReviewRepository(db), placeSvc, conf.Review.PreviewLimit),
		FavoriteSvc:    favorite.NewService(inmemdb.NewFavoriteRepository(db), placeSvc),
		PaymentSvc:     payment.NewService(inmemdb.NewPaymentRepository(db), usrSvc, mailSvc),
	})
	t.Cleanup(func() { _ = srv.Close() })

	return &testApp{
		srv:       srv,
		db:        db,
		mail:      mailSvc,
		metrics:   m,
		usrRepo:   usrRepo,
		placeRepo: placeRepo,
		entryRepo: entryRepo,
	}
}

func (app *testApp) serve(req *http.Request, rec *httptest.ResponseRecorder) {
	app.srv.ServeHTTP(rec, req)
}

func (app *testApp) createUser(t *testing.T, name, uname, email string, roles []string, stats user.Stats) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		IsActive:  true,
		Roles:     roles,
		Stats:     stats,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, usr.SetPassword(testPassword))
	usr, err := app.usrRepo.CreateUser(context.Background(), usr)
	require.NoError(t, err)
	return usr
}

func (app *testApp) createPlace(t *testing.T, name, state string, metrics place.Metrics) place.Place {
	t.Helper()
	now := time.Now().UTC()
	p, err := app.placeRepo.CreatePlace(context.Background(), place.Place{
		Name:      name,
		Type:      place.TypeMD,
		City:      "Springfield",
		State:     state,
		Country:   "US",
		Tags:      place.Tags{},
		Metrics:   metrics,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	return p
}

func (app *testApp) getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := app.srv.GenerateToken(usr)
	require.NoError(t, err)
	return token
}

func stats(mcat int, gpa float64) user.Stats {
	return user.Stats{MCAT: null.IntFrom(mcat), GPA: null.Float64From(gpa)}
}

func metrics(mcatAvg, gpaAvg, rate float64) place.Metrics {
	return place.Metrics{
		MCATAvg:        null.Float64From(mcatAvg),
		GPAAvg:         null.Float64From(gpaAvg),
		AcceptanceRate: null.Float64From(rate),
	}
}

func usd(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type httpErr struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func ctxb() context.Context { return context.Background() }

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// decodeData unmarshals the data of a successful response into v.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	res := struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	require.True(t, res.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(res.Data, v), rec.Body.String())
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.serve(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_home(t *testing.T) {
	app := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	app.serve(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to MedAtlas API!", rec.Body.String())
}

func Test_health(t *testing.T) {
	app := setup(t)
	req, rec := newRequest(http.MethodGet, "/health")
	app.serve(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func Test_metrics(t *testing.T) {
	app := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	app.serve(req, rec)

	req, rec = newRequest(http.MethodGet, "/metrics")
	app.serve(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "medatlas_http_request_duration_seconds")
}
