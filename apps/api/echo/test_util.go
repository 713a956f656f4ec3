package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/schedule"
	"github.com/darasahq/darasa/core/staff"
	emailsvc "github.com/darasahq/darasa/services/email"
	suggestsvc "github.com/darasahq/darasa/services/suggest"
	inmemdb "github.com/darasahq/darasa/storage/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
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

type testApp struct {
	server       Server
	conf         *core.Config
	jwtCfg       middleware.JWTConfig
	scheduleRepo schedule.Repository
	staffRepo    staff.Repository
}

func newTestConfig() *core.Config {
	conf := &core.Config{
		TestMode:          true,
		Env:               "TEST",
		AppName:           "Darasa",
		SecretKey:         []byte("secret"),
		PrincipalPassword: "principal-pwd",
		StaffPassword:     "staff-pwd",
	}
	conf.Server.JWTExpirationDelta = 10 * time.Minute
	return conf
}

func setup(t *testing.T) *testApp {
	t.Helper()

	conf := newTestConfig()
	db := inmemdb.NewDB()
	scheduleRepo := inmemdb.NewScheduleRepository(db)
	staffRepo := inmemdb.NewStaffRepository(db)

	validate := validator.New()
	translator := newTestTranslator()
	core.InitValidators(validate, translator)

	resolver := schedule.NewResolver(scheduleRepo)
	srv := NewServer(&Options{
		Conf:           conf,
		Logger:         testLogger{},
		DisableReqLogs: true,
		SignalShutdown: func() {},
		ScheduleSvc:    schedule.NewService(scheduleRepo),
		StaffSvc:       staff.NewService(staffRepo),
		Resolver:       resolver,
		Checker:        schedule.NewAvailabilityChecker(resolver, scheduleRepo, staffRepo),
		Suggester:      suggestsvc.NewRoundRobinSuggester(),
		Mailer:         emailsvc.NewConsoleServiceMock(conf),
		Validate:       validate,
		Translator:     translator,
	})

	return &testApp{
		server:       srv,
		conf:         conf,
		jwtCfg:       srv.(*server).jwt,
		scheduleRepo: scheduleRepo,
		staffRepo:    staffRepo,
	}
}

func newTestTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type testLogger struct{}

func (testLogger) Enable(bool)                        {}
func (testLogger) Debug(string, ...interface{})       {}
func (testLogger) Info(string, ...interface{})        {}
func (testLogger) Warn(string, ...interface{})        {}
func (testLogger) Error(string, ...interface{})       {}
func (testLogger) Fatal(msg string, _ ...interface{}) { panic(msg) }

func (app *testApp) getToken(t *testing.T, role string) string {
	t.Helper()
	token, err := GenerateToken(app.jwtCfg, GetRoleClaims(app.conf, role))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func (app *testApp) createTeacher(t *testing.T, id, name string, subjects ...string) staff.Teacher {
	t.Helper()
	teacher, err := app.staffRepo.CreateTeacher(context.Background(), staff.Teacher{ID: id, Name: name, Subjects: subjects})
	if err != nil {
		t.Fatalf("createTeacher() failed: %v", err)
	}
	return teacher
}

func (app *testApp) createClass(t *testing.T, id, name string) schedule.ClassSection {
	t.Helper()
	cs, err := app.scheduleRepo.CreateClass(context.Background(), schedule.ClassSection{ID: id, Name: name, Section: schedule.Secondary})
	if err != nil {
		t.Fatalf("createClass() failed: %v", err)
	}
	return cs
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

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
