package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/schedule"
	"github.com/darasahq/darasa/core/staff"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool
		SignalShutdown func()

		ScheduleSvc *schedule.Service
		StaffSvc    *staff.Service
		Resolver    *schedule.Resolver
		Checker     *schedule.AvailabilityChecker
		Suggester   schedule.Suggester
		Mailer      core.EmailService
		Validate    *validator.Validate
		Translator  ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
		jwt  middleware.JWTConfig
	}
)

var _ Server = (*server)(nil)

// mergePolicy maps the configured merge partner policy to its implementation.
// "first-other" is the only policy today; unknown values fall back to it.
func (opts *Options) mergePolicy() schedule.MergePolicy {
	return schedule.FirstOtherClass
}

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
		jwt:  newAppJWTConfig(opts.Conf),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.opts.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(s.jwt)

	registerAuthAPI(v1, s.jwt, conf)
	registerScheduleAPI(v1, jwt, s.opts)
	registerClassAPI(v1, jwt, s.opts)
	registerTeacherAPI(v1, jwt, s.opts)
	registerSubstitutionAPI(v1, jwt, s.opts)
	registerReportAPI(v1, jwt, s.opts)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Conf.Server.Addr))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Darasa API!")
}
