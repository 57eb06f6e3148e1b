package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	devstore "github.com/trezcool/fypdesk/apps/devapi/store"
	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/user"
)

type ServerDeps struct {
	Conf       *core.Config
	Logger     core.Logger
	Store      *devstore.Store
	Validate   *validator.Validate
	Translator ut.Translator
}

// Server is the development stand-in of the FYP REST API, mounted under `/api`.
type Server struct {
	deps     ServerDeps
	app      *echo.Echo
	auth     *authenticator
	errors   chan error
	shutdown chan os.Signal
}

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		auth:     newAuthenticator(deps.Conf),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORS())

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.GET("/", home)
	s.app.Static("/uploads", s.uploadDir())

	api := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(s.auth.config)

	base := handler{
		store:      s.deps.Store,
		validate:   s.deps.Validate,
		translator: s.deps.Translator,
	}
	registerAuthAPI(api, jwt, authAPI{handler: base, auth: s.auth})
	registerDocumentAPI(api, jwt, documentAPI{handler: base, uploadDir: s.uploadDir()})
	registerGroupAPI(api, jwt, base)
	registerGradeAPI(api, jwt, base)
	registerNotificationAPI(api, jwt, base)
	registerDashboardAPI(api, jwt, base)
}

func (s *Server) uploadDir() string {
	dir, err := filepath.Abs(s.deps.Conf.DevServer.UploadDir)
	if err != nil {
		return s.deps.Conf.DevServer.UploadDir
	}
	return dir
}

// Start serves until the listener fails; the failure is reported on Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.deps.Conf.DevServer.Addr); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

// Token signs a token for the account, as a login would.
func (s *Server) Token(prof user.Profile) (string, error) {
	return s.auth.GenerateToken(prof)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "FYP development API")
}
