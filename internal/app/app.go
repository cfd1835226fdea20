package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mobanklabs/otpgate/internal/pkg/clock"
	"github.com/mobanklabs/otpgate/internal/pkg/config"
	"github.com/mobanklabs/otpgate/internal/pkg/goroutine"
	"github.com/mobanklabs/otpgate/internal/pkg/hash"
	"github.com/mobanklabs/otpgate/internal/pkg/instrument"
	"github.com/mobanklabs/otpgate/internal/pkg/mail"
	"github.com/mobanklabs/otpgate/internal/pkg/messaging"
	"github.com/mobanklabs/otpgate/internal/pkg/router"
	"github.com/mobanklabs/otpgate/internal/pkg/storage"
	"github.com/mobanklabs/otpgate/internal/pkg/uid"
	"github.com/mobanklabs/otpgate/internal/pkg/validator"
	"github.com/redis/go-redis/v9"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Runner
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	mail      mail.Mail
	messaging messaging.Messaging
	storage   storage.Storage

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initStorage()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
