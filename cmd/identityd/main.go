package main

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	identity "github.com/goliatone/go-identity"
	"github.com/goliatone/go-logger/glog"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type App struct {
	config *Config
	bunDB  *bun.DB
	repo   identity.RepositoryManager
	auther identity.Authenticator
	tokens identity.TokenService
	mailer identity.Mailer
	srv    router.Server[*fiber.App]
	logger *glog.BaseLogger
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Debug),
		glog.WithName("identityd"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg, err := LoadConfig()
	if err != nil {
		lgr.Error("configuration error", "error", err)
		os.Exit(1)
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		lgr.Error("persistence setup failed", "error", err)
		os.Exit(1)
	}

	if err := WithIdentity(ctx, app); err != nil {
		lgr.Error("identity setup failed", "error", err)
		os.Exit(1)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		lgr.Error("http setup failed", "error", err)
		os.Exit(1)
	}

	app.srv.Serve(cfg.HTTPAddr)

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.config.DBDSN)
	if err != nil {
		return err
	}

	persistence.RegisterModel((*identity.Account)(nil))

	client, err := persistence.New(app.config.GetPersistence(), db, sqlitedialect.New())
	if err != nil {
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(identity.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}

	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	app.bunDB = client.DB()
	app.repo = identity.NewRepositoryManager(client.DB())

	return app.repo.Validate()
}

func WithIdentity(ctx context.Context, app *App) error {
	cfg := app.config

	app.tokens = identity.NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		app.GetLogger("identity:tokens"),
	)

	mailer, err := identity.NewSMTPMailer(identity.SMTPMailerConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		Subject:  cfg.SMTPSubject,
	}, app.GetLogger("identity:mail"))
	if err != nil {
		return err
	}
	app.mailer = mailer

	app.auther = identity.NewAuthenticator(app.repo.Accounts(), app.tokens, cfg).
		WithLogger(app.GetLogger("identity:authn")).
		WithActivitySink(auditSink(app.GetLogger("identity:audit")))

	return nil
}

// auditSink writes identity activity to the structured log. Swap in a
// database or queue backed sink here if events need to outlive the process.
func auditSink(lgr glog.Logger) identity.ActivitySink {
	return identity.ActivitySinkFunc(func(ctx context.Context, event identity.ActivityEvent) error {
		lgr.Info("activity",
			"event", string(event.EventType),
			"account_id", event.AccountID,
			"email", event.Email,
		)
		return nil
	})
}

func WithHTTPServer(ctx context.Context, app *App) error {
	cfg := app.config

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: !cfg.IsProduction(),
			StrictRouting:     false,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	signup := identity.NewSignupHandler(app.repo.Accounts(), app.tokens, app.mailer, cfg).
		WithLogger(app.GetLogger("identity:signup")).
		WithActivitySink(auditSink(app.GetLogger("identity:audit")))

	verify := identity.NewVerifyEmailHandler(app.repo.Accounts(), app.tokens, cfg).
		WithLogger(app.GetLogger("identity:verify")).
		WithActivitySink(auditSink(app.GetLogger("identity:audit")))

	guard := identity.AccessGuard(app.tokens, cfg)

	identity.RegisterIdentityRoutes(srv.Router().Group("/"), guard,
		identity.WithSignupHandler(signup),
		identity.WithVerifyEmailHandler(verify),
		identity.WithAuthenticator(app.auther),
		identity.WithContextKey(cfg.GetContextKey()),
		identity.WithControllerLogger(app.GetLogger("identity:ctrl")),
	)

	app.srv = srv

	return nil
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
