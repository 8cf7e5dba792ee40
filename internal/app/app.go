package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/labstack/echo/v4"
	nats "github.com/nats-io/nats.go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/example/social-auth/config"
	"github.com/example/social-auth/internal/adapters/facebook"
	httpadapter "github.com/example/social-auth/internal/adapters/http"
	apiv1 "github.com/example/social-auth/internal/adapters/http/api/v1"
	handlers "github.com/example/social-auth/internal/adapters/http/api/v1/handlers"
	authmw "github.com/example/social-auth/internal/adapters/http/middleware"
	natsadapter "github.com/example/social-auth/internal/adapters/nats"
	repo "github.com/example/social-auth/internal/adapters/postgres"
	"github.com/example/social-auth/internal/domain"
	"github.com/example/social-auth/internal/usecase"
	pkglog "github.com/example/social-auth/pkg/log"
)

type App struct {
	cfg      *config.Config
	logger   pkglog.Logger
	db       *gorm.DB
	natsConn *nats.Conn
	echo     *echo.Echo
}

func New(ctx context.Context) (*App, error) {
	cfg := config.MustLoad()
	logger := pkglog.New(cfg.AppEnv)

	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&domain.Account{}, &domain.RefreshToken{}, &domain.Photo{}); err != nil {
		return nil, err
	}

	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		log.Printf("nats connect failed: %v", err)
	}

	accounts := repo.NewAccountRepository(db)
	graph := facebook.NewHTTPClient(cfg.FacebookGraphURL, cfg.FacebookAppID, cfg.FacebookAppSecret, cfg.FacebookTimeout)

	signer, err := usecase.NewCredentialSigner(cfg)
	if err != nil {
		return nil, err
	}
	identity := usecase.NewIdentityProvider(logger, accounts)
	federated := usecase.NewFederatedLoginVerifier(logger, graph, accounts)
	refresh := usecase.NewRefreshTokenStore(cfg, logger, accounts)

	var events natsadapter.AccountEventClient
	if nc != nil {
		events = natsadapter.NewAccountEventClient(nc, cfg.NATSAccountCreatedSubject)
	}
	orchestrator := usecase.NewOrchestrator(logger, accounts, identity, federated, refresh, signer, events)

	handler := handlers.NewAccountHandler(cfg, orchestrator)
	authMW := authmw.NewAuthMiddleware(signer)
	router := httpadapter.NewRouter(cfg, apiv1.NewRouter(handler, authMW.Handler))

	if nc != nil {
		verifyHandler := natsadapter.NewVerifyHandler(signer)
		_ = verifyHandler.Subscribe(nc, cfg.NATSVerifySubject, cfg.AppName)
	}

	e := echo.New()
	router.Setup(e)

	return &App{cfg: cfg, logger: logger, db: db, natsConn: nc, echo: e}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.echo.Shutdown(shutdownCtx)
	}()
	go func() {
		errCh <- a.echo.Start(fmt.Sprintf("%s:%s", a.cfg.HTTPHost, a.cfg.HTTPPort))
	}()
	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *App) Close() {
	if a.natsConn != nil {
		_ = a.natsConn.Drain()
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// openDB retries the initial connection so the service survives the database
// coming up after it in a compose stack.
func openDB(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	var db *gorm.DB
	op := func() error {
		var err error
		db, err = gorm.Open(postgres.Open(buildDSN(cfg)), &gorm.Config{
			Logger:         loggerForGorm(cfg),
			NamingStrategy: schema.NamingStrategy{SingularTable: true},
		})
		return err
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return db, nil
}

func buildDSN(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s", cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)
}

func loggerForGorm(cfg *config.Config) logger.Interface {
	level := logger.Silent
	switch cfg.AppEnv {
	case "local":
		level = logger.Info
	default:
		level = logger.Warn
	}
	return logger.Default.LogMode(level)
}
