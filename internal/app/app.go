package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	_ "pipeline/docs"
	"pipeline/internal/audit"
	"pipeline/internal/config"
	"pipeline/internal/handlers"
	"pipeline/internal/metrics"
	"pipeline/internal/middleware"
	"pipeline/internal/pdf"
	"pipeline/internal/repositories"
	"pipeline/internal/routes"
	"pipeline/internal/services"
)

// App holds the wired services of one process.
type App struct {
	cfg    *config.Config
	DB     *sql.DB
	Broker *audit.RabbitMQ

	Stages    *services.StageService
	Deals     *services.DealService
	Analytics *services.AnalyticsService
}

// New opens the store, migrates it and wires repositories and services.
// The broker is optional: without it activity is only kept in the database.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === DB ===
	db, err := repositories.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := repositories.Migrate(ctx, db, cfg.Database.Driver); err != nil {
		_ = db.Close()
		return nil, err
	}

	a := &App{cfg: cfg, DB: db}

	// === Broker ===
	var publisher services.ActivityPublisher
	if cfg.AMQP.URL != "" {
		rmq, err := audit.Dial(cfg.AMQP.URL)
		if err != nil {
			log.Printf("[app][amqp][warn] activity will not be published: %v", err)
		} else {
			a.Broker = rmq
			publisher = audit.NewPublisher(rmq.Ch)
		}
	}

	// === Repos ===
	txm := repositories.NewTxManager(db)
	stageRepo := repositories.NewStageRepository(db)
	dealRepo := repositories.NewDealRepository(db)
	ledger := repositories.NewTransitionRepository(db)
	activityRepo := repositories.NewActivityRepository(db)

	// === Services ===
	a.Stages = services.NewStageService(txm, stageRepo, dealRepo, activityRepo, publisher)
	a.Deals = services.NewDealService(txm, dealRepo, stageRepo, ledger, activityRepo, publisher, cfg.ReopenAllowed())
	a.Analytics = services.NewAnalyticsService(dealRepo, stageRepo, activityRepo, pdf.NewReportGenerator(cfg.Reports.FontPath))
	return a, nil
}

// Router builds the gin engine with middleware and every route.
func (a *App) Router(version string) *gin.Engine {
	var broker handlers.BrokerStatus
	if a.Broker != nil {
		broker = a.Broker.Conn
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(metrics.Middleware())

	return routes.SetupRoutes(
		router,
		[]byte(a.cfg.Auth.JWTSecret),
		handlers.NewStageHandler(a.Stages),
		handlers.NewDealHandler(a.Deals),
		handlers.NewAnalyticsHandler(a.Analytics),
		handlers.NewHealthHandler(a.DB, broker, version),
	)
}

// Serve runs the HTTP server until ctx is cancelled, then drains it.
func (a *App) Serve(ctx context.Context, version string) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler: a.Router(version),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[app][serve] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("[app][serve] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *App) Close() error {
	var errs []error
	if err := a.Broker.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run wires the application and serves until SIGINT or SIGTERM.
func Run(cfg *config.Config, version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Printf("[app][close][error] %v", err)
		}
	}()
	return a.Serve(ctx, version)
}
