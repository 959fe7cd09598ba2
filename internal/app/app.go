package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/GlebRadaev/bountyhub/internal/config"
	"github.com/GlebRadaev/bountyhub/internal/handlers"
	"github.com/GlebRadaev/bountyhub/internal/metrics"
	"github.com/GlebRadaev/bountyhub/internal/pg"
	"github.com/GlebRadaev/bountyhub/internal/repo"
	"github.com/GlebRadaev/bountyhub/internal/service"
	"github.com/GlebRadaev/bountyhub/internal/sweeper"
	"github.com/GlebRadaev/bountyhub/pkg/auth"
	"github.com/GlebRadaev/bountyhub/pkg/clients"
	"github.com/GlebRadaev/bountyhub/pkg/evidence"
	"github.com/GlebRadaev/bountyhub/pkg/lock"
	"github.com/GlebRadaev/bountyhub/pkg/logger"
)

const sweepWorkers = 10

type ApplicationI interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context, cancel context.CancelFunc) error
}

type Application struct {
	cfg     *config.Config
	api     *handlers.Handlers
	srv     *service.Services
	repo    *repo.Repositories
	sweeper *sweeper.Service
	workers *sweeper.WorkerPool
	pool    *pgxpool.Pool

	errCh chan error
	wg    sync.WaitGroup
	ready bool
}

func New() *Application {
	return &Application{
		errCh: make(chan error),
	}
}

func (a *Application) Start(ctx context.Context) error {
	cfg := config.New()

	err := logger.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("can't init logger: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		zap.L().Error("invalid configuration", zap.Error(err))
		return fmt.Errorf("invalid configuration: %w", err)
	}

	pool, err := getPgxpool(ctx, cfg)
	if err != nil {
		zap.L().Error("build pgx pool failed: ", zap.Error(err))
		return fmt.Errorf("can't build pgx pool: %w", err)
	}
	if err := pg.RunMigrations(ctx, pool); err != nil {
		zap.L().Error("migrations failed: ", zap.Error(err))
		return fmt.Errorf("can't run migrations: %w", err)
	}
	txManager := pg.NewTXManager(pool)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	locker, err := newLocker(ctx, cfg, m)
	if err != nil {
		zap.L().Error("lock backend failed: ", zap.Error(err))
		return fmt.Errorf("can't build lock coordinator: %w", err)
	}
	store, err := newEvidenceStore(cfg)
	if err != nil {
		zap.L().Error("evidence store failed: ", zap.Error(err))
		return fmt.Errorf("can't build evidence store: %w", err)
	}

	conn := pg.New(pool)
	a.cfg = cfg
	a.pool = pool
	a.repo = repo.New(conn, txManager)
	a.srv = service.New(cfg, a.repo, txManager, locker, clients.NewHTTPClient(), m)
	a.api = handlers.New(a.srv, auth.NewJWTService(cfg.JWTSecret), store, cfg.EvidenceMaxBytes, registry)
	a.workers = sweeper.NewWorkerPool(sweepWorkers)
	a.sweeper = sweeper.New(cfg, a.repo.SubmissionRepo, a.srv.ClaimService, a.workers)

	if err = a.startHTTPServer(ctx); err != nil {
		return fmt.Errorf("can't start http server: %w", err)
	}

	a.startSweeper(ctx)

	a.ready = true
	zap.L().Info("all systems started successfully")
	return nil
}

func getPgxpool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	cfgpool, err := pgxpool.ParseConfig(cfg.Database)
	if err != nil {
		return nil, err
	}
	dbpool, err := pgxpool.NewWithConfig(ctx, cfgpool)
	if err != nil {
		return nil, err
	}
	if err = dbpool.Ping(ctx); err != nil {
		return nil, err
	}
	return dbpool, nil
}

// newLocker picks the task lock backend. Without a redis address the lock
// only covers this process.
func newLocker(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (lock.Coordinator, error) {
	if cfg.Redis == "" {
		zap.L().Warn("redis address not set, task locks are process local")
		return lock.NewMemory(), nil
	}

	client, err := lock.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	var locker lock.Coordinator = lock.NewRedis(client)
	if cfg.LockFailOpen {
		locker = lock.FailOpen(locker, func(string) { m.LockFailOpen() })
	}
	return locker, nil
}

func newEvidenceStore(cfg *config.Config) (evidence.Store, error) {
	if cfg.EvidenceS3Bucket == "" {
		return evidence.NewLocalStore(cfg.EvidenceDir, cfg.EvidenceMaxBytes)
	}
	return evidence.NewS3Store(evidence.S3Config{
		Endpoint:       cfg.EvidenceS3Endpoint,
		PublicEndpoint: cfg.EvidenceS3PublicEndpoint,
		Region:         cfg.EvidenceS3Region,
		AccessKey:      cfg.EvidenceS3AccessKey,
		SecretKey:      cfg.EvidenceS3SecretKey,
		Bucket:         cfg.EvidenceS3Bucket,
		SSLDisabled:    cfg.EvidenceS3DisableSSL,
	}, cfg.EvidenceMaxBytes)
}

func (a *Application) startHTTPServer(ctx context.Context) error {
	router := chi.NewRouter()
	a.api.InitRoutes(router)
	server := http.Server{
		Addr:              a.cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()

		sCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(sCtx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		zap.L().Info("starting http server on port", zap.String("port", a.cfg.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.errCh <- fmt.Errorf("http server exited with error: %w", err)
		}
	}()

	return nil
}

func (a *Application) startSweeper(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.sweeper.Start(ctx)
		a.sweeper.Wait()
		a.workers.Close()
	}()
}

func (a *Application) Wait(ctx context.Context, cancel context.CancelFunc) error {
	var appErr error

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for err := range a.errCh {
			cancel()
			zap.L().Error(err.Error())
			appErr = err
		}
	}()

	<-ctx.Done()
	a.wg.Wait()
	close(a.errCh)
	wg.Wait()

	if a.pool != nil {
		a.pool.Close()
	}
	return appErr
}
