// Package sweeper returns reserved materials whose evidence never arrived.
package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/GlebRadaev/bountyhub/internal/config"
	"github.com/GlebRadaev/bountyhub/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -source=sweeper.go -destination=mock_sweeper.go -package=sweeper

const batchLimit = 500

type Repo interface {
	FindStaleReservations(ctx context.Context, before time.Time, limit int) ([]domain.Submission, error)
}

type Releaser interface {
	ReleaseExpired(ctx context.Context, submissionID int) (bool, error)
}

type Service struct {
	repo       Repo
	releaser   Releaser
	workerPool WorkerPoolI
	ttl        time.Duration
	interval   time.Duration
	limit      int
	inFlight   sync.Map
	now        func() time.Time
	done       chan struct{}
}

func New(cfg *config.Config, repo Repo, releaser Releaser, workerPool WorkerPoolI) *Service {
	return &Service{
		repo:       repo,
		releaser:   releaser,
		workerPool: workerPool,
		ttl:        cfg.ReservationTTL,
		interval:   cfg.SweepInterval,
		limit:      batchLimit,
		now:        time.Now,
		done:       make(chan struct{}),
	}
}

// Start runs the sweep loop until ctx is done. A non-positive reservation
// TTL or interval disables it.
func (s *Service) Start(ctx context.Context) {
	if s.ttl <= 0 || s.interval <= 0 {
		zap.L().Info("Reservation sweeper disabled")
		close(s.done)
		return
	}
	zap.L().Info("Reservation sweeper started", zap.Duration("ttl", s.ttl), zap.Duration("interval", s.interval))
	go s.run(ctx)
}

// Wait blocks until the loop started by Start has returned.
func (s *Service) Wait() {
	<-s.done
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Context canceled, stopping sweeper")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep hands every reservation older than the TTL to the worker pool.
// Reservations still being released from an earlier sweep are skipped.
func (s *Service) Sweep(ctx context.Context) {
	stale, err := s.repo.FindStaleReservations(ctx, s.now().Add(-s.ttl), s.limit)
	if err != nil {
		zap.L().Error("Failed to fetch stale reservations", zap.Error(err))
		return
	}

	var g errgroup.Group
	for _, sub := range stale {
		id := sub.ID
		if _, loaded := s.inFlight.LoadOrStore(id, struct{}{}); loaded {
			continue
		}

		g.Go(func() error {
			err := s.workerPool.AddTask(ctx, func() error {
				defer s.inFlight.Delete(id)
				return s.release(ctx, id)
			})
			if err != nil {
				s.inFlight.Delete(id)
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		zap.L().Error("Error scheduling reservation release", zap.Error(err))
	}
}

func (s *Service) release(ctx context.Context, submissionID int) error {
	released, err := s.releaser.ReleaseExpired(ctx, submissionID)
	if err != nil {
		return err
	}
	if released {
		zap.L().Info("Expired reservation released", zap.Int("submission_id", submissionID))
	}
	return nil
}
