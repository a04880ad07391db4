// Package maintenance runs the periodic housekeeping that keeps time-based
// state current: lapsed installments and invoices become Overdue, and
// standalone reservations past their expiry give their stock back.
package maintenance

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/inventory"
	"github.com/fekuna/omnipos-order-service/internal/payment"
	"github.com/fekuna/omnipos-order-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-order-service/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const lockKey = "omnipos:maintenance:sweep"

// Locker elects a single sweeping instance. *cache.RedisClient satisfies it.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

type Config struct {
	Interval time.Duration
	LockTTL  time.Duration
}

type Report struct {
	Skipped             bool
	Businesses          int
	SchedulesOverdue    int
	InvoicesOverdue     int
	ReservationsExpired int
	Failures            int
}

type Sweeper struct {
	store     store.Manager
	inventory inventory.UseCase
	payments  payment.UseCase
	locker    Locker
	cfg       Config
	logger    logger.ZapLogger
	now       func() time.Time
}

// NewSweeper builds a sweeper. A nil locker runs every sweep unconditionally,
// which is only correct for a single replica.
func NewSweeper(st store.Manager, inv inventory.UseCase, pay payment.UseCase, locker Locker, cfg Config, log logger.ZapLogger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = cfg.Interval
	}
	return &Sweeper{
		store:     st,
		inventory: inv,
		payments:  pay,
		locker:    locker,
		cfg:       cfg,
		logger:    log,
		now:       time.Now,
	}
}

// Start sweeps once immediately and then on every interval until ctx is done.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("maintenance sweeper started", zap.Duration("interval", s.cfg.Interval))
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		s.Sweep(ctx)
		select {
		case <-ctx.Done():
			s.logger.Info("maintenance sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

// Sweep runs one pass. Per-tenant failures are logged and do not stop the pass.
func (s *Sweeper) Sweep(ctx context.Context) Report {
	var rep Report
	if ctx.Err() != nil {
		rep.Skipped = true
		return rep
	}

	if s.locker != nil {
		token := uuid.NewString()
		ok, err := s.locker.AcquireLock(ctx, lockKey, token, s.cfg.LockTTL)
		if err != nil {
			s.logger.Error("failed to acquire sweep lock", zap.Error(err))
			rep.Skipped = true
			return rep
		}
		if !ok {
			s.logger.Debug("sweep lock held elsewhere, skipping")
			rep.Skipped = true
			return rep
		}
		defer func() {
			if err := s.locker.ReleaseLock(context.WithoutCancel(ctx), lockKey, token); err != nil {
				s.logger.Warn("failed to release sweep lock", zap.Error(err))
			}
		}()
	}

	now := s.now()
	seen := make(map[string]struct{})

	overdue, err := s.store.Payments().BusinessesWithOverdue(ctx, now)
	if err != nil {
		s.logger.Error("failed to list businesses with overdue payments", zap.Error(err))
		rep.Failures++
	}
	for _, biz := range overdue {
		seen[biz] = struct{}{}
		res, err := s.payments.MarkOverdue(ctx, biz, now)
		if err != nil {
			s.logger.Error("failed to mark overdue", zap.String("business_id", biz), zap.Error(err))
			rep.Failures++
			continue
		}
		rep.SchedulesOverdue += res.Schedules
		rep.InvoicesOverdue += res.Invoices
	}

	expired, err := s.store.Inventory().BusinessesWithExpiredReservations(ctx, now)
	if err != nil {
		s.logger.Error("failed to list businesses with expired reservations", zap.Error(err))
		rep.Failures++
	}
	for _, biz := range expired {
		seen[biz] = struct{}{}
		n, err := s.inventory.ExpireReservations(ctx, biz, now)
		if err != nil {
			s.logger.Error("failed to expire reservations", zap.String("business_id", biz), zap.Error(err))
			rep.Failures++
			continue
		}
		rep.ReservationsExpired += n
	}

	rep.Businesses = len(seen)
	if rep.Businesses > 0 {
		s.logger.Info("maintenance sweep finished",
			zap.Int("businesses", rep.Businesses),
			zap.Int("schedules_overdue", rep.SchedulesOverdue),
			zap.Int("invoices_overdue", rep.InvoicesOverdue),
			zap.Int("reservations_expired", rep.ReservationsExpired),
			zap.Int("failures", rep.Failures),
		)
	}
	return rep
}
