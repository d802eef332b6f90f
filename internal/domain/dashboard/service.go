package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/labdash/labdash/internal/domain/compliance"
	"github.com/labdash/labdash/internal/domain/equipment"
	"github.com/labdash/labdash/internal/domain/laborder"
	"github.com/labdash/labdash/internal/domain/qualitycontrol"
	"github.com/labdash/labdash/internal/platform/cache"
	"github.com/labdash/labdash/internal/platform/db"
)

type Service struct {
	qc         QCSource
	equipment  EquipmentSource
	compliance ComplianceSource
	orders     OrderSource

	cache   cache.Cache
	ttl     time.Duration
	scope   db.ConnScope
	metrics *Metrics
	logger  zerolog.Logger
}

type Option func(*Service)

// WithCache stores built dashboards for ttl. A zero ttl disables caching.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.ttl = ttl
	}
}

// WithConnScope gives each concurrent summary query its own connection.
func WithConnScope(scope db.ConnScope) Option {
	return func(s *Service) { s.scope = scope }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(qc QCSource, eq EquipmentSource, comp ComplianceSource, orders OrderSource, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		qc:         qc,
		equipment:  eq,
		compliance: comp,
		orders:     orders,
		cache:      cache.Nop{},
		scope:      db.SharedScope,
		logger:     logger.With().Str("component", "dashboard").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func cacheKey(ctx context.Context) string {
	tenant := db.TenantFromContext(ctx)
	if tenant == "" {
		tenant = "_"
	}
	return cache.Key("dashboard", tenant)
}

// Build returns the dashboard for the tenant on ctx. Unless refresh is set a
// cached copy younger than the TTL is returned. Cache failures are logged and
// never fail the request.
func (s *Service) Build(ctx context.Context, now time.Time, refresh bool) (Dashboard, error) {
	key := cacheKey(ctx)
	if s.ttl > 0 && !refresh {
		var d Dashboard
		hit, err := s.cache.GetJSON(ctx, key, &d)
		switch {
		case err != nil:
			s.metrics.cacheResult("error")
			s.logger.Warn().Err(err).Str("key", key).Msg("dashboard cache read failed")
		case hit:
			s.metrics.cacheResult("hit")
			d.Cached = true
			return d, nil
		default:
			s.metrics.cacheResult("miss")
		}
	}

	start := time.Now()
	d, err := s.compute(ctx, now)
	if err != nil {
		return Dashboard{}, err
	}
	s.metrics.observeBuild(time.Since(start).Seconds())

	if s.ttl > 0 {
		if err := s.cache.SetJSON(ctx, key, d, s.ttl); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("dashboard cache write failed")
		}
	}
	return d, nil
}

// Invalidate drops the cached dashboard of the tenant on ctx.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, cacheKey(ctx))
}

// Notifier reports writes to data the dashboard is built from.
type Notifier interface {
	OnChange(fn func(ctx context.Context))
}

// Watch drops the writing tenant's cached dashboard whenever one of the
// sources changes, so the next Build recomputes.
func (s *Service) Watch(sources ...Notifier) {
	for _, src := range sources {
		src.OnChange(s.dropCached)
	}
}

func (s *Service) dropCached(ctx context.Context) {
	if s.ttl <= 0 {
		return
	}
	if err := s.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Str("key", cacheKey(ctx)).Msg("dashboard cache invalidation failed")
	}
}

func (s *Service) compute(ctx context.Context, now time.Time) (Dashboard, error) {
	d := Dashboard{TenantID: db.TenantFromContext(ctx), GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)
	run := func(name string, fn func(ctx context.Context) error) {
		g.Go(func() error {
			sctx, release, err := s.scope(gctx)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			defer release()
			if err := fn(sctx); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}

	run("qc summary", func(ctx context.Context) (err error) {
		d.QC, err = s.qc.Summary(ctx, now)
		return err
	})
	run("equipment summary", func(ctx context.Context) (err error) {
		d.Equipment, err = s.equipment.Summary(ctx, now)
		return err
	})
	run("compliance summary", func(ctx context.Context) (err error) {
		d.Compliance, err = s.compliance.Summary(ctx, now)
		return err
	})
	run("order summary", func(ctx context.Context) (err error) {
		d.Orders, err = s.orders.Summary(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("build dashboard: %w", err)
	}
	return d, nil
}

// compile-time checks that the domain services satisfy the sources
var (
	_ QCSource         = (*qualitycontrol.Service)(nil)
	_ EquipmentSource  = (*equipment.Service)(nil)
	_ ComplianceSource = (*compliance.Service)(nil)
	_ OrderSource      = (*laborder.Service)(nil)

	_ Notifier = (*qualitycontrol.Service)(nil)
	_ Notifier = (*equipment.Service)(nil)
	_ Notifier = (*compliance.Service)(nil)
	_ Notifier = (*laborder.Service)(nil)
)
