package qualitycontrol

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/labdash/labdash/internal/platform/apperr"
	"github.com/labdash/labdash/internal/platform/cache"
)

var ErrNotFound = apperr.NotFound("qc test")

// Service fires its Invalidator after every successful write.
type Service struct {
	cache.Invalidator
	tests  QCTestRepository
	logger zerolog.Logger
}

func NewService(tests QCTestRepository, logger zerolog.Logger) *Service {
	return &Service{tests: tests, logger: logger.With().Str("component", "qualitycontrol").Logger()}
}

// Validate checks a test before it is stored. Status is checked against the
// known labels only; it is not compared to the measured value.
func Validate(q *QCTest) error {
	if q.TestName == "" {
		return apperr.Required("test_name")
	}
	if q.Status == "" {
		q.Status = StatusPending
	}
	if !validStatuses[q.Status] {
		return apperr.Invalid("status", "invalid status: %s", q.Status)
	}
	if q.AcceptableRangeMin > q.AcceptableRangeMax {
		return apperr.Invalid("acceptable_range_min", "must not exceed acceptable_range_max")
	}
	return nil
}

func (s *Service) CreateQCTest(ctx context.Context, q *QCTest) error {
	if err := Validate(q); err != nil {
		return err
	}
	if !q.RangeConsistent() {
		s.logger.Warn().
			Str("test_name", q.TestName).
			Float64("target", q.TargetValue).
			Float64("min", q.AcceptableRangeMin).
			Float64("max", q.AcceptableRangeMax).
			Msg("target value outside acceptable range")
	}
	if q.StatusDisagrees() {
		s.logger.Warn().
			Str("test_name", q.TestName).
			Str("status", q.Status).
			Bool("within_range", q.WithinRange()).
			Msg("qc status disagrees with range check")
	}
	if err := s.tests.Create(ctx, q); err != nil {
		return fmt.Errorf("create qc test: %w", err)
	}
	s.Changed(ctx)
	return nil
}

func (s *Service) GetQCTest(ctx context.Context, id uuid.UUID) (*QCTest, error) {
	return s.tests.GetByID(ctx, id)
}

func (s *Service) DeleteQCTest(ctx context.Context, id uuid.UUID) error {
	if err := s.tests.Delete(ctx, id); err != nil {
		return err
	}
	s.Changed(ctx)
	return nil
}

func (s *Service) ListQCTests(ctx context.Context, f Filter, limit, offset int) ([]*QCTest, int, error) {
	if f.Status != "" && !validStatuses[f.Status] {
		return nil, 0, apperr.Invalid("status", "invalid status: %s", f.Status)
	}
	return s.tests.Search(ctx, f, limit, offset)
}

// AllQCTests returns every test of the tenant, newest first.
func (s *Service) AllQCTests(ctx context.Context) ([]*QCTest, error) {
	tests, err := s.tests.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list qc tests: %w", err)
	}
	return tests, nil
}

func (s *Service) CheckQCTest(ctx context.Context, id uuid.UUID) (Check, error) {
	q, err := s.tests.GetByID(ctx, id)
	if err != nil {
		return Check{}, err
	}
	return q.Check(), nil
}

func (s *Service) Summary(ctx context.Context, now time.Time) (Summary, error) {
	tests, err := s.tests.ListAll(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list qc tests: %w", err)
	}
	sum := Summarize(tests, now)
	if sum.Disagreements > 0 {
		s.logger.Debug().Int("disagreements", sum.Disagreements).Msg("qc status/range disagreements present")
	}
	return sum, nil
}
