package equipment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/labdash/labdash/internal/platform/analytics"
	"github.com/labdash/labdash/internal/platform/apperr"
	"github.com/labdash/labdash/internal/platform/cache"
)

var ErrNotFound = apperr.NotFound("equipment")

type Service struct {
	cache.Invalidator
	equipment EquipmentRepository
	dueSoon   time.Duration
	logger    zerolog.Logger
}

func NewService(equipment EquipmentRepository, logger zerolog.Logger) *Service {
	return &Service{
		equipment: equipment,
		dueSoon:   analytics.DueSoonWindow,
		logger:    logger.With().Str("component", "equipment").Logger(),
	}
}

// SetDueSoonWindow overrides the seven day default. Non-positive values are ignored.
func (s *Service) SetDueSoonWindow(d time.Duration) {
	if d > 0 {
		s.dueSoon = d
	}
}

func (s *Service) DueSoonWindow() time.Duration {
	return s.dueSoon
}

func Validate(e *Equipment) error {
	if e.Name == "" {
		return apperr.Required("name")
	}
	if e.Status == "" {
		e.Status = StatusOperational
	}
	if !validStatuses[e.Status] {
		return apperr.Invalid("status", "invalid status: %s", e.Status)
	}
	if e.UtilizationRate != nil && (*e.UtilizationRate < 0 || *e.UtilizationRate > 100) {
		return apperr.Invalid("utilization_rate", "must be between 0 and 100")
	}
	return nil
}

func (s *Service) CreateEquipment(ctx context.Context, e *Equipment) error {
	if err := Validate(e); err != nil {
		return err
	}
	if err := s.equipment.Create(ctx, e); err != nil {
		return fmt.Errorf("create equipment: %w", err)
	}
	s.Changed(ctx)
	return nil
}

func (s *Service) GetEquipment(ctx context.Context, id uuid.UUID) (*Equipment, error) {
	return s.equipment.GetByID(ctx, id)
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Equipment, error) {
	if !validStatuses[status] {
		return nil, apperr.Invalid("status", "invalid status: %s", status)
	}
	e, err := s.equipment.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("equipment_id", id.String()).Str("status", status).Msg("equipment status changed")
	s.Changed(ctx)
	return e, nil
}

func (s *Service) DeleteEquipment(ctx context.Context, id uuid.UUID) error {
	if err := s.equipment.Delete(ctx, id); err != nil {
		return err
	}
	s.Changed(ctx)
	return nil
}

func (s *Service) ListEquipment(ctx context.Context, f Filter, limit, offset int) ([]*Equipment, int, error) {
	if f.Status != "" && !validStatuses[f.Status] {
		return nil, 0, apperr.Invalid("status", "invalid status: %s", f.Status)
	}
	return s.equipment.Search(ctx, f, limit, offset)
}

func (s *Service) Summary(ctx context.Context, now time.Time) (Summary, error) {
	items, err := s.equipment.ListAll(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list equipment: %w", err)
	}
	sum := Summarize(items, now, s.dueSoon)
	if sum.Overdue > 0 {
		s.logger.Warn().Int("overdue", sum.Overdue).Msg("equipment maintenance overdue")
	}
	return sum, nil
}

// Schedule returns the maintenance schedule, overdue items first.
func (s *Service) Schedule(ctx context.Context, now time.Time) ([]ScheduleItem, error) {
	items, err := s.equipment.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	return Schedule(items, now, s.dueSoon), nil
}
