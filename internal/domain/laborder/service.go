package laborder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/labdash/labdash/internal/platform/apperr"
	"github.com/labdash/labdash/internal/platform/cache"
)

var ErrNotFound = apperr.NotFound("lab order")

var ErrDuplicateOrderNumber = apperr.Invalid("order_number", "already exists")

type Service struct {
	cache.Invalidator
	orders LabOrderRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(orders LabOrderRepository, logger zerolog.Logger) *Service {
	return &Service{
		orders: orders,
		logger: logger.With().Str("component", "laborder").Logger(),
		now:    time.Now,
	}
}

// Validate rejects unknown stage and priority labels. It says nothing about
// which stage may follow which.
func Validate(o *LabOrder) error {
	if o.OrderNumber == "" {
		return apperr.Required("order_number")
	}
	if o.PatientRef == "" {
		return apperr.Required("patient_ref")
	}
	if o.TestName == "" {
		return apperr.Required("test_name")
	}
	if o.Status == "" {
		o.Status = StatusOrdered
	}
	if !ValidStage(o.Status) {
		return apperr.Invalid("status", "invalid status: %s", o.Status)
	}
	if o.Priority == "" {
		o.Priority = PriorityRoutine
	}
	if !validPriorities[o.Priority] {
		return apperr.Invalid("priority", "invalid priority: %s", o.Priority)
	}
	return nil
}

func (s *Service) CreateLabOrder(ctx context.Context, o *LabOrder) error {
	if err := Validate(o); err != nil {
		return err
	}
	if o.OrderedAt.IsZero() {
		o.OrderedAt = s.now().UTC()
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return fmt.Errorf("create lab order: %w", err)
	}
	s.Changed(ctx)
	return nil
}

func (s *Service) GetLabOrder(ctx context.Context, id uuid.UUID) (*LabOrder, error) {
	return s.orders.GetByID(ctx, id)
}

// SetStatus moves an order to any known stage. Entering completed stamps
// CompletedAt; leaving it clears the stamp.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status string) (*LabOrder, error) {
	if !ValidStage(status) {
		return nil, apperr.Invalid("status", "invalid status: %s", status)
	}
	current, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	completedAt := current.CompletedAt
	switch {
	case status == StatusCompleted && completedAt == nil:
		t := s.now().UTC()
		completedAt = &t
	case status != StatusCompleted:
		completedAt = nil
	}
	o, err := s.orders.UpdateStatus(ctx, id, status, completedAt)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("order_number", o.OrderNumber).
		Str("from", current.Status).
		Str("to", status).
		Msg("lab order stage changed")
	s.Changed(ctx)
	return o, nil
}

func (s *Service) ListLabOrders(ctx context.Context, f Filter, limit, offset int) ([]*LabOrder, int, error) {
	if f.Status != "" && !ValidStage(f.Status) {
		return nil, 0, apperr.Invalid("status", "invalid status: %s", f.Status)
	}
	if f.Priority != "" && !validPriorities[f.Priority] {
		return nil, 0, apperr.Invalid("priority", "invalid priority: %s", f.Priority)
	}
	return s.orders.Search(ctx, f, limit, offset)
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list lab orders: %w", err)
	}
	return Summarize(orders), nil
}
