package compliance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/labdash/labdash/internal/platform/apperr"
	"github.com/labdash/labdash/internal/platform/cache"
)

var ErrNotFound = apperr.NotFound("compliance entry")

type Service struct {
	cache.Invalidator
	entries EntryRepository
	logger  zerolog.Logger
}

func NewService(entries EntryRepository, logger zerolog.Logger) *Service {
	return &Service{entries: entries, logger: logger.With().Str("component", "compliance").Logger()}
}

func Validate(e *Entry) error {
	if e.Requirement == "" {
		return apperr.Required("requirement")
	}
	if e.Status == "" {
		e.Status = StatusPending
	}
	if !validStatuses[e.Status] {
		return apperr.Invalid("status", "invalid status: %s", e.Status)
	}
	return nil
}

func (s *Service) CreateEntry(ctx context.Context, e *Entry) error {
	if err := Validate(e); err != nil {
		return err
	}
	if err := s.entries.Create(ctx, e); err != nil {
		return fmt.Errorf("create compliance entry: %w", err)
	}
	s.Changed(ctx)
	return nil
}

func (s *Service) GetEntry(ctx context.Context, id uuid.UUID) (*Entry, error) {
	return s.entries.GetByID(ctx, id)
}

func (s *Service) ListEntries(ctx context.Context, status, category string, limit, offset int) ([]*Entry, int, error) {
	if status != "" && !validStatuses[status] {
		return nil, 0, apperr.Invalid("status", "invalid status: %s", status)
	}
	return s.entries.Search(ctx, status, category, limit, offset)
}

func (s *Service) Summary(ctx context.Context, now time.Time) (Summary, error) {
	entries, err := s.entries.ListAll(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list compliance entries: %w", err)
	}
	return Summarize(entries, now), nil
}
