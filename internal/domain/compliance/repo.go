package compliance

import (
	"context"

	"github.com/google/uuid"
)

type EntryRepository interface {
	Create(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	Search(ctx context.Context, status, category string, limit, offset int) ([]*Entry, int, error)
	ListAll(ctx context.Context) ([]*Entry, error)
}
