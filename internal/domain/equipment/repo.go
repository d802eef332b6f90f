package equipment

import (
	"context"

	"github.com/google/uuid"
)

type EquipmentRepository interface {
	Create(ctx context.Context, e *Equipment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Equipment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Equipment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, f Filter, limit, offset int) ([]*Equipment, int, error)
	ListAll(ctx context.Context) ([]*Equipment, error)
}
