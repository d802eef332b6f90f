package laborder

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type LabOrderRepository interface {
	Create(ctx context.Context, o *LabOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*LabOrder, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, completedAt *time.Time) (*LabOrder, error)
	Search(ctx context.Context, f Filter, limit, offset int) ([]*LabOrder, int, error)
	ListAll(ctx context.Context) ([]*LabOrder, error)
}
