package qualitycontrol

import (
	"context"

	"github.com/google/uuid"
)

type QCTestRepository interface {
	Create(ctx context.Context, q *QCTest) error
	GetByID(ctx context.Context, id uuid.UUID) (*QCTest, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, f Filter, limit, offset int) ([]*QCTest, int, error)
	ListAll(ctx context.Context) ([]*QCTest, error)
}
