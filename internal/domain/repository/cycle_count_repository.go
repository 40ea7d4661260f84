package repository

import (
	"context"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// CycleCountRepository puerto de conteos cíclicos.
type CycleCountRepository interface {
	Create(ctx context.Context, count *entity.CycleCount) error
	Get(ctx context.Context, tenantID, id string) (*entity.CycleCount, error)
	GetForUpdate(ctx context.Context, tenantID, id string) (*entity.CycleCount, error)
	// CountIDByLine resuelve el conteo dueño de una línea.
	CountIDByLine(ctx context.Context, tenantID, lineID string) (string, error)
	Update(ctx context.Context, count *entity.CycleCount) error
}
