package repository

import (
	"context"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// TransferRepository puerto de órdenes de transferencia.
type TransferRepository interface {
	Create(ctx context.Context, transfer *entity.TransferOrder) error
	Get(ctx context.Context, tenantID, id string) (*entity.TransferOrder, error)
	GetForUpdate(ctx context.Context, tenantID, id string) (*entity.TransferOrder, error)
	Update(ctx context.Context, transfer *entity.TransferOrder) error
}
