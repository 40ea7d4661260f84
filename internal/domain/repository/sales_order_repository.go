package repository

import (
	"context"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// SalesOrderRepository puerto de órdenes de venta (cabecera + líneas).
type SalesOrderRepository interface {
	Create(ctx context.Context, order *entity.SalesOrder) error
	Get(ctx context.Context, tenantID, id string) (*entity.SalesOrder, error)
	// GetForUpdate bloquea la orden hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, tenantID, id string) (*entity.SalesOrder, error)
	// OrderIDByLine resuelve la orden dueña de una línea.
	OrderIDByLine(ctx context.Context, tenantID, lineID string) (string, error)
	// Update guarda estado y cantidades de líneas con chequeo de versión.
	Update(ctx context.Context, order *entity.SalesOrder) error
}
