package http

import (
	"github.com/jhoicas/Inventario-ledger/internal/application/allocation"
	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
)

func toMovementResponse(m *entity.MovementEntry) dto.MovementResponse {
	return dto.MovementResponse{
		ID:            m.ID,
		Sequence:      m.Sequence,
		ItemID:        m.ItemID,
		SiteID:        m.SiteID,
		LocationID:    m.LocationID,
		Kind:          m.Kind.String(),
		Bucket:        m.Bucket.String(),
		QuantityBase:  m.QuantityBase,
		ReferenceType: string(m.ReferenceType),
		ReferenceID:   m.ReferenceID,
		Reason:        m.Reason,
		CreatedAt:     m.CreatedAt,
		CreatedBy:     m.CreatedBy,
	}
}

func toBalanceResponse(b *entity.Balance) *dto.BalanceResponse {
	if b == nil {
		return nil
	}
	out := &dto.BalanceResponse{
		ItemID:       b.Key.ItemID,
		SiteID:       b.Key.SiteID,
		LocationID:   b.Key.LocationID,
		OnHand:       b.OnHandBase,
		Reserved:     b.ReservedBase,
		Available:    b.Available(),
		InTransitOut: b.InTransitOutBase,
		InTransitIn:  b.InTransitInBase,
		Version:      b.Version,
	}
	if !b.UpdatedAt.IsZero() {
		t := b.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

func toVerifyResponse(drifts []inventory.Drift) dto.VerifyResponse {
	out := dto.VerifyResponse{Consistent: len(drifts) == 0, Drifts: make([]dto.DriftResponse, 0, len(drifts))}
	for _, d := range drifts {
		out.Drifts = append(out.Drifts, dto.DriftResponse{
			ItemID:     d.Key.ItemID,
			SiteID:     d.Key.SiteID,
			LocationID: d.Key.LocationID,
			Stored:     toBalanceResponse(d.Stored),
			Replayed:   toBalanceResponse(d.Replayed),
		})
	}
	return out
}

func toSalesOrderResponse(o *entity.SalesOrder) dto.SalesOrderResponse {
	out := dto.SalesOrderResponse{
		ID:           o.ID,
		SiteID:       o.SiteID,
		Number:       o.Number,
		Status:       o.Status.String(),
		PickTaskID:   o.PickTaskID,
		CancelReason: o.CancelReason,
		Version:      o.Version,
		Lines:        make([]dto.SalesOrderLineResponse, 0, len(o.Lines)),
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
	for _, l := range o.Lines {
		out.Lines = append(out.Lines, dto.SalesOrderLineResponse{
			ID:           l.ID,
			LineNumber:   l.LineNumber,
			ItemID:       l.ItemID,
			QtyOrdered:   l.QtyOrderedBase,
			QtyAllocated: l.QtyAllocatedBase,
			QtyPicked:    l.QtyPickedBase,
			QtyShipped:   l.QtyShippedBase,
		})
	}
	return out
}

func toAllocationResponse(r *allocation.Result) dto.AllocationResponse {
	out := dto.AllocationResponse{
		FullyAllocated: r.FullyAllocated,
		Shortfalls:     make([]dto.ShortfallResponse, 0, len(r.Shortfalls)),
		Order:          toSalesOrderResponse(r.Order),
	}
	for _, s := range r.Shortfalls {
		out.Shortfalls = append(out.Shortfalls, dto.ShortfallResponse{LineID: s.LineID, ShortQty: s.ShortQty})
	}
	return out
}

func toTransferResponse(t *entity.TransferOrder) dto.TransferResponse {
	out := dto.TransferResponse{
		ID:                     t.ID,
		SourceWarehouseID:      t.SourceWarehouseID,
		DestinationWarehouseID: t.DestinationWarehouseID,
		Status:                 t.Status.String(),
		Carrier:                t.Carrier,
		TrackingNumber:         t.TrackingNumber,
		CancelReason:           t.CancelReason,
		Outstanding:            t.Outstanding(),
		Lines:                  make([]dto.TransferLineResponse, 0, len(t.Lines)),
		CreatedAt:              t.CreatedAt,
		ShippedAt:              t.ShippedAt,
		ReceivedAt:             t.ReceivedAt,
	}
	for _, l := range t.Lines {
		out.Lines = append(out.Lines, dto.TransferLineResponse{
			ID:                l.ID,
			LineNumber:        l.LineNumber,
			ItemID:            l.ItemID,
			QuantityRequested: l.QuantityRequested,
			QuantityShipped:   l.QuantityShipped,
			QuantityReceived:  l.QuantityReceived,
			QuantityDamaged:   l.QuantityDamaged,
			QuantityReturned:  l.QuantityReturned,
			ShipLocationID:    l.ShipLocationID,
		})
	}
	return out
}

func toCycleCountLineResponse(l *entity.CycleCountLine) dto.CycleCountLineResponse {
	return dto.CycleCountLineResponse{
		ID:         l.ID,
		LineNumber: l.LineNumber,
		ItemID:     l.ItemID,
		LocationID: l.LocationID,
		Expected:   l.ExpectedQtyBase,
		Counted:    l.CountedQtyBase,
		Variance:   l.VarianceQtyBase,
		Status:     l.Status.String(),
		Adjusted:   l.Adjusted,
		CountedBy:  l.CountedBy,
		ApprovedBy: l.ApprovedBy,
	}
}

func toCycleCountResponse(c *entity.CycleCount) dto.CycleCountResponse {
	out := dto.CycleCountResponse{
		ID:          c.ID,
		SiteID:      c.SiteID,
		Status:      c.Status.String(),
		Lines:       make([]dto.CycleCountLineResponse, 0, len(c.Lines)),
		CreatedAt:   c.CreatedAt,
		CompletedAt: c.CompletedAt,
	}
	for _, l := range c.Lines {
		out.Lines = append(out.Lines, toCycleCountLineResponse(l))
	}
	return out
}
