package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
)

func cand(id, code string, avail int64, received *time.Time) entity.AllocationCandidate {
	return entity.AllocationCandidate{LocationID: id, LocationCode: code, Available: decimal.NewFromInt(avail), OldestReceiptAt: received}
}

func ids(cs []entity.AllocationCandidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.LocationID
	}
	return out
}

func TestRankCandidates_Orden(t *testing.T) {
	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := old.Add(48 * time.Hour)

	tests := []struct {
		name      string
		cands     []entity.AllocationCandidate
		remaining int64
		fifo      bool
		want      []string
	}{
		{
			name:      "ubicación que cubre todo va primero",
			cands:     []entity.AllocationCandidate{cand("a", "A", 5, nil), cand("b", "B", 20, nil)},
			remaining: 10,
			want:      []string{"b", "a"},
		},
		{
			name:      "código ascendente como desempate",
			cands:     []entity.AllocationCandidate{cand("c", "C", 20, nil), cand("a", "A", 20, nil)},
			remaining: 10,
			want:      []string{"a", "c"},
		},
		{
			name:      "FIFO con lote antes del código",
			cands:     []entity.AllocationCandidate{cand("a", "A", 20, &recent), cand("b", "B", 20, &old)},
			remaining: 10,
			fifo:      true,
			want:      []string{"b", "a"},
		},
		{
			name:      "sin lote se ignora la antigüedad",
			cands:     []entity.AllocationCandidate{cand("a", "A", 20, &recent), cand("b", "B", 20, &old)},
			remaining: 10,
			want:      []string{"a", "b"},
		},
		{
			name:      "sin disponible se descarta",
			cands:     []entity.AllocationCandidate{cand("a", "A", 0, nil), cand("b", "B", 3, nil)},
			remaining: 10,
			want:      []string{"b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := inventory.RankCandidates(tt.cands, decimal.NewFromInt(tt.remaining), tt.fifo)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestPlanReservations_ReportaFaltante(t *testing.T) {
	ranked := []entity.AllocationCandidate{cand("a", "A", 15, nil), cand("b", "B", 10, nil)}
	plan, short := inventory.PlanReservations(ranked, decimal.NewFromInt(30))
	require.Len(t, plan, 2)
	assert.True(t, plan[0].Quantity.Equal(decimal.NewFromInt(15)))
	assert.True(t, plan[1].Quantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, short.Equal(decimal.NewFromInt(5)))
}
