package dto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
)

func TestPageRequest_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   dto.PageRequest
		def  int
		want dto.PageRequest
	}{
		{"vacía toma el límite por defecto", dto.PageRequest{}, dto.DefaultMovementLimit, dto.PageRequest{Limit: 100}},
		{"se acota al máximo", dto.PageRequest{Limit: 10000, Offset: 5}, dto.DefaultPageLimit, dto.PageRequest{Limit: dto.MaxPageLimit, Offset: 5}},
		{"offset negativo pasa a cero", dto.PageRequest{Limit: 7, Offset: -3}, dto.DefaultPageLimit, dto.PageRequest{Limit: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize(tt.def)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, dto.PageResponse{Limit: tt.want.Limit, Offset: tt.want.Offset}, got.Echo())
		})
	}
}
