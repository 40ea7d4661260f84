package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind tipo cerrado de movimiento del libro de inventario.
type MovementKind uint8

const (
	MovementReceipt MovementKind = iota + 1
	MovementIssue
	MovementAllocate
	MovementDeallocate
	MovementTransferShip
	MovementTransferReceive
	MovementTransferDamage
	MovementCountAdjust
)

var movementKindNames = map[MovementKind]string{
	MovementReceipt:         "RECEIPT",
	MovementIssue:           "ISSUE",
	MovementAllocate:        "ALLOCATE",
	MovementDeallocate:      "DEALLOCATE",
	MovementTransferShip:    "TRANSFER_SHIP",
	MovementTransferReceive: "TRANSFER_RECEIVE",
	MovementTransferDamage:  "TRANSFER_DAMAGE",
	MovementCountAdjust:     "COUNT_ADJUST",
}

func (k MovementKind) String() string {
	if s, ok := movementKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("MovementKind(%d)", uint8(k))
}

// ParseMovementKind convierte el texto persistido en MovementKind.
func ParseMovementKind(s string) (MovementKind, error) {
	for k, name := range movementKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("tipo de movimiento desconocido %q", s)
}

// Bucket columna del balance a la que se imputa la cantidad firmada de un movimiento.
type Bucket uint8

const (
	BucketOnHand Bucket = iota + 1
	BucketReserved
	BucketInTransitOut
	BucketInTransitIn
)

var bucketNames = map[Bucket]string{
	BucketOnHand:       "ON_HAND",
	BucketReserved:     "RESERVED",
	BucketInTransitOut: "IN_TRANSIT_OUT",
	BucketInTransitIn:  "IN_TRANSIT_IN",
}

func (b Bucket) String() string {
	if s, ok := bucketNames[b]; ok {
		return s
	}
	return fmt.Sprintf("Bucket(%d)", uint8(b))
}

// ParseBucket convierte el texto persistido en Bucket.
func ParseBucket(s string) (Bucket, error) {
	for b, name := range bucketNames {
		if name == s {
			return b, nil
		}
	}
	return 0, fmt.Errorf("bucket desconocido %q", s)
}

// ReferenceType documento que origina un movimiento.
type ReferenceType string

const (
	RefSalesOrderLine    ReferenceType = "SALES_ORDER_LINE"
	RefTransferOrderLine ReferenceType = "TRANSFER_ORDER_LINE"
	RefCycleCountLine    ReferenceType = "CYCLE_COUNT_LINE"
	RefAdjustment        ReferenceType = "ADJUSTMENT"
	RefOpeningBalance    ReferenceType = "OPENING_BALANCE"
)

// MovementEntry registro inmutable del libro de movimientos (append-only).
// Nunca se actualiza ni se elimina; las correcciones son movimientos nuevos.
type MovementEntry struct {
	ID            string
	Sequence      int64 // orden de inserción, asignado por el store
	TenantID      string
	ItemID        string
	SiteID        string
	LocationID    *string // nil = bucket en tránsito del sitio
	Kind          MovementKind
	Bucket        Bucket
	QuantityBase  decimal.Decimal // firmada, en unidad base del item
	ReferenceType ReferenceType
	ReferenceID   string
	Reason        string
	CreatedAt     time.Time
	CreatedBy     string
}

// Key clave de balance que afecta el movimiento.
func (m *MovementEntry) Key() BalanceKey {
	return BalanceKey{
		TenantID:   m.TenantID,
		ItemID:     m.ItemID,
		SiteID:     m.SiteID,
		LocationID: derefLocation(m.LocationID),
	}
}

type signRule uint8

const (
	signPositive signRule = iota + 1
	signNegative
	signNonZero
)

// kindBuckets combinaciones (tipo, bucket) permitidas y el signo exigido.
var kindBuckets = map[MovementKind]map[Bucket]signRule{
	MovementReceipt:      {BucketOnHand: signPositive},
	MovementIssue:        {BucketOnHand: signNegative},
	MovementCountAdjust:  {BucketOnHand: signNonZero},
	MovementAllocate:     {BucketReserved: signPositive},
	MovementDeallocate:   {BucketReserved: signNegative},
	MovementTransferShip: {BucketOnHand: signNegative, BucketInTransitOut: signPositive, BucketInTransitIn: signPositive},
	MovementTransferReceive: {
		BucketOnHand: signPositive, BucketInTransitOut: signNegative, BucketInTransitIn: signNegative,
	},
	MovementTransferDamage: {BucketInTransitOut: signNegative, BucketInTransitIn: signNegative},
}

// Validate verifica la forma del movimiento antes de abrir la transacción.
func (m *MovementEntry) Validate() error {
	if m.TenantID == "" || m.ItemID == "" || m.SiteID == "" {
		return fmt.Errorf("tenant, item y sitio son obligatorios")
	}
	buckets, ok := kindBuckets[m.Kind]
	if !ok {
		return fmt.Errorf("tipo de movimiento inválido %s", m.Kind)
	}
	rule, ok := buckets[m.Bucket]
	if !ok {
		return fmt.Errorf("%s no admite el bucket %s", m.Kind, m.Bucket)
	}
	switch rule {
	case signPositive:
		if !m.QuantityBase.IsPositive() {
			return fmt.Errorf("%s/%s exige cantidad positiva", m.Kind, m.Bucket)
		}
	case signNegative:
		if !m.QuantityBase.IsNegative() {
			return fmt.Errorf("%s/%s exige cantidad negativa", m.Kind, m.Bucket)
		}
	case signNonZero:
		if m.QuantityBase.IsZero() {
			return fmt.Errorf("%s exige cantidad distinta de cero", m.Kind)
		}
	}
	hasLocation := m.LocationID != nil && *m.LocationID != ""
	if m.Bucket == BucketInTransitIn && hasLocation {
		return fmt.Errorf("IN_TRANSIT_IN se registra en el bucket en tránsito (sin ubicación)")
	}
	if m.Bucket != BucketInTransitIn && !hasLocation {
		return fmt.Errorf("%s/%s exige ubicación", m.Kind, m.Bucket)
	}
	if m.ReferenceType == "" || m.ReferenceID == "" {
		return fmt.Errorf("referencia obligatoria")
	}
	return nil
}

func derefLocation(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
