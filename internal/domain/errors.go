package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound                = errors.New("recurso no encontrado")
	ErrDuplicate               = errors.New("recurso duplicado")
	ErrValidation              = errors.New("entrada inválida")
	ErrInvalidStateTransition  = errors.New("transición de estado no permitida")
	ErrInsufficientStock       = errors.New("stock insuficiente")
	ErrInsufficientReservation = errors.New("reserva insuficiente")
	ErrConcurrentModification  = errors.New("modificación concurrente, reintente")
	ErrUnauthorized            = errors.New("no autorizado")
	ErrForbidden               = errors.New("acceso denegado")
)

// Validationf envuelve ErrValidation con detalle legible.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// InvalidTransition envuelve ErrInvalidStateTransition indicando origen y destino.
func InvalidTransition(entity string, from, to fmt.Stringer) error {
	return fmt.Errorf("%w: %s %s -> %s", ErrInvalidStateTransition, entity, from, to)
}

// StockShortageError detalla un rechazo del proyector: la cantidad pedida supera lo disponible
// en la clave (item, sitio, ubicación). Se compara con errors.Is contra ErrInsufficientStock
// o ErrInsufficientReservation según Reservation.
type StockShortageError struct {
	ItemID      string
	SiteID      string
	LocationID  string
	Bucket      string
	Requested   decimal.Decimal
	Available   decimal.Decimal
	Reservation bool
}

func (e *StockShortageError) Error() string {
	loc := e.LocationID
	if loc == "" {
		loc = "en-tránsito"
	}
	kind := ErrInsufficientStock
	if e.Reservation {
		kind = ErrInsufficientReservation
	}
	return fmt.Sprintf("%s: item %s sitio %s ubicación %s (%s) solicitado %s disponible %s",
		kind, e.ItemID, e.SiteID, loc, e.Bucket, e.Requested, e.Available)
}

// Is permite errors.Is(err, ErrInsufficientStock / ErrInsufficientReservation).
func (e *StockShortageError) Is(target error) bool {
	if e.Reservation {
		return target == ErrInsufficientReservation
	}
	return target == ErrInsufficientStock
}
