package dto

// Límites de paginación compartidos por los listados.
const (
	DefaultPageLimit     = 20
	DefaultMovementLimit = 100
	MaxPageLimit         = 500
)

// PageRequest ventana limit/offset de un listado.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// Normalize usa def cuando Limit no es positivo, lo acota a MaxPageLimit y lleva
// Offset negativo a cero.
func (p PageRequest) Normalize(def int) PageRequest {
	if p.Limit <= 0 {
		p.Limit = def
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Echo devuelve la página efectiva para la respuesta.
func (p PageRequest) Echo() PageResponse {
	return PageResponse{Limit: p.Limit, Offset: p.Offset}
}

// PageResponse página aplicada en respuestas de listado.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
