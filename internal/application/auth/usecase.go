package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
	// HashCost costo de bcrypt; cero usa bcrypt.DefaultCost.
	HashCost int
}

// AuthUseCase casos de uso de autenticación: registro y login por tenant.
type AuthUseCase struct {
	ledger *ledger.Service
	jwtCfg JWTConfig
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(l *ledger.Service, jwtCfg JWTConfig) *AuthUseCase {
	if jwtCfg.HashCost == 0 {
		jwtCfg.HashCost = bcrypt.DefaultCost
	}
	return &AuthUseCase{ledger: l, jwtCfg: jwtCfg}
}

// RegisterUser crea un usuario en el tenant: hashea password con bcrypt y persiste.
// Devuelve domain.ErrDuplicate si el email ya existe en el tenant.
func (uc *AuthUseCase) RegisterUser(ctx context.Context, tenantID string, in dto.RegisterRequest) (*dto.UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if tenantID == "" || email == "" {
		return nil, domain.Validationf("tenant y email son obligatorios")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.Validationf("email inválido %q", in.Email)
	}
	if len(in.Password) < 8 {
		return nil, domain.Validationf("password debe tener al menos 8 caracteres")
	}
	role := in.Role
	if role == "" {
		role = entity.RoleVendedor
	}
	if !entity.ValidRole(role) {
		return nil, domain.Validationf("rol inválido %q", in.Role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), uc.jwtCfg.HashCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = email
	}
	user := &entity.User{
		ID:           uuid.New().String(),
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		Status:       entity.UserActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = uc.ledger.Transact(ctx, func(tx *ledger.Tx) error {
		return tx.Repos().Users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// Login verifica email/password, genera JWT y retorna token + usuario.
// Usuario inexistente y password incorrecto responden igual: domain.ErrUnauthorized.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	if in.TenantID == "" || in.Email == "" || in.Password == "" {
		return nil, domain.Validationf("tenant_id, email y password son requeridos")
	}
	user, err := uc.ledger.Read().Users.GetByEmail(ctx, in.TenantID, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if !user.Active() {
		return nil, domain.ErrForbidden
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.TenantID, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		User:  *toUserResponse(user),
	}, nil
}

// ListUsers lista usuarios del tenant.
func (uc *AuthUseCase) ListUsers(ctx context.Context, tenantID string, page dto.PageRequest) (*dto.UserListResponse, error) {
	page = page.Normalize(dto.DefaultPageLimit)
	list, err := uc.ledger.Read().Users.ListByTenant(ctx, tenantID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := &dto.UserListResponse{
		Items: make([]dto.UserResponse, 0, len(list)),
		Page:  page.Echo(),
	}
	for _, u := range list {
		out.Items = append(out.Items, *toUserResponse(u))
	}
	return out, nil
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		TenantID:  u.TenantID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
