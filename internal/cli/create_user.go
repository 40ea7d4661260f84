package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Inventario-ledger/internal/application/auth"
	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// CreateUserOptions flags de create-user.
type CreateUserOptions struct {
	*RootOptions
	Email    string
	Password string
	Name     string
	Role     string
}

// NewCreateUserCommand crea un usuario directamente en el store; sirve para el primer admin del tenant.
func NewCreateUserCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateUserOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Crear un usuario del tenant",
		Long: `Crea un usuario sin pasar por la API. El primer administrador de un tenant se crea así.

Ejemplo:
  ledgerctl create-user --tenant <id> --email admin@empresa.co --password <clave> --role admin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireTenant(opts.RootOptions); err != nil {
				return err
			}
			ctx := cmd.Context()
			e, err := openEnv(ctx, opts.RootOptions)
			if err != nil {
				return err
			}
			defer e.Close()

			uc := auth.NewAuthUseCase(e.ledger, auth.JWTConfig{Secret: e.cfg.JWT.Secret, Issuer: e.cfg.JWT.Issuer})
			u, err := uc.RegisterUser(ctx, opts.TenantID, dto.RegisterRequest{
				Email: opts.Email, Password: opts.Password, Name: opts.Name, Role: opts.Role,
			})
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), u)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "usuario %s creado (%s, rol %s)\n", u.ID, u.Email, u.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "email del usuario (obligatorio)")
	_ = cmd.MarkFlagRequired("email")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password, mínimo 8 caracteres (obligatorio)")
	_ = cmd.MarkFlagRequired("password")
	cmd.Flags().StringVar(&opts.Name, "name", "", "nombre visible")
	cmd.Flags().StringVar(&opts.Role, "role", entity.RoleAdmin, "rol (admin|bodeguero|vendedor)")

	return cmd
}
