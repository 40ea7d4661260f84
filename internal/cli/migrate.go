package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/postgres"
)

// NewMigrateCommand aplica las migraciones pendientes en PostgreSQL.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplicar migraciones pendientes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx, opts)
			if err != nil {
				return err
			}
			defer e.Close()
			if e.store.Pool == nil {
				return fmt.Errorf("migrate requiere STORE_DRIVER=postgres")
			}
			applied, err := postgres.Migrate(ctx, e.store.Pool, e.log.Component("migrate"))
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"applied": applied})
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "sin migraciones pendientes")
			}
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "aplicada %s\n", name)
			}
			return nil
		},
	}
}
