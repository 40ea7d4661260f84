package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// NewRebuildCommand reescribe la proyección del tenant desde el libro.
func NewRebuildCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Reconstruir balances desde el libro",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireTenant(opts); err != nil {
				return err
			}
			ctx := cmd.Context()
			e, err := openEnv(ctx, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			n, err := e.ledger.Rebuild(ctx, opts.TenantID)
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]int{"balances": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d balances reconstruidos\n", n)
			return nil
		},
	}
}

func describe(b *entity.Balance) string {
	if b == nil {
		return "sin fila"
	}
	return fmt.Sprintf("on_hand=%s reserved=%s out=%s in=%s",
		b.OnHandBase, b.ReservedBase, b.InTransitOutBase, b.InTransitInBase)
}
