package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// ErrDriftDetected la proyección no coincide con el libro.
var ErrDriftDetected = errors.New("deriva detectada entre balances y libro")

// NewVerifyCommand compara la proyección almacenada contra el replay del libro.
func NewVerifyCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verificar balances contra el libro",
		Long: `Reproduce el libro del tenant y lo compara con los balances almacenados.

Termina con error si encuentra alguna diferencia; "rebuild" la corrige.`,
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

			drifts, err := e.ledger.Verify(ctx, opts.TenantID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.Format == "json" {
				type row struct {
					Item     string `json:"item_id"`
					Site     string `json:"site_id"`
					Location string `json:"location_id,omitempty"`
					Stored   string `json:"stored"`
					Replayed string `json:"replayed"`
				}
				rows := make([]row, 0, len(drifts))
				for _, d := range drifts {
					rows = append(rows, row{Item: d.Key.ItemID, Site: d.Key.SiteID, Location: d.Key.LocationID,
						Stored: describe(d.Stored), Replayed: describe(d.Replayed)})
				}
				if err := writeJSON(out, map[string]any{"consistent": len(drifts) == 0, "drifts": rows}); err != nil {
					return err
				}
			} else {
				for _, d := range drifts {
					fmt.Fprintf(out, "%s/%s/%s almacenado=[%s] libro=[%s]\n",
						d.Key.ItemID, d.Key.SiteID, d.Key.LocationID, describe(d.Stored), describe(d.Replayed))
				}
				if len(drifts) == 0 {
					fmt.Fprintln(out, "balances consistentes")
				}
			}
			if len(drifts) > 0 {
				return fmt.Errorf("%w: %d claves", ErrDriftDetected, len(drifts))
			}
			return nil
		},
	}
}
