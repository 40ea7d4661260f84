package cli

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jhoicas/Inventario-ledger/internal/application/adjustment"
)

// ImportOpeningOptions flags de import-opening.
type ImportOpeningOptions struct {
	*RootOptions
	File     string
	Encoding string
	BatchID  string
	UserID   string
}

// NewImportOpeningCommand importa saldos iniciales desde CSV en una sola transacción.
func NewImportOpeningCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOpeningOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import-opening",
		Short: "Importar saldos iniciales desde CSV",
		Long: `Carga saldos iniciales como ingresos con referencia OPENING_BALANCE.

Columnas: sku, site_id, location_code, quantity. Si una fila falla no se importa ninguna.

Ejemplos:
  ledgerctl import-opening --tenant <id> --file saldos.csv
  ledgerctl import-opening --tenant <id> --file saldos.csv --encoding windows-1252`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportOpening(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "ruta del CSV (obligatorio)")
	_ = cmd.MarkFlagRequired("file")
	cmd.Flags().StringVar(&opts.Encoding, "encoding", "utf-8", "codificación del archivo (utf-8|latin1|windows-1252)")
	cmd.Flags().StringVar(&opts.BatchID, "batch", "", "identificador del lote (por defecto un UUID)")
	cmd.Flags().StringVar(&opts.UserID, "user", "ledgerctl", "usuario que registra la carga")

	return cmd
}

func runImportOpening(cmd *cobra.Command, opts *ImportOpeningOptions) error {
	if err := requireTenant(opts.RootOptions); err != nil {
		return err
	}
	f, err := os.Open(opts.File)
	if err != nil {
		return err
	}
	defer f.Close()
	rows, err := ParseOpeningCSV(f, opts.Encoding)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("el archivo no tiene filas")
	}
	if opts.BatchID == "" {
		opts.BatchID = uuid.New().String()
	}

	ctx := cmd.Context()
	e, err := openEnv(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.Close()

	uc := adjustment.NewRegisterMovementUseCase(e.ledger, e.log.Zerolog())
	n, err := uc.ImportOpeningStock(ctx, opts.TenantID, opts.UserID, opts.BatchID, rows)
	if err != nil {
		return err
	}
	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), map[string]any{"batch_id": opts.BatchID, "rows": n})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "lote %s: %d filas importadas\n", opts.BatchID, n)
	return nil
}
