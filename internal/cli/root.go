package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/Inventario-ledger/internal/bootstrap"
	"github.com/jhoicas/Inventario-ledger/pkg/config"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
)

// RootOptions flags globales de ledgerctl.
type RootOptions struct {
	TenantID string
	Format   string // "text" | "json"

	// loadConfig permite inyectar configuración en tests.
	loadConfig func() (*config.Config, error)
}

// ValidFormats formatos de salida admitidos.
var ValidFormats = []string{"text", "json"}

// NewRootCommand arma ledgerctl con sus subcomandos.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{loadConfig: config.Load})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operación del libro de inventario",
		Long:  "Migraciones, verificación y reconstrucción de balances, saldos iniciales y usuarios.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("formato inválido %q: debe ser uno de %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.TenantID, "tenant", "", "tenant sobre el que operar")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "formato de salida (json|text)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewRebuildCommand(opts))
	cmd.AddCommand(NewImportOpeningCommand(opts))
	cmd.AddCommand(NewCreateUserCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// env recursos abiertos para un subcomando.
type env struct {
	cfg    *config.Config
	log    *logger.Logger
	store  *bootstrap.Store
	ledger *ledger.Service
}

func (e *env) Close() { e.store.Close() }

func openEnv(ctx context.Context, opts *RootOptions) (*env, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	store, err := bootstrap.OpenStore(ctx, cfg, log.Component("store"))
	if err != nil {
		return nil, err
	}
	l, err := bootstrap.NewLedger(store, cfg, log.Zerolog())
	if err != nil {
		store.Close()
		return nil, err
	}
	return &env{cfg: cfg, log: log, store: store, ledger: l}, nil
}

func requireTenant(opts *RootOptions) error {
	if opts.TenantID == "" {
		return fmt.Errorf("--tenant es obligatorio")
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
