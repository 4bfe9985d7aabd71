package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"3tcapital/ms_facturacion_ar/internal/infrastructure/config"
	"3tcapital/ms_facturacion_ar/internal/infrastructure/logger"
)

type rootOpts struct {
	cfg config.AppConfig
	log *slog.Logger
}

func root() *rootOpts {
	return &rootOpts{}
}

func (o *rootOpts) cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "facturador",
		Short:             "Emit Argentine electronic invoices through TusFacturas",
		SilenceUsage:      true,
		PersistentPreRunE: o.load,
	}

	cmd.AddCommand(serve(o).cmd())
	cmd.AddCommand(migrate(o).cmd())
	cmd.AddCommand(emit(o).cmd())

	return cmd
}

func (o *rootOpts) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	o.cfg = cfg
	o.log = logger.New(logger.Options{
		Service:     cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
		Level:       cfg.Log.Level,
		Output:      cmd.ErrOrStderr(),
	})
	return nil
}
