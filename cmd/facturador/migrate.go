package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"3tcapital/ms_facturacion_ar/internal/infrastructure/database"
)

type migrateOpts struct {
	*rootOpts
}

func migrate(o *rootOpts) *migrateOpts {
	return &migrateOpts{rootOpts: o}
}

func (m *migrateOpts) cmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE:  m.runE,
	}
}

func (m *migrateOpts) runE(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	pool, err := m.openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, m.log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
