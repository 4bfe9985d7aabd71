package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"3tcapital/ms_facturacion_ar/internal/core/invoice"
	ctxutil "3tcapital/ms_facturacion_ar/internal/infrastructure/context"
)

type emitOpts struct {
	*rootOpts
	amount string
	date   string
}

func emit(o *rootOpts) *emitOpts {
	return &emitOpts{rootOpts: o}
}

func (e *emitOpts) cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Emit one invoice from the command line and print the stored record",
		Args:  cobra.NoArgs,
		RunE:  e.runE,
	}

	flags := cmd.Flags()
	flags.StringVar(&e.amount, "amount", "", "Gross amount with VAT included, e.g. 1210.00")
	flags.StringVar(&e.date, "date", "", "Invoice date as YYYY-MM-DD (defaults to today)")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func (e *emitOpts) runE(cmd *cobra.Command, _ []string) error {
	amount, err := decimal.NewFromString(strings.TrimSpace(e.amount))
	if err != nil {
		return fmt.Errorf("invalid --amount %q: %w", e.amount, err)
	}

	date, err := e.resolveDate()
	if err != nil {
		return err
	}

	ctx, correlationID := ctxutil.EnsureCorrelationID(cmd.Context())

	pool, err := e.openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	a := e.wire(pool)
	defer a.close()

	inv, err := a.invoices.EmitInvoice(ctx, invoice.FormInput{Amount: amount, Date: date})
	if err != nil {
		var persistenceErr *invoice.PersistenceError
		if errors.As(err, &persistenceErr) {
			e.log.Error("Invoice issued but not stored",
				"correlation_id", correlationID,
				"document_number", persistenceErr.Invoice.DocumentNumber,
				"authorization_code", persistenceErr.Invoice.AuthorizationCode,
			)
		}
		return fmt.Errorf("emit invoice (correlation %s): %w", correlationID, err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(inv)
}

func (e *emitOpts) resolveDate() (time.Time, error) {
	if strings.TrimSpace(e.date) == "" {
		now := time.Now().In(e.cfg.Billing.Location())
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	date, err := time.Parse(invoice.DateLayout, strings.TrimSpace(e.date))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", e.date)
	}
	return date, nil
}
