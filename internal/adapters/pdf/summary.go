// Package pdf renders the one-page printable summary of an issued invoice.
// It is a local fallback for when the billing API did not return its own PDF.
package pdf

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"3tcapital/ms_facturacion_ar/internal/core/invoice"
)

const dateLayout = "02/01/2006"

var (
	colorPrimary = &props.Color{Red: 20, Green: 60, Blue: 110}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// SummaryRenderer implements invoice.SummaryRenderer with maroto.
type SummaryRenderer struct{}

func NewSummaryRenderer() *SummaryRenderer { return &SummaryRenderer{} }

// RenderSummary returns the PDF bytes of the summary.
func (r *SummaryRenderer) RenderSummary(inv invoice.EmittedInvoice, issuer invoice.Configuration) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).WithRightMargin(15).
		WithTopMargin(15).WithBottomMargin(15).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 10}).
		WithTitle("Resumen de comprobante", true).
		WithAuthor(issuer.LegalName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(inv, issuer))
	m.AddRows(line.NewRow(2, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(issuerRow(inv))
	m.AddRows(line.NewRow(2, props.Line{Color: colorGray, Thickness: 0.2}))
	m.AddRows(detailRows(inv, issuer)...)
	m.AddRows(line.NewRow(2, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(authorizationRow(inv))
	m.AddRows(footerRow())

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate summary pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(inv invoice.EmittedInvoice, issuer invoice.Configuration) core.Row {
	return row.New(22).Add(
		col.New(7).Add(
			text.New(issuer.LegalName, props.Text{Style: fontstyle.Bold, Size: 14, Color: colorPrimary, Top: 1}),
			text.New("CUIT: "+formatTaxID(issuer.TaxID), props.Text{Size: 9, Top: 10, Color: colorGray}),
		),
		col.New(5).Add(
			text.New(inv.DocumentType.WireName(), props.Text{Style: fontstyle.Bold, Size: 11, Align: align.Right, Color: colorPrimary, Top: 1}),
			text.New("N° "+nonEmpty(inv.DocumentNumber, "-"), props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 8}),
			text.New("Fecha: "+inv.Date.Format(dateLayout), props.Text{Size: 9, Align: align.Right, Top: 15, Color: colorGray}),
		),
	)
}

// issuerRow reads the sales point from the invoice; the configuration may
// have changed since it was issued.
func issuerRow(inv invoice.EmittedInvoice) core.Row {
	return row.New(10).Add(
		col.New(6).Add(
			text.New(salesPointLabel(inv), props.Text{Size: 9, Top: 2}),
		),
		col.New(6).Add(
			text.New("Receptor: Consumidor Final", props.Text{Size: 9, Top: 2, Align: align.Right}),
		),
	)
}

// detailRows shows the single line; type C documents carry no VAT breakdown.
func detailRows(inv invoice.EmittedInvoice, issuer invoice.Configuration) []core.Row {
	rows := []core.Row{
		row.New(8).Add(
			col.New(8).Add(text.New("Concepto", props.Text{Style: fontstyle.Bold, Size: 9, Top: 2})),
			col.New(4).Add(text.New("Importe", props.Text{Style: fontstyle.Bold, Size: 9, Top: 2, Align: align.Right})),
		),
		row.New(8).Add(
			col.New(8).Add(text.New(nonEmpty(issuer.Concept, "-"), props.Text{Size: 9, Top: 1})),
			col.New(4).Add(text.New(formatMoney(inv.Amount), props.Text{Size: 9, Top: 1, Align: align.Right})),
		),
	}

	if vat, ok := vatBreakdown(inv); ok {
		rows = append(rows,
			amountRow("Neto gravado", formatMoney(vat.net), false),
			amountRow(vat.label, formatMoney(vat.tax), false),
		)
	}

	return append(rows, amountRow("TOTAL", formatMoney(inv.Amount), true))
}

func salesPointLabel(inv invoice.EmittedInvoice) string {
	return fmt.Sprintf("Punto de venta: %04d", inv.SalesPoint)
}

type vatLines struct {
	label    string
	net, tax decimal.Decimal
}

// vatBreakdown splits the total with the rate the invoice was issued at.
func vatBreakdown(inv invoice.EmittedInvoice) (vatLines, bool) {
	if inv.DocumentType.IsTypeC() {
		return vatLines{}, false
	}
	item, err := invoice.DeriveLineItem(inv.Amount, inv.TaxRatePercent, false)
	if err != nil {
		return vatLines{}, false
	}
	net := item.UnitPriceExcludingTax.Round(2)
	return vatLines{
		label: fmt.Sprintf("IVA %s%%", formatRate(inv.TaxRatePercent)),
		net:   net,
		tax:   inv.Amount.Sub(net),
	}, true
}

func amountRow(label, value string, bold bool) core.Row {
	style := fontstyle.Normal
	if bold {
		style = fontstyle.Bold
	}
	return row.New(7).Add(
		col.New(8).Add(text.New(label, props.Text{Style: style, Size: 9, Top: 1, Align: align.Right})),
		col.New(4).Add(text.New(value, props.Text{Style: style, Size: 9, Top: 1, Align: align.Right})),
	)
}

func authorizationRow(inv invoice.EmittedInvoice) core.Row {
	expiry := "-"
	if inv.AuthorizationExpiry != nil {
		expiry = inv.AuthorizationExpiry.Format(dateLayout)
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("CAE: "+nonEmpty(inv.AuthorizationCode, "-"), props.Text{Style: fontstyle.Bold, Size: 10, Top: 2}),
			text.New("Vencimiento CAE: "+expiry, props.Text{Size: 9, Top: 8, Color: colorGray}),
		),
	)
}

func footerRow() core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("Resumen generado localmente. No reemplaza al comprobante electrónico emitido.",
				props.Text{Size: 7, Top: 6, Color: colorGray, Align: align.Center}),
		),
	)
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
