package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	"3tcapital/ms_facturacion_ar/internal/core/invoice"
)

// emitRequest is the body of POST /api/v1/invoices. Amount accepts a JSON
// string or number; date is YYYY-MM-DD.
type emitRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Date   string           `json:"date"`
}

type backfillRequest struct {
	PDFURL string `json:"pdfUrl"`
}

// invoiceResponse renders calendar dates as YYYY-MM-DD and amounts as strings.
type invoiceResponse struct {
	ID                  string  `json:"id"`
	DocumentNumber      string  `json:"documentNumber"`
	AuthorizationCode   string  `json:"authorizationCode"`
	AuthorizationExpiry *string `json:"authorizationExpiry"`
	PDFURL              *string `json:"pdfUrl"`
	Amount              string  `json:"amount"`
	Date                string  `json:"date"`
	DocumentType        string  `json:"documentType"`
	SalesPoint          int     `json:"salesPoint"`
	TaxRatePercent      string  `json:"taxRatePercent"`
	CreatedAt           string  `json:"createdAt,omitempty"`
}

type listResponse struct {
	Total int               `json:"total"`
	Data  []invoiceResponse `json:"data"`
}

type typeTotalResponse struct {
	DocumentType string `json:"documentType"`
	Count        int    `json:"count"`
	Amount       string `json:"amount"`
}

type totalsResponse struct {
	From   string              `json:"from"`
	To     string              `json:"to"`
	Count  int                 `json:"count"`
	Amount string              `json:"amount"`
	ByType []typeTotalResponse `json:"byType"`
}

// persistenceErrorResponse tells the front-end the invoice exists at the
// regulator even though it was not stored, so it must not be resubmitted.
type persistenceErrorResponse struct {
	Message string          `json:"message"`
	Errors  []string        `json:"errors"`
	Code    string          `json:"code"`
	Issued  bool            `json:"issued"`
	Invoice invoiceResponse `json:"invoice"`
}

func toInvoiceResponse(inv invoice.EmittedInvoice) invoiceResponse {
	resp := invoiceResponse{
		ID:                inv.ID,
		DocumentNumber:    inv.DocumentNumber,
		AuthorizationCode: inv.AuthorizationCode,
		PDFURL:            inv.PDFURL,
		Amount:            inv.Amount.StringFixed(2),
		Date:              inv.Date.Format(invoice.DateLayout),
		DocumentType:      string(inv.DocumentType),
		SalesPoint:        inv.SalesPoint,
		TaxRatePercent:    inv.TaxRatePercent.String(),
	}
	if inv.AuthorizationExpiry != nil {
		expiry := inv.AuthorizationExpiry.Format(invoice.DateLayout)
		resp.AuthorizationExpiry = &expiry
	}
	if !inv.CreatedAt.IsZero() {
		resp.CreatedAt = inv.CreatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func toTotalsResponse(t invoice.PeriodTotals) totalsResponse {
	resp := totalsResponse{
		From:   t.Period.From.Format(invoice.DateLayout),
		To:     t.Period.To.Format(invoice.DateLayout),
		Count:  t.Count,
		Amount: t.Amount.StringFixed(2),
		ByType: make([]typeTotalResponse, 0, len(t.ByType)),
	}
	for _, bt := range t.ByType {
		resp.ByType = append(resp.ByType, typeTotalResponse{
			DocumentType: string(bt.DocumentType),
			Count:        bt.Count,
			Amount:       bt.Amount.StringFixed(2),
		})
	}
	return resp
}
