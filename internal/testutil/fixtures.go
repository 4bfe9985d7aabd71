package testutil

import (
	"github.com/shopspring/decimal"

	"3tcapital/ms_facturacion_ar/internal/core/invoice"
)

// ValidConfiguration returns a complete configuration for a services taxpayer
// issuing type B invoices at 21% VAT from sales point 4.
func ValidConfiguration() invoice.Configuration {
	return invoice.Configuration{
		TaxID:               "20123456789",
		LegalName:           "Estudio Contable Sur",
		SalesPoint:          4,
		Concept:             "Honorarios profesionales",
		TaxRatePercent:      decimal.NewFromInt(21),
		ActivityKind:        invoice.ActivityServices,
		DefaultDocumentType: invoice.DocumentTypeB,
		Credentials: invoice.Credentials{
			APIToken:  "api-token-0001",
			APIKey:    "api-key-0002",
			UserToken: "user-token-0003",
		},
	}
}

// SuccessBody is a billing API reply for an authorized invoice.
const SuccessBody = `{
	"error": "N",
	"errores": [],
	"numero": "00004-00000123",
	"cae": "70123456789012",
	"vencimiento_cae": "25/10/2026",
	"comprobante_pdf_url": "https://billing.example.test/pdf/00004-00000123.pdf"
}`
