package invoice

import (
	"time"

	"github.com/shopspring/decimal"
)

// FormInput is what the operator submits for a single emission.
type FormInput struct {
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
}

// LineItem is the single line carried by every invoice.
type LineItem struct {
	UnitPriceExcludingTax decimal.Decimal
	TaxRate               decimal.Decimal
}

// WireDecimal is a decimal written as a bare JSON number with full precision.
type WireDecimal struct {
	decimal.Decimal
}

// MarshalJSON implements json.Marshaler.
func (d WireDecimal) MarshalJSON() ([]byte, error) {
	return []byte(d.String()), nil
}

// Request is the payload sent to the billing API.
type Request struct {
	APIToken  string          `json:"apitoken"`
	APIKey    string          `json:"apikey"`
	UserToken string          `json:"usertoken"`
	Client    RequestClient   `json:"cliente"`
	Document  RequestDocument `json:"comprobante"`
}

// RequestClient identifies the buyer. Emissions always target an anonymous
// final consumer.
type RequestClient struct {
	DocumentType   string `json:"documento_tipo"`
	DocumentNumber string `json:"documento_nro"`
	Name           string `json:"razon_social"`
	Email          string `json:"email"`
	Address        string `json:"domicilio"`
	Province       string `json:"provincia"`
	SendByEmail    string `json:"envia_por_mail"`
	PaymentTerms   string `json:"condicion_pago"`
	VATCondition   string `json:"condicion_iva"`
}

// RequestDocument is the document block of the billing request.
type RequestDocument struct {
	Date         string        `json:"fecha"`
	Type         string        `json:"tipo"`
	Operation    string        `json:"operacion"`
	SalesPoint   string        `json:"punto_venta"`
	Number       *string       `json:"numero"`
	Currency     string        `json:"moneda"`
	ExchangeRate int           `json:"cotizacion"`
	PeriodFrom   string        `json:"periodo_facturado_desde,omitempty"`
	PeriodTo     string        `json:"periodo_facturado_hasta,omitempty"`
	PaymentDue   string        `json:"fecha_vencimiento,omitempty"`
	Items        []RequestLine `json:"detalle"`
	Discount     WireDecimal   `json:"bonificacion"`
	Legend       string        `json:"leyenda_gral"`
	Total        WireDecimal   `json:"total"`
}

// RequestLine is one detail row of the document block.
type RequestLine struct {
	Quantity int            `json:"cantidad"`
	Product  RequestProduct `json:"producto"`
	Legend   string         `json:"leyenda"`
}

// RequestProduct describes the line's product or service.
type RequestProduct struct {
	Description           string      `json:"descripcion"`
	UnitOfMeasure         int         `json:"unidad_medida"`
	Code                  string      `json:"codigo"`
	UnitPriceExcludingTax WireDecimal `json:"precio_unitario_sin_iva"`
	TaxRate               WireDecimal `json:"alicuota"`
	UpdatesPrice          string      `json:"actualiza_precio"`
}

// RawResponse is the untouched reply from the billing API.
type RawResponse struct {
	StatusCode int
	Body       []byte
}

// EmittedInvoice is an invoice the billing API has issued.
type EmittedInvoice struct {
	ID                  string          `json:"id"`
	DocumentNumber      string          `json:"documentNumber"`
	AuthorizationCode   string          `json:"authorizationCode"`
	AuthorizationExpiry *time.Time      `json:"authorizationExpiry,omitempty"`
	PDFURL              *string         `json:"pdfUrl"`
	Amount              decimal.Decimal `json:"amount"`
	Date                time.Time       `json:"date"`
	DocumentType        DocumentType    `json:"documentType"`
	SalesPoint          int             `json:"salesPoint"`
	TaxRatePercent      decimal.Decimal `json:"taxRatePercent"`
	CreatedAt           time.Time       `json:"createdAt"`
}

// History page sizes.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// ListQuery filters the invoice history.
type ListQuery struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

// Period is an inclusive date range.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// TypeTotal aggregates invoices of one document type.
type TypeTotal struct {
	DocumentType DocumentType    `json:"documentType"`
	Count        int             `json:"count"`
	Amount       decimal.Decimal `json:"amount"`
}

// PeriodTotals aggregates all invoices in a period.
type PeriodTotals struct {
	Period Period          `json:"period"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
	ByType []TypeTotal     `json:"byType"`
}
