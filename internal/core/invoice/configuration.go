package invoice

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ActivityKind is the taxpayer's principal activity. It decides how many days
// an invoice may be backdated.
type ActivityKind string

const (
	ActivityGoods    ActivityKind = "goods"
	ActivityServices ActivityKind = "services"
)

// Valid reports whether the activity is one of the known kinds.
func (a ActivityKind) Valid() bool {
	return a == ActivityGoods || a == ActivityServices
}

// DocumentType identifies the kind of electronic invoice to issue.
type DocumentType string

const (
	DocumentTypeB DocumentType = "INVOICE_B"
	DocumentTypeC DocumentType = "INVOICE_C"
)

// Valid reports whether the document type is supported.
func (d DocumentType) Valid() bool {
	return d == DocumentTypeB || d == DocumentTypeC
}

// IsTypeC reports whether the document carries no tax breakdown (monotax payers).
func (d DocumentType) IsTypeC() bool {
	return d == DocumentTypeC
}

// WireName returns the name the billing API expects in the document block.
func (d DocumentType) WireName() string {
	switch d {
	case DocumentTypeC:
		return "FACTURA C"
	default:
		return "FACTURA B"
	}
}

// Credentials authenticate the business against the billing API.
type Credentials struct {
	APIToken  string `json:"apiToken"`
	APIKey    string `json:"apiKey"`
	UserToken string `json:"userToken"`
}

// Configuration holds the business data required to emit invoices.
type Configuration struct {
	TaxID               string          `json:"taxId"`
	LegalName           string          `json:"legalName"`
	SalesPoint          int             `json:"salesPoint"`
	Concept             string          `json:"concept"`
	TaxRatePercent      decimal.Decimal `json:"taxRatePercent"`
	ActivityKind        ActivityKind    `json:"activityKind"`
	DefaultDocumentType DocumentType    `json:"defaultDocumentType"`
	Credentials         Credentials     `json:"credentials"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// TaxIDLength is the fixed length of an Argentine CUIT.
const TaxIDLength = 11

// MaxSalesPoint is the highest sales point number accepted.
const MaxSalesPoint = 99

// AllowedTaxRates lists the VAT percentages the billing API accepts.
var AllowedTaxRates = []decimal.Decimal{
	decimal.Zero,
	decimal.RequireFromString("2.5"),
	decimal.NewFromInt(5),
	decimal.RequireFromString("10.5"),
	decimal.NewFromInt(21),
	decimal.NewFromInt(27),
}

// IsAllowedTaxRate reports whether rate is one of AllowedTaxRates.
func IsAllowedTaxRate(rate decimal.Decimal) bool {
	for _, allowed := range AllowedTaxRates {
		if rate.Equal(allowed) {
			return true
		}
	}
	return false
}

// MissingFields returns the names of the identity and credential fields that
// are empty. An emission must not be attempted while any are missing.
func (c *Configuration) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(c.TaxID) == "" {
		missing = append(missing, "taxId")
	}
	if strings.TrimSpace(c.Credentials.APIToken) == "" {
		missing = append(missing, "apiToken")
	}
	if strings.TrimSpace(c.Credentials.APIKey) == "" {
		missing = append(missing, "apiKey")
	}
	if strings.TrimSpace(c.Credentials.UserToken) == "" {
		missing = append(missing, "userToken")
	}
	return missing
}

// CheckComplete returns a ConfigurationIncompleteError when MissingFields is not empty.
func (c *Configuration) CheckComplete() error {
	if missing := c.MissingFields(); len(missing) > 0 {
		return &ConfigurationIncompleteError{Fields: missing}
	}
	return nil
}

// Validate checks every field of the configuration, collecting all problems.
// It is used when the operator saves the configuration screen.
func (c *Configuration) Validate() []string {
	var problems []string

	taxID := strings.TrimSpace(c.TaxID)
	if len(taxID) != TaxIDLength || !isDigits(taxID) {
		problems = append(problems, "taxId debe tener 11 dígitos numéricos")
	}
	if strings.TrimSpace(c.LegalName) == "" {
		problems = append(problems, "legalName es requerido")
	}
	if c.SalesPoint < 1 || c.SalesPoint > MaxSalesPoint {
		problems = append(problems, "salesPoint debe estar entre 1 y 99")
	}
	if !IsAllowedTaxRate(c.TaxRatePercent) {
		problems = append(problems, "taxRatePercent no es una alícuota válida")
	}
	if !c.ActivityKind.Valid() {
		problems = append(problems, "activityKind debe ser 'goods' o 'services'")
	}
	if !c.DefaultDocumentType.Valid() {
		problems = append(problems, "defaultDocumentType debe ser 'INVOICE_B' o 'INVOICE_C'")
	}
	for _, field := range c.MissingFields() {
		if field == "taxId" {
			continue
		}
		problems = append(problems, field+" es requerido")
	}

	return problems
}

// Masked returns a copy with credentials reduced to their last four characters.
func (c Configuration) Masked() Configuration {
	c.Credentials = Credentials{
		APIToken:  maskSecret(c.Credentials.APIToken),
		APIKey:    maskSecret(c.Credentials.APIKey),
		UserToken: maskSecret(c.Credentials.UserToken),
	}
	return c
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
