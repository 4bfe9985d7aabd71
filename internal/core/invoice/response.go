package invoice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ResponseVariant tags which family of keys a successful reply used.
type ResponseVariant int

const (
	VariantUnknown ResponseVariant = iota
	// VariantNumero replies carry the document number under "numero".
	VariantNumero
	// VariantComprobante replies carry it under "comprobante_nro" or "nro_comprobante".
	VariantComprobante
)

func (v ResponseVariant) String() string {
	switch v {
	case VariantNumero:
		return "numero"
	case VariantComprobante:
		return "comprobante"
	default:
		return "unknown"
	}
}

type responseField int

const (
	fieldDocumentNumber responseField = iota
	fieldAuthorizationCode
	fieldAuthorizationExpiry
	fieldTicketURL
	fieldA4URL
	fieldErrorMessage
)

// responseKeys lists, per logical field, the alternate keys in priority order.
var responseKeys = map[responseField][]string{
	fieldDocumentNumber:      {"numero", "comprobante_nro", "nro_comprobante"},
	fieldAuthorizationCode:   {"cae", "CAE", "codigo_autorizacion"},
	fieldAuthorizationExpiry: {"vencimiento_cae", "cae_vencimiento", "fecha_vencimiento_cae"},
	fieldTicketURL:           {"comprobante_ticket_url", "ticket_url"},
	fieldA4URL:               {"comprobante_pdf_url", "pdf_url", "url_pdf"},
	fieldErrorMessage:        {"rta", "mensaje", "message"},
}

var errorListKeys = []string{"errores", "errors"}

const errorFlagKey = "error"

const genericEmissionMessage = "no se pudo emitir el comprobante"

var expiryLayouts = []string{"02/01/2006", "2006-01-02", "20060102"}

type responseBody map[string]any

// lookup returns the first present, non-empty value among the field's keys.
func (b responseBody) lookup(field responseField) (string, string) {
	for _, key := range responseKeys[field] {
		if value := stringValue(b[key]); value != "" {
			return value, key
		}
	}
	return "", ""
}

func (b responseBody) errorFlagged() bool {
	switch v := b[errorFlagKey].(type) {
	case bool:
		return v
	case string:
		switch strings.ToUpper(strings.TrimSpace(v)) {
		case "S", "SI", "TRUE", "1":
			return true
		}
	case json.Number:
		return v.String() != "0"
	}
	return false
}

func (b responseBody) errorMessages() []string {
	for _, key := range errorListKeys {
		list, ok := b[key].([]any)
		if !ok {
			continue
		}
		messages := make([]string, 0, len(list))
		for _, item := range list {
			if msg := stringValue(item); msg != "" {
				messages = append(messages, msg)
			}
		}
		if len(messages) > 0 {
			return messages
		}
	}
	return nil
}

// ParseResponse normalizes a billing API reply into an EmittedInvoice or an
// EmissionError. Only the fields the API provides are filled; amount, date,
// document type and sales point are set by the caller from the request.
func ParseResponse(raw RawResponse) (EmittedInvoice, error) {
	inv, _, err := parseResponse(raw)
	return inv, err
}

// ParseResponseVariant is ParseResponse also returning the detected variant.
func ParseResponseVariant(raw RawResponse) (EmittedInvoice, ResponseVariant, error) {
	return parseResponse(raw)
}

func parseResponse(raw RawResponse) (EmittedInvoice, ResponseVariant, error) {
	httpFailed := raw.StatusCode < 200 || raw.StatusCode > 299

	body, decodeErr := decodeBody(raw.Body)
	if decodeErr != nil {
		msg := genericEmissionMessage
		if httpFailed {
			msg = fmt.Sprintf("%s (HTTP %d)", genericEmissionMessage, raw.StatusCode)
		}
		return EmittedInvoice{}, VariantUnknown, &EmissionError{Message: msg, StatusCode: raw.StatusCode, Err: decodeErr}
	}

	number, numberKey := body.lookup(fieldDocumentNumber)
	cae, _ := body.lookup(fieldAuthorizationCode)
	cae = strings.TrimSpace(cae)

	hasSuccessSignal := cae != "" || number != ""
	if httpFailed || body.errorFlagged() || !hasSuccessSignal {
		return EmittedInvoice{}, VariantUnknown, &EmissionError{
			Message:    failureMessage(body, raw.StatusCode, httpFailed),
			StatusCode: raw.StatusCode,
		}
	}

	inv := EmittedInvoice{
		DocumentNumber:    strings.TrimSpace(number),
		AuthorizationCode: cae,
	}

	if expiry, _ := body.lookup(fieldAuthorizationExpiry); expiry != "" {
		if parsed, ok := parseExpiry(expiry); ok {
			inv.AuthorizationExpiry = &parsed
		}
	}

	pdfURL, _ := body.lookup(fieldTicketURL)
	if pdfURL == "" {
		pdfURL, _ = body.lookup(fieldA4URL)
	}
	if pdfURL = strings.TrimSpace(pdfURL); pdfURL != "" {
		inv.PDFURL = &pdfURL
	}

	variant := VariantUnknown
	switch numberKey {
	case "numero":
		variant = VariantNumero
	case "comprobante_nro", "nro_comprobante":
		variant = VariantComprobante
	}

	return inv, variant, nil
}

func decodeBody(data []byte) (responseBody, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("decode billing response: %w", err)
	}
	if body == nil {
		return nil, fmt.Errorf("decode billing response: empty body")
	}
	return responseBody(body), nil
}

func failureMessage(body responseBody, statusCode int, httpFailed bool) string {
	if messages := body.errorMessages(); len(messages) > 0 {
		return strings.Join(messages, ", ")
	}
	if msg, _ := body.lookup(fieldErrorMessage); msg != "" {
		return strings.TrimSpace(msg)
	}
	if httpFailed {
		return fmt.Sprintf("%s (HTTP %d)", genericEmissionMessage, statusCode)
	}
	return genericEmissionMessage
}

func parseExpiry(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case float64:
		return fmt.Sprintf("%v", val)
	default:
		return ""
	}
}
