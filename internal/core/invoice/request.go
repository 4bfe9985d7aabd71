package invoice

import (
	"fmt"
)

// Final consumer identity sent on every request; no customer data is collected.
const (
	finalConsumerDocumentType   = "OTRO"
	finalConsumerDocumentNumber = "0"
	finalConsumerName           = "Consumidor Final"
	finalConsumerProvince       = "2"
	finalConsumerPaymentTerms   = "214"
	finalConsumerVATCondition   = "CF"
)

const (
	wireDateLayout      = "02/01/2006"
	wireCurrency        = "PES"
	wireOperationSale   = "V"
	wireUnitOfMeasure   = 7
	wireDefaultConcept  = "Venta"
	salesPointPadLength = 4
)

// PadSalesPoint formats the sales point with four zero-padded digits.
func PadSalesPoint(salesPoint int) string {
	return fmt.Sprintf("%0*d", salesPointPadLength, salesPoint)
}

// BuildRequest assembles the billing request for one line item. It has no side effects.
func BuildRequest(cfg Configuration, input FormInput, item LineItem) Request {
	wireDate := input.Date.Format(wireDateLayout)

	concept := cfg.Concept
	if concept == "" {
		concept = wireDefaultConcept
	}

	doc := RequestDocument{
		Date:         wireDate,
		Type:         cfg.DefaultDocumentType.WireName(),
		Operation:    wireOperationSale,
		SalesPoint:   PadSalesPoint(cfg.SalesPoint),
		Number:       nil,
		Currency:     wireCurrency,
		ExchangeRate: 1,
		Items: []RequestLine{
			{
				Quantity: 1,
				Product: RequestProduct{
					Description:           concept,
					UnitOfMeasure:         wireUnitOfMeasure,
					UnitPriceExcludingTax: WireDecimal{item.UnitPriceExcludingTax},
					TaxRate:               WireDecimal{item.TaxRate},
					UpdatesPrice:          "N",
				},
			},
		},
		Total: WireDecimal{input.Amount},
	}

	// Services must declare the billed period and a due date.
	if cfg.ActivityKind == ActivityServices {
		doc.PeriodFrom = wireDate
		doc.PeriodTo = wireDate
		doc.PaymentDue = wireDate
	}

	return Request{
		APIToken:  cfg.Credentials.APIToken,
		APIKey:    cfg.Credentials.APIKey,
		UserToken: cfg.Credentials.UserToken,
		Client: RequestClient{
			DocumentType:   finalConsumerDocumentType,
			DocumentNumber: finalConsumerDocumentNumber,
			Name:           finalConsumerName,
			Province:       finalConsumerProvince,
			SendByEmail:    "N",
			PaymentTerms:   finalConsumerPaymentTerms,
			VATCondition:   finalConsumerVATCondition,
		},
		Document: doc,
	}
}
