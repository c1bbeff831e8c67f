package textract

import (
	"fmt"
	"log/slog"
	"strings"

	"cloudexpense/internal/core"
)

// Field type tags emitted by the analysis service.
const (
	fieldItem       = "ITEM"
	fieldPrice      = "PRICE"
	fieldTotal      = "TOTAL"
	fieldAmountPaid = "AMOUNT_PAID"
	fieldDate       = "INVOICE_RECEIPT_DATE"
	fieldTaxPayerID = "TAX_PAYER_ID"
	fieldVATNumber  = "VENDOR_VAT_NUMBER"
	fieldOther      = "OTHER"
)

// Items flattens the nested line-item groups into core.LineItem rows.
// A row is emitted only when a group contains both an item name and a
// parseable price; anything else is skipped silently (the service output
// is noisy and partial groups are expected, not errors).
func Items(docs []Document) []core.LineItem {
	var items []core.LineItem
	for _, doc := range docs {
		for _, group := range doc.ExpenseDocument.LineItemGroups {
			for _, line := range group.LineItems {
				var name string
				var cost float64
				var haveCost bool
				for _, f := range line.LineItemExpenseFields {
					switch f.Type.Text {
					case fieldItem:
						name = f.ValueDetection.Text
					case fieldPrice:
						v, err := core.ParsePrice(f.ValueDetection.Text)
						if err != nil {
							slog.Debug("Skipping unparseable price",
								"text", f.ValueDetection.Text, "error", err)
							continue
						}
						cost = v
						haveCost = true
					}
				}
				item := core.LineItem{Name: name, Cost: cost}
				if haveCost && item.Validate() == nil {
					items = append(items, item)
				}
			}
		}
	}
	return items
}

// Summary extracts the informational rows and a best-effort map of tax
// candidates ("Tax 1", "Tax 2", ... -> raw detected text).
//
// Tax detection sniffs OTHER fields for a percent sign in the label or
// value text. It is a suggestion only: callers must let the user confirm
// or replace every candidate before treating it as a rate.
func Summary(docs []Document) ([]core.SummaryField, map[string]string) {
	var fields []core.SummaryField
	candidates := make(map[string]string)

	named := map[string]string{
		fieldTotal:      "Total",
		fieldAmountPaid: "Amount Paid",
		fieldDate:       "Invoice Receipt Date",
		fieldTaxPayerID: "Tax Payer ID",
		fieldVATNumber:  "Vendor VAT Number",
	}

	for _, doc := range docs {
		for _, f := range doc.ExpenseDocument.SummaryFields {
			if label, ok := named[f.Type.Text]; ok {
				fields = append(fields, core.SummaryField{Label: label, Value: f.ValueDetection.Text})
				continue
			}
			if f.Type.Text != fieldOther {
				continue
			}

			labelText := f.LabelDetection.Text
			valueText := f.ValueDetection.Text
			if strings.Contains(labelText, "%") {
				candidates[fmt.Sprintf("Tax %d", len(candidates)+1)] = labelText
			} else if strings.Contains(valueText, "%") {
				candidates[fmt.Sprintf("Tax %d", len(candidates)+1)] = valueText
			}

			switch {
			case strings.Contains(labelText, "CASHIER NAME"):
				fields = append(fields, core.SummaryField{Label: "Cashier Name", Value: valueText})
			case strings.Contains(labelText, "CASHIER"):
				fields = append(fields, core.SummaryField{Label: "Cashier", Value: valueText})
			case strings.Contains(labelText, "TIME"):
				fields = append(fields, core.SummaryField{Label: "Time", Value: valueText})
			}
		}
	}

	return fields, candidates
}
