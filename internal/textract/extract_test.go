package textract

import (
	"strings"
	"testing"
)

const sampleResult = `[
  {
    "ExpenseDocument": {
      "LineItemGroups": [
        {
          "LineItems": [
            {
              "LineItemExpenseFields": [
                {"Type": {"Text": "ITEM"}, "ValueDetection": {"Text": "Milk"}},
                {"Type": {"Text": "PRICE"}, "ValueDetection": {"Text": "$12.50 USD"}}
              ]
            },
            {
              "LineItemExpenseFields": [
                {"Type": {"Text": "ITEM"}, "ValueDetection": {"Text": "Mystery"}},
                {"Type": {"Text": "PRICE"}, "ValueDetection": {"Text": "N/A"}}
              ]
            },
            {
              "LineItemExpenseFields": [
                {"Type": {"Text": "PRICE"}, "ValueDetection": {"Text": "3.00"}}
              ]
            },
            {
              "LineItemExpenseFields": [
                {"Type": {"Text": "ITEM"}, "ValueDetection": {"Text": "Bread"}},
                {"Type": {"Text": "PRICE"}, "ValueDetection": {"Text": "2.10"}}
              ]
            }
          ]
        }
      ],
      "SummaryFields": [
        {"Type": {"Text": "TOTAL"}, "ValueDetection": {"Text": "14.60"}},
        {"Type": {"Text": "INVOICE_RECEIPT_DATE"}, "ValueDetection": {"Text": "2024-03-01"}},
        {"Type": {"Text": "OTHER"}, "LabelDetection": {"Text": "VAT 9%"}, "ValueDetection": {"Text": "1.05"}},
        {"Type": {"Text": "OTHER"}, "LabelDetection": {"Text": "BTW"}, "ValueDetection": {"Text": "21%"}},
        {"Type": {"Text": "OTHER"}, "LabelDetection": {"Text": "CASHIER"}, "ValueDetection": {"Text": "Dana"}},
        {"Type": {"Text": "OTHER"}, "LabelDetection": {"Text": "TIME"}, "ValueDetection": {"Text": "13:37"}},
        {"Type": {"Text": "OTHER"}, "LabelDetection": {"Text": "LOYALTY"}, "ValueDetection": {"Text": "12345"}}
      ]
    }
  }
]`

func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode(strings.NewReader("{not json")); err == nil {
		t.Fatal("expected decode error for malformed input")
	}
}

func TestItems(t *testing.T) {
	docs, err := Decode(strings.NewReader(sampleResult))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	items := Items(docs)
	if len(items) != 2 {
		t.Fatalf("expected 2 items (partial groups skipped), got %d: %v", len(items), items)
	}
	if items[0].Name != "Milk" || items[0].Cost != 12.50 {
		t.Fatalf("unexpected first item %+v", items[0])
	}
	if items[1].Name != "Bread" || items[1].Cost != 2.10 {
		t.Fatalf("unexpected second item %+v", items[1])
	}
}

func TestSummary(t *testing.T) {
	docs, err := Decode(strings.NewReader(sampleResult))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	fields, candidates := Summary(docs)

	wantFields := map[string]string{
		"Total":                "14.60",
		"Invoice Receipt Date": "2024-03-01",
		"Cashier":              "Dana",
		"Time":                 "13:37",
	}
	if len(fields) != len(wantFields) {
		t.Fatalf("expected %d summary fields, got %d: %v", len(wantFields), len(fields), fields)
	}
	for _, f := range fields {
		if wantFields[f.Label] != f.Value {
			t.Fatalf("summary field %q = %q, want %q", f.Label, f.Value, wantFields[f.Label])
		}
	}

	// Percent-bearing OTHER fields become sequentially named candidates:
	// label takes precedence over value.
	if len(candidates) != 2 {
		t.Fatalf("expected 2 tax candidates, got %v", candidates)
	}
	if candidates["Tax 1"] != "VAT 9%" {
		t.Fatalf("Tax 1 = %q, want %q", candidates["Tax 1"], "VAT 9%")
	}
	if candidates["Tax 2"] != "21%" {
		t.Fatalf("Tax 2 = %q, want %q", candidates["Tax 2"], "21%")
	}
}
