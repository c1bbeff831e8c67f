// Package textract decodes receipt analysis results and extracts line
// items, summary rows and tax-rate candidates from them.
//
// The input shape mirrors what the upstream document-analysis service
// produces: an ordered list of documents, each holding nested line-item
// groups and summary fields. Fields carry a type tag plus detected text.
package textract

import (
	"encoding/json"
	"fmt"
	"io"
)

type (
	// Document is one analyzed receipt page.
	Document struct {
		ExpenseDocument ExpenseDocument `json:"ExpenseDocument"`
	}

	ExpenseDocument struct {
		LineItemGroups []LineItemGroup `json:"LineItemGroups"`
		SummaryFields  []Field         `json:"SummaryFields"`
	}

	LineItemGroup struct {
		LineItems []LineItem `json:"LineItems"`
	}

	LineItem struct {
		LineItemExpenseFields []Field `json:"LineItemExpenseFields"`
	}

	Field struct {
		Type           Detection `json:"Type"`
		LabelDetection Detection `json:"LabelDetection"`
		ValueDetection Detection `json:"ValueDetection"`
	}

	Detection struct {
		Text string `json:"Text"`
	}
)

// Decode reads an analysis result from r. A malformed payload is a hard
// error surfaced to the caller; the interactive flow halts until a valid
// result is supplied.
func Decode(r io.Reader) ([]Document, error) {
	var docs []Document
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, fmt.Errorf("decode analysis result: %w", err)
	}
	return docs, nil
}
