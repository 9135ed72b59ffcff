package prepare

import (
	"github.com/thereceipt/receipt-templater/internal/i18n"
)

// NameSource records where a line item's display name came from.
type NameSource int

const (
	// NameNested is a name or title inside a nested product object.
	NameNested NameSource = iota
	// NameString is a product field holding the name directly.
	NameString
	// NameField is the item's own name field.
	NameField
	// NameFallback is the generic item label.
	NameFallback
)

// ProductName is a resolved line item name.
type ProductName struct {
	Source NameSource
	Value  string
}

// ResolveProductName picks the display name for a line item, preferring a
// nested product object, then a string product field, then the item's name.
func ResolveProductName(item map[string]interface{}) ProductName {
	switch p := item["product"].(type) {
	case map[string]interface{}:
		for _, key := range []string{"name", "title"} {
			if s, ok := p[key].(string); ok && s != "" {
				return ProductName{Source: NameNested, Value: s}
			}
		}
	case string:
		if p != "" {
			return ProductName{Source: NameString, Value: p}
		}
	}
	if s, ok := item["name"].(string); ok && s != "" {
		return ProductName{Source: NameField, Value: s}
	}
	return ProductName{Source: NameFallback, Value: i18n.T("label.item")}
}

// LineItem is a normalized order line.
type LineItem struct {
	Name     ProductName
	Quantity float64
	Price    float64
	Currency string
}

// Total is quantity times unit price.
func (l LineItem) Total() float64 {
	return l.Quantity * l.Price
}
