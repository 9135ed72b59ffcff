package templatestore

import "github.com/thereceipt/receipt-templater/pkg/receiptformat"

// Template is the stored template type.
type Template = receiptformat.Template
