package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereceipt/receipt-templater/internal/errors"
	"github.com/thereceipt/receipt-templater/internal/i18n"
	"github.com/thereceipt/receipt-templater/pkg/receiptformat"
)

func TestValidateTemplate(t *testing.T) {
	i18n.SetLanguage("en")
	defer i18n.SetLanguage(i18n.DefaultLanguage)

	tests := []struct {
		name     string
		raw      interface{}
		wantErr  bool
		wantUser string
	}{
		{"valid legacy", map[string]interface{}{"content": "x"}, false, ""},
		{"valid segments", map[string]interface{}{"segments": []interface{}{map[string]interface{}{"content": ""}}}, false, ""},
		{"nil", nil, true, "Template not found"},
		{"empty segments", map[string]interface{}{"segments": []interface{}{}}, true, "Template is empty, it has no segments"},
		{"bad segment numbered from one", map[string]interface{}{"segments": []interface{}{1.0}}, true, "Segment 1 has an invalid format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTemplate(tt.raw)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, errors.Structural, errors.CategoryOf(err))
			assert.Equal(t, tt.wantUser, errors.UserMessage(err))
		})
	}
}

func TestValidateParsed(t *testing.T) {
	ok := &receiptformat.Template{Segments: []receiptformat.Segment{{Content: "{a:if}x{a:endif}"}}}
	assert.NoError(t, ValidateParsed(ok))

	nested := &receiptformat.Template{Segments: []receiptformat.Segment{
		{Content: "fine"},
		{Content: "{a:if}{b:if}x{b:endif}{a:endif}"},
	}}
	err := ValidateParsed(nested)
	require.Error(t, err)
	assert.Equal(t, errors.Structural, errors.CategoryOf(err))

	var e *errors.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, 1, e.Details["segment"])

	assert.Error(t, ValidateParsed(&receiptformat.Template{Segments: []receiptformat.Segment{}}))
	assert.Error(t, ValidateParsed(nil))
}

func TestValidateData(t *testing.T) {
	record := map[string]interface{}{"id": "A1", "products": []interface{}{}, "notes": nil}

	assert.NoError(t, ValidateData(record, nil))
	assert.NoError(t, ValidateData(record, []string{"id", "products"}))

	err := ValidateData(record, []string{"id", "notes", "client"})
	require.Error(t, err)
	assert.Equal(t, errors.Data, errors.CategoryOf(err))
	assert.Contains(t, err.Error(), "notes, client")

	err = ValidateData("not a record", nil)
	require.Error(t, err)
	assert.Equal(t, errors.Data, errors.CategoryOf(err))

	var nilRecord map[string]interface{}
	assert.Error(t, ValidateData(nilRecord, nil))
}

func TestValidateConnectionTarget(t *testing.T) {
	tests := []struct {
		host  string
		valid bool
	}{
		{"192.168.1.100", true},
		{"10.0.0.1", true},
		{"255.255.255.255", true},
		{"0.0.0.0", true},
		{"", false},
		{"256.1.1.1", false},
		{"192.168.1", false},
		{"192.168.1.1.1", false},
		{"printer.local", false},
		{" 192.168.1.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			err := ValidateConnectionTarget(tt.host)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, errors.Data, errors.CategoryOf(err))
		})
	}
}
