package receiptformat

import (
	"fmt"
)

// Error codes reported by FormatError. They double as message catalog keys.
const (
	CodeMissing           = "template.missing"
	CodeNotObject         = "template.not_object"
	CodeSegmentsNotArray  = "template.segments_not_array"
	CodeSegmentsEmpty     = "template.segments_empty"
	CodeNoContent         = "template.no_content"
	CodeSegmentInvalid    = "segment.invalid"
	CodeContentNotString  = "segment.content_not_string"
	CodeSettingsNotObject = "segment.settings_not_object"
)

// FormatError describes a structurally invalid template document.
type FormatError struct {
	Code string
	// Segment is the zero-based segment index, or -1.
	Segment int
	Msg     string
}

func (e *FormatError) Error() string {
	return e.Msg
}

func formatErr(code, msg string) *FormatError {
	return &FormatError{Code: code, Segment: -1, Msg: msg}
}

func segmentErr(code string, index int, msg string) *FormatError {
	return &FormatError{Code: code, Segment: index, Msg: fmt.Sprintf("Segment %d %s", index, msg)}
}

// ValidateDocument checks the shape of a decoded, untyped template
// document (the result of unmarshalling JSON, YAML or TOML into an any).
func ValidateDocument(raw interface{}) error {
	if raw == nil {
		return formatErr(CodeMissing, "Template is null or undefined")
	}
	doc, ok := raw.(map[string]interface{})
	if !ok {
		return formatErr(CodeNotObject, "Template must be an object")
	}

	if present(doc["segments"]) {
		segs, ok := doc["segments"].([]interface{})
		if !ok {
			return formatErr(CodeSegmentsNotArray, "Template segments must be an array")
		}
		if len(segs) == 0 {
			return formatErr(CodeSegmentsEmpty, "Template segments array is empty")
		}
		for i, s := range segs {
			if err := validateSegment(s, i); err != nil {
				return err
			}
		}
		return nil
	}

	if content, _ := doc["content"].(string); content == "" {
		return formatErr(CodeNoContent, "Template has no segments or content")
	}
	return nil
}

func validateSegment(raw interface{}, index int) error {
	seg, ok := raw.(map[string]interface{})
	if !ok || seg == nil {
		return segmentErr(CodeSegmentInvalid, index, "is invalid")
	}
	if content, exists := seg["content"]; exists && content != nil {
		if _, ok := content.(string); !ok {
			return segmentErr(CodeContentNotString, index, "content must be a string")
		}
	}
	if settings, exists := seg["settings"]; exists && settings != nil {
		if _, ok := settings.(map[string]interface{}); !ok {
			return segmentErr(CodeSettingsNotObject, index, "settings must be an object")
		}
	}
	return nil
}

// present mirrors a truthiness check on an optional document field.
func present(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	return true
}

// Validate validates a typed Template.
func Validate(t *Template) error {
	if t == nil {
		return formatErr(CodeMissing, "Template is null or undefined")
	}
	if t.IsSegmented() {
		if len(t.Segments) == 0 {
			return formatErr(CodeSegmentsEmpty, "Template segments array is empty")
		}
		return nil
	}
	if t.Content == "" {
		return formatErr(CodeNoContent, "Template has no segments or content")
	}
	return nil
}
