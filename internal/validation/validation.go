// Package validation runs the structural checks that must pass before a
// template is rendered or a printer is contacted.
package validation

import (
	stderrors "errors"
	"regexp"
	"strings"

	"github.com/thereceipt/receipt-templater/internal/errors"
	"github.com/thereceipt/receipt-templater/internal/markup"
	"github.com/thereceipt/receipt-templater/pkg/receiptformat"
)

var ipv4Pattern = regexp.MustCompile(`^(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`)

// ValidateTemplate checks an untyped template document.
func ValidateTemplate(raw interface{}) error {
	if err := receiptformat.ValidateDocument(raw); err != nil {
		return fromFormatError(err)
	}
	return nil
}

// ValidateParsed checks a typed template, including that no segment opens
// a conditional block inside another one.
func ValidateParsed(t *receiptformat.Template) error {
	if err := receiptformat.Validate(t); err != nil {
		return fromFormatError(err)
	}
	for i, seg := range t.EffectiveSegments() {
		if err := markup.CheckBlocks(seg.Content); err != nil {
			return errors.Wrapf(err, errors.Structural, "Segment %d has nested conditional blocks", i).
				WithUser("template.nested_blocks", i+1).
				WithDetail("segment", i)
		}
	}
	return nil
}

func fromFormatError(err error) error {
	var fe *receiptformat.FormatError
	if !stderrors.As(err, &fe) {
		return errors.Wrap(err, errors.Structural, "invalid template")
	}
	e := errors.New(errors.Structural, fe.Msg)
	if fe.Segment >= 0 {
		return e.WithUser(fe.Code, fe.Segment+1).WithDetail("segment", fe.Segment)
	}
	return e.WithUser(fe.Code)
}

// ValidateData checks that data is a record and that every required field
// is present and non-nil.
func ValidateData(data interface{}, required []string) error {
	record, ok := data.(map[string]interface{})
	if !ok || record == nil {
		return errors.New(errors.Data, "Template data is null or not an object").WithUser("data.not_object")
	}

	var missing []string
	for _, field := range required {
		if v, ok := record[field]; !ok || v == nil {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		list := strings.Join(missing, ", ")
		return errors.Newf(errors.Data, "Missing required fields: %s", list).
			WithUser("data.missing_fields", list).
			WithDetail("missing", missing)
	}
	return nil
}

// ValidateConnectionTarget checks the printer address is a dotted-quad
// IPv4 address.
func ValidateConnectionTarget(host string) error {
	if host == "" {
		return errors.New(errors.Data, "Printer IP not found in settings").WithUser("printer.ip_missing")
	}
	if !ipv4Pattern.MatchString(host) {
		return errors.Newf(errors.Data, "Invalid IP address format: %s", host).WithUser("printer.ip_invalid")
	}
	return nil
}
