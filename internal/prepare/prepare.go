// Package prepare turns a raw order or service record into the flat context
// that templates are rendered against.
package prepare

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/thereceipt/receipt-templater/internal/i18n"
	"github.com/thereceipt/receipt-templater/internal/markup"
)

const (
	DateLayout    = "02.01.2006 15:04"
	DayLayout     = "02.01.2006"
	lineTemplate  = "%d. %s\n   %s x %s = %s %s\n"
	defaultLocal  = "uzs"
	defaultRemote = "usd"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// dateOnlyLayout is read as UTC midnight; zoneless date-times are read in
// the preparer's location.
const dateOnlyLayout = "2006-01-02"

// moneyFields are the record amount objects, keyed by currency code.
var moneyFields = []string{"total", "paid", "debt"}

// Options configures a Preparer.
type Options struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
	// Location is used to format timestamps. Defaults to time.Local.
	Location *time.Location
	// LocalCurrency is the currency of the unsuffixed amount keys.
	LocalCurrency string
	// ForeignCurrency is the second currency carried by amount objects.
	ForeignCurrency string
}

// Preparer derives display fields from data records.
type Preparer struct {
	now     func() time.Time
	loc     *time.Location
	local   string
	foreign string
	// suffix maps a currency code to its title-cased key suffix.
	suffix map[string]string
}

// New creates a Preparer.
func New(opts Options) *Preparer {
	p := &Preparer{
		now:     opts.Now,
		loc:     opts.Location,
		local:   strings.ToLower(opts.LocalCurrency),
		foreign: strings.ToLower(opts.ForeignCurrency),
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.loc == nil {
		p.loc = time.Local
	}
	if p.local == "" {
		p.local = defaultLocal
	}
	if p.foreign == "" {
		p.foreign = defaultRemote
	}
	title := cases.Title(language.Und)
	p.suffix = map[string]string{
		p.local:   title.String(p.local),
		p.foreign: title.String(p.foreign),
	}
	return p
}

// Prepare builds the flat context for record. Scalar record fields are
// copied first and derived fields overlay them.
func (p *Preparer) Prepare(record map[string]interface{}) markup.Context {
	ctx := markup.ContextFrom(record)
	now := p.now().In(p.loc)

	if t, ok := p.parseTime(record["createdAt"]); ok {
		ctx.SetString("date", t.In(p.loc).Format(DateLayout))
	} else {
		ctx.SetString("date", now.Format(DateLayout))
	}

	items := p.LineItems(record)
	if _, ok := record["products"].([]interface{}); ok {
		ctx.SetString("products", p.formatItems(items))
	}
	ctx.Set("productCount", markup.Number(float64(len(items))))

	ctx.SetString("branchName", nestedString(record, "branch", "name", i18n.T("label.branch")))
	ctx.SetString("client", clientLine(record))

	for _, field := range moneyFields {
		amounts, _ := record[field+"Amount"].(map[string]interface{})
		for _, cur := range []string{p.local, p.foreign} {
			n, _ := toFloat(amounts[cur])
			ctx.SetString(field+p.suffix[cur], FormatAmount(n))
			if field == "debt" {
				ctx.SetBool("hasDebt"+p.suffix[cur], n > 0)
			}
		}
		local, _ := toFloat(amounts[p.local])
		ctx.SetString(field, FormatAmount(local))
		if field == "debt" {
			ctx.SetBool("hasDebt", local > 0)
		}
	}

	notes, _ := record["notes"].(string)
	notes = strings.TrimSpace(notes)
	ctx.SetString("notes", notes)
	ctx.SetBool("hasNotes", notes != "")

	if t, ok := p.parseTime(record["returnDate"]); ok {
		ctx.SetString("returnDate", t.In(p.loc).Format(DayLayout))
		ctx.SetBool("hasReturnDate", true)
	} else {
		ctx.SetBool("hasReturnDate", false)
	}

	if s, ok := record["status"].(string); ok {
		ctx.SetString("status", translateEnum("status", s))
	}
	if s, ok := record["paymentType"].(string); ok {
		ctx.SetString("paymentType", translateEnum("payment", s))
	}

	ctx.Set("currentYear", markup.Number(float64(now.Year())))
	return ctx
}

// LineItems normalizes the record's products list. Missing quantities
// count as 1 and missing prices as 0.
func (p *Preparer) LineItems(record map[string]interface{}) []LineItem {
	raw, _ := record["products"].([]interface{})
	items := make([]LineItem, 0, len(raw))
	for _, r := range raw {
		m, _ := r.(map[string]interface{})
		if m == nil {
			m = map[string]interface{}{}
		}
		item := LineItem{
			Name:     ResolveProductName(m),
			Quantity: 1,
			Currency: strings.ToUpper(p.local),
		}
		if q, ok := toFloat(m["quantity"]); ok {
			item.Quantity = q
		}
		if v, ok := toFloat(m["price"]); ok {
			item.Price = v
		}
		if c, ok := m["currency"].(string); ok && c != "" {
			item.Currency = c
		}
		items = append(items, item)
	}
	return items
}

func (p *Preparer) formatItems(items []LineItem) string {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, lineTemplate,
			i+1,
			item.Name.Value,
			FormatNumber(item.Quantity),
			FormatAmount(item.Price),
			FormatAmount(item.Total()),
			item.Currency,
		)
	}
	return b.String()
}

func clientLine(record map[string]interface{}) string {
	c, _ := record["client"].(map[string]interface{})
	name, _ := c["name"].(string)
	phone, _ := c["phone"].(string)
	switch {
	case name != "" && phone != "":
		return fmt.Sprintf("%s (%s)", name, phone)
	case name != "":
		return name
	case phone != "":
		return phone
	}
	return i18n.T("label.client_unknown")
}

func nestedString(record map[string]interface{}, object, field, fallback string) string {
	if m, ok := record[object].(map[string]interface{}); ok {
		if s, ok := m[field].(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

func translateEnum(prefix, value string) string {
	key := prefix + "." + strings.ToLower(value)
	if i18n.Has(key) {
		return i18n.T(key)
	}
	return value
}

// parseTime accepts RFC 3339 style strings and epoch milliseconds.
func (p *Preparer) parseTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		for _, layout := range timestampLayouts {
			loc := p.loc
			if layout == dateOnlyLayout {
				loc = time.UTC
			}
			if ts, err := time.ParseInLocation(layout, t, loc); err == nil {
				return ts, true
			}
		}
	default:
		if ms, ok := toFloat(v); ok && ms > 0 {
			return time.UnixMilli(int64(ms)), true
		}
	}
	return time.Time{}, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case nil:
		return 0, false
	}
	val, ok := markup.ValueOf(v)
	if !ok || val.Kind() != markup.KindNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(val.String(), 64)
	return f, err == nil
}
