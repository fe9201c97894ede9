// Package whatsapp normalizes phone numbers and builds wa.me deep links,
// including pre-filled order messages for public menus.
package whatsapp

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	linkBase = "https://wa.me/"

	// Morocco: local numbers are 10 digits with a trunk 0 (06XXXXXXXX).
	moroccoCountryCode = "212"
	moroccoLocalLength = 10
)

// NormalizePhone keeps only digits and rewrites Moroccan local numbers to
// international form. A leading 00 international prefix is dropped. It never
// fails: malformed input yields whatever digits it contained.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if strings.HasPrefix(digits, "00") {
		return digits[2:]
	}
	if len(digits) == moroccoLocalLength && digits[0] == '0' {
		return moroccoCountryCode + digits[1:]
	}
	return digits
}

// Link returns a wa.me URL for phone, with message pre-filled when non-empty.
func Link(phone, message string) string {
	link := linkBase + NormalizePhone(phone)
	if message == "" {
		return link
	}
	return link + "?text=" + encodeText(message)
}

// uriComponent maps url.QueryEscape output onto encodeURIComponent: spaces
// are %20 and !'()* stay literal.
var uriComponent = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeText escapes a message the way the web app builds the same links.
func encodeText(s string) string {
	return uriComponent.Replace(url.QueryEscape(s))
}

// ContactMessage is the greeting pre-filled on a restaurant's contact link.
func ContactMessage(restaurant string) string {
	return fmt.Sprintf("Hello %s! I found your menu on MenuHub and have a question.", restaurant)
}

// OrderLine is one item of a WhatsApp order.
type OrderLine struct {
	Name           string
	Quantity       int
	UnitPriceCents int64
}

// Order is the content of a pre-filled order message.
type Order struct {
	Restaurant string
	Table      string
	Currency   string
	Note       string
	Lines      []OrderLine
}

// TotalCents sums quantity times unit price over all lines.
func (o Order) TotalCents() int64 {
	var total int64
	for _, l := range o.Lines {
		total += int64(l.Quantity) * l.UnitPriceCents
	}
	return total
}

// Message renders the order as plain text, one line per item.
func (o Order) Message() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s! I would like to order:\n", o.Restaurant)
	for _, l := range o.Lines {
		fmt.Fprintf(&b, "- %d x %s (%s)\n", l.Quantity, l.Name, FormatPrice(int64(l.Quantity)*l.UnitPriceCents, o.Currency))
	}
	fmt.Fprintf(&b, "Total: %s", FormatPrice(o.TotalCents(), o.Currency))
	if o.Table != "" {
		fmt.Fprintf(&b, "\nTable: %s", o.Table)
	}
	if o.Note != "" {
		fmt.Fprintf(&b, "\nNote: %s", o.Note)
	}
	return b.String()
}

// FormatPrice renders cents as "12.50 MAD".
func FormatPrice(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	s := fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
	if currency == "" {
		return s
	}
	return s + " " + currency
}
