// Package reference builds human-facing business identifiers.
package reference

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const (
	PrefixOrder   = "ORD"
	PrefixInvoice = "INV"
	PrefixPayment = "PAY"
	PrefixStock   = "STK"
)

var variantAttributes = map[string]struct{}{
	"color": {}, "colour": {}, "size": {}, "variant": {}, "model": {}, "type": {},
}

type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Generate returns PREFIX_<unix millis>_<6 random upper-case chars>.
func Generate(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return prefix + "_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix
}

// SKU derives a stock keeping unit from the item name, model number and the
// first variant-like attribute, suffixed with the last six digits of now.
func SKU(name, modelNo string, attrs []Attribute, now time.Time) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		b.WriteString(strings.ToUpper(prefix(word, 3)))
	}
	b.WriteString(strings.ToUpper(prefix(modelNo, 4)))
	for _, attr := range attrs {
		if _, ok := variantAttributes[strings.ToLower(attr.Name)]; ok {
			b.WriteString(strings.ToUpper(prefix(attr.Value, 2)))
			break
		}
	}
	ts := strconv.FormatInt(now.UnixMilli(), 10)
	b.WriteString(ts[len(ts)-6:])
	return b.String()
}

// NormalizePhone rewrites Nigerian numbers into +234 form; anything else is
// reduced to digits with a leading plus.
func NormalizePhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)

	switch {
	case strings.HasPrefix(digits, "234"):
		return "+" + digits
	case strings.HasPrefix(digits, "0") && len(digits) == 11:
		return "+234" + digits[1:]
	case len(digits) == 10:
		return "+234" + digits
	default:
		return "+" + digits
	}
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) < n {
		return s
	}
	return string(r[:n])
}
