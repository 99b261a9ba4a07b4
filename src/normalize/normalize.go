package normalize

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	currencyRe = regexp.MustCompile(`^-?\$[\d,]+(\.\d+)?$`)
	percentRe  = regexp.MustCompile(`^[+-]?\d+(\.\d+)?%$`)
	suffixRe   = regexp.MustCompile(`^-?\$?[\d,]*\.?\d+[KMB]$`)
)

var suffixMultiplier = map[byte]decimal.Decimal{
	'K': decimal.New(1, 3),
	'M': decimal.New(1, 6),
	'B': decimal.New(1, 9),
}

// Value classifies a gateway or backend value into a comparable form.
//
// Currency, percentage and K/M/B strings become float64, "true"/"false"
// become bool, integer kinds become int64 (uint64 past its range) and
// float32 becomes float64.
// Anything else is returned unchanged. Value never fails: a string that looks
// numeric but does not parse is left as a string for the comparator to report.
// Value is idempotent.
func Value(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return normalizeString(t)
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint:
		return unsigned(uint64(t))
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		return unsigned(t)
	case float32:
		return float64(t)
	case decimal.Decimal:
		f, _ := t.Float64()
		return f
	}
	return v
}

func normalizeString(s string) any {
	switch {
	case currencyRe.MatchString(s):
		if f, ok := parseDecimal(strings.NewReplacer("$", "", ",", "").Replace(s)); ok {
			return f
		}
	case percentRe.MatchString(s):
		if f, ok := parseDecimal(strings.TrimSuffix(s, "%")); ok {
			return f
		}
	case suffixRe.MatchString(s):
		mult := suffixMultiplier[s[len(s)-1]]
		body := strings.NewReplacer("$", "", ",", "").Replace(s[:len(s)-1])
		if d, err := decimal.NewFromString(body); err == nil {
			f, _ := d.Mul(mult).Float64()
			return f
		}
	case strings.EqualFold(s, "true"):
		return true
	case strings.EqualFold(s, "false"):
		return false
	}
	return s
}

func parseDecimal(s string) (float64, bool) {
	d, err := decimal.NewFromString(strings.TrimPrefix(s, "+"))
	if err != nil {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}

// unsigned keeps values that do not fit int64 as uint64.
func unsigned(u uint64) any {
	if u > math.MaxInt64 {
		return u
	}
	return int64(u)
}

// Dollars extracts the first "$1,234.56" style amount from s, as used in
// labels like "$1,000.00 (2.50%)".
func Dollars(s string) (float64, bool) {
	m := dollarsRe.FindString(s)
	if m == "" {
		return 0, false
	}
	return parseDecimal(strings.NewReplacer("$", "", ",", "").Replace(m))
}

var dollarsRe = regexp.MustCompile(`-?\$[\d.,]+`)

// Float converts a normalized value into float64 for tolerance comparison.
func Float(v any) (float64, bool) {
	switch t := Value(v).(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		f, _ := d.Float64()
		return f, true
	}
	return 0, false
}
