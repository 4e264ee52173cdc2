package canon

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrUnsupportedValue = errors.New("unsupported value")
	ErrControlCharacter = errors.New("value contains control characters")
	ErrNotFinite        = errors.New("number is not finite")
	ErrEmptyValue       = errors.New("empty value")
)

// fractionDigits is precision of rendered numbers.
const fractionDigits = 4

var hexColor = regexp.MustCompile(`#[0-9A-Fa-f]{3,8}\b`)

// Units controls rendering of numeric values.
type Units struct {
	// Spacing is multiplier applied to spacing scale steps.
	Spacing decimal.Decimal
	// SpacingSuffix is appended to scaled spacing values.
	SpacingSuffix string
	// Default is appended to numeric values of all other non unitless properties.
	Default string
}

// DefaultUnits returns 0.25rem spacing scale with px for everything else.
func DefaultUnits() Units {
	return Units{
		Spacing:       decimal.RequireFromString("0.25"),
		SpacingSuffix: "rem",
		Default:       "px",
	}
}

// Number renders numeric value of the property. Zero is always "0".
func (u Units) Number(property string, d decimal.Decimal) string {
	switch {
	case IsUnitless(property):
		return formatDecimal(d)
	case IsSpacing(property):
		if s := formatDecimal(d.Mul(u.Spacing)); s != "0" {
			return s + u.SpacingSuffix
		}
		return "0"
	default:
		if s := formatDecimal(d); s != "0" {
			return s + u.Default
		}
		return "0"
	}
}

func formatDecimal(d decimal.Decimal) string {
	d = d.Round(fractionDigits)
	if d.IsZero() {
		return "0"
	}
	return d.String()
}

// ToDecimal converts numeric value into exact decimal. The second return is
// false when value is not a number.
func ToDecimal(v any) (decimal.Decimal, bool, error) {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, true, fmt.Errorf("bad number %q: %w", n.String(), err)
		}
		return d, true, nil
	case float32:
		if math.IsNaN(float64(n)) || math.IsInf(float64(n), 0) {
			return decimal.Zero, true, ErrNotFinite
		}
		return decimal.NewFromFloat32(n), true, nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, true, ErrNotFinite
		}
		return decimal.NewFromFloat(n), true, nil
	case int, int8, int16, int32, int64:
		i, err := cast.ToInt64E(n)
		if err != nil {
			return decimal.Zero, true, err
		}
		return decimal.NewFromInt(i), true, nil
	case uint, uint8, uint16, uint32, uint64:
		u, err := cast.ToUint64E(n)
		if err != nil {
			return decimal.Zero, true, err
		}
		return decimal.RequireFromString(strconv.FormatUint(u, 10)), true, nil
	}
	return decimal.Zero, false, nil
}

// NormalizeString trims value, collapses internal whitespace, applies NFC
// normalization and lowercases hex colors. Quoted strings are kept verbatim.
func NormalizeString(s string) (string, error) {
	if strings.ContainsFunc(s, func(r rune) bool {
		return unicode.IsControl(r) && !unicode.IsSpace(r)
	}) {
		return "", ErrControlCharacter
	}
	s = norm.NFC.String(strings.TrimSpace(s))
	if s == "" {
		return "", ErrEmptyValue
	}

	var (
		b       strings.Builder
		run     strings.Builder
		quote   rune
		escaped bool
		space   bool
	)
	flush := func() {
		b.WriteString(hexColor.ReplaceAllStringFunc(run.String(), strings.ToLower))
		run.Reset()
	}
	for _, r := range s {
		if quote != 0 {
			b.WriteRune(r)
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == quote:
				quote = 0
			}
			continue
		}
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			run.WriteByte(' ')
			space = false
		}
		if r == '"' || r == '\'' {
			flush()
			quote = r
			b.WriteRune(r)
			continue
		}
		run.WriteRune(r)
	}
	flush()
	return b.String(), nil
}

// normalize renders scalar leaf for the property.
func (u Units) normalize(property string, v any) (string, error) {
	if s, ok := v.(string); ok {
		return NormalizeString(s)
	}
	d, ok, err := ToDecimal(v)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
	return u.Number(property, d), nil
}
