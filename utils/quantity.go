package utils

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimalBR parses a pt-BR formatted number: "." groups thousands
// and "," is the decimal separator ("1.234,50" -> 1234.5).
func ParseDecimalBR(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	// exponent notation is not a pt-BR number
	if strings.ContainsAny(clean, "eE") {
		return decimal.Zero, &ParseError{Value: s, Err: ErrInvalidNumber}
	}
	clean = strings.ReplaceAll(clean, ".", "")
	clean = strings.ReplaceAll(clean, ",", ".")
	if clean == "" {
		return decimal.Zero, &ParseError{Value: s, Err: ErrInvalidNumber}
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, &ParseError{Value: s, Err: ErrInvalidNumber}
	}
	return d, nil
}

var (
	maxQuantity = decimal.NewFromInt(math.MaxInt)
	minQuantity = decimal.NewFromInt(math.MinInt)
)

// wholeUnits floors d and rejects results that do not fit in an int.
func wholeUnits(d decimal.Decimal, raw string) (int, error) {
	f := d.Floor()
	if f.GreaterThan(maxQuantity) || f.LessThan(minQuantity) {
		return 0, &ParseError{Value: raw, Err: ErrInvalidQuantity}
	}
	return int(f.IntPart()), nil
}

// NormalizeQuantity turns a stock quantity into whole units. Numbers are
// floored; strings are parsed with ParseDecimalBR first. Anything that is
// not a finite number yields a *ParseError wrapping ErrInvalidQuantity.
func NormalizeQuantity(v any) (int, error) {
	switch q := v.(type) {
	case int:
		return q, nil
	case int64:
		return int(q), nil
	case float64:
		if math.IsNaN(q) || math.IsInf(q, 0) {
			return 0, &ParseError{Value: fmt.Sprint(q), Err: ErrInvalidQuantity}
		}
		return wholeUnits(decimal.NewFromFloat(q), fmt.Sprint(q))
	case decimal.Decimal:
		return wholeUnits(q, q.String())
	case string:
		d, err := ParseDecimalBR(q)
		if err != nil {
			return 0, &ParseError{Value: q, Err: ErrInvalidQuantity}
		}
		return wholeUnits(d, q)
	default:
		return 0, &ParseError{Value: fmt.Sprint(v), Err: ErrInvalidQuantity}
	}
}
