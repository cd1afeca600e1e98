// Package mathexpr evaluates spoken arithmetic such as "2 + 2" or "(3 ^ 2) / 4".
//
// Supported: decimal literals, + - * /, ^ and ** (right associative,
// binding tighter than unary minus), parentheses. Results are printed with
// 15 significant digits, fixed notation for 1e-5 < |x| < 1e15 and exponent
// notation outside it, so "2 + 2" reads back as 4.00000000000000.
package mathexpr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	significantDigits = 15
	workPrecision     = 40
)

var (
	ErrEmptyExpression = errors.New("empty expression")
	ErrDivisionByZero  = errors.New("division by zero")
)

// Evaluate parses and evaluates expr
func Evaluate(expr string) (decimal.Decimal, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return decimal.Zero, err
	}
	if len(tokens) == 0 {
		return decimal.Zero, ErrEmptyExpression
	}

	p := &parser{tokens: tokens}
	v, err := p.expr()
	if err != nil {
		return decimal.Zero, err
	}
	if !p.done() {
		return decimal.Zero, fmt.Errorf("unexpected %q", p.peek().text)
	}
	return v, nil
}

// EvaluateString evaluates expr and formats the result
func EvaluateString(expr string) (string, error) {
	v, err := Evaluate(expr)
	if err != nil {
		return "", err
	}
	return Format(v), nil
}

// Format renders d with 15 significant digits
func Format(d decimal.Decimal) string {
	if d.IsZero() {
		return "0"
	}

	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	d = d.Round(int32(significantDigits - 1 - leadingExponent(d)))
	exp := leadingExponent(d)

	digits := d.Coefficient().String()
	if len(digits) > significantDigits {
		digits = digits[:significantDigits]
	}
	digits += strings.Repeat("0", significantDigits-len(digits))

	if -5 < exp && exp < significantDigits {
		if exp >= 0 {
			return sign + digits[:exp+1] + "." + digits[exp+1:]
		}
		return sign + "0." + strings.Repeat("0", -exp-1) + digits
	}

	out := sign + digits[:1] + "." + digits[1:] + "e"
	if exp > 0 {
		out += "+"
	}
	return out + fmt.Sprint(exp)
}

// leadingExponent is the power of ten of the first significant digit of d
func leadingExponent(d decimal.Decimal) int {
	digits := d.Coefficient().String()
	digits = strings.TrimLeft(digits, "-")
	return len(digits) - 1 + int(d.Exponent())
}
