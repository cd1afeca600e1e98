package mathexpr

import (
	"fmt"
	"unicode"

	"github.com/shopspring/decimal"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	num  decimal.Decimal
}

func tokenize(s string) ([]token, error) {
	var tokens []token
	runes := []rune(s)

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || r == '.':
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			text := string(runes[start:i])
			n, err := decimal.NewFromString(text)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q", text)
			}
			tokens = append(tokens, token{kind: tokNumber, text: text, num: n})
		case r == '*' && i+1 < len(runes) && runes[i+1] == '*':
			tokens = append(tokens, token{kind: tokOp, text: "^"})
			i += 2
		case r == '+' || r == '-' || r == '*' || r == '/' || r == '^':
			tokens = append(tokens, token{kind: tokOp, text: string(r)})
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "("})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")"})
			i++
		default:
			return nil, fmt.Errorf("unexpected character %q", r)
		}
	}

	return tokens, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) done() bool { return p.pos >= len(p.tokens) }

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) acceptOp(ops ...string) (string, bool) {
	if p.done() || p.peek().kind != tokOp {
		return "", false
	}
	for _, op := range ops {
		if p.peek().text == op {
			p.pos++
			return op, true
		}
	}
	return "", false
}

// expr := term (('+' | '-') term)*
func (p *parser) expr() (decimal.Decimal, error) {
	left, err := p.term()
	if err != nil {
		return decimal.Zero, err
	}
	for {
		op, ok := p.acceptOp("+", "-")
		if !ok {
			return left, nil
		}
		right, err := p.term()
		if err != nil {
			return decimal.Zero, err
		}
		if op == "+" {
			left = left.Add(right)
		} else {
			left = left.Sub(right)
		}
	}
}

// term := unary (('*' | '/') unary)*
func (p *parser) term() (decimal.Decimal, error) {
	left, err := p.unary()
	if err != nil {
		return decimal.Zero, err
	}
	for {
		op, ok := p.acceptOp("*", "/")
		if !ok {
			return left, nil
		}
		right, err := p.unary()
		if err != nil {
			return decimal.Zero, err
		}
		if op == "*" {
			left = left.Mul(right)
			continue
		}
		if right.IsZero() {
			return decimal.Zero, ErrDivisionByZero
		}
		left = left.DivRound(right, workPrecision)
	}
}

// unary := ('+' | '-') unary | power
func (p *parser) unary() (decimal.Decimal, error) {
	if op, ok := p.acceptOp("+", "-"); ok {
		v, err := p.unary()
		if err != nil {
			return decimal.Zero, err
		}
		if op == "-" {
			return v.Neg(), nil
		}
		return v, nil
	}
	return p.power()
}

// power := primary ('^' unary)?
func (p *parser) power() (decimal.Decimal, error) {
	base, err := p.primary()
	if err != nil {
		return decimal.Zero, err
	}
	if _, ok := p.acceptOp("^"); !ok {
		return base, nil
	}
	exp, err := p.unary()
	if err != nil {
		return decimal.Zero, err
	}
	v, err := base.PowWithPrecision(exp, workPrecision)
	if err != nil {
		return decimal.Zero, fmt.Errorf("cannot raise %s to %s: %w", base, exp, err)
	}
	return v, nil
}

// primary := number | '(' expr ')'
func (p *parser) primary() (decimal.Decimal, error) {
	if p.done() {
		return decimal.Zero, fmt.Errorf("unexpected end of expression")
	}

	tok := p.peek()
	switch tok.kind {
	case tokNumber:
		p.pos++
		return tok.num, nil
	case tokLParen:
		p.pos++
		v, err := p.expr()
		if err != nil {
			return decimal.Zero, err
		}
		if p.done() || p.peek().kind != tokRParen {
			return decimal.Zero, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	default:
		return decimal.Zero, fmt.Errorf("unexpected %q", tok.text)
	}
}
