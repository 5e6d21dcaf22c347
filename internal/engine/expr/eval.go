package expr

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidExpression marks malformed arithmetic text reaching the
// evaluator. Callers treat it as "answer incorrect", never as fatal.
var ErrInvalidExpression = errors.New("invalid expression")

var safeCharsRe = regexp.MustCompile(`^[0-9+\-*/().\s]+$`)
var funcCharsRe = regexp.MustCompile(`^[0-9x+\-*/^().\s]+$`)
var literalRe = regexp.MustCompile(`\d+`)

func normalize(expr string) string {
	expr = strings.ReplaceAll(expr, "×", "*")
	return strings.ReplaceAll(expr, "÷", "/")
}

// Eval evaluates an arithmetic expression with standard precedence and
// parenthesization. Multiplication/division glyphs are normalized first;
// any character outside digits, + - * / ( ) . and whitespace is rejected
// with ErrInvalidExpression, as is a syntactically broken string such as
// "3+" or a division by zero.
func Eval(expr string) (float64, error) {
	s := normalize(expr)
	if s == "" || !safeCharsRe.MatchString(s) {
		return 0, fmt.Errorf("%w: illegal characters", ErrInvalidExpression)
	}
	p := &parser{input: s}
	v, err := p.parse()
	if err != nil {
		return 0, err
	}
	return v, nil
}

// EvalFunc evaluates a single-variable function definition such as
// "2*x+3" or "x^2-1" at the given x. The variant scoring paths share
// this evaluator instead of carrying a separate dynamic-code path.
func EvalFunc(def string, x float64) (float64, error) {
	s := normalize(def)
	if s == "" || !funcCharsRe.MatchString(s) {
		return 0, fmt.Errorf("%w: illegal characters", ErrInvalidExpression)
	}
	p := &parser{input: s, allowVar: true, varValue: x, allowPow: true}
	v, err := p.parse()
	if err != nil {
		return 0, err
	}
	return v, nil
}

// UsesExactly reports whether the multiset of integer literals occurring
// in expr equals the multiset nums: every required number consumed
// exactly once, no extras.
func UsesExactly(expr string, nums []int) bool {
	need := map[int]int{}
	got := map[int]int{}
	for _, n := range nums {
		need[n]++
	}
	for _, lit := range literalRe.FindAllString(expr, -1) {
		v, err := strconv.Atoi(lit)
		if err != nil {
			return false
		}
		got[v]++
	}
	if len(need) != len(got) {
		return false
	}
	for k, c := range need {
		if got[k] != c {
			return false
		}
	}
	return true
}

// parser is a small recursive-descent evaluator:
//
//	expression := term (('+'|'-') term)*
//	term       := power (('*'|'/') power)*
//	power      := unary ('^' power)?        (right-assoc, EvalFunc only)
//	unary      := '-' unary | primary
//	primary    := number | 'x' | '(' expression ')'
type parser struct {
	input    string
	pos      int
	allowVar bool
	varValue float64
	allowPow bool
}

func (p *parser) parse() (float64, error) {
	v, err := p.expression()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return 0, fmt.Errorf("%w: unexpected %q", ErrInvalidExpression, p.input[p.pos:])
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: non-finite result", ErrInvalidExpression)
	}
	return v, nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t' || p.input[p.pos] == '\n') {
		p.pos++
	}
}

func (p *parser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) expression() (float64, error) {
	v, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			r, err := p.term()
			if err != nil {
				return 0, err
			}
			v += r
		case '-':
			p.pos++
			r, err := p.term()
			if err != nil {
				return 0, err
			}
			v -= r
		default:
			return v, nil
		}
	}
}

func (p *parser) term() (float64, error) {
	v, err := p.power()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			r, err := p.power()
			if err != nil {
				return 0, err
			}
			v *= r
		case '/':
			p.pos++
			r, err := p.power()
			if err != nil {
				return 0, err
			}
			if r == 0 {
				return 0, fmt.Errorf("%w: division by zero", ErrInvalidExpression)
			}
			v /= r
		default:
			return v, nil
		}
	}
}

func (p *parser) power() (float64, error) {
	v, err := p.unary()
	if err != nil {
		return 0, err
	}
	if p.allowPow && p.peek() == '^' {
		p.pos++
		r, err := p.power()
		if err != nil {
			return 0, err
		}
		return math.Pow(v, r), nil
	}
	return v, nil
}

func (p *parser) unary() (float64, error) {
	if p.peek() == '-' {
		p.pos++
		v, err := p.unary()
		if err != nil {
			return 0, err
		}
		return -v, nil
	}
	return p.primary()
}

func (p *parser) primary() (float64, error) {
	c := p.peek()
	switch {
	case c == '(':
		p.pos++
		v, err := p.expression()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("%w: missing close parenthesis", ErrInvalidExpression)
		}
		p.pos++
		return v, nil
	case c == 'x' && p.allowVar:
		p.pos++
		return p.varValue, nil
	case c >= '0' && c <= '9' || c == '.':
		start := p.pos
		for p.pos < len(p.input) {
			ch := p.input[p.pos]
			if ch >= '0' && ch <= '9' || ch == '.' {
				p.pos++
				continue
			}
			break
		}
		v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: bad number %q", ErrInvalidExpression, p.input[start:p.pos])
		}
		return v, nil
	}
	return 0, fmt.Errorf("%w: unexpected token", ErrInvalidExpression)
}
