package expr

import "strconv"

// Token kinds for the interactive expression builder.
const (
	KindNumber = "num"
	KindOp     = "op"
	KindParen  = "paren"
)

// Operator glyphs as presented to the user. Eval normalizes them.
const (
	OpAdd = "+"
	OpSub = "-"
	OpMul = "×"
	OpDiv = "÷"
)

// Token is one slot of an in-progress expression. Number tokens remember
// which source slot they consumed so removal can free it for reuse.
type Token struct {
	Kind     string `json:"kind"`
	Value    string `json:"value"`
	SrcIndex int    `json:"srcIndex"` // -1 for non-number tokens
}

// maxTokens is a hard ceiling independent of the per-item slot budget.
const maxTokens = 64

// DefaultSlots is the per-item slot budget when the item doesn't carry one.
const DefaultSlots = 7

// Builder composes an arithmetic expression from a fixed multiset of
// numbers plus operators and parentheses, enforcing grammar validity on
// every append. Invalid appends are no-ops, not errors.
type Builder struct {
	numbers []int
	used    []bool
	tokens  []Token
	open    int
	slots   int
}

// NewBuilder creates a builder over the given number multiset with the
// given slot budget (DefaultSlots when slots <= 0).
func NewBuilder(numbers []int, slots int) *Builder {
	if slots <= 0 {
		slots = DefaultSlots
	}
	return &Builder{
		numbers: numbers,
		used:    make([]bool, len(numbers)),
		slots:   slots,
	}
}

func (b *Builder) last() *Token {
	if len(b.tokens) == 0 {
		return nil
	}
	return &b.tokens[len(b.tokens)-1]
}

func isNum(t *Token) bool   { return t != nil && t.Kind == KindNumber }
func isOp(t *Token) bool    { return t != nil && t.Kind == KindOp }
func isOpen(t *Token) bool  { return t != nil && t.Kind == KindParen && t.Value == "(" }
func isClose(t *Token) bool { return t != nil && t.Kind == KindParen && t.Value == ")" }

// CanAppend reports whether the candidate token is grammatically valid as
// the next token. Rules: a number at the start, after an operator, or after
// "("; an operator only after a number or ")"; "(" wherever a number may
// go; ")" only with an open parenthesis and after a number or ")".
func (b *Builder) CanAppend(t Token) bool {
	if len(b.tokens) >= maxTokens {
		return false
	}
	last := b.last()
	switch t.Kind {
	case KindNumber:
		return last == nil || isOp(last) || isOpen(last)
	case KindOp:
		return isNum(last) || isClose(last)
	case KindParen:
		if t.Value == "(" {
			return last == nil || isOp(last) || isOpen(last)
		}
		return b.open > 0 && (isNum(last) || isClose(last))
	}
	return false
}

func (b *Builder) push(t Token) bool {
	if !b.CanAppend(t) || len(b.tokens) >= b.slots {
		return false
	}
	b.tokens = append(b.tokens, t)
	b.open = b.recountOpen()
	return true
}

// AppendNumber consumes the number at source index idx. No-op when the
// slot is already used or the grammar rejects a number here.
func (b *Builder) AppendNumber(idx int) bool {
	if idx < 0 || idx >= len(b.numbers) || b.used[idx] {
		return false
	}
	t := Token{Kind: KindNumber, Value: strconv.Itoa(b.numbers[idx]), SrcIndex: idx}
	if !b.push(t) {
		return false
	}
	b.used[idx] = true
	return true
}

// AppendOp appends one of + - × ÷.
func (b *Builder) AppendOp(op string) bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv:
		return b.push(Token{Kind: KindOp, Value: op, SrcIndex: -1})
	}
	return false
}

// AppendParen appends "(" or ")".
func (b *Builder) AppendParen(p string) bool {
	if p != "(" && p != ")" {
		return false
	}
	return b.push(Token{Kind: KindParen, Value: p, SrcIndex: -1})
}

// RemoveAt removes the token at index i, freeing its source slot when it
// was a number. The open-parenthesis count is recomputed by scanning the
// remaining tokens.
func (b *Builder) RemoveAt(i int) {
	if i < 0 || i >= len(b.tokens) {
		return
	}
	popped := b.tokens[i]
	b.tokens = append(b.tokens[:i], b.tokens[i+1:]...)
	if popped.Kind == KindNumber && popped.SrcIndex >= 0 && popped.SrcIndex < len(b.used) {
		b.used[popped.SrcIndex] = false
	}
	b.open = b.recountOpen()
}

// Backspace removes the last token.
func (b *Builder) Backspace() {
	b.RemoveAt(len(b.tokens) - 1)
}

// Clear discards all tokens and frees every number slot.
func (b *Builder) Clear() {
	b.tokens = nil
	b.open = 0
	for i := range b.used {
		b.used[i] = false
	}
}

func (b *Builder) recountOpen() int {
	k := 0
	for _, t := range b.tokens {
		if t.Kind == KindParen {
			if t.Value == "(" {
				k++
			} else {
				k--
			}
		}
	}
	return k
}

// Compose concatenates token values in order. Pure, no validation.
func (b *Builder) Compose() string {
	return Compose(b.tokens)
}

// Compose concatenates token values in order.
func Compose(tokens []Token) string {
	var s string
	for _, t := range tokens {
		s += t.Value
	}
	return s
}

// OpenParens returns the current open-parenthesis count.
func (b *Builder) OpenParens() int { return b.open }

// Tokens returns the current token sequence.
func (b *Builder) Tokens() []Token { return b.tokens }

// Used returns the consumed flag per source number slot.
func (b *Builder) Used() []bool { return b.used }

// CanSubmit reports whether the expression may be submitted: zero open
// parentheses and not ending on a dangling operator or "(".
func (b *Builder) CanSubmit() bool {
	last := b.last()
	return b.open == 0 && (isNum(last) || isClose(last))
}
