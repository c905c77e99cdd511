package token

type Type int

const (
	EOF Type = iota
	Operand
	Plus
	Minus
	Star
	Slash
	Rem
	LParen
	RParen
)

// OperatorMap maps each separator character of the expression language to its token type.
var OperatorMap = map[rune]Type{
	'+': Plus,
	'-': Minus,
	'*': Star,
	'/': Slash,
	'%': Rem,
	'(': LParen,
	')': RParen,
}

// Reverse mapping from Type to the operator spelling
var TypeStrings = make(map[Type]string)

func init() {
	for ch, typ := range OperatorMap {
		TypeStrings[typ] = string(ch)
	}
	TypeStrings[EOF] = "EOF"
	TypeStrings[Operand] = "operand"
}

func (t Type) String() string { return TypeStrings[t] }

// IsArith reports whether t is one of the five arithmetic operators.
func (t Type) IsArith() bool { return t >= Plus && t <= Rem }

// IsMultiplicative reports whether t binds tighter than + and -.
func (t Type) IsMultiplicative() bool { return t == Star || t == Slash || t == Rem }

// IsAdditive reports whether t is + or -.
func (t Type) IsAdditive() bool { return t == Plus || t == Minus }

// Precedence is used by the grouping-aware lowering; operands and parentheses have none.
func (t Type) Precedence() int {
	switch {
	case t.IsMultiplicative():
		return 2
	case t.IsAdditive():
		return 1
	}
	return 0
}

type Token struct {
	Type   Type
	Value  string
	Column int
	Len    int
}

// Text returns the spelling of the token as it should appear in an instruction.
func (t Token) Text() string {
	if t.Type == Operand {
		return t.Value
	}
	return TypeStrings[t.Type]
}
