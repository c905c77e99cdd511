package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/gtac/pkg/token"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("a+b*(c - 12)")
	want := []token.Token{
		{Type: token.Operand, Value: "a", Column: 1, Len: 1},
		{Type: token.Plus, Column: 2, Len: 1},
		{Type: token.Operand, Value: "b", Column: 3, Len: 1},
		{Type: token.Star, Column: 4, Len: 1},
		{Type: token.LParen, Column: 5, Len: 1},
		{Type: token.Operand, Value: "c", Column: 6, Len: 1},
		{Type: token.Minus, Column: 8, Len: 1},
		{Type: token.Operand, Value: "12", Column: 10, Len: 2},
		{Type: token.RParen, Column: 12, Len: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokenize mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeSpacingIndependent(t *testing.T) {
	values := func(toks []token.Token) []string {
		var out []string
		for _, tok := range toks {
			out = append(out, tok.Type.String()+":"+tok.Value)
		}
		return out
	}
	dense, spaced := Tokenize("x*y%z"), Tokenize("  x *  y % z ")
	if diff := cmp.Diff(values(dense), values(spaced)); diff != "" {
		t.Errorf("spacing changed the token stream (-dense +spaced):\n%s", diff)
	}
}

func TestOperandsKeepForeignCharacters(t *testing.T) {
	toks := Tokenize("arr[i] + f.x")
	if len(toks) != 3 || toks[0].Value != "arr[i]" || toks[2].Value != "f.x" {
		t.Fatalf("unexpected tokens: %+v", toks)
	}
}

func TestOperandsKeepRawBytes(t *testing.T) {
	toks := Tokenize("\xff + é*b")
	want := []token.Token{
		{Type: token.Operand, Value: "\xff", Column: 1, Len: 1},
		{Type: token.Plus, Column: 3, Len: 1},
		{Type: token.Operand, Value: "é", Column: 5, Len: 1},
		{Type: token.Star, Column: 6, Len: 1},
		{Type: token.Operand, Value: "b", Column: 7, Len: 1},
	}
	if diff := cmp.Diff(want, toks); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeEmpty(t *testing.T) {
	if toks := Tokenize("   "); len(toks) != 0 {
		t.Errorf("expected no tokens, got %+v", toks)
	}
}

func TestContainsOperator(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"a", false},
		{"(a)", false},
		{"a + b", true},
		{"-1", true},
		{"a%b", true},
		{"'x'", false},
	}
	for _, tt := range tests {
		if got := ContainsOperator(tt.src); got != tt.want {
			t.Errorf("ContainsOperator(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}
