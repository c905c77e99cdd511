package codegen

import (
	"fmt"
	"strings"

	"github.com/xplshn/gtac/pkg/config"
	"github.com/xplshn/gtac/pkg/ir"
	"github.com/xplshn/gtac/pkg/token"
)

// LowerError reports a quad the qbe backend cannot express. Quad is -1 when
// the problem is not tied to a single quad.
type LowerError struct {
	Quad   int
	Reason string
}

func (e *LowerError) Error() string {
	if e.Quad < 0 { return "qbe: " + e.Reason }
	return fmt.Sprintf("qbe: quad %d: %s", e.Quad, e.Reason)
}

type qbeBackend struct {
	out  *strings.Builder
	prog *ir.Program
	cfg  *config.Config
	tmp  int
}

func NewQBEBackend() Backend { return &qbeBackend{} }

var qbeArith = map[token.Type]string{
	token.Plus:  "add",
	token.Minus: "sub",
	token.Star:  "mul",
	token.Slash: "div",
	token.Rem:   "rem",
}

// GenerateIR lowers the quads into one exported QBE function taking the switch
// expression as its only parameter. Every quad becomes the block @q<index> and
// every variable a stack slot, so jumps map one to one onto the quad targets.
func (b *qbeBackend) GenerateIR(res *Result, cfg *config.Config) (string, error) {
	var sb strings.Builder
	b.out, b.prog, b.cfg, b.tmp = &sb, res.Program, cfg, 0
	if err := b.gen(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (b *qbeBackend) gen() error {
	expr := b.prog.Expr
	if !IsValidIdentifier(expr) {
		return &LowerError{Quad: -1, Reason: fmt.Sprintf("switch expression '%s' is not an identifier", expr)}
	}
	vars := b.prog.Variables()
	for _, v := range vars {
		if !IsValidIdentifier(v) {
			return &LowerError{Quad: -1, Reason: fmt.Sprintf("operand '%s' is neither an identifier nor an integer", v)}
		}
	}

	wt := b.cfg.WordType
	fmt.Fprintf(b.out, "export function %s $switch_%s(%s %%%s) {\n", wt, expr, wt, expr)
	b.out.WriteString("@start\n")
	for _, v := range append([]string{expr}, vars...) {
		fmt.Fprintf(b.out, "\t%s =l alloc4 4\n", slot(v))
	}
	fmt.Fprintf(b.out, "\tstore%s %%%s, %s\n", wt, expr, slot(expr))
	for _, v := range vars {
		fmt.Fprintf(b.out, "\tstore%s 0, %s\n", wt, slot(v))
	}

	for _, q := range b.prog.Quads {
		fmt.Fprintf(b.out, "@q%d\n", q.Index)
		if err := b.genQuad(q); err != nil {
			return err
		}
	}
	fmt.Fprintf(b.out, "@q%d\n\tret 0\n}\n", len(b.prog.Quads))
	return nil
}

func slot(name string) string { return "%v." + name }

func (b *qbeBackend) newTemp() string {
	b.tmp++
	return fmt.Sprintf("%%.%d", b.tmp)
}

// value materializes an operand: integers are used as constants, names are loaded.
func (b *qbeBackend) value(operand string) string {
	if ir.IsIntLiteral(operand) {
		return operand
	}
	t := b.newTemp()
	fmt.Fprintf(b.out, "\t%s =%s load%s %s\n", t, b.cfg.WordType, b.cfg.WordType, slot(operand))
	return t
}

func (b *qbeBackend) store(val, name string) {
	fmt.Fprintf(b.out, "\tstore%s %s, %s\n", b.cfg.WordType, val, slot(name))
}

func (b *qbeBackend) genQuad(q *ir.Quad) error {
	in := q.Instr
	wt := b.cfg.WordType
	if in.Op.IsJump() && !in.Target.IsResolved() {
		return &LowerError{Quad: q.Index, Reason: "jump target was never backpatched"}
	}

	switch in.Op {
	case ir.OpGoto:
		fmt.Fprintf(b.out, "\tjmp @q%d\n", in.Target)
	case ir.OpIfEq:
		lhs, rhs := b.value(in.Args[0]), b.value(in.Args[1])
		cond := b.newTemp()
		fmt.Fprintf(b.out, "\t%s =%s ceq%s %s, %s\n", cond, wt, wt, lhs, rhs)
		fmt.Fprintf(b.out, "\tjnz %s, @q%d, @q%d\n", cond, in.Target, q.Index+1)
	case ir.OpCopy:
		b.store(b.value(in.Args[0]), in.Result)
	case ir.OpBinary:
		lhs, rhs := b.value(in.Args[0]), b.value(in.Args[1])
		res := b.newTemp()
		fmt.Fprintf(b.out, "\t%s =%s %s %s, %s\n", res, wt, qbeArith[in.Arith], lhs, rhs)
		b.store(res, in.Result)
	case ir.OpUnary:
		val := b.value(in.Args[0])
		if in.Arith == token.Minus {
			res := b.newTemp()
			fmt.Fprintf(b.out, "\t%s =%s neg %s\n", res, wt, val)
			val = res
		}
		b.store(val, in.Result)
	case ir.OpOpaque:
		if !b.cfg.IsFeatureEnabled(config.FeatOpaqueComments) {
			return &LowerError{Quad: q.Index, Reason: fmt.Sprintf("opaque statement '%s' has no QBE form", in.Text)}
		}
		fmt.Fprintf(b.out, "\t# %s\n", strings.ReplaceAll(in.Text, "\n", " "))
	case ir.OpMarker:
		fmt.Fprintf(b.out, "\t# %s\n", in.Text)
	default:
		return &LowerError{Quad: q.Index, Reason: fmt.Sprintf("unknown op %s", in.Op)}
	}
	return nil
}
