package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xplshn/gtac/pkg/token"
)

type Op int

const (
	OpGoto   Op = iota // goto L
	OpIfEq             // if a == b goto L
	OpCopy             // x = y
	OpBinary           // x = y op z
	OpUnary            // x = op y
	OpOpaque           // verbatim statement text
	OpMarker           // non-executable comment
)

var opNames = [...]string{"goto", "if", "copy", "binary", "unary", "opaque", "marker"}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "op(" + strconv.Itoa(int(o)) + ")"
}

// IsJump reports whether instructions with this op carry a Target.
func (o Op) IsJump() bool { return o == OpGoto || o == OpIfEq }

// Placeholder is how an unresolved jump target is rendered in traces.
const Placeholder = "__"

// Target is a quad index used as a jump destination.
type Target int

const Unresolved Target = -1

func (t Target) IsResolved() bool { return t >= 0 }

func (t Target) String() string {
	if !t.IsResolved() { return Placeholder }
	return strconv.Itoa(int(t))
}

type Instruction struct {
	Op     Op
	Result string
	Args   []string
	Arith  token.Type
	Target Target
	Text   string
}

func Goto(target Target) Instruction { return Instruction{Op: OpGoto, Target: target} }

func IfEq(lhs, rhs string, target Target) Instruction {
	return Instruction{Op: OpIfEq, Args: []string{lhs, rhs}, Target: target}
}

func Copy(dst, src string) Instruction { return Instruction{Op: OpCopy, Result: dst, Args: []string{src}} }

func Binary(dst string, op token.Type, lhs, rhs string) Instruction {
	return Instruction{Op: OpBinary, Result: dst, Arith: op, Args: []string{lhs, rhs}}
}

func Unary(dst string, op token.Type, operand string) Instruction {
	return Instruction{Op: OpUnary, Result: dst, Arith: op, Args: []string{operand}}
}

func Opaque(text string) Instruction { return Instruction{Op: OpOpaque, Text: text} }

func Marker(text string) Instruction { return Instruction{Op: OpMarker, Text: text} }

func (in Instruction) String() string {
	switch in.Op {
	case OpGoto:
		return "goto " + in.Target.String()
	case OpIfEq:
		return fmt.Sprintf("if %s == %s goto %s", in.Args[0], in.Args[1], in.Target)
	case OpCopy:
		return fmt.Sprintf("%s = %s", in.Result, in.Args[0])
	case OpBinary:
		return fmt.Sprintf("%s = %s %s %s", in.Result, in.Args[0], in.Arith, in.Args[1])
	case OpUnary:
		return fmt.Sprintf("%s = %s%s", in.Result, in.Arith, in.Args[0])
	case OpOpaque:
		return in.Text
	case OpMarker:
		return "# " + in.Text
	}
	return in.Op.String()
}

// Quad is one numbered instruction. Index equals the quad's position in its Program.
type Quad struct {
	Index int
	Instr Instruction
}

func (q *Quad) String() string { return fmt.Sprintf("%d: %s", q.Index, q.Instr) }

// Patch resolves the quad's jump target. It reports false, leaving the quad
// untouched, if the quad is not a jump or its target is already resolved.
func (q *Quad) Patch(target Target) bool {
	if !q.Instr.Op.IsJump() || q.Instr.Target.IsResolved() { return false }
	q.Instr.Target = target
	return true
}

// QuadList holds the indices of jumps that share a not-yet-known target.
type QuadList []int

// CaseLabel records where the code of one non-default case begins.
type CaseLabel struct {
	Value string
	Addr  Target
}

type Program struct {
	Expr    string
	Quads   []*Quad
	Cases   []CaseLabel
	Default Target
	Exit    Target
	Temps   int
}

func NewProgram(expr string) *Program {
	return &Program{Expr: expr, Default: Unresolved, Exit: Unresolved}
}

// NextQuad is the index the next emitted quad will receive.
func (p *Program) NextQuad() int { return len(p.Quads) }

func (p *Program) Append(in Instruction) *Quad {
	q := &Quad{Index: len(p.Quads), Instr: in}
	p.Quads = append(p.Quads, q)
	return q
}

// Lines renders every quad as "<index>: <instruction>".
func (p *Program) Lines() []string {
	lines := make([]string, len(p.Quads))
	for i, q := range p.Quads {
		lines[i] = q.String()
	}
	return lines
}

// Unresolved returns the indices of jumps whose target was never patched.
func (p *Program) Unresolved() []int {
	var idx []int
	for _, q := range p.Quads {
		if q.Instr.Op.IsJump() && !q.Instr.Target.IsResolved() {
			idx = append(idx, q.Index)
		}
	}
	return idx
}

// Variables lists, in order of first appearance, every name the program reads or
// writes, excluding the switch expression. Integer literals are not variables.
func (p *Program) Variables() []string {
	seen := map[string]bool{p.Expr: true}
	var vars []string
	add := func(name string) {
		if name == "" || seen[name] || IsIntLiteral(name) { return }
		seen[name] = true
		vars = append(vars, name)
	}
	for _, q := range p.Quads {
		switch q.Instr.Op {
		case OpCopy, OpBinary, OpUnary:
			add(q.Instr.Result)
			for _, a := range q.Instr.Args {
				add(a)
			}
		case OpIfEq:
			add(q.Instr.Args[1])
		}
	}
	return vars
}

func IsIntLiteral(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" { return false }
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}
