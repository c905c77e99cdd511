package codegen

import (
	"fmt"

	"github.com/xplshn/gtac/pkg/config"
	"github.com/xplshn/gtac/pkg/ir"
)

// Diagnostic is a recoverable problem found while translating. Case and Line
// index the input; -1 means the diagnostic is not tied to one.
type Diagnostic struct {
	Warning config.Warning
	Case    int
	Line    int
	Message string
}

func (d Diagnostic) Where() string {
	switch {
	case d.Case < 0:
		return "switch"
	case d.Line < 0:
		return fmt.Sprintf("case %d", d.Case+1)
	}
	return fmt.Sprintf("case %d, line %d", d.Case+1, d.Line+1)
}

type position struct{ caseIdx, line int }

// Context is the instruction emitter of one translation: it owns the quad
// sequence, the symbol table, the trace log and the diagnostics.
type Context struct {
	prog  *ir.Program
	syms  *SymbolTable
	cfg   *config.Config
	logs  []string
	diags []Diagnostic
	pos   position
	stats Stats
}

func NewContext(expr string, cfg *config.Config) *Context {
	return &Context{
		prog: ir.NewProgram(expr),
		syms: NewSymbolTable(),
		cfg:  cfg,
		pos:  position{-1, -1},
	}
}

func (ctx *Context) Program() *ir.Program { return ctx.prog }

func (ctx *Context) Symbols() *SymbolTable { return ctx.syms }

func (ctx *Context) Logs() []string { return ctx.logs }

func (ctx *Context) log(format string, args ...interface{}) {
	ctx.logs = append(ctx.logs, fmt.Sprintf(format, args...))
}

// warn records a diagnostic at the current position if wt is enabled.
func (ctx *Context) warn(wt config.Warning, format string, args ...interface{}) {
	if !ctx.cfg.IsWarningEnabled(wt) {
		return
	}
	ctx.diags = append(ctx.diags, Diagnostic{
		Warning: wt, Case: ctx.pos.caseIdx, Line: ctx.pos.line,
		Message: fmt.Sprintf(format, args...),
	})
}

// NextQuad is the index the next emitted quad will receive.
func (ctx *Context) NextQuad() int { return ctx.prog.NextQuad() }

// Emit appends in as a new quad and returns its index.
func (ctx *Context) Emit(in ir.Instruction) int {
	q := ctx.prog.Append(in)
	ctx.log("Emitted %s", q)
	return q.Index
}

// Backpatch points every jump in list at target. Indices outside the emitted
// sequence, and quads that are not unresolved jumps, are left alone.
func (ctx *Context) Backpatch(list ir.QuadList, target int) {
	for _, idx := range list {
		if idx < 0 || idx >= len(ctx.prog.Quads) {
			continue
		}
		ctx.prog.Quads[idx].Patch(ir.Target(target))
	}
}

// Merge concatenates a and b into a fresh list; either may be nil.
func Merge(a, b ir.QuadList) ir.QuadList {
	merged := make(ir.QuadList, 0, len(a)+len(b))
	merged = append(merged, a...)
	return append(merged, b...)
}

func MakeList(quad int) ir.QuadList { return ir.QuadList{quad} }
