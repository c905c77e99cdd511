package codegen

import (
	"strings"

	"github.com/xplshn/gtac/pkg/config"
	"github.com/xplshn/gtac/pkg/ir"
)

// Case is one entry of a switch: a value case or the default, a main statement
// emitted verbatim, and equations lowered to three-address code.
type Case struct {
	Value     string
	IsDefault bool
	Statement string
	Equations []string
}

// NewCase builds a value case from the flat boundary form, where the first line
// is the main statement and every later line is an equation.
func NewCase(value string, lines []string) Case {
	c := Case{Value: value}
	if len(lines) > 0 {
		c.Statement, c.Equations = lines[0], lines[1:]
	}
	return c
}

func NewDefault(lines []string) Case {
	c := NewCase("", lines)
	c.IsDefault = true
	return c
}

func (c Case) label() string {
	if c.IsDefault {
		return "default"
	}
	return c.Value
}

// SwitchTranslator lowers one switch statement with the classic backpatching
// scheme: case bodies first, then the comparison cascade they are reached from.
type SwitchTranslator struct {
	ctx          *Context
	caseQueue    []ir.CaseLabel
	defaultLabel ir.Target
}

func NewSwitchTranslator(ctx *Context) *SwitchTranslator {
	return &SwitchTranslator{ctx: ctx, defaultLabel: ir.Unresolved}
}

// TranslateSwitch emits the whole construct and returns the switch's own next
// list, already backpatched to the exit address.
func (st *SwitchTranslator) TranslateSwitch(expr string, cases []Case) ir.QuadList {
	ctx := st.ctx
	ctx.log("=== Translating Switch Statement ===")
	ctx.log("Switch expression: %s", expr)

	if _, ok := ctx.syms.Lookup(expr); !ok {
		ctx.syms.Declare(expr, "unknown")
	}
	sym, _ := ctx.syms.Lookup(expr)
	exprPlace := sym.Place
	ctx.log("Expression place: %s", exprPlace)

	if len(cases) == 0 {
		ctx.warn(config.WarnEmptySwitch, "switch on '%s' has no cases", expr)
	}

	// N -> e: a jump over the case bodies to the comparison cascade.
	nQuad := ctx.Emit(ir.Goto(ir.Unresolved))
	nNext := MakeList(nQuad)
	ctx.log("Generated N.next quad at %d: goto %s", nQuad, ir.Placeholder)

	var caselistNext ir.QuadList
	for i, c := range cases {
		ctx.pos = position{i, -1}
		if c.IsDefault {
			caselistNext = st.translateDefault(c, caselistNext)
		} else {
			caselistNext = st.translateCase(c, caselistNext)
		}
	}
	ctx.pos = position{-1, -1}

	ctx.Backpatch(nNext, ctx.NextQuad())
	ctx.log("Backpatched N.next (%d) with %d", nQuad, ctx.NextQuad())

	ctx.log("=== Generating Comparison Code ===")
	for _, entry := range st.caseQueue {
		q := ctx.Emit(ir.IfEq(exprPlace, entry.Value, entry.Addr))
		ctx.stats.Comparisons++
		ctx.log("Generated comparison at quad %d: if %s == %s goto %s", q, exprPlace, entry.Value, entry.Addr)
	}

	if st.defaultLabel.IsResolved() {
		q := ctx.Emit(ir.Goto(st.defaultLabel))
		ctx.log("Generated goto default at quad %d: goto %s", q, st.defaultLabel)
	}

	exit := ctx.NextQuad()
	if len(caselistNext) > 0 {
		ctx.Backpatch(caselistNext, exit)
		ctx.log("Backpatched switch next list %v with %d", []int(caselistNext), exit)
	}
	ctx.Emit(ir.Marker("End of switch statement"))
	ctx.log("Generated end label at %d", exit)

	ctx.prog.Cases = st.caseQueue
	ctx.prog.Default = st.defaultLabel
	ctx.prog.Exit = ir.Target(exit)
	return caselistNext
}

// translateCase handles caselist -> caselist case V : S.
func (st *SwitchTranslator) translateCase(c Case, prevNext ir.QuadList) ir.QuadList {
	ctx := st.ctx
	ctx.log("=== Translating Case: %s ===", c.Value)

	caseLabel := ir.Target(ctx.NextQuad())
	ctx.log("V.place = %s, V.next = %d", c.Value, caseLabel)
	for _, prev := range st.caseQueue {
		if prev.Value == c.Value {
			ctx.warn(config.WarnExtra, "case value '%s' repeats the case at %d; its comparison can never match", c.Value, prev.Addr)
			break
		}
	}

	st.genBody(c, caseLabel)
	next := st.closeBody(c, prevNext)

	st.caseQueue = append(st.caseQueue, ir.CaseLabel{Value: c.Value, Addr: caseLabel})
	ctx.log("Added to case queue: (%s, %d)", c.Value, caseLabel)
	return next
}

// translateDefault handles caselist -> caselist default : M S.
func (st *SwitchTranslator) translateDefault(c Case, prevNext ir.QuadList) ir.QuadList {
	ctx := st.ctx
	ctx.log("=== Translating Default Case ===")

	if st.defaultLabel.IsResolved() {
		if ctx.cfg.IsFeatureEnabled(config.FeatStrictDefault) {
			ctx.warn(config.WarnDupDefault, "duplicate default case rejected, the default at %d stays", st.defaultLabel)
			ctx.log("Duplicate default case rejected - skipping")
			return prevNext
		}
		ctx.warn(config.WarnDupDefault, "duplicate default case overrides the default at %d", st.defaultLabel)
	}

	mQuad := ir.Target(ctx.NextQuad())
	ctx.log("M.quad = %d", mQuad)
	st.defaultLabel = mQuad
	ctx.log("Default label: %d", st.defaultLabel)

	st.genBody(c, mQuad)
	return st.closeBody(c, prevNext)
}

func (st *SwitchTranslator) genBody(c Case, start ir.Target) {
	ctx := st.ctx
	ctx.log("Generating code for %s case at quad %d", c.label(), start)

	if stmt := strings.TrimSpace(c.Statement); stmt != "" {
		ctx.pos.line = 0
		if IsValidEquation(strings.TrimSuffix(stmt, ";")) {
			ctx.warn(config.WarnExtra, "statement '%s' looks like an equation but is emitted verbatim", stmt)
		}
		ctx.Emit(ir.Opaque(c.Statement))
	}

	if len(c.Equations) > 0 {
		ctx.log("=== Processing Equations for Case: %s ===", c.label())
	}
	for i, raw := range c.Equations {
		ctx.pos.line = i + 1
		eq := strings.TrimSpace(raw)
		if ctx.cfg.IsFeatureEnabled(config.FeatTrimSemi) {
			eq = strings.TrimSpace(strings.TrimSuffix(eq, ";"))
		}
		if eq == "" {
			continue
		}

		if !IsValidEquation(eq) {
			ctx.log("Invalid equation format: %s - skipping", eq)
			ctx.warn(config.WarnInvalidEq, "invalid equation '%s' skipped", eq)
			ctx.stats.Rejected++
			continue
		}
		ctx.log("Processing equation: %s", eq)
		if err := ctx.LowerEquation(eq); err != nil {
			ctx.log("Incomplete expression in equation: %s - skipping", eq)
			ctx.warn(config.WarnIncompleteExpr, "%v", err)
			ctx.stats.Rejected++
			continue
		}
		ctx.stats.Accepted++
	}
	ctx.pos.line = -1

	if ctx.NextQuad() == int(start) {
		ctx.warn(config.WarnEmptyCase, "%s case has no statements", c.label())
	}
}

// closeBody emits the jump out of a case body and folds it into the running
// next list: caselist.next = merge(caselist1.next, S.next, makelist(goto)).
func (st *SwitchTranslator) closeBody(c Case, prevNext ir.QuadList) ir.QuadList {
	ctx := st.ctx
	var sNext ir.QuadList

	gotoQuad := ctx.Emit(ir.Goto(ir.Unresolved))
	ctx.log("Generated goto at the end of %s case at quad %d: goto %s", c.label(), gotoQuad, ir.Placeholder)
	return Merge(prevNext, Merge(sNext, MakeList(gotoQuad)))
}
