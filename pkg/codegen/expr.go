package codegen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xplshn/gtac/pkg/config"
	"github.com/xplshn/gtac/pkg/ir"
	"github.com/xplshn/gtac/pkg/lexer"
	"github.com/xplshn/gtac/pkg/token"
)

var identRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func IsValidIdentifier(s string) bool { return identRe.MatchString(s) }

// HasBalancedParentheses reports whether every ')' closes an earlier '(' and
// none are left open.
func HasBalancedParentheses(s string) bool {
	depth := 0
	for _, ch := range s {
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// IsValidEquation accepts "lhs = rhs" with exactly one '=', an identifier on the
// left and a non-empty, parenthesis-balanced right-hand side.
func IsValidEquation(eq string) bool {
	parts := strings.Split(eq, "=")
	if len(parts) != 2 {
		return false
	}
	lhs, rhs := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	return IsValidIdentifier(lhs) && rhs != "" && HasBalancedParentheses(rhs)
}

// ExprError reports a right-hand side that does not reduce to a single operand.
type ExprError struct {
	Expr   string
	Reason string
}

func (e *ExprError) Error() string { return fmt.Sprintf("cannot lower '%s': %s", e.Expr, e.Reason) }

// operand is either source text or the result of an earlier reduction step.
type operand struct {
	text string
	step int
}

type item struct {
	tok   token.Token
	val   operand
	unary bool
}

func (it item) isOperand() bool { return it.tok.Type == token.Operand }

// prefixPosition reports whether a sign following prev would be unary.
func prefixPosition(prev []item) bool {
	if len(prev) == 0 {
		return true
	}
	last := prev[len(prev)-1].tok.Type
	return last.IsArith() || last == token.LParen
}

type step struct {
	op   token.Type
	args []operand
}

// plan is the ordered list of temporaries an expression needs. Nothing is
// emitted until the whole expression has reduced.
type plan struct{ steps []step }

func (p *plan) add(op token.Type, args ...operand) operand {
	p.steps = append(p.steps, step{op: op, args: args})
	return operand{step: len(p.steps) - 1}
}

func operandItem(v operand) item { return item{tok: token.Token{Type: token.Operand}, val: v} }

func toItems(toks []token.Token) []item {
	items := make([]item, len(toks))
	for i, t := range toks {
		items[i] = item{tok: t, val: operand{text: t.Value, step: -1}}
	}
	return items
}

// LowerEquation emits the quads of a validated "lhs = rhs" equation.
func (ctx *Context) LowerEquation(eq string) error {
	lhs, rhs, _ := strings.Cut(eq, "=")
	lhs, rhs = strings.TrimSpace(lhs), strings.TrimSpace(rhs)

	if !lexer.ContainsOperator(rhs) {
		ctx.Emit(ir.Copy(lhs, rhs))
		return nil
	}

	toks := lexer.Tokenize(rhs)
	var (
		p      *plan
		result operand
		err    error
	)
	if ctx.cfg.IsFeatureEnabled(config.FeatParenGrouping) {
		p, result, err = ctx.planGrouped(rhs, toks)
	} else {
		p, result, err = ctx.planFlat(rhs, toks)
	}
	if err != nil {
		return err
	}

	names := make([]string, len(p.steps))
	resolve := func(v operand) string {
		if v.step >= 0 {
			return names[v.step]
		}
		return v.text
	}
	for i, s := range p.steps {
		temp := ctx.syms.NewTemp()
		if len(s.args) == 1 {
			ctx.Emit(ir.Unary(temp, s.op, resolve(s.args[0])))
		} else {
			ctx.Emit(ir.Binary(temp, s.op, resolve(s.args[0]), resolve(s.args[1])))
		}
		names[i] = temp
	}
	ctx.Emit(ir.Copy(lhs, resolve(result)))
	return nil
}

// planFlat reduces multiplicative operators left to right, then additive ones.
// Parentheses are carried by the lexer but never affect the order.
func (ctx *Context) planFlat(rhs string, toks []token.Token) (*plan, operand, error) {
	p := &plan{}
	items := toItems(toks)

	if ctx.cfg.IsFeatureEnabled(config.FeatUnary) {
		items = reduceUnary(items, p)
	}

	kept := items[:0:0]
	for _, it := range items {
		if it.tok.Type != token.LParen && it.tok.Type != token.RParen {
			kept = append(kept, it)
		}
	}
	if len(kept) != len(items) {
		ctx.warn(config.WarnFlatParens, "parentheses in '%s' do not change evaluation order", rhs)
	}

	items = reducePass(kept, token.Type.IsMultiplicative, p)
	items = reducePass(items, token.Type.IsAdditive, p)

	if len(items) != 1 || !items[0].isOperand() {
		return nil, operand{}, &ExprError{Expr: rhs, Reason: fmt.Sprintf("%d tokens left after reduction", len(items))}
	}
	return p, items[0].val, nil
}

// reduceUnary folds prefix signs into their operand, innermost first.
func reduceUnary(items []item, p *plan) []item {
	for i := len(items) - 2; i >= 0; i-- {
		op := items[i].tok.Type
		if !op.IsAdditive() || !items[i+1].isOperand() || !prefixPosition(items[:i]) {
			continue
		}
		reduced := items[i+1]
		if op == token.Minus {
			reduced = operandItem(p.add(op, items[i+1].val))
		}
		items = append(items[:i:i], append([]item{reduced}, items[i+2:]...)...)
	}
	return items
}

// reducePass rebuilds the sequence, replacing each "operand op operand" whose
// operator matches with the step that computes it. Chains reduce left to right.
func reducePass(items []item, match func(token.Type) bool, p *plan) []item {
	out := make([]item, 0, len(items))
	for i := 0; i < len(items); i++ {
		it := items[i]
		if match(it.tok.Type) && len(out) > 0 && out[len(out)-1].isOperand() && i+1 < len(items) && items[i+1].isOperand() {
			left, right := out[len(out)-1], items[i+1]
			out[len(out)-1] = operandItem(p.add(it.tok.Type, left.val, right.val))
			i++
			continue
		}
		out = append(out, it)
	}
	return out
}

type stackOp struct {
	tok   token.Type
	unary bool
}

// planGrouped converts rhs to postfix with shunting-yard, honoring parentheses
// and left associativity, then evaluates the postfix order into steps.
func (ctx *Context) planGrouped(rhs string, toks []token.Token) (*plan, operand, error) {
	fail := func(reason string) (*plan, operand, error) {
		return nil, operand{}, &ExprError{Expr: rhs, Reason: reason}
	}

	var (
		postfix []item
		ops     []stackOp
	)
	expectOperand := true
	for _, t := range toks {
		switch {
		case t.Type == token.Operand:
			if !expectOperand {
				return fail(fmt.Sprintf("unexpected operand '%s' at column %d", t.Value, t.Column))
			}
			postfix = append(postfix, toItems([]token.Token{t})...)
			expectOperand = false
		case t.Type == token.LParen:
			if !expectOperand {
				return fail(fmt.Sprintf("unexpected '(' at column %d", t.Column))
			}
			ops = append(ops, stackOp{tok: t.Type})
		case t.Type == token.RParen:
			if expectOperand {
				return fail(fmt.Sprintf("missing operand before ')' at column %d", t.Column))
			}
			for len(ops) > 0 && ops[len(ops)-1].tok != token.LParen {
				postfix = append(postfix, opItem(ops[len(ops)-1]))
				ops = ops[:len(ops)-1]
			}
			if len(ops) == 0 {
				return fail(fmt.Sprintf("unmatched ')' at column %d", t.Column))
			}
			ops = ops[:len(ops)-1]
		case expectOperand:
			if !t.Type.IsAdditive() || !ctx.cfg.IsFeatureEnabled(config.FeatUnary) {
				return fail(fmt.Sprintf("missing operand before '%s' at column %d", t.Text(), t.Column))
			}
			ops = append(ops, stackOp{tok: t.Type, unary: true})
		default:
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				if top.tok == token.LParen || (!top.unary && top.tok.Precedence() < t.Type.Precedence()) {
					break
				}
				postfix = append(postfix, opItem(top))
				ops = ops[:len(ops)-1]
			}
			ops = append(ops, stackOp{tok: t.Type})
			expectOperand = true
		}
	}
	if expectOperand {
		return fail("expression ends with an operator")
	}
	for i := len(ops) - 1; i >= 0; i-- {
		if ops[i].tok == token.LParen {
			return fail("unclosed '('")
		}
		postfix = append(postfix, opItem(ops[i]))
	}

	p := &plan{}
	var stack []operand
	for _, it := range postfix {
		switch {
		case it.isOperand():
			stack = append(stack, it.val)
		case it.unary:
			top := stack[len(stack)-1]
			if it.tok.Type == token.Minus {
				stack[len(stack)-1] = p.add(token.Minus, top)
			}
		default:
			lhs, rhsOp := stack[len(stack)-2], stack[len(stack)-1]
			stack = append(stack[:len(stack)-2], p.add(it.tok.Type, lhs, rhsOp))
		}
	}
	return p, stack[0], nil
}

func opItem(op stackOp) item { return item{tok: token.Token{Type: op.tok}, unary: op.unary} }
