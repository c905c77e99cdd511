package codegen

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/xplshn/gtac/pkg/config"
	"github.com/xplshn/gtac/pkg/ir"
)

type Stats struct {
	Quads       int
	Comparisons int
	Temporaries int
	Accepted    int
	Rejected    int
}

// Result is everything one translation produces.
type Result struct {
	Expression  string
	Code        []string
	Logs        []string
	Diagnostics []Diagnostic
	Program     *ir.Program
	Next        ir.QuadList
	Stats       Stats
}

// Translate lowers a switch on expr to three-address code. Every call builds
// its own symbol table, emitter and translator, so calls may run concurrently.
// A nil cfg means the defaults of config.NewConfig.
func Translate(expr string, cases []Case, cfg *config.Config) *Result {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	ctx := NewContext(expr, cfg)
	next := NewSwitchTranslator(ctx).TranslateSwitch(expr, cases)

	ctx.stats.Quads = len(ctx.prog.Quads)
	ctx.stats.Temporaries = ctx.syms.TempCount()
	ctx.prog.Temps = ctx.stats.Temporaries

	return &Result{
		Expression:  expr,
		Code:        ctx.prog.Lines(),
		Logs:        ctx.logs,
		Diagnostics: ctx.diags,
		Program:     ctx.prog,
		Next:        next,
		Stats:       ctx.stats,
	}
}

// TranslateSwitchCase is Translate with the default configuration.
func TranslateSwitchCase(expr string, cases []Case) *Result { return Translate(expr, cases, nil) }

// Fingerprint identifies the emitted code; equal code gives equal fingerprints.
func (r *Result) Fingerprint() string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(strings.Join(r.Code, "\n")))
}

// FormatDiagnostic renders d the way the command line reports it.
func FormatDiagnostic(cfg *config.Config, d Diagnostic) string {
	return fmt.Sprintf("%s: %s [-W%s]", d.Where(), d.Message, cfg.Warnings[d.Warning].Name)
}
