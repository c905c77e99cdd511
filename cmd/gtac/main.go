package main

import (
	"bytes"
	"fmt"
	"os"
	"runtime"

	"github.com/xplshn/gtac/pkg/cli"
	"github.com/xplshn/gtac/pkg/codegen"
	"github.com/xplshn/gtac/pkg/config"
	"github.com/xplshn/gtac/pkg/input"
	"github.com/xplshn/gtac/pkg/util"
)

func main() {
	app := cli.NewApp("gtac")
	app.Synopsis = "[options] [<switch.json> ...]"
	app.Description = "Translates switch-case statements into three-address code with backpatching. Each input file holds one switch; without files, the switch comes from --expr and --case."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/gtac>"

	var (
		outFile   string
		std       string
		target    string
		expr      string
		caseFlags []string
		dumpIR    bool
		withLogs  bool
		showStats bool
		wall      bool
		wnoAll    bool
	)

	fs := app.FlagSet
	fs.String(&outFile, "output", "o", "", "Place the output into <file> instead of standard output.", "file")
	fs.String(&target, "target", "t", "tac", "Set the backend and target ABI.", "backend/target")
	fs.String(&std, "std", "", "classic", "Specify the lowering standard (classic, grouped)", "std")
	fs.String(&expr, "expr", "e", "", "Switch expression when no input file is given.", "expr")
	fs.List(&caseFlags, "case", "c", []string{}, "Add a case as 'value: statement | equation | ...'; 'default' marks the default case.", "case")
	fs.Bool(&dumpIR, "dump-ir", "d", false, "Dump the backend's intermediate form and exit.")
	fs.Bool(&withLogs, "logs", "", false, "Append the translation log to tac output.")
	fs.Bool(&showStats, "stats", "", false, "Print translation statistics and the code fingerprint.")
	fs.Bool(&wall, "Wall", "", false, "Enable all warnings.")
	fs.Bool(&wnoAll, "Wno-all", "", false, "Disable all warnings.")

	cfg := config.NewConfig()
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	app.Action = func(inputFiles []string) error {
		// Standard first, then -Wall/-Wno-all, then individual flags override both.
		if err := cfg.ApplyStd(std); err != nil {
			util.Error("", "%v", err)
		}
		if wall {
			cfg.ProcessFlags("-Wall")
		}
		if wnoAll {
			cfg.ProcessFlags("-Wno-all")
		}
		cfg.ApplyFlagGroups(warningFlags, featureFlags)

		if err := cfg.SetTarget(runtime.GOOS, runtime.GOARCH, target); err != nil {
			util.Error("", "%v", err)
		}

		switches := readSwitches(inputFiles, expr, caseFlags)
		if len(switches) == 0 {
			util.Error("", "no input files specified and no --expr given.")
		}

		backend := selectBackend(cfg.BackendName, withLogs)
		out, err := translateAll(switches, cfg, backend, dumpIR, showStats)
		if err != nil {
			util.Error("", "%v", err)
		}

		if outFile == "" {
			_, err := os.Stdout.Write(out)
			return err
		}
		if err := os.WriteFile(outFile, out, 0o644); err != nil {
			util.Error("", "could not write '%s': %v", outFile, err)
		}
		return nil
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

type namedSwitch struct {
	*input.Switch
	name string
}

func readSwitches(paths []string, expr string, caseFlags []string) []namedSwitch {
	var switches []namedSwitch
	for _, path := range paths {
		sw, err := input.ReadFile(path)
		if err != nil {
			util.Error("", "%v", err)
		}
		switches = append(switches, namedSwitch{Switch: sw, name: path + ": "})
	}
	if expr != "" || len(caseFlags) > 0 {
		sw, err := input.FromFlags(expr, caseFlags)
		if err != nil {
			util.Error("", "%v", err)
		}
		switches = append(switches, namedSwitch{Switch: sw})
	}
	return switches
}

// translateAll runs every switch through the translator and the backend,
// reporting diagnostics on stderr as it goes.
func translateAll(switches []namedSwitch, cfg *config.Config, backend codegen.Backend, dumpIR, showStats bool) ([]byte, error) {
	var out bytes.Buffer
	for _, sw := range switches {
		res := codegen.Translate(sw.Expression, sw.Cases, cfg)
		for _, d := range res.Diagnostics {
			util.Warn(cfg, d.Warning, sw.name+d.Where(), "%s", d.Message)
		}
		if showStats {
			s := res.Stats
			util.Info("%s: %d quads, %d comparisons, %d temporaries, %d equations lowered, %d rejected, fingerprint %s",
				sw.Expression, s.Quads, s.Comparisons, s.Temporaries, s.Accepted, s.Rejected, res.Fingerprint())
		}

		if dumpIR {
			irText, err := backend.GenerateIR(res, cfg)
			if err != nil {
				return nil, fmt.Errorf("%sbackend IR generation failed: %w", sw.name, err)
			}
			out.WriteString(irText)
			continue
		}
		buf, err := backend.Generate(res, cfg)
		if err != nil {
			return nil, fmt.Errorf("%sbackend code generation failed: %w", sw.name, err)
		}
		out.Write(buf.Bytes())
	}
	return out.Bytes(), nil
}

func selectBackend(name string, withLogs bool) codegen.Backend {
	switch name {
	case "tac":
		return codegen.NewTACBackend(withLogs)
	case "json":
		return codegen.NewJSONBackend()
	case "qbe":
		return codegen.NewQBEBackend()
	default:
		util.Error("", "unsupported backend '%s'", name)
		return nil
	}
}
