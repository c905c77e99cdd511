package util

import (
	"fmt"
	"os"

	"github.com/xplshn/gtac/pkg/config"
	"golang.org/x/term"
)

const (
	cRed    = "\033[31m"
	cYellow = "\033[33m"
	cNone   = "\033[0m"
)

var useColor = term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("NO_COLOR") == ""

func paint(color, s string) string {
	if !useColor { return s }
	return color + s + cNone
}

// Error prints a formatted error message and exits the program
func Error(where string, format string, args ...interface{}) {
	if where == "" { where = "gtac" }
	fmt.Fprintf(os.Stderr, "%s: %s ", where, paint(cRed, "error:"))
	fmt.Fprintf(os.Stderr, format, args...)
	fmt.Fprintln(os.Stderr)
	os.Exit(1)
}

// Warn prints a formatted warning message if the corresponding warning is enabled
func Warn(cfg *config.Config, wt config.Warning, where string, format string, args ...interface{}) {
	if !cfg.IsWarningEnabled(wt) { return }
	if where == "" { where = "gtac" }
	fmt.Fprintf(os.Stderr, "%s: %s ", where, paint(cYellow, "warning:"))
	fmt.Fprintf(os.Stderr, format, args...)
	fmt.Fprintf(os.Stderr, " [-W%s]\n", cfg.Warnings[wt].Name)
}

func Info(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "gtac: info: "+format+"\n", args...)
}
