package codegen

import (
	"bytes"

	"github.com/xplshn/gtac/pkg/config"
)

// Backend is the interface that all output backends must implement.
type Backend interface {
	// Generate renders a translation result in the backend's final output form.
	Generate(res *Result, cfg *config.Config) (*bytes.Buffer, error)
	// GenerateIR renders the backend's intermediate form, for --dump-ir.
	GenerateIR(res *Result, cfg *config.Config) (string, error)
}
