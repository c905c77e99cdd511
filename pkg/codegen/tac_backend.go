package codegen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xplshn/gtac/pkg/config"
)

type tacBackend struct{ withLogs bool }

// NewTACBackend prints the numbered quads, followed by the trace log when withLogs is set.
func NewTACBackend(withLogs bool) Backend { return &tacBackend{withLogs: withLogs} }

func (b *tacBackend) GenerateIR(res *Result, cfg *config.Config) (string, error) {
	if len(res.Code) == 0 {
		return "", nil
	}
	return strings.Join(res.Code, "\n") + "\n", nil
}

func (b *tacBackend) Generate(res *Result, cfg *config.Config) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	code, _ := b.GenerateIR(res, cfg)
	buf.WriteString(code)
	if b.withLogs && len(res.Logs) > 0 {
		buf.WriteString("\n# Execution log\n")
		for _, line := range res.Logs {
			fmt.Fprintf(&buf, "# %s\n", line)
		}
	}
	return &buf, nil
}

// Output is the JSON document written by the json backend and read back by gtest.
type Output struct {
	Expression  string   `json:"expression"`
	Code        []string `json:"code"`
	Logs        []string `json:"logs"`
	Diagnostics []string `json:"diagnostics,omitempty"`
	Fingerprint string   `json:"fingerprint"`
}

func NewOutput(res *Result, cfg *config.Config) Output {
	out := Output{
		Expression:  res.Expression,
		Code:        res.Code,
		Logs:        res.Logs,
		Fingerprint: res.Fingerprint(),
	}
	for _, d := range res.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, FormatDiagnostic(cfg, d))
	}
	return out
}

type jsonBackend struct{}

func NewJSONBackend() Backend { return &jsonBackend{} }

func (b *jsonBackend) GenerateIR(res *Result, cfg *config.Config) (string, error) {
	data, err := json.MarshalIndent(NewOutput(res, cfg), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal translation of '%s': %w", res.Expression, err)
	}
	return string(data) + "\n", nil
}

func (b *jsonBackend) Generate(res *Result, cfg *config.Config) (*bytes.Buffer, error) {
	doc, err := b.GenerateIR(res, cfg)
	if err != nil {
		return nil, err
	}
	return bytes.NewBufferString(doc), nil
}
