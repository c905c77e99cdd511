// Package input reads switch descriptions from JSON documents and from the
// compact "value: statement | equation ..." form used on the command line.
package input

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xplshn/gtac/pkg/codegen"
)

var (
	ErrNoExpression = errors.New("switch expression is empty")
	ErrBadCase      = errors.New("malformed case")
)

// Switch is one translation request.
type Switch struct {
	Expression string
	Cases      []codegen.Case
}

type caseDoc struct {
	Value      json.RawMessage `json:"value"`
	Default    bool            `json:"default"`
	Statements []string        `json:"statements"`
}

type switchDoc struct {
	Expression string    `json:"expression"`
	Cases      []caseDoc `json:"cases"`
}

// Decode reads one JSON switch description. A case is the default when it sets
// "default": true or its value is null; otherwise the value is a string or a number.
func Decode(r io.Reader) (*Switch, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var doc switchDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid switch description: %w", err)
	}
	if strings.TrimSpace(doc.Expression) == "" {
		return nil, ErrNoExpression
	}

	sw := &Switch{Expression: doc.Expression}
	for i, cd := range doc.Cases {
		c, err := cd.toCase()
		if err != nil {
			return nil, fmt.Errorf("case %d: %w", i+1, err)
		}
		sw.Cases = append(sw.Cases, c)
	}
	return sw, nil
}

func (cd caseDoc) toCase() (codegen.Case, error) {
	raw := bytes.TrimSpace(cd.Value)
	if cd.Default || len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		if !cd.Default && len(raw) == 0 {
			return codegen.Case{}, fmt.Errorf("%w: no value and not marked default", ErrBadCase)
		}
		return codegen.NewDefault(cd.Statements), nil
	}

	var value string
	switch raw[0] {
	case '"':
		if err := json.Unmarshal(raw, &value); err != nil {
			return codegen.Case{}, fmt.Errorf("%w: %v", ErrBadCase, err)
		}
	default:
		var num json.Number
		if err := json.Unmarshal(raw, &num); err != nil {
			return codegen.Case{}, fmt.Errorf("%w: value must be a string, a number or null", ErrBadCase)
		}
		value = num.String()
	}
	return codegen.NewCase(value, cd.Statements), nil
}

// ReadFile decodes the switch description at path; "-" reads standard input.
func ReadFile(path string) (*Switch, error) {
	if path == "-" {
		return Decode(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not read file '%s': %w", path, err)
	}
	defer f.Close()
	sw, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sw, nil
}

// ParseCaseFlag parses "value: statement | equation | ...". The value "default"
// marks the default case. The text before the first ':' is the value.
func ParseCaseFlag(s string) (codegen.Case, error) {
	value, body, ok := strings.Cut(s, ":")
	if !ok {
		return codegen.Case{}, fmt.Errorf("%w: '%s' has no ':' after the case value", ErrBadCase, s)
	}
	value = strings.TrimSpace(value)
	lines := strings.Split(body, "|")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	switch value {
	case "":
		return codegen.Case{}, fmt.Errorf("%w: '%s' has an empty case value", ErrBadCase, s)
	case "default":
		return codegen.NewDefault(lines), nil
	}
	return codegen.NewCase(value, lines), nil
}

// FromFlags builds a switch from -e and repeated -c values.
func FromFlags(expr string, caseFlags []string) (*Switch, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, ErrNoExpression
	}
	sw := &Switch{Expression: expr}
	for _, cf := range caseFlags {
		c, err := ParseCaseFlag(cf)
		if err != nil {
			return nil, err
		}
		sw.Cases = append(sw.Cases, c)
	}
	return sw, nil
}
