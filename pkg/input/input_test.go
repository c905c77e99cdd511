package input

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/gtac/pkg/codegen"
)

func TestDecode(t *testing.T) {
	doc := `{
  "expression": "day",
  "cases": [
    {"value": 1, "statements": ["printf(\"Monday\");", "x = 1"]},
    {"value": "'B'", "statements": ["", "y = a + b;"]},
    {"value": 2.50, "statements": []},
    {"default": true, "statements": ["", "x = 0"]},
    {"value": null, "statements": ["z = 9"]}
  ]
}`
	sw, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}

	want := &Switch{
		Expression: "day",
		Cases: []codegen.Case{
			{Value: "1", Statement: `printf("Monday");`, Equations: []string{"x = 1"}},
			{Value: "'B'", Statement: "", Equations: []string{"y = a + b;"}},
			{Value: "2.50"},
			{IsDefault: true, Equations: []string{"x = 0"}},
			{IsDefault: true, Statement: "z = 9", Equations: []string{}},
		},
	}
	if diff := cmp.Diff(want, sw); diff != "" {
		t.Errorf("Decode mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"missing expression", `{"cases": []}`, ErrNoExpression},
		{"blank expression", `{"expression": "  ", "cases": []}`, ErrNoExpression},
		{"boolean value", `{"expression": "e", "cases": [{"value": true}]}`, ErrBadCase},
		{"object value", `{"expression": "e", "cases": [{"value": {}}]}`, ErrBadCase},
		{"no value", `{"expression": "e", "cases": [{"statements": ["x = 1"]}]}`, ErrBadCase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := Decode(strings.NewReader(`{"expression": "e", "cases": [], "extra": 1}`)); err == nil {
		t.Error("unknown fields should be rejected")
	}
	if _, err := Decode(strings.NewReader(`not json`)); err == nil {
		t.Error("malformed JSON should be rejected")
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sw.json")
	if err := os.WriteFile(path, []byte(`{"expression": "x", "cases": [{"value": 3, "statements": ["", "y = 1"]}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	sw, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if sw.Expression != "x" || len(sw.Cases) != 1 || sw.Cases[0].Value != "3" {
		t.Errorf("unexpected switch: %+v", sw)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestParseCaseFlag(t *testing.T) {
	tests := []struct {
		in   string
		want codegen.Case
	}{
		{"1: | x = a + b", codegen.Case{Value: "1", Equations: []string{"x = a + b"}}},
		{"'A' : puts(\"a\"); | y = 2 | z = y * 3", codegen.Case{Value: "'A'", Statement: `puts("a");`, Equations: []string{"y = 2", "z = y * 3"}}},
		{"default: x = 0", codegen.Case{IsDefault: true, Statement: "x = 0", Equations: []string{}}},
	}
	for _, tt := range tests {
		got, err := ParseCaseFlag(tt.in)
		if err != nil {
			t.Errorf("ParseCaseFlag(%q): %v", tt.in, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParseCaseFlag(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}

	for _, bad := range []string{"no colon here", " : x = 1"} {
		if _, err := ParseCaseFlag(bad); !errors.Is(err, ErrBadCase) {
			t.Errorf("ParseCaseFlag(%q) error = %v, want ErrBadCase", bad, err)
		}
	}
}

func TestFromFlags(t *testing.T) {
	sw, err := FromFlags("day", []string{"1: | x = 1", "default: | x = 0"})
	if err != nil {
		t.Fatal(err)
	}
	res := codegen.TranslateSwitchCase(sw.Expression, sw.Cases)
	want := []string{
		"0: goto 5",
		"1: x = 1",
		"2: goto 7",
		"3: x = 0",
		"4: goto 7",
		"5: if day == 1 goto 1",
		"6: goto 3",
		"7: # End of switch statement",
	}
	if diff := cmp.Diff(want, res.Code); diff != "" {
		t.Errorf("translation mismatch (-want +got):\n%s", diff)
	}

	if _, err := FromFlags("", nil); !errors.Is(err, ErrNoExpression) {
		t.Errorf("empty expression error = %v", err)
	}
}
