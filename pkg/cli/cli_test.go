package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestFlagSet() (*FlagSet, *string, *string, *bool, *[]string) {
	var out, target string
	var logs bool
	var cases []string
	fs := NewFlagSet("gtac")
	fs.String(&out, "output", "o", "", "Output file.", "file")
	fs.String(&target, "target", "t", "tac", "Backend.", "backend/target")
	fs.Bool(&logs, "logs", "", false, "Append the log.")
	fs.List(&cases, "case", "c", []string{}, "Add a case.", "case")
	return fs, &out, &target, &logs, &cases
}

func TestParse(t *testing.T) {
	fs, out, target, logs, cases := newTestFlagSet()
	args := []string{"-o", "out.tac", "in.json", "--target=qbe/arm64", "-c1: | x = 1", "--case", "default: | x = 0", "-logs", "--", "-notaflag"}
	if err := fs.Parse(args); err != nil {
		t.Fatal(err)
	}

	if *out != "out.tac" || *target != "qbe/arm64" || !*logs {
		t.Errorf("got output=%q target=%q logs=%v", *out, *target, *logs)
	}
	if diff := cmp.Diff([]string{"1: | x = 1", "default: | x = 0"}, *cases); diff != "" {
		t.Errorf("cases mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"in.json", "-notaflag"}, fs.Args()); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"output", "target", "case", "case", "logs"}, fs.Visited()); diff != "" {
		t.Errorf("visited mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	for _, args := range [][]string{
		{"--nope"},
		{"--=x"},
		{"--output"},
		{"--logs=maybe"},
	} {
		fs, _, _, _, _ := newTestFlagSet()
		if err := fs.Parse(args); err == nil {
			t.Errorf("Parse(%q) succeeded, want an error", args)
		}
	}
}

func TestFlagGroupRegistration(t *testing.T) {
	fs := NewFlagSet("gtac")
	on, off := false, false
	fs.AddFlagGroup("Warning Flags", "warning flag", []FlagGroupEntry{
		{Name: "dup-default", Prefix: "W", Usage: "Duplicate defaults.", Enabled: &on, Disabled: &off},
	})
	if err := fs.Parse([]string{"-Wno-dup-default"}); err != nil {
		t.Fatal(err)
	}
	if on || !off {
		t.Errorf("enabled=%v disabled=%v", on, off)
	}
	if fs.Lookup("Wdup-default") == nil {
		t.Error("positive form was not registered")
	}
}

func TestHelpListsOptionsAndGroups(t *testing.T) {
	app := NewApp("gtac")
	app.Synopsis = "[options] <switch.json>"
	app.Authors = []string{"xplshn"}
	var target string
	app.FlagSet.String(&target, "target", "t", "tac", "Set the backend.", "backend/target")
	on, off := true, false
	app.FlagSet.AddFlagGroup("Feature Flags", "feature flag", []FlagGroupEntry{
		{Name: "trim-semi", Prefix: "F", Usage: "Strip one trailing ';'.", Enabled: &on, Disabled: &off},
	})

	var buf bytes.Buffer
	app.writeHelp(&buf)
	help := buf.String()
	for _, want := range []string{"-t, --target <backend/target>", "|tac|", "Feature Flags", "-Fno-<feature flag>", "trim-semi", "|x|"} {
		if !strings.Contains(help, want) {
			t.Errorf("help output lacks %q:\n%s", want, help)
		}
	}
	if strings.Contains(help, "--Ftrim-semi") {
		t.Error("group flags should not be listed among the options")
	}
}

func TestWrapText(t *testing.T) {
	if diff := cmp.Diff([]string{"a bb", "ccc"}, wrapText("a bb ccc", 4)); diff != "" {
		t.Errorf("wrapText mismatch (-want +got):\n%s", diff)
	}
	if got := wrapText("   ", 10); len(got) != 0 {
		t.Errorf("wrapText of blanks = %q", got)
	}
}
