package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/xplshn/gtac/pkg/codegen"
	"github.com/xplshn/gtac/pkg/config"
)

func testdata(name string) string { return filepath.Join("..", "..", "testdata", name) }

func jsonConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	if err := cfg.SetTarget(runtime.GOOS, runtime.GOARCH, "json"); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func decodeOutputs(t *testing.T, data []byte) []codegen.Output {
	t.Helper()
	var outs []codegen.Output
	dec := json.NewDecoder(bytes.NewReader(data))
	for {
		var out codegen.Output
		err := dec.Decode(&out)
		if errors.Is(err, io.EOF) {
			return outs
		}
		if err != nil {
			t.Fatalf("decoding json output: %v\n%s", err, data)
		}
		outs = append(outs, out)
	}
}

func TestTranslateInputFiles(t *testing.T) {
	tests := []struct {
		file string
		want codegen.Output
	}{
		{"days.json", codegen.Output{
			Expression: "day",
			Code: []string{
				"0: goto 7",
				"1: x = 1",
				"2: goto 10",
				"3: x = 2",
				"4: goto 10",
				"5: x = 0",
				"6: goto 10",
				"7: if day == 1 goto 1",
				"8: if day == 2 goto 3",
				"9: goto 5",
				"10: # End of switch statement",
			},
		}},
		{"arith.json", codegen.Output{
			Expression: "op",
			Code: []string{
				"0: goto 18",
				`1: printf("add");`,
				"2: t0 = b * c",
				"3: t1 = a + t0",
				"4: result = t1",
				"5: t2 = count + 1",
				"6: count = t2",
				"7: goto 21",
				"8: t3 = a * b",
				"9: t4 = c / d",
				"10: t5 = t4 % e",
				"11: t6 = t3 - t5",
				"12: result = t6",
				"13: goto 21",
				"14: t7 = b * c",
				"15: t8 = a + t7",
				"16: result = t8",
				"17: goto 21",
				"18: if op == 1 goto 1",
				"19: if op == 2 goto 8",
				"20: goto 14",
				"21: # End of switch statement",
			},
		}},
		{"rejected.json", codegen.Output{
			Expression: "code",
			Code: []string{
				"0: goto 8",
				"1: goto 11",
				"2: ok = 1",
				"3: goto 11",
				"4: first = 1",
				"5: goto 11",
				"6: second = 2",
				"7: goto 11",
				"8: if code == 'A' goto 1",
				"9: if code == 'B' goto 2",
				"10: goto 6",
				"11: # End of switch statement",
			},
			Diagnostics: []string{
				"case 1, line 2: invalid equation '1x = 5' skipped [-Winvalid-eq]",
				"case 1, line 3: invalid equation 'y == 2' skipped [-Winvalid-eq]",
				"case 1, line 4: cannot lower 'a +': 2 tokens left after reduction [-Wincomplete-expr]",
				"case 1, line 5: invalid equation 'w = (a + b' skipped [-Winvalid-eq]",
				"case 4: duplicate default case overrides the default at 4 [-Wdup-default]",
			},
		}},
		{"empty.json", codegen.Output{
			Expression:  "x",
			Code:        []string{"0: goto 1", "1: # End of switch statement"},
			Diagnostics: []string{"switch: switch on 'x' has no cases [-Wempty-switch]"},
		}},
	}

	ignore := cmpopts.IgnoreFields(codegen.Output{}, "Logs", "Fingerprint")
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			cfg := jsonConfig(t)
			switches := readSwitches([]string{testdata(tt.file)}, "", nil)
			out, err := translateAll(switches, cfg, selectBackend(cfg.BackendName, false), false, false)
			if err != nil {
				t.Fatal(err)
			}
			outs := decodeOutputs(t, out)
			if len(outs) != 1 {
				t.Fatalf("got %d documents, want 1", len(outs))
			}
			if diff := cmp.Diff(tt.want, outs[0], ignore); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
			if len(outs[0].Logs) == 0 || len(outs[0].Fingerprint) != 16 {
				t.Errorf("missing logs or fingerprint: %+v", outs[0])
			}
		})
	}
}

func TestTranslateSeveralFiles(t *testing.T) {
	cfg := jsonConfig(t)
	switches := readSwitches([]string{testdata("days.json"), testdata("empty.json")}, "", nil)
	if len(switches) != 2 || switches[0].name != testdata("days.json")+": " {
		t.Fatalf("switches = %+v", switches)
	}
	out, err := translateAll(switches, cfg, selectBackend(cfg.BackendName, false), false, false)
	if err != nil {
		t.Fatal(err)
	}
	outs := decodeOutputs(t, out)
	if len(outs) != 2 || outs[0].Expression != "day" || outs[1].Expression != "x" {
		t.Errorf("documents out of order: %+v", outs)
	}
	if outs[0].Fingerprint == outs[1].Fingerprint {
		t.Error("different code shares a fingerprint")
	}
}

func TestTranslateFromFlags(t *testing.T) {
	cfg := config.NewConfig()
	switches := readSwitches(nil, "day", []string{"1: | x = 1", "default: | x = 0"})
	if len(switches) != 1 || switches[0].name != "" {
		t.Fatalf("switches = %+v", switches)
	}

	out, err := translateAll(switches, cfg, selectBackend("tac", true), false, false)
	if err != nil {
		t.Fatal(err)
	}
	code, logs, _ := strings.Cut(string(out), "\n# Execution log\n")
	want := strings.Join([]string{
		"0: goto 5",
		"1: x = 1",
		"2: goto 7",
		"3: x = 0",
		"4: goto 7",
		"5: if day == 1 goto 1",
		"6: goto 3",
		"7: # End of switch statement",
	}, "\n") + "\n"
	if diff := cmp.Diff(want, code); diff != "" {
		t.Errorf("tac output mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(logs, "# === Translating Switch Statement ===") {
		t.Errorf("log section = %q", logs)
	}
}

func TestTranslateBackendError(t *testing.T) {
	cfg := config.NewConfig()
	if err := cfg.SetTarget(runtime.GOOS, runtime.GOARCH, "qbe/amd64_sysv"); err != nil {
		t.Fatal(err)
	}
	path := testdata("rejected.json")
	_, err := translateAll(readSwitches([]string{path}, "", nil), cfg, selectBackend(cfg.BackendName, false), true, false)
	var lowerErr *codegen.LowerError
	if !errors.As(err, &lowerErr) {
		t.Fatalf("error = %v, want a *codegen.LowerError", err)
	}
	if !strings.HasPrefix(err.Error(), path+": backend IR generation failed") {
		t.Errorf("error does not name the input: %v", err)
	}
}
