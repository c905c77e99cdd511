package config

import (
	"fmt"
	"strings"

	"modernc.org/libqbe"
)

type Feature int

const (
	FeatParenGrouping Feature = iota
	FeatUnary
	FeatTrimSemi
	FeatStrictDefault
	FeatOpaqueComments
	FeatCount
)

type Warning int

const (
	WarnInvalidEq Warning = iota
	WarnIncompleteExpr
	WarnDupDefault
	WarnFlatParens
	WarnEmptySwitch
	WarnEmptyCase
	WarnExtra
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Features      map[Feature]Info
	Warnings      map[Warning]Info
	FeatureMap    map[string]Feature
	WarningMap    map[string]Warning
	StdName       string
	BackendName   string
	BackendTarget string
	WordType      string
}

func NewConfig() *Config {
	cfg := &Config{
		Features:    make(map[Feature]Info),
		Warnings:    make(map[Warning]Info),
		FeatureMap:  make(map[string]Feature),
		WarningMap:  make(map[string]Warning),
		StdName:     "classic",
		BackendName: "tac",
		WordType:    "w",
	}

	features := map[Feature]Info{
		FeatParenGrouping:  {"paren-grouping", false, "Honor parentheses and associativity when lowering equations."},
		FeatUnary:          {"unary", false, "Lower prefix '-' and '+' applied to an operand."},
		FeatTrimSemi:       {"trim-semi", true, "Strip one trailing ';' from equations."},
		FeatStrictDefault:  {"strict-default", false, "Reject a second default case instead of letting it override the first."},
		FeatOpaqueComments: {"opaque-comments", true, "Keep opaque statements as comments in QBE output instead of failing."},
	}

	warnings := map[Warning]Info{
		WarnInvalidEq:      {"invalid-eq", true, "Warn when an equation is malformed and skipped."},
		WarnIncompleteExpr: {"incomplete-expr", true, "Warn when an equation's right-hand side does not reduce to one operand."},
		WarnDupDefault:     {"dup-default", true, "Warn when more than one default case is given."},
		WarnFlatParens:     {"flat-parens", false, "Warn when parentheses are ignored by flat lowering."},
		WarnEmptySwitch:    {"empty-switch", true, "Warn when a switch has no cases."},
		WarnEmptyCase:      {"empty-case", false, "Warn when a case produces no code of its own."},
		WarnExtra:          {"extra", true, "Warn about duplicate case values and statements that look like equations."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}

	return cfg
}

// SetTarget selects the backend from a "backend[/abi]" string. For the qbe
// backend a missing ABI defaults to the host's.
func (c *Config) SetTarget(goos, goarch, target string) error {
	backend, abi, _ := strings.Cut(target, "/")
	if backend == "" {
		backend = "tac"
	}
	c.BackendName = backend

	switch backend {
	case "tac", "json":
		if abi != "" {
			return fmt.Errorf("backend '%s' takes no target ABI, got '%s'", backend, abi)
		}
		c.BackendTarget = ""
	case "qbe":
		if abi == "" {
			abi = libqbe.DefaultTarget(goos, goarch)
		}
		switch abi {
		case "amd64_sysv", "amd64_apple", "arm64", "arm64_apple", "rv64":
		default:
			return fmt.Errorf("unrecognized or unsupported QBE target '%s'", abi)
		}
		c.BackendTarget = abi
	default:
		return fmt.Errorf("unsupported backend '%s'. Supported: 'tac', 'json', 'qbe'", backend)
	}
	return nil
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// ApplyStd switches between the classic flat lowering and the grouping-aware one.
func (c *Config) ApplyStd(stdName string) error {
	type stdSettings struct {
		feature      Feature
		classicValue bool
		groupedValue bool
	}

	settings := []stdSettings{
		{FeatParenGrouping, false, true},
		{FeatUnary, false, true},
	}

	switch stdName {
	case "classic":
		for _, s := range settings {
			c.SetFeature(s.feature, s.classicValue)
		}
		c.SetWarning(WarnFlatParens, false)
	case "grouped":
		for _, s := range settings {
			c.SetFeature(s.feature, s.groupedValue)
		}
	default:
		return fmt.Errorf("unsupported standard '%s'. Supported: 'classic', 'grouped'", stdName)
	}
	c.StdName = stdName
	return nil
}

func (c *Config) applyFlag(flag string) {
	trimmed := strings.TrimPrefix(flag, "-")
	isNo := strings.HasPrefix(trimmed, "Wno-") || strings.HasPrefix(trimmed, "Fno-")
	enable := !isNo

	var name string
	var isWarning bool

	switch {
	case strings.HasPrefix(trimmed, "W"):
		name = strings.TrimPrefix(trimmed, "W")
		if isNo {
			name = strings.TrimPrefix(name, "no-")
		}
		isWarning = true
	case strings.HasPrefix(trimmed, "F"):
		name = strings.TrimPrefix(trimmed, "F")
		if isNo {
			name = strings.TrimPrefix(name, "no-")
		}
	default:
		name = trimmed
		isWarning = true
	}

	if name == "all" && isWarning {
		for i := Warning(0); i < WarnCount; i++ {
			c.SetWarning(i, enable)
		}
		return
	}

	if isWarning {
		if w, ok := c.WarningMap[name]; ok {
			c.SetWarning(w, enable)
		}
	} else {
		if f, ok := c.FeatureMap[name]; ok {
			c.SetFeature(f, enable)
		}
	}
}

// ProcessFlags applies a space separated list such as "-Wall -Fno-trim-semi".
// -Wall and -Wno-all go first so individual flags can override them.
func (c *Config) ProcessFlags(flagStr string) {
	flags := strings.Fields(flagStr)
	for _, f := range flags {
		if f == "-Wall" || f == "-Wno-all" {
			c.applyFlag(f)
		}
	}
	for _, f := range flags {
		if f != "-Wall" && f != "-Wno-all" {
			c.applyFlag(f)
		}
	}
}
