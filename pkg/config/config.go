// Package config holds the driver's ambient toggles: which lints run
// alongside the mandatory semantic checks, and how diagnostics render. It
// follows the same Feature/Warning table shape the teacher uses for its own
// flag handling, trimmed to the handful of knobs this front end actually
// needs.
package config

import "strings"

// Warning identifies an optional diagnostic category. Unlike the error
// kinds in pkg/diag, warnings never gate code generation.
type Warning int

const (
	// WarnReadFunctionType flags `read` targets whose type is Function,
	// which the analyzer accepts for compatibility but which is never a
	// sensible program (see the open design note on this rule).
	WarnReadFunctionType Warning = iota
	// WarnUnusedLocal flags local variables that are declared but never
	// appear on the left of an assignment and are never read into.
	WarnUnusedLocal
	WarnCount
)

type warningInfo struct {
	Name    string
	Enabled bool
}

// Config is the full set of driver-level settings for one compilation.
type Config struct {
	Warnings   map[Warning]warningInfo
	WarningMap map[string]Warning
	Color      bool
}

// NewConfig returns a Config with every warning at its default setting.
func NewConfig() *Config {
	c := &Config{
		Warnings:   make(map[Warning]warningInfo),
		WarningMap: make(map[string]Warning),
	}
	defaults := map[Warning]warningInfo{
		WarnReadFunctionType: {"read-function-type", true},
		WarnUnusedLocal:      {"unused-local", false},
	}
	for w, info := range defaults {
		c.Warnings[w] = info
		c.WarningMap[info.Name] = w
	}
	return c
}

func (c *Config) SetWarning(w Warning, enabled bool) {
	if info, ok := c.Warnings[w]; ok {
		info.Enabled = enabled
		c.Warnings[w] = info
	}
}

func (c *Config) IsWarningEnabled(w Warning) bool { return c.Warnings[w].Enabled }

// ApplyFlag interprets one -W/-Wno- style flag, the same vocabulary the
// teacher's driver accepts for its own warning flags.
func (c *Config) ApplyFlag(flag string) {
	trimmed := strings.TrimPrefix(flag, "-")
	trimmed = strings.TrimPrefix(trimmed, "W")
	enable := true
	if strings.HasPrefix(trimmed, "no-") {
		trimmed = strings.TrimPrefix(trimmed, "no-")
		enable = false
	}
	if trimmed == "all" {
		for i := Warning(0); i < WarnCount; i++ {
			c.SetWarning(i, enable)
		}
		return
	}
	if w, ok := c.WarningMap[trimmed]; ok {
		c.SetWarning(w, enable)
	}
}
