// Package cli implements the driver's flag parsing and help rendering. The
// flag vocabulary is much smaller than a general-purpose compiler's, so
// this keeps only the pieces of the teacher's flag framework that carry
// their weight here: a Value-based FlagSet/App pair and one flag group for
// warnings, with terminal-width-aware help text gated on a real TTY.
package cli

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Value is anything a flag can bind to.
type Value interface {
	String() string
	Set(string) error
}

type stringValue struct{ p *string }

func (v *stringValue) Set(s string) error { *v.p = s; return nil }
func (v *stringValue) String() string     { return *v.p }

type boolValue struct{ p *bool }

func (v *boolValue) Set(s string) error {
	if s == "" {
		*v.p = true
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid boolean value %q: %w", s, err)
	}
	*v.p = b
	return nil
}
func (v *boolValue) String() string { return strconv.FormatBool(*v.p) }

// Flag is one registered option.
type Flag struct {
	Name      string
	Shorthand string
	Usage     string
	Value     Value
	DefValue  string
}

func (f *Flag) isBool() bool {
	_, ok := f.Value.(*boolValue)
	return ok
}

// WarningFlag is one entry in the warnings flag group, toggled by
// -W<name>/-Wno-<name>.
type WarningFlag struct {
	Name    string
	Usage   string
	Enabled *bool
}

// FlagSet parses a command line into bound Values, collecting any
// remaining positional arguments.
type FlagSet struct {
	flags      map[string]*Flag
	shorthands map[string]*Flag
	warnings   []WarningFlag
	args       []string
}

func NewFlagSet() *FlagSet {
	return &FlagSet{flags: make(map[string]*Flag), shorthands: make(map[string]*Flag)}
}

func (f *FlagSet) Args() []string { return f.args }

func (f *FlagSet) String(p *string, name, shorthand, value, usage string) {
	*p = value
	f.define(&stringValue{p}, name, shorthand, usage, value)
}

func (f *FlagSet) Bool(p *bool, name, shorthand string, value bool, usage string) {
	*p = value
	f.define(&boolValue{p}, name, shorthand, usage, strconv.FormatBool(value))
}

func (f *FlagSet) define(v Value, name, shorthand, usage, defValue string) {
	flag := &Flag{Name: name, Shorthand: shorthand, Usage: usage, Value: v, DefValue: defValue}
	f.flags[name] = flag
	if shorthand != "" {
		f.shorthands[shorthand] = flag
	}
}

// Warnings registers the -W<name>/-Wno-<name> group, parsed specially since
// its flag names are open-ended (one per config.Warning).
func (f *FlagSet) Warnings(entries []WarningFlag) { f.warnings = entries }

func (f *FlagSet) warningFlag(name string) *WarningFlag {
	for i := range f.warnings {
		if f.warnings[i].Name == name {
			return &f.warnings[i]
		}
	}
	return nil
}

func (f *FlagSet) Parse(arguments []string) error {
	f.args = nil
	for i := 0; i < len(arguments); i++ {
		arg := arguments[i]
		if len(arg) < 2 || arg[0] != '-' {
			f.args = append(f.args, arg)
			continue
		}
		if arg == "--" {
			f.args = append(f.args, arguments[i+1:]...)
			break
		}
		name := strings.TrimLeft(arg, "-")
		value := ""
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			value, name = name[eq+1:], name[:eq]
		}

		if strings.HasPrefix(name, "W") {
			wname := strings.TrimPrefix(name, "W")
			enable := true
			if strings.HasPrefix(wname, "no-") {
				wname, enable = strings.TrimPrefix(wname, "no-"), false
			}
			if w := f.warningFlag(wname); w != nil {
				*w.Enabled = enable
				continue
			}
		}

		flag, ok := f.flags[name]
		if !ok {
			flag, ok = f.shorthands[name]
		}
		if !ok {
			return fmt.Errorf("unknown flag: %s", arg)
		}
		if flag.isBool() {
			if err := flag.Value.Set(value); err != nil {
				return err
			}
			continue
		}
		if value == "" {
			if i+1 >= len(arguments) {
				return fmt.Errorf("flag needs an argument: %s", arg)
			}
			i++
			value = arguments[i]
		}
		if err := flag.Value.Set(value); err != nil {
			return err
		}
	}
	return nil
}

// App ties a FlagSet to a name, a usage summary and an action.
type App struct {
	Name     string
	Synopsis string
	FlagSet  *FlagSet
	Action   func(args []string) error
}

func NewApp(name string) *App {
	return &App{Name: name, FlagSet: NewFlagSet()}
}

func (a *App) Run(arguments []string) error {
	help := false
	a.FlagSet.Bool(&help, "help", "h", false, "display this information")

	if err := a.FlagSet.Parse(arguments); err != nil {
		fmt.Fprintln(os.Stderr, err)
		a.printUsage(os.Stderr)
		return err
	}
	if help {
		a.printUsage(os.Stdout)
		return nil
	}
	if a.Action != nil {
		return a.Action(a.FlagSet.Args())
	}
	return nil
}

func (a *App) printUsage(w *os.File) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Usage: %s %s\n", a.Name, a.Synopsis)

	names := make([]string, 0, len(a.FlagSet.flags))
	for n := range a.FlagSet.flags {
		names = append(names, n)
	}
	sort.Strings(names)

	width := terminalWidth()
	maxFlag := 0
	for _, n := range names {
		if l := len(flagLabel(a.FlagSet.flags[n])); l > maxFlag {
			maxFlag = l
		}
	}

	if len(names) > 0 {
		sb.WriteString("\nOptions\n")
		for _, n := range names {
			flag := a.FlagSet.flags[n]
			label := flagLabel(flag)
			usage := wrap(flag.Usage, width-maxFlag-6)
			fmt.Fprintf(&sb, "  %-*s  %s\n", maxFlag, label, usage[0])
			for _, extra := range usage[1:] {
				fmt.Fprintf(&sb, "  %-*s  %s\n", maxFlag, "", extra)
			}
		}
	}

	if len(a.FlagSet.warnings) > 0 {
		sb.WriteString("\nWarnings (-W<name>, -Wno-<name>)\n")
		sorted := append([]WarningFlag(nil), a.FlagSet.warnings...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
		for _, wf := range sorted {
			state := "off"
			if *wf.Enabled {
				state = "on"
			}
			fmt.Fprintf(&sb, "  %-*s  %s [%s]\n", maxFlag, wf.Name, wf.Usage, state)
		}
	}
	fmt.Fprint(w, sb.String())
}

func flagLabel(f *Flag) string {
	if f.Shorthand != "" {
		return fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	}
	return "--" + f.Name
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w < 40 {
		return 80
	}
	return w
}

func wrap(text string, width int) []string {
	if width < 20 {
		width = 20
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	var cur strings.Builder
	for _, word := range words {
		if cur.Len()+len(word)+1 > width && cur.Len() > 0 {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
