// Package config resolves the effective configuration for one run: built-in
// defaults, the nearest gdtools.toml, and CLI flags, merged last-wins.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"github.com/Gurvan/gdtools/format"
	"github.com/Gurvan/gdtools/lint"
)

// FileName is the project configuration file, located by walking upward
// from the first input path.
const FileName = "gdtools.toml"

const (
	IndentTabs   = "tabs"
	IndentSpaces = "spaces"
)

// Config is the effective configuration shared read-only by every file
// task of a run.
type Config struct {
	Exclude []string

	Disabled map[string]bool
	Max      map[string]int
	Pattern  map[string]string
	Severity map[string]lint.Severity

	LineLength  int
	IndentStyle string
	IndentSize  int

	WarningsAsErrors bool

	// Root is the directory the config file was found in, or the start
	// directory when there is none; exclude globs are matched against
	// paths relative to it.
	Root string
}

func Default() *Config {
	return &Config{
		Disabled:    make(map[string]bool),
		Max:         make(map[string]int),
		Pattern:     make(map[string]string),
		Severity:    make(map[string]lint.Severity),
		LineLength:  100,
		IndentStyle: IndentTabs,
		IndentSize:  4,
	}
}

func (c *Config) LintSettings() lint.Settings {
	return lint.Settings{
		Disabled:         c.Disabled,
		Max:              c.Max,
		Pattern:          c.Pattern,
		Severity:         c.Severity,
		WarningsAsErrors: c.WarningsAsErrors,
	}
}

func (c *Config) FormatOptions() format.Options {
	indent := "\t"
	if c.IndentStyle == IndentSpaces {
		indent = strings.Repeat(" ", c.IndentSize)
	}
	return format.Options{LineLength: c.LineLength, Indent: indent}
}

// Resolve walks upward from start looking for gdtools.toml, unless an
// explicit path was given on the command line. All inputs under the same
// root share one config.
func Resolve(start, explicit string, logger logrus.FieldLogger) (*Config, error) {
	c := Default()

	path := explicit
	if path == "" {
		path = findUp(start)
	}
	if path == "" {
		root, err := filepath.Abs(start)
		if err == nil {
			if info, statErr := os.Stat(root); statErr == nil && !info.IsDir() {
				root = filepath.Dir(root)
			}
			c.Root = root
		}
		return c, nil
	}

	c.Root = filepath.Dir(path)
	if abs, err := filepath.Abs(c.Root); err == nil {
		c.Root = abs
	}
	if err := c.load(path, logger); err != nil {
		return nil, err
	}
	return c, nil
}

func findUp(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return ""
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		cand := filepath.Join(dir, FileName)
		if _, err := os.Stat(cand); err == nil {
			return cand
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

type fileConfig struct {
	Exclude []string                  `toml:"exclude"`
	Rules   map[string]toml.Primitive `toml:"rules"`
	Format  formatSection             `toml:"format"`
}

type formatSection struct {
	LineLength  *int    `toml:"line_length"`
	IndentStyle *string `toml:"indent_style"`
	IndentSize  *int    `toml:"indent_size"`
}

type ruleSection struct {
	Max      *int    `toml:"max"`
	Severity *string `toml:"severity"`
	Pattern  *string `toml:"pattern"`
}

// load merges one config file over c. Invalid TOML or invalid value types
// are fatal; unknown keys only warn.
func (c *Config) load(path string, logger logrus.FieldLogger) error {
	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	c.Exclude = append(c.Exclude, fc.Exclude...)

	for id, prim := range fc.Rules {
		if id == "disable" {
			var disabled []string
			if err := md.PrimitiveDecode(prim, &disabled); err != nil {
				return fmt.Errorf("%s: rules.disable: %w", path, err)
			}
			for _, d := range disabled {
				c.Disabled[d] = true
			}
			continue
		}
		if !lint.Known(id) {
			logger.Warnf("%s: unknown rule %q in [rules]", path, id)
		}
		var rs ruleSection
		if err := md.PrimitiveDecode(prim, &rs); err != nil {
			return fmt.Errorf("%s: rules.%s: %w", path, id, err)
		}
		if rs.Max != nil {
			c.Max[id] = *rs.Max
		}
		if rs.Severity != nil {
			sev, err := lint.ParseSeverity(*rs.Severity)
			if err != nil {
				return fmt.Errorf("%s: rules.%s: %w", path, id, err)
			}
			c.Severity[id] = sev
		}
		if rs.Pattern != nil {
			if _, err := regexp.Compile(*rs.Pattern); err != nil {
				return fmt.Errorf("%s: rules.%s: invalid pattern: %w", path, id, err)
			}
			c.Pattern[id] = *rs.Pattern
		}
	}

	if fc.Format.LineLength != nil {
		if *fc.Format.LineLength <= 0 {
			return fmt.Errorf("%s: format.line_length must be positive", path)
		}
		c.LineLength = *fc.Format.LineLength
	}
	if fc.Format.IndentStyle != nil {
		switch *fc.Format.IndentStyle {
		case IndentTabs, IndentSpaces:
			c.IndentStyle = *fc.Format.IndentStyle
		default:
			return fmt.Errorf("%s: format.indent_style must be \"tabs\" or \"spaces\"", path)
		}
	}
	if fc.Format.IndentSize != nil {
		if *fc.Format.IndentSize <= 0 {
			return fmt.Errorf("%s: format.indent_size must be positive", path)
		}
		c.IndentSize = *fc.Format.IndentSize
	}

	for _, key := range md.Undecoded() {
		logger.Warnf("%s: unknown configuration key %q", path, key.String())
	}
	return nil
}

// DumpDefault renders the built-in defaults as TOML, for `gdlint
// dump-config`.
func DumpDefault() (string, error) {
	var b strings.Builder

	out := struct {
		Exclude []string               `toml:"exclude"`
		Format  map[string]interface{} `toml:"format"`
	}{
		Exclude: []string{},
		Format: map[string]interface{}{
			"line_length":  100,
			"indent_style": IndentTabs,
			"indent_size":  4,
		},
	}
	if err := toml.NewEncoder(&b).Encode(out); err != nil {
		return "", err
	}

	b.WriteString("\n[rules]\ndisable = []\n")

	rules := lint.Rules()
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	for _, r := range rules {
		fmt.Fprintf(&b, "\n[rules.%q]\nseverity = %q\n", r.ID, r.Severity.String())
		if r.Max > 0 {
			fmt.Fprintf(&b, "max = %d\n", r.Max)
		}
		if r.Pattern != "" {
			fmt.Fprintf(&b, "pattern = %q\n", r.Pattern)
		}
	}
	return b.String(), nil
}
