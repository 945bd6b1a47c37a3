package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Patch is a line edit applied to a checkout before building.
//
// Files lists glob patterns relative to the checkout root. Patches written
// as a bare expression string get Files inferred at load time and Inferred
// set, so later stages only ever see explicit targets.
type Patch struct {
	Expression string   `json:"expression" yaml:"expression"`
	Files      []string `json:"files" yaml:"files"`
	Inferred   bool     `json:"-" yaml:"-"`
}

type patchObject struct {
	Expression string   `json:"expression" yaml:"expression"`
	Files      []string `json:"files" yaml:"files"`
}

// UnmarshalJSON accepts either a patch object or a bare expression string.
func (p *Patch) UnmarshalJSON(data []byte) error {
	var expr string
	if err := json.Unmarshal(data, &expr); err == nil {
		*p = legacyPatch(expr)
		return nil
	}
	var obj patchObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("patch must be a string or an object: %w", err)
	}
	*p = Patch{Expression: obj.Expression, Files: obj.Files}
	return nil
}

// UnmarshalYAML accepts either a patch mapping or a bare expression scalar.
func (p *Patch) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*p = legacyPatch(node.Value)
		return nil
	}
	var obj patchObject
	if err := node.Decode(&obj); err != nil {
		return fmt.Errorf("line %d: patch must be a string or a mapping: %w", node.Line, err)
	}
	*p = Patch{Expression: obj.Expression, Files: obj.Files}
	return nil
}

func legacyPatch(expr string) Patch {
	return Patch{Expression: expr, Files: InferPatchTargets(expr), Inferred: true}
}

// InferPatchTargets picks target globs for an expression that did not name
// its files: toolchain version bumps go to Cargo.toml, warning-flag fixes go
// to Makefiles, and anything else is tried against every file.
func InferPatchTargets(expr string) []string {
	lower := strings.ToLower(expr)
	switch {
	case strings.Contains(lower, "pgrx"), strings.Contains(lower, "cargo"):
		return []string{"**/Cargo.toml"}
	case strings.Contains(expr, "Werror"):
		return []string{"**/Makefile*"}
	default:
		return []string{"**"}
	}
}

// Substitution is a parsed s/pattern/replacement/flags expression.
// Patterns use Go regexp syntax; the replacement understands \1..\9 and &.
type Substitution struct {
	Pattern     *regexp.Regexp
	Replacement string
	Global      bool
}

var errNotSubstitution = errors.New("expression must have the form s<d>pattern<d>replacement<d>[g]")

// ParseExpression parses a sed-style substitution with any delimiter.
func ParseExpression(expr string) (*Substitution, error) {
	if len(expr) < 4 || expr[0] != 's' {
		return nil, errNotSubstitution
	}
	delim := expr[1]
	if delim == '\\' || delim == '\n' || delim == ' ' {
		return nil, fmt.Errorf("invalid delimiter %q", delim)
	}

	parts, rest, err := splitDelimited(expr[2:], delim, 2)
	if err != nil {
		return nil, err
	}

	sub := &Substitution{}
	for _, flag := range rest {
		switch flag {
		case 'g':
			sub.Global = true
		default:
			return nil, fmt.Errorf("unsupported flag %q", flag)
		}
	}

	if parts[0] == "" {
		return nil, errors.New("empty pattern")
	}
	re, err := regexp.Compile(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	sub.Pattern = re
	sub.Replacement = translateReplacement(parts[1])
	return sub, nil
}

// splitDelimited reads n delimiter-terminated fields, unescaping the
// delimiter itself, and returns the remaining suffix.
func splitDelimited(s string, delim byte, n int) ([]string, string, error) {
	fields := make([]string, 0, n)
	var cur strings.Builder
	i := 0
	for len(fields) < n {
		if i >= len(s) {
			return nil, "", errNotSubstitution
		}
		ch := s[i]
		switch {
		case ch == '\\' && i+1 < len(s) && s[i+1] == delim:
			cur.WriteByte(delim)
			i += 2
		case ch == '\\' && i+1 < len(s):
			cur.WriteByte(ch)
			cur.WriteByte(s[i+1])
			i += 2
		case ch == delim:
			fields = append(fields, cur.String())
			cur.Reset()
			i++
		default:
			cur.WriteByte(ch)
			i++
		}
	}
	return fields, s[i:], nil
}

// translateReplacement converts sed replacement syntax into regexp.Expand syntax.
func translateReplacement(repl string) string {
	var b strings.Builder
	for i := 0; i < len(repl); i++ {
		ch := repl[i]
		switch {
		case ch == '\\' && i+1 < len(repl):
			next := repl[i+1]
			i++
			switch {
			case next >= '0' && next <= '9':
				b.WriteString("${" + string(next) + "}")
			case next == 'n':
				b.WriteByte('\n')
			case next == '$':
				b.WriteString("$$")
			default:
				b.WriteByte(next)
			}
		case ch == '&':
			b.WriteString("${0}")
		case ch == '$':
			b.WriteString("$$")
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// Apply runs the substitution on every line of content and reports whether
// anything changed.
func (s *Substitution) Apply(content []byte) ([]byte, bool) {
	lines := strings.Split(string(content), "\n")
	changed := false
	for i, line := range lines {
		var out string
		if s.Global {
			out = s.Pattern.ReplaceAllString(line, s.Replacement)
		} else {
			out = s.replaceFirst(line)
		}
		if out != line {
			lines[i] = out
			changed = true
		}
	}
	if !changed {
		return content, false
	}
	return []byte(strings.Join(lines, "\n")), true
}

func (s *Substitution) replaceFirst(line string) string {
	loc := s.Pattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return line
	}
	expanded := s.Pattern.ExpandString(nil, s.Replacement, line, loc)
	return line[:loc[0]] + string(expanded) + line[loc[1]:]
}
