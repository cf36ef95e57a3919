package alias

// Path aliases rewrite import specifiers before they are resolved. Each rule
// is compiled from a "paths"-style mapping entry where a single "*" captures
// the remainder of the specifier and is substituted back into the target.
// Rules are evaluated in order and every matching rule is applied, not just
// the first one.

import (
	"fmt"
	"regexp"
	"strings"
)

type Mapping struct {
	Pattern string
	Target  string
}

type Rule struct {
	Regexp      *regexp.Regexp
	Replacement string
}

// A nil *RuleSet is valid and never rewrites anything.
type RuleSet struct {
	rules []Rule
}

func Compile(mappings []Mapping) (*RuleSet, error) {
	rules := make([]Rule, 0, len(mappings))
	for _, mapping := range mappings {
		rule, err := compileRule(mapping)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return &RuleSet{rules: rules}, nil
}

func compileRule(mapping Mapping) (Rule, error) {
	pattern := mapping.Pattern
	if pattern == "" {
		return Rule{}, fmt.Errorf("Empty path alias pattern")
	}
	if strings.Count(pattern, "*") > 1 {
		return Rule{}, fmt.Errorf("Invalid path alias pattern %q: at most one \"*\" is allowed", pattern)
	}

	// "$" is special in regexp replacement templates
	target := strings.ReplaceAll(mapping.Target, "$", "$$")

	// Patterns are anchored on both ends so that an alias like "@" can never
	// corrupt the middle of an unrelated path
	var source string
	if star := strings.IndexByte(pattern, '*'); star != -1 {
		source = "^" + regexp.QuoteMeta(pattern[:star]) + "(.*)" + regexp.QuoteMeta(pattern[star+1:]) + "$"
		target = strings.ReplaceAll(target, "*", "${1}")
	} else {
		source = "^" + regexp.QuoteMeta(pattern) + "$"
	}

	re, err := regexp.Compile(source)
	if err != nil {
		return Rule{}, fmt.Errorf("Invalid path alias pattern %q: %w", pattern, err)
	}
	return Rule{Regexp: re, Replacement: target}, nil
}

func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

func (rs *RuleSet) Rules() []Rule {
	if rs == nil {
		return nil
	}
	return rs.rules
}

// Apply is a pure function of its input and the rule set.
func (rs *RuleSet) Apply(path string) string {
	if rs == nil {
		return path
	}
	for _, rule := range rs.rules {
		path = rule.Regexp.ReplaceAllString(path, rule.Replacement)
	}
	return path
}
