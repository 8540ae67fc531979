package metadata

import "regexp"

// Rule extracts one field value with a single pattern.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Group   int
}

// Match returns the captured value if the rule matches anywhere in text.
func (r Rule) Match(text string) (string, bool) {
	m := r.Pattern.FindStringSubmatch(text)
	if m == nil || r.Group >= len(m) {
		return "", false
	}
	return m[r.Group], true
}

// Chain is a prioritized rule list. Rules are tried in order and the first
// rule that matches anywhere in the text wins, regardless of where later
// rules would have matched.
type Chain []Rule

// First returns the value and rule name of the first matching rule.
func (c Chain) First(text string) (value, rule string, ok bool) {
	for _, r := range c {
		if v, ok := r.Match(text); ok {
			return v, r.Name, true
		}
	}
	return "", "", false
}

// Value returns the first matching value, or "" when no rule matches.
func (c Chain) Value(text string) string {
	v, _, _ := c.First(text)
	return v
}

// Names lists rule names in priority order.
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, r := range c {
		names[i] = r.Name
	}
	return names
}

// All returns every capture of a rule in order of occurrence.
func (r Rule) All(text string) []string {
	var out []string
	for _, m := range r.Pattern.FindAllStringSubmatch(text, -1) {
		if r.Group < len(m) {
			out = append(out, m[r.Group])
		}
	}
	return out
}

func rule(name, pattern string) Rule {
	return Rule{Name: name, Pattern: regexp.MustCompile(pattern), Group: 1}
}
