package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

var variablePattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Template is a text with {{variable}} placeholders whose variable set is
// extracted once.
type Template struct {
	text string
	vars []string
}

func NewTemplate(text string) *Template {
	return &Template{text: text, vars: ExtractVariables(text)}
}

// Variables lists the placeholders in order of first appearance.
func (t *Template) Variables() []string {
	return t.vars
}

// Execute substitutes every placeholder. Substituted values are not scanned
// again, so user text containing braces is inserted literally.
func (t *Template) Execute(vars map[string]string) (string, error) {
	var missing []string
	for _, v := range t.vars {
		if _, ok := vars[v]; !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("missing template variables: %s", strings.Join(missing, ", "))
	}

	return variablePattern.ReplaceAllStringFunc(t.text, func(match string) string {
		return vars[match[2:len(match)-2]]
	}), nil
}

// Render replaces {{variable}} placeholders in text with values from vars.
func Render(text string, vars map[string]string) (string, error) {
	return NewTemplate(text).Execute(vars)
}

// ExtractVariables returns the variable names found in text, deduplicated.
func ExtractVariables(text string) []string {
	matches := variablePattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]bool)
	var vars []string
	for _, m := range matches {
		if len(m) > 1 && !seen[m[1]] {
			vars = append(vars, m[1])
			seen[m[1]] = true
		}
	}
	return vars
}
