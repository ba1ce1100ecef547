// Package guardrails screens questions before any SQL is generated.
//
// The engine is advisory. It catches common probes for credentials, schema,
// system details and write statements, but a rephrased question can slip past
// it; the read-only transaction and the query role are what actually protect
// the data.
package guardrails

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

type Category string

const (
	CategoryNone          Category = ""
	CategoryTooLong       Category = "too_long"
	CategoryStructure     Category = "structure"
	CategoryCredentials   Category = "credentials"
	CategorySchema        Category = "schema"
	CategorySystem        Category = "system"
	CategoryInjection     Category = "prompt_injection"
	CategorySQLCommand    Category = "sql_command"
	CategoryConversations Category = "conversations"
)

// Verdict is the outcome of classifying one question. Message is set only
// when Allowed is false.
type Verdict struct {
	Allowed     bool     `json:"allowed"`
	Category    Category `json:"category,omitempty"`
	Message     string   `json:"message,omitempty"`
	Allowlisted bool     `json:"allowlisted,omitempty"`
}

// Guard is a single rejection rule.
type Guard interface {
	Name() Category
	Check(text string) bool
}

type patternGuard struct {
	category Category
	patterns []*regexp.Regexp
}

func newPatternGuard(category Category, patterns ...string) *patternGuard {
	g := &patternGuard{category: category}
	for _, p := range patterns {
		g.patterns = append(g.patterns, regexp.MustCompile(`(?i)`+p))
	}
	return g
}

func (g *patternGuard) Name() Category { return g.category }

// strip blanks out every match and reports whether there was one.
func (g *patternGuard) strip(text string) (string, bool) {
	matched := false
	for _, re := range g.patterns {
		if re.MatchString(text) {
			matched = true
			text = re.ReplaceAllLiteralString(text, " ")
		}
	}
	return text, matched
}

func (g *patternGuard) Check(text string) bool {
	for _, re := range g.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// InputLengthGuard rejects questions longer than maxLength characters.
type InputLengthGuard struct {
	maxLength int
}

func NewInputLengthGuard(maxLen int) *InputLengthGuard {
	return &InputLengthGuard{maxLength: maxLen}
}

func (g *InputLengthGuard) Name() Category { return CategoryTooLong }

func (g *InputLengthGuard) Check(text string) bool {
	return g.maxLength > 0 && utf8.RuneCountInString(text) > g.maxLength
}

// Engine classifies questions. It holds no mutable state, so Classify is
// safe for concurrent use and returns the same verdict for the same text.
type Engine struct {
	length    Guard
	allowlist *patternGuard
	structure Guard
	// ordered: first match wins
	guards   []Guard
	messages map[Category]string
}

const DefaultMaxQuestionLength = 2000

func NewEngine(maxLength int) *Engine {
	return &Engine{
		length:    NewInputLengthGuard(maxLength),
		allowlist: newPatternGuard(CategoryNone, allowlistPatterns...),
		structure: newPatternGuard(CategoryStructure, structurePatterns...),
		guards: []Guard{
			newPatternGuard(CategoryCredentials, credentialPatterns...),
			newPatternGuard(CategorySchema, schemaPatterns...),
			newPatternGuard(CategorySystem, systemPatterns...),
			NewPromptInjectionDetector(),
			newPatternGuard(CategorySQLCommand, sqlCommandPatterns...),
			newPatternGuard(CategoryConversations, conversationPatterns...),
		},
		messages: defaultMessages,
	}
}

// DefaultEngine builds an engine with the standard length limit.
func DefaultEngine() *Engine {
	return NewEngine(DefaultMaxQuestionLength)
}

func (e *Engine) Classify(question string) Verdict {
	text := normalize(question)

	if e.length.Check(text) {
		return e.reject(CategoryTooLong)
	}

	// A domain phrase cancels only the rule matches it overlaps: the
	// remaining text is still checked by every category.
	rest, allowlisted := e.allowlist.strip(text)

	if e.structure.Check(rest) {
		return e.reject(CategoryStructure)
	}

	for _, g := range e.guards {
		if g.Check(rest) {
			return e.reject(g.Name())
		}
	}

	return Verdict{Allowed: true, Allowlisted: allowlisted}
}

func (e *Engine) reject(c Category) Verdict {
	return Verdict{Allowed: false, Category: c, Message: e.messages[c]}
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
