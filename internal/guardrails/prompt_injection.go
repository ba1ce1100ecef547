package guardrails

import (
	"strings"
)

// PromptInjectionDetector scores questions against known instruction
// override phrasings. A score above the threshold trips the guard.
type PromptInjectionDetector struct {
	threshold float64
}

func NewPromptInjectionDetector() *PromptInjectionDetector {
	return &PromptInjectionDetector{threshold: 0.7}
}

func (d *PromptInjectionDetector) Name() Category { return CategoryInjection }

func (d *PromptInjectionDetector) Check(text string) bool {
	score, _ := d.Score(text)
	return score > d.threshold
}

// Score returns the highest matching pattern weight and the flags hit.
func (d *PromptInjectionDetector) Score(text string) (float64, []string) {
	lower := strings.ToLower(text)
	var flags []string
	score := 0.0

	for _, p := range injectionPatterns {
		if strings.Contains(lower, p.pattern) {
			if p.weight > score {
				score = p.weight
			}
			flags = append(flags, p.flag)
		}
	}

	return score, flags
}

var injectionPatterns = []struct {
	pattern string
	weight  float64
	flag    string
}{
	{"ignore previous instructions", 0.9, "override_attempt"},
	{"ignore all previous", 0.9, "override_attempt"},
	{"disregard your instructions", 0.9, "override_attempt"},
	{"forget your instructions", 0.85, "override_attempt"},
	{"ignora las instrucciones", 0.9, "override_attempt"},
	{"ignora todas las instrucciones", 0.9, "override_attempt"},
	{"olvida tus instrucciones", 0.85, "override_attempt"},
	{"you are now", 0.75, "role_hijack"},
	{"pretend you are", 0.75, "role_hijack"},
	{"ahora eres", 0.75, "role_hijack"},
	{"finge que eres", 0.75, "role_hijack"},
	{"act as if you", 0.6, "role_hijack"},
	{"ignore safety", 0.9, "safety_bypass"},
	{"bypass your filters", 0.9, "safety_bypass"},
	{"jailbreak", 0.9, "jailbreak"},
	{"dan mode", 0.9, "jailbreak"},
	{"do anything now", 0.85, "jailbreak"},
	{"</system>", 0.8, "tag_injection"},
	{"<system>", 0.8, "tag_injection"},
	{"[system]", 0.75, "tag_injection"},
	{"### instruction", 0.6, "format_injection"},
	{"```system", 0.75, "format_injection"},
}
