package nl2sql

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/nikhilbhutani/medalchat/internal/prompt"
)

// Questions that legitimately return nothing for this dataset: no host city
// repeats between the first and last year covered.
var emptyByDesign = compileAll(
	`(cities|city|ciudades|ciudad|sedes)\b.*\b(repeat|repeated|repeats|more\s+than\s+once|twice|again)\b`,
	`(ciudades|ciudad|sedes|sede)\s.*(repiten|repite|repetid[ao]s?|m[áa]s\s+de\s+una\s+vez|dos\s+veces)`,
	`\b(repeated|repeat|recurring)\s+(host\s+)?(cities|city|hosts)\b`,
	`(hosted|host|hosting|fue\s+sede|han\s+sido\s+sede|organiz\w*).*(more\s+than\s+once|twice|m[áa]s\s+de\s+una\s+vez|dos\s+veces)`,
)

var hostCityQuestion = compileAll(
	`\bhost\s+(cities|city|countries)\b`,
	`\b(ciudades?|pa[íi]s(es)?)\s+(sede|anfitrion[ae]s?)`,
	`\bsedes?\s+(de\s+los\s+)?(juegos|olimpiadas|ol[íi]mpic)`,
	`\bwhere\s+were\s+the\s+(games|olympics)\b`,
	`\bd[óo]nde\s+(se\s+)?(celebraron|fueron|realizaron)`,
)

var medalWords = []string{
	"medal", "medals", "medalla", "medallas", "gold", "silver", "bronze",
	"oro", "plata", "bronce", "podium", "podio",
}

var countryWords = []string{"country", "countries", "nation", "nations", "pais", "país", "paises", "países", "nacion", "nación"}

// Heuristic predicts whether a question should normally yield rows, using
// the dataset facts for its vocabulary.
type Heuristic struct {
	firstYear int
	lastYear  int
	phrases   []string
}

func NewHeuristic(f *prompt.Facts) *Heuristic {
	h := &Heuristic{firstYear: f.FirstYear, lastYear: f.LastYear}
	add := func(values ...string) {
		for _, v := range values {
			if n := normalize(v); n != "" {
				h.phrases = append(h.phrases, n)
			}
		}
	}
	for _, s := range f.Sports {
		add(s.Name)
		add(s.Aliases...)
	}
	for _, c := range f.Countries {
		add(c.Name)
		add(c.Aliases...)
	}
	for _, c := range f.HostCities {
		add(c.City)
		add(c.Aliases...)
	}
	return h
}

// ShouldHaveResults reports whether an empty result for question is
// suspicious enough to retry with a simplified query.
func (h *Heuristic) ShouldHaveResults(question string) bool {
	lower := strings.ToLower(question)
	for _, re := range emptyByDesign {
		if re.MatchString(lower) {
			return false
		}
	}

	norm := normalize(question)
	padded := " " + norm + " "
	for _, p := range h.phrases {
		if strings.Contains(padded, " "+p+" ") {
			return true
		}
	}
	if containsWord(padded, medalWords) && containsWord(padded, countryWords) {
		return true
	}
	for _, w := range strings.Fields(norm) {
		if y, err := strconv.Atoi(w); err == nil && y >= h.firstYear && y <= h.lastYear {
			return true
		}
	}
	for _, re := range hostCityQuestion {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

func containsWord(padded string, words []string) bool {
	for _, w := range words {
		if strings.Contains(padded, " "+w+" ") {
			return true
		}
	}
	return false
}

// normalize lower-cases s and collapses every run of non-alphanumerics to a
// single space.
func normalize(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}
