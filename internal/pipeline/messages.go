package pipeline

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/nikhilbhutani/medalchat/internal/prompt"
)

const (
	MsgReformulate = "I couldn't process that question. Please try asking it in a simpler way, " +
		`for example "How many gold medals did Brazil win in 2008?"`

	MsgDataAccess = "There was a problem accessing the Olympic data. Please try again in a moment."

	MsgAnswerGeneric = "I found the data but couldn't put the answer together. " +
		"Please try again, or ask about one country, sport or year at a time."

	MsgAnswerCountry = "I found the data but couldn't put the answer together. " +
		`Try naming the country as it appears in English, for example "United States" or "Brazil", and one year or sport.`

	MsgAnswerSport = "I found the data but couldn't put the answer together. " +
		`Try asking about a single sport and year, for example "Who won gold in swimming in 2004?"`

	MsgAnswerGender = "I found the data but couldn't put the answer together. " +
		`Try asking about men's or women's events separately, for example "How many medals did women win in 2008?"`
)

var genderWords = regexp.MustCompile(`(?i)\b(women|woman|men|man|female|male|mujer(es)?|hombres?|femenin[oa]s?|masculin[oa]s?|damas|varones|gender|g[ée]nero|sexo)\b`)

// answerFailureMessage picks phrasing advice for the subject the question
// mentions. Countries win over sports, sports over gender.
func answerFailureMessage(question string, facts *prompt.Facts) string {
	padded := " " + wordsOf(question) + " "
	if facts != nil {
		if mentionsAny(padded, facts.Countries) {
			return MsgAnswerCountry
		}
		if mentionsAny(padded, facts.Sports) {
			return MsgAnswerSport
		}
	}
	if genderWords.MatchString(question) {
		return MsgAnswerGender
	}
	return MsgAnswerGeneric
}

func mentionsAny(padded string, values []prompt.Named) bool {
	for _, v := range values {
		for _, name := range append([]string{v.Name}, v.Aliases...) {
			if w := wordsOf(name); w != "" && strings.Contains(padded, " "+w+" ") {
				return true
			}
		}
	}
	return false
}

func wordsOf(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}
