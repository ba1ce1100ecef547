package pipeline

import (
	"testing"

	"github.com/nikhilbhutani/medalchat/internal/prompt"
)

func TestAnswerFailureMessage(t *testing.T) {
	facts := prompt.MustDefaultFacts()

	tests := []struct {
		question string
		want     string
	}{
		{"How many gold medals did Brazil win?", MsgAnswerCountry},
		{"¿Cuántas medallas ganó Brasil en natación?", MsgAnswerCountry},
		{"Who won gold in swimming in 2004?", MsgAnswerSport},
		{"How many medals did women win?", MsgAnswerGender},
		{"¿Cuántas medallas ganaron las mujeres?", MsgAnswerGender},
		{"Which year had the most events?", MsgAnswerGeneric},
		// no substring matches inside other words
		{"Tell me about the brazilians", MsgAnswerGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			if got := answerFailureMessage(tt.question, facts); got != tt.want {
				t.Fatalf("answerFailureMessage(%q) = %q, want %q", tt.question, got, tt.want)
			}
		})
	}
}

func TestAnswerFailureMessageWithoutFacts(t *testing.T) {
	if got := answerFailureMessage("How many gold medals did Brazil win?", nil); got != MsgAnswerGeneric {
		t.Fatalf("got %q", got)
	}
}
