package tokenizer

import "testing"

func TestCountTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"a", 1},
		{"SELECT country FROM medallas_olimpicas", 10},
		{"uno dos tres cuatro cinco seis", 8},
		{"natación", 2},
	}
	for _, tt := range tests {
		if got := CountTokens(tt.text); got != tt.want {
			t.Errorf("CountTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
