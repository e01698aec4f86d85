package tokens

import "testing"

func TestEstimate(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"twenty characters!!!", 5},
	}

	for _, tt := range tests {
		if got := Estimate(tt.text); got != tt.want {
			t.Errorf("Estimate(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestEstimate_NeverNegative(t *testing.T) {
	for _, s := range []string{"", " ", "\n", "日本語のテキスト"} {
		if Estimate(s) < 0 {
			t.Errorf("Estimate(%q) < 0", s)
		}
	}
}
