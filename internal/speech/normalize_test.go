package speech

import (
	"reflect"
	"testing"
)

func TestNormalizeToLetters(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "spoken letter names",
			raw:  "ay bee see",
			want: []string{"A", "B", "C"},
		},
		{
			name: "single characters",
			raw:  "a b c",
			want: []string{"A", "B", "C"},
		},
		{
			name: "mixed names and characters",
			raw:  "A why eff",
			want: []string{"A", "Y", "F"},
		},
		{
			name: "merged token is split",
			raw:  "abc",
			want: []string{"A", "B", "C"},
		},
		{
			name: "long unknown token dropped",
			raw:  "elephant",
			want: nil,
		},
		{
			name: "punctuation and digits stripped",
			raw:  "B, 7 c!",
			want: []string{"B", "C"},
		},
		{
			name: "double maps to W",
			raw:  "double you",
			want: []string{"W", "U"},
		},
		{
			name: "empty input",
			raw:  "",
			want: nil,
		},
		{
			name: "whitespace only",
			raw:  "   \t  ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeToLetters(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeToLetters(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeToLettersAlwaysUppercaseSingle(t *testing.T) {
	// Every output entry must be a single uppercase A-Z character, whatever
	// the input looks like.
	inputs := []string{
		"ay bee see dee",
		"WHY ARE YOU",
		"x7y!z",
		"qqqqqq longertokenthatshouldbedropped",
		"zed zee",
	}

	for _, raw := range inputs {
		for _, letter := range NormalizeToLetters(raw) {
			if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'Z' {
				t.Errorf("NormalizeToLetters(%q) produced invalid letter %q", raw, letter)
			}
		}
	}
}

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "basic extraction",
			text: "I really love the dancing cactus",
			want: []string{"dancing", "cactus"},
		},
		{
			name: "capped at three",
			text: "magic dragon sings happy songs tonight",
			want: []string{"magic", "dragon", "sings"},
		},
		{
			name: "short words skipped",
			text: "it is so big",
			want: []string{"big"},
		},
		{
			name: "punctuation stripped",
			text: "wow, amazing!! truly...",
			want: []string{"wow", "amazing", "truly"},
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
		{
			name: "only stop words",
			text: "the and because with about",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractKeywords(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractKeywords(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
