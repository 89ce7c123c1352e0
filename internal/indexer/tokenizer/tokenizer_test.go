package tokenizer

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "lowercases and splits punctuation",
			text: "Hello, World!",
			want: []string{"hello", "world"},
		},
		{
			name: "drops stop words and short words",
			text: "the cloud is in the data",
			want: []string{"cloud", "data"},
		},
		{
			name: "drops non-ascii runes without transliteration",
			text: "café naïve",
			want: []string{"caf", "nave"},
		},
		{
			name: "keeps digits",
			text: "2024 report",
			want: []string{"2024", "report"},
		},
		{
			name: "punctuation only",
			text: "!!! ... ???",
			want: nil,
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
		{
			name: "hyphenated words split at the hyphen",
			text: "well-known cloud-native",
			want: []string{"well", "known", "cloud", "native"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.text)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestStem(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"running", "runn"},
		{"testing", "test"},
		{"indexed", "index"},
		{"services", "servic"},
		{"documents", "document"},
		{"quickly", "quick"},
		{"creation", "crea"},
		{"storage", "storage"},
		{"cloud", "cloud"},
		// "s" is checked before "ness", so only the trailing "s" goes.
		{"happiness", "happines"},
		// too short to strip: remainder must exceed two characters
		{"sing", "sing"},
		{"string", "str"},
		{"used", "used"},
		{"tested", "test"},
		// only one suffix is ever removed
		{"endings", "ending"},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			if got := Stem(tt.word); got != tt.want {
				t.Errorf("Stem(%q) = %q, want %q", tt.word, got, tt.want)
			}
		})
	}
}

func TestTerms(t *testing.T) {
	got := Terms("The engineers were testing cloud services!")
	want := []string{"engineer", "were", "test", "cloud", "servic"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Terms() = %v, want %v", got, want)
	}
}

func TestTermsPreservesOrder(t *testing.T) {
	got := Terms("zebra apple zebra")
	want := []string{"zebra", "apple", "zebra"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Terms() = %v, want %v", got, want)
	}
}
