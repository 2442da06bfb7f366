package textprep

import (
	"math"
	"testing"
)

func TestFoldDiacritics(t *testing.T) {
	if got := Fold("Café Society"); got != "cafe society" {
		t.Fatalf("Fold() = %q, want %q", got, "cafe society")
	}
}

func TestTokenizeDropsStopWordsAndShortTokens(t *testing.T) {
	tokens := Tokenize("The a we Robotics and AI club")

	want := []string{"robotic", "ai", "club"}
	if len(tokens) != len(want) {
		t.Fatalf("Tokenize() = %v, want %v", tokens, want)
	}

	for i := range want {
		if tokens[i] != want[i] {
			t.Fatalf("Tokenize()[%d] = %q, want %q", i, tokens[i], want[i])
		}
	}
}

func TestTokenizeEmpty(t *testing.T) {
	if tokens := Tokenize(""); tokens != nil {
		t.Fatalf("Tokenize(\"\") = %v, want nil", tokens)
	}
}

func TestStemSingularPluralAgree(t *testing.T) {
	cases := []struct {
		word string
		want string
	}{
		{"games", "game"},
		{"game", "game"},
		{"activities", "activity"},
		{"chess", "chess"},
		{"coding", "cod"},
		{"coded", "cod"},
		{"campus", "campus"},
		{"club", "club"},
	}

	for _, tc := range cases {
		if got := Stem(tc.word); got != tc.want {
			t.Fatalf("Stem(%q) = %q, want %q", tc.word, got, tc.want)
		}
	}
}

func TestJaccard(t *testing.T) {
	a := TokenSet("coding robotics club")
	b := TokenSet("robotics club events")

	got := Jaccard(a, b)
	if math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("Jaccard() = %v, want 0.5", got)
	}

	if Jaccard(nil, b) != 0 {
		t.Fatal("Jaccard(nil, b) != 0")
	}
}

func TestOverlapRatio(t *testing.T) {
	got := OverlapRatio([]string{"data", "science"}, []string{"data", "science", "club"})
	if got != 1.0 {
		t.Fatalf("OverlapRatio() = %v, want 1.0", got)
	}

	if OverlapRatio(nil, []string{"x"}) != 0 {
		t.Fatal("OverlapRatio(nil, b) != 0")
	}
}
