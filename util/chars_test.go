package util

import "testing"

func TestRegularize(t *testing.T) {
	tests := []struct {
		in        rune
		lowercase bool
		want      rune
	}{
		{'Ａ', true, 'a'},
		{'Ａ', false, 'A'},
		{'１', true, '1'},
		{'　', true, ' '},
		{'B', true, 'b'},
		{'B', false, 'B'},
		{'中', true, '中'},
		{'ㄱ', true, 'ㄱ'}, // wide jamo stays wide
	}
	for _, tt := range tests {
		if got := Regularize(tt.in, tt.lowercase); got != tt.want {
			t.Errorf("Regularize(%q, %v) = %q, want %q", tt.in, tt.lowercase, got, tt.want)
		}
	}
}

func TestNormalizeWord(t *testing.T) {
	tests := map[string]string{
		"  iPhone ": "iphone",
		"Ｔ恤":       "t恤",
		"\t":        "",
		"中华人民":      "中华人民",
	}
	for in, want := range tests {
		if got := NormalizeWord(in); got != want {
			t.Errorf("NormalizeWord(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPunctuation(t *testing.T) {
	if !IsPunctuation("，。！") {
		t.Errorf("expected CJK punctuation to be detected")
	}
	if IsPunctuation("a,") {
		t.Errorf("mixed string is not pure punctuation")
	}
	if !ContainsPunctuation("c++") {
		t.Errorf("expected '+' to count as punctuation")
	}
	if ContainsPunctuation("中华") {
		t.Errorf("plain CJK word has no punctuation")
	}
}
