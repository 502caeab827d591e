package model

import "testing"

func TestNormalizeKeyword(t *testing.T) {
	cases := map[string]string{
		"  반도체  ": "반도체",
		"AI":      "ai",
		"Fed 금리":  "fed 금리",
		"   ":     "",
	}
	for in, want := range cases {
		if got := NormalizeKeyword(in); got != want {
			t.Errorf("NormalizeKeyword(%q) = %q, want %q", in, got, want)
		}
	}
}
