package model

import "testing"

func TestParseCategoryKoreanNames(t *testing.T) {
	cases := map[string]NewsCategory{
		"정치":    CategoryPolitics,
		"경제":    CategoryEconomy,
		"사회":    CategorySociety,
		"문화":    CategoryCulture,
		"국제":    CategoryInternational,
		"스포츠":   CategorySports,
		"연예":    CategoryEntertainment,
		"IT/과학": CategoryIT,
		"건강":    CategoryHealth,
		"교육":    CategoryEducation,
	}
	for in, want := range cases {
		got, ok := ParseCategory(in)
		if !ok || got != want {
			t.Errorf("ParseCategory(%q) = (%q, %v), want (%q, true)", in, got, ok, want)
		}
	}
}

func TestParseCategoryCanonical(t *testing.T) {
	got, ok := ParseCategory("economy")
	if !ok || got != CategoryEconomy {
		t.Errorf("canonical value must round-trip, got (%q, %v)", got, ok)
	}
}

func TestParseCategoryUnknown(t *testing.T) {
	if _, ok := ParseCategory("weather"); ok {
		t.Error("unknown category must not parse")
	}
	if _, ok := ParseCategory(""); ok {
		t.Error("empty category must not parse")
	}
}

func TestNewsStatusValid(t *testing.T) {
	for _, s := range []NewsStatus{StatusDraft, StatusPublished, StatusArchived} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if NewsStatus("deleted").Valid() {
		t.Error("articles are never deleted; 'deleted' must be invalid")
	}
}

func TestSentimentValid(t *testing.T) {
	if !SentimentNeutral.Valid() {
		t.Error("neutral should be valid")
	}
	if SentimentType("mixed").Valid() {
		t.Error("'mixed' must be invalid")
	}
}
