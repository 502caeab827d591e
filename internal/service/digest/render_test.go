package digest

import (
	"errors"
	"strings"
	"testing"
	"time"

	"newsbite/internal/model"
	"newsbite/internal/repository"
)

func TestRenderSubstitutesPlaceholders(t *testing.T) {
	vars := map[string]string{
		"user_name":     "김철수",
		"digest_date":   "2026-08-30",
		"article_count": "5",
	}
	got, err := render("[뉴스한입] {digest_date} 오늘의 뉴스 {article_count}건, {user_name}님", vars)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	want := "[뉴스한입] 2026-08-30 오늘의 뉴스 5건, 김철수님"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderMissingPlaceholderFails(t *testing.T) {
	_, err := render("hello {user_name}, today is {digest_date}", map[string]string{
		"user_name": "Kim",
	})
	if !errors.Is(err, repository.ErrTemplateRender) {
		t.Fatalf("expected ErrTemplateRender, got %v", err)
	}
	if !strings.Contains(err.Error(), "digest_date") {
		t.Errorf("error should name the missing placeholder: %v", err)
	}
}

func TestRenderRepeatedPlaceholder(t *testing.T) {
	got, err := render("{user_name} / {user_name}", map[string]string{"user_name": "Lee"})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if got != "Lee / Lee" {
		t.Errorf("got %q", got)
	}
}

func TestRenderLeavesNonPlaceholderBracesAlone(t *testing.T) {
	got, err := render("literal {NOT_A_PLACEHOLDER} and {}", nil)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if got != "literal {NOT_A_PLACEHOLDER} and {}" {
		t.Errorf("uppercase or empty braces must pass through, got %q", got)
	}
}

func TestRenderArticleBlockEmpty(t *testing.T) {
	got := renderArticleBlock(nil)
	if got != "오늘은 새로운 소식이 없습니다." {
		t.Errorf("empty candidate list should render the no-news line, got %q", got)
	}
}

func TestRenderArticleBlockNumbersAndLinks(t *testing.T) {
	summary := "반도체 수출이 증가했다."
	articles := []*model.NewsArticle{
		{Title: "반도체 수출 증가", Summary: &summary, URL: "https://news.example.com/a1"},
		{Title: "금리 동결", URL: "https://news.example.com/a2"},
	}
	got := renderArticleBlock(articles)

	for _, want := range []string{"1. 반도체 수출 증가", "2. 금리 동결", summary,
		"https://news.example.com/a1", "https://news.example.com/a2"} {
		if !strings.Contains(got, want) {
			t.Errorf("block missing %q:\n%s", want, got)
		}
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("block should not end with trailing newlines")
	}
}

func TestWindowDaily(t *testing.T) {
	date := time.Date(2026, 8, 30, 15, 4, 5, 0, time.UTC)
	from, to := window(date, model.DigestDaily)
	if !from.Equal(time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("daily window start = %v", from)
	}
	if !to.Equal(time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("daily window end = %v", to)
	}
}

func TestWindowWeekly(t *testing.T) {
	date := time.Date(2026, 8, 30, 15, 4, 5, 0, time.UTC)
	from, to := window(date, model.DigestWeekly)
	if !from.Equal(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("weekly window start = %v", from)
	}
	if !to.Equal(time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("weekly window end = %v", to)
	}
}

func TestTemplateName(t *testing.T) {
	if got := templateName(model.DigestDaily, "ko"); got != "daily_digest_ko" {
		t.Errorf("got %q", got)
	}
	if got := templateName(model.DigestWeekly, "ko"); got != "weekly_digest_ko" {
		t.Errorf("got %q", got)
	}
}
