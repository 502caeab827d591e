package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"newsbite/internal/migrate"
	"newsbite/internal/model"
	"newsbite/internal/repository"
)

// testPool connects to the database named by NEWSBITE_TEST_DATABASE_URL and
// brings the schema to head. Tests are skipped when the variable is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("NEWSBITE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("NEWSBITE_TEST_DATABASE_URL not set")
	}

	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(pool.Close)

	engine, err := migrate.NewEngine(pool, zap.NewNop())
	if err != nil {
		t.Fatalf("revision chain invalid: %v", err)
	}
	if err := engine.Upgrade(context.Background(), ""); err != nil {
		t.Fatalf("schema upgrade failed: %v", err)
	}
	return pool
}

func uniqueSuffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

func testArticle(suffix string) *model.NewsArticle {
	return &model.NewsArticle{
		URL:         "https://news.example.com/articles/" + suffix,
		Title:       "반도체 수출 증가 " + suffix,
		Content:     "올해 반도체 수출이 크게 증가했다.",
		Source:      "example-news",
		Category:    model.CategoryEconomy,
		Status:      model.StatusDraft,
		PublishedAt: time.Now().Add(-time.Hour),
		CrawledAt:   time.Now(),
	}
}

func TestArticleURLUniqueness(t *testing.T) {
	pool := testPool(t)
	repo := repository.NewArticleRepository(pool, "simple")
	ctx := context.Background()

	a := testArticle(uniqueSuffix())
	if _, err := repo.Create(ctx, a); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	_, err := repo.Create(ctx, a)
	if !errors.Is(err, repository.ErrConstraintViolation) {
		t.Fatalf("duplicate URL: expected ErrConstraintViolation, got %v", err)
	}
}

func TestClassificationPublishesArticle(t *testing.T) {
	pool := testPool(t)
	repo := repository.NewArticleRepository(pool, "simple")
	ctx := context.Background()

	id, err := repo.Create(ctx, testArticle(uniqueSuffix()))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	summary := "요약입니다."
	err = repo.ApplyClassification(ctx, id, repository.Classification{
		ImportanceScore: 0.9,
		Status:          model.StatusPublished,
		Summary:         &summary,
		Tags:            []string{"반도체", "수출"},
	})
	if err != nil {
		t.Fatalf("classification failed: %v", err)
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != model.StatusPublished || got.ImportanceScore != 0.9 {
		t.Errorf("classification not applied: %+v", got)
	}
	if got.Summary == nil || *got.Summary != summary {
		t.Errorf("summary not applied: %v", got.Summary)
	}
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Error("updated_at must not precede created_at")
	}
}

func TestClassificationOutOfRangeScore(t *testing.T) {
	pool := testPool(t)
	repo := repository.NewArticleRepository(pool, "simple")
	ctx := context.Background()

	id, err := repo.Create(ctx, testArticle(uniqueSuffix()))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	err = repo.ApplyClassification(ctx, id, repository.Classification{
		ImportanceScore: 1.5,
		Status:          model.StatusPublished,
	})
	if !errors.Is(err, repository.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
}

func TestSearchFullTextFindsPublishedArticle(t *testing.T) {
	pool := testPool(t)
	repo := repository.NewArticleRepository(pool, "simple")
	ctx := context.Background()

	token := "zxqv" + uniqueSuffix()
	a := testArticle(uniqueSuffix())
	a.Title = "특집 " + token + " 보도"
	id, err := repo.Create(ctx, a)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.ApplyClassification(ctx, id, repository.Classification{
		ImportanceScore: 0.5,
		Status:          model.StatusPublished,
	}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	results, err := repo.SearchFullText(ctx, token, 10, 0)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	found := false
	for _, r := range results {
		if r.Article.ID == id {
			found = true
		}
	}
	if !found {
		t.Errorf("published article not found for token %q", token)
	}

	// Archived articles leave the searchable set.
	if err := repo.Archive(ctx, id); err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	results, err = repo.SearchFullText(ctx, token, 10, 0)
	if err != nil {
		t.Fatalf("search after archive failed: %v", err)
	}
	for _, r := range results {
		if r.Article.ID == id {
			t.Error("archived article must not appear in search results")
		}
	}
}

func TestConcurrentObserveCountsEveryObservation(t *testing.T) {
	pool := testPool(t)
	repo := repository.NewKeywordRepository(pool)
	ctx := context.Background()

	keyword := "kw" + uniqueSuffix()
	const workers = 10

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Observe(ctx, keyword, 0.2, 0.7, 6*time.Hour)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("observe failed: %v", err)
		}
	}

	k, err := repo.GetByKeyword(ctx, keyword)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if k.Frequency != workers {
		t.Errorf("lost updates: frequency %d, want %d", k.Frequency, workers)
	}
	if k.TrendScore <= 0 || k.TrendScore > 1 {
		t.Errorf("trend score escaped (0,1]: %f", k.TrendScore)
	}
}

func TestObserveDerivesTrendingFlag(t *testing.T) {
	pool := testPool(t)
	repo := repository.NewKeywordRepository(pool)
	ctx := context.Background()

	keyword := "kw" + uniqueSuffix()
	var last *model.NewsKeyword
	var err error
	for i := 0; i < 10; i++ {
		last, err = repo.Observe(ctx, keyword, 0.2, 0.7, 6*time.Hour)
		if err != nil {
			t.Fatalf("observe failed: %v", err)
		}
	}
	if !last.IsTrending {
		t.Errorf("10 rapid observations should trend, score %f", last.TrendScore)
	}
	if last.TrendScore <= 0.7 {
		t.Errorf("score %f should exceed the 0.7 threshold", last.TrendScore)
	}
}

func TestDigestDispatchUniqueness(t *testing.T) {
	pool := testPool(t)
	userRepo := repository.NewUserRepository(pool)
	digestRepo := repository.NewDigestRepository(pool)
	ctx := context.Background()

	suffix := uniqueSuffix()
	userID, err := userRepo.Create(ctx, &model.User{
		Email:          "digest-" + suffix + "@example.com",
		FullName:       "김철수",
		IsActive:       true,
		EmailFrequency: model.FrequencyDaily,
		EmailTimeHour:  8,
	})
	if err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	d := &model.EmailDigest{
		UserID:        userID,
		DigestDate:    time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		DigestType:    model.DigestDaily,
		Subject:       "오늘의 뉴스",
		Body:          "본문",
		ArticleIDs:    []string{},
		TotalArticles: 0,
	}
	if _, err := digestRepo.Create(ctx, d); err != nil {
		t.Fatalf("first digest create failed: %v", err)
	}
	_, err = digestRepo.Create(ctx, d)
	if !errors.Is(err, repository.ErrConstraintViolation) {
		t.Fatalf("duplicate dispatch key: expected ErrConstraintViolation, got %v", err)
	}
}

func TestGetPreferenceDefaults(t *testing.T) {
	pool := testPool(t)
	userRepo := repository.NewUserRepository(pool)
	ctx := context.Background()

	userID, err := userRepo.Create(ctx, &model.User{
		Email:          "prefs-" + uniqueSuffix() + "@example.com",
		FullName:       "이영희",
		IsActive:       true,
		EmailFrequency: model.FrequencyDaily,
		EmailTimeHour:  8,
	})
	if err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	p, err := userRepo.GetPreference(ctx, userID)
	if err != nil {
		t.Fatalf("get preference failed: %v", err)
	}
	if p.Language != "ko" || p.SummaryLength != model.SummaryMedium || !p.EmailNotification {
		t.Errorf("unexpected defaults: %+v", p)
	}
	if len(p.PreferredCategories) != 0 {
		t.Errorf("default preferences must match all categories (empty list), got %v", p.PreferredCategories)
	}
}

func TestSeededTemplatesAreActive(t *testing.T) {
	pool := testPool(t)
	tmplRepo := repository.NewTemplateRepository(pool)
	ctx := context.Background()

	for _, name := range []string{"daily_digest_ko", "weekly_digest_ko", "welcome_ko", "verification_ko"} {
		tmpl, err := tmplRepo.GetActive(ctx, name, "ko")
		if err != nil {
			t.Fatalf("seeded template %s missing: %v", name, err)
		}
		if !tmpl.IsActive {
			t.Errorf("seeded template %s must be active", name)
		}
	}
}

func TestDeliveryReportTransitions(t *testing.T) {
	pool := testPool(t)
	userRepo := repository.NewUserRepository(pool)
	logRepo := repository.NewEmailLogRepository(pool)
	ctx := context.Background()

	userID, err := userRepo.Create(ctx, &model.User{
		Email:          "log-" + uniqueSuffix() + "@example.com",
		FullName:       "박민수",
		IsActive:       true,
		EmailFrequency: model.FrequencyDaily,
		EmailTimeHour:  8,
	})
	if err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	logID, err := logRepo.Append(ctx, &model.EmailLog{
		UserID:         &userID,
		RecipientEmail: "log@example.com",
		EmailType:      model.EmailTypeDailyDigest,
		Subject:        "오늘의 뉴스",
	})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	if err := logRepo.ReportDelivery(ctx, logID, model.EmailStatusFailed, nil, strPtr("smtp 554")); err != nil {
		t.Fatalf("failed report: %v", err)
	}
	if err := logRepo.ReportDelivery(ctx, logID, model.EmailStatusSent, nil, nil); err != nil {
		t.Fatalf("sent report: %v", err)
	}

	logs, err := logRepo.ListByRecipient(ctx, "log@example.com", 10, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var got *model.EmailLog
	for _, l := range logs {
		if l.ID == logID {
			got = l
		}
	}
	if got == nil {
		t.Fatal("log entry not listed")
	}
	if got.Status != model.EmailStatusSent {
		t.Errorf("status = %q", got.Status)
	}
	if got.RetryCount != 1 {
		t.Errorf("retry_count = %d, want 1", got.RetryCount)
	}
	if got.SentAt == nil {
		t.Error("sent_at must be stamped on success")
	}
}

func TestSummaryLifecycle(t *testing.T) {
	pool := testPool(t)
	articleRepo := repository.NewArticleRepository(pool, "simple")
	summaryRepo := repository.NewSummaryRepository(pool)
	ctx := context.Background()

	articleID, err := articleRepo.Create(ctx, testArticle(uniqueSuffix()))
	if err != nil {
		t.Fatalf("create article failed: %v", err)
	}

	confidence := 0.92
	first, err := summaryRepo.Create(ctx, &model.NewsSummary{
		ArticleID:       articleID,
		Title:           "반도체 수출 요약",
		Content:         "반도체 수출이 증가했다는 내용의 요약.",
		KeyPoints:       []string{"수출 증가", "업계 전망"},
		SummaryType:     model.SummaryMedium,
		ConfidenceScore: &confidence,
		Language:        "ko",
	})
	if err != nil {
		t.Fatalf("create summary failed: %v", err)
	}
	second, err := summaryRepo.Create(ctx, &model.NewsSummary{
		ArticleID:   articleID,
		Title:       "한 줄 요약",
		Content:     "반도체 수출 증가.",
		SummaryType: model.SummaryShort,
		Language:    "ko",
	})
	if err != nil {
		t.Fatalf("create second summary failed: %v", err)
	}

	summaries, err := summaryRepo.ListByArticle(ctx, articleID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("listed %d summaries, want 2", len(summaries))
	}
	seen := map[string]bool{}
	for _, s := range summaries {
		seen[s.ID] = true
	}
	if !seen[first] || !seen[second] {
		t.Errorf("listing missed a summary: %v", seen)
	}

	latest, err := summaryRepo.GetLatest(ctx, articleID, model.SummaryMedium, "ko")
	if err != nil {
		t.Fatalf("get latest failed: %v", err)
	}
	if latest.ID != first {
		t.Errorf("latest medium summary = %s, want %s", latest.ID, first)
	}
	if latest.ConfidenceScore == nil || *latest.ConfidenceScore != confidence {
		t.Errorf("confidence not round-tripped: %v", latest.ConfidenceScore)
	}
	if len(latest.KeyPoints) != 2 {
		t.Errorf("key points = %v", latest.KeyPoints)
	}
}

func TestSummaryRejectsDanglingArticle(t *testing.T) {
	pool := testPool(t)
	summaryRepo := repository.NewSummaryRepository(pool)
	ctx := context.Background()

	_, err := summaryRepo.Create(ctx, &model.NewsSummary{
		ArticleID:   "00000000-0000-0000-0000-000000000000",
		Title:       "고아 요약",
		Content:     "본문",
		SummaryType: model.SummaryMedium,
		Language:    "ko",
	})
	if !errors.Is(err, repository.ErrConstraintViolation) {
		t.Fatalf("dangling article_id: expected ErrConstraintViolation, got %v", err)
	}
}

func TestListByCreationNewestFirst(t *testing.T) {
	pool := testPool(t)
	userRepo := repository.NewUserRepository(pool)
	ctx := context.Background()

	suffix := uniqueSuffix()
	olderID, err := userRepo.Create(ctx, &model.User{
		Email:          "older-" + suffix + "@example.com",
		FullName:       "먼저 가입",
		IsActive:       true,
		EmailFrequency: model.FrequencyDaily,
		EmailTimeHour:  8,
	})
	if err != nil {
		t.Fatalf("create older user failed: %v", err)
	}
	newerID, err := userRepo.Create(ctx, &model.User{
		Email:          "newer-" + suffix + "@example.com",
		FullName:       "나중 가입",
		IsActive:       false,
		EmailFrequency: model.FrequencyWeekly,
		EmailTimeHour:  9,
	})
	if err != nil {
		t.Fatalf("create newer user failed: %v", err)
	}

	users, err := userRepo.ListByCreation(ctx, 50, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	// Inactive accounts must appear too, and ordering is newest first.
	olderIdx, newerIdx := -1, -1
	for i, u := range users {
		switch u.ID {
		case olderID:
			olderIdx = i
		case newerID:
			newerIdx = i
		}
	}
	if newerIdx == -1 {
		t.Fatal("inactive user missing from creation listing")
	}
	if olderIdx != -1 && newerIdx > olderIdx {
		t.Errorf("ordering: newer user at %d after older at %d", newerIdx, olderIdx)
	}
}

func TestDigestAndLogCommitTogether(t *testing.T) {
	pool := testPool(t)
	userRepo := repository.NewUserRepository(pool)
	articleRepo := repository.NewArticleRepository(pool, "simple")
	digestRepo := repository.NewDigestRepository(pool)
	logRepo := repository.NewEmailLogRepository(pool)
	ctx := context.Background()

	suffix := uniqueSuffix()
	email := "txdigest-" + suffix + "@example.com"
	userID, err := userRepo.Create(ctx, &model.User{
		Email:          email,
		FullName:       "홍길동",
		IsActive:       true,
		EmailFrequency: model.FrequencyDaily,
		EmailTimeHour:  8,
	})
	if err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	articleID, err := articleRepo.Create(ctx, testArticle(suffix))
	if err != nil {
		t.Fatalf("create article failed: %v", err)
	}

	date := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	newDigest := func() *model.EmailDigest {
		return &model.EmailDigest{
			UserID:        userID,
			DigestDate:    date,
			DigestType:    model.DigestDaily,
			Subject:       "오늘의 뉴스",
			Body:          "본문",
			ArticleIDs:    []string{articleID},
			TotalArticles: 1,
		}
	}
	newLog := func() *model.EmailLog {
		return &model.EmailLog{
			UserID:         &userID,
			RecipientEmail: email,
			EmailType:      model.EmailTypeDailyDigest,
			Subject:        "오늘의 뉴스",
		}
	}

	// Rolled back: neither row survives.
	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if _, err := digestRepo.CreateTx(ctx, tx, newDigest()); err != nil {
		t.Fatalf("create in tx failed: %v", err)
	}
	if _, err := logRepo.AppendTx(ctx, tx, newLog()); err != nil {
		t.Fatalf("append in tx failed: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}
	if _, err := digestRepo.Get(ctx, userID, date, model.DigestDaily); err == nil {
		t.Fatal("digest row survived a rollback")
	}
	logs, err := logRepo.ListByRecipient(ctx, email, 10, 0)
	if err != nil {
		t.Fatalf("list logs failed: %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("%d log rows survived a rollback", len(logs))
	}

	// Committed: both rows land, article ids round-trip through uuid[].
	tx, err = pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if _, err := digestRepo.CreateTx(ctx, tx, newDigest()); err != nil {
		t.Fatalf("create in tx failed: %v", err)
	}
	logID, err := logRepo.AppendTx(ctx, tx, newLog())
	if err != nil {
		t.Fatalf("append in tx failed: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	got, err := digestRepo.Get(ctx, userID, date, model.DigestDaily)
	if err != nil {
		t.Fatalf("get after commit failed: %v", err)
	}
	if len(got.ArticleIDs) != 1 || got.ArticleIDs[0] != articleID {
		t.Errorf("article_ids = %v, want [%s]", got.ArticleIDs, articleID)
	}
	logs, err = logRepo.ListByRecipient(ctx, email, 10, 0)
	if err != nil {
		t.Fatalf("list logs failed: %v", err)
	}
	if len(logs) != 1 || logs[0].ID != logID {
		t.Errorf("committed log entry missing: %v", logs)
	}
}

func strPtr(s string) *string { return &s }
