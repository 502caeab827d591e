package digest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"newsbite/internal/model"
	"newsbite/internal/repository"
	"newsbite/pkg/logger"
	"newsbite/pkg/metrics"
)

// BuildRequest is the scheduler collaborator's trigger.
type BuildRequest struct {
	UserID string
	Date   time.Time
	Type   model.DigestType
}

// Result is the rendered artifact handed to the mail transport.
type Result struct {
	DigestID   string
	EmailLogID string
	Subject    string
	Body       string
	Language   string
}

type Service struct {
	db           *pgxpool.Pool
	articleRepo  *repository.ArticleRepository
	userRepo     *repository.UserRepository
	templateRepo *repository.TemplateRepository
	digestRepo   *repository.DigestRepository
	emailLogRepo *repository.EmailLogRepository
	maxArticles  int
	logger       *zap.Logger
}

func NewService(
	db *pgxpool.Pool,
	articleRepo *repository.ArticleRepository,
	userRepo *repository.UserRepository,
	templateRepo *repository.TemplateRepository,
	digestRepo *repository.DigestRepository,
	emailLogRepo *repository.EmailLogRepository,
	maxArticles int,
	log *zap.Logger,
) *Service {
	if maxArticles <= 0 {
		maxArticles = 20
	}
	return &Service{
		db:           db,
		articleRepo:  articleRepo,
		userRepo:     userRepo,
		templateRepo: templateRepo,
		digestRepo:   digestRepo,
		emailLogRepo: emailLogRepo,
		maxArticles:  maxArticles,
		logger:       log,
	}
}

// window converts a digest date into its [from, to) selection window.
func window(date time.Time, digestType model.DigestType) (time.Time, time.Time) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	if digestType == model.DigestWeekly {
		return day.AddDate(0, 0, -6), day.AddDate(0, 0, 1)
	}
	return day, day.AddDate(0, 0, 1)
}

// templateName maps (digest type, language) to the provisioned template name.
func templateName(digestType model.DigestType, language string) string {
	return fmt.Sprintf("%s_digest_%s", digestType, language)
}

// Build assembles, renders and persists one user's digest. The
// (user, date, type) uniqueness makes dispatch idempotent: a second build
// for the same key fails with ErrConstraintViolation before any email log
// is appended. A render failure is fatal to this digest only.
func (s *Service) Build(ctx context.Context, req BuildRequest) (*Result, error) {
	start := time.Now()
	log := logger.WithTrace(ctx, s.logger)

	if !req.Type.Valid() {
		return nil, fmt.Errorf("unknown digest type %q", req.Type)
	}

	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", req.UserID, err)
	}
	pref, err := s.userRepo.GetPreference(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences for %s: %w", req.UserID, err)
	}

	from, to := window(req.Date, req.Type)
	articles, err := s.articleRepo.ListDigestCandidates(ctx, pref.PreferredCategories, from, to, s.maxArticles)
	if err != nil {
		return nil, fmt.Errorf("failed to select digest candidates: %w", err)
	}

	tmpl, err := s.templateRepo.GetActive(ctx, templateName(req.Type, pref.Language), pref.Language)
	if err != nil {
		metrics.RecordDigestBuildDuration(string(req.Type), "failed", time.Since(start))
		return nil, fmt.Errorf("failed to load digest template: %w", err)
	}

	digestDate := req.Date.Format("2006-01-02")
	vars := map[string]string{
		"user_name":     user.FullName,
		"digest_date":   digestDate,
		"article_count": strconv.Itoa(len(articles)),
		"news_content":  renderArticleBlock(articles),
	}

	subject, err := render(tmpl.SubjectTemplate, vars)
	if err != nil {
		metrics.RecordDigestBuildDuration(string(req.Type), "render_error", time.Since(start))
		return nil, err
	}
	body, err := render(tmpl.BodyTemplate, vars)
	if err != nil {
		metrics.RecordDigestBuildDuration(string(req.Type), "render_error", time.Since(start))
		return nil, err
	}

	articleIDs := make([]string, 0, len(articles))
	for _, a := range articles {
		articleIDs = append(articleIDs, a.ID)
	}

	// Digest row and its delivery log are one unit: a digest without a
	// queued log entry would never reach the mail transport, so both land
	// in a single transaction.
	tx, err := s.db.Begin(ctx)
	if err != nil {
		metrics.RecordDigestBuildDuration(string(req.Type), "failed", time.Since(start))
		return nil, fmt.Errorf("failed to begin digest transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	day := time.Date(req.Date.Year(), req.Date.Month(), req.Date.Day(), 0, 0, 0, 0, time.UTC)
	digestID, err := s.digestRepo.CreateTx(ctx, tx, &model.EmailDigest{
		UserID:        req.UserID,
		DigestDate:    day,
		DigestType:    req.Type,
		Subject:       subject,
		Body:          body,
		ArticleIDs:    articleIDs,
		TotalArticles: len(articles),
	})
	if err != nil {
		metrics.RecordDigestBuildDuration(string(req.Type), "duplicate_or_failed", time.Since(start))
		return nil, fmt.Errorf("failed to create digest for user %s on %s: %w", req.UserID, digestDate, err)
	}

	logID, err := s.emailLogRepo.AppendTx(ctx, tx, &model.EmailLog{
		UserID:         &user.ID,
		RecipientEmail: user.Email,
		EmailType:      req.Type.EmailType(),
		Subject:        subject,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to append email log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		metrics.RecordDigestBuildDuration(string(req.Type), "failed", time.Since(start))
		return nil, fmt.Errorf("failed to commit digest transaction: %w", err)
	}

	metrics.RecordDigestBuildDuration(string(req.Type), "success", time.Since(start))
	log.Info("Digest built",
		zap.String("user_id", req.UserID),
		zap.String("digest_date", digestDate),
		zap.String("digest_type", string(req.Type)),
		zap.Int("articles", len(articles)),
	)

	return &Result{
		DigestID:   digestID,
		EmailLogID: logID,
		Subject:    subject,
		Body:       body,
		Language:   pref.Language,
	}, nil
}

// renderArticleBlock flattens the candidate list into the {news_content}
// placeholder value.
func renderArticleBlock(articles []*model.NewsArticle) string {
	if len(articles) == 0 {
		return "오늘은 새로운 소식이 없습니다."
	}
	var b strings.Builder
	for i, a := range articles {
		fmt.Fprintf(&b, "%d. %s\n", i+1, a.Title)
		if a.Summary != nil && *a.Summary != "" {
			b.WriteString(*a.Summary)
			b.WriteString("\n")
		}
		b.WriteString(a.URL)
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
