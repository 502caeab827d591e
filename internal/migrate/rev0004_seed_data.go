package migrate

import "context"

// Seed rows the digest pipeline depends on: one active template per
// (name, language) and a starter set of Korean keywords. Every insert
// is conflict-guarded so re-running the revision on a provisioned
// database is a no-op.
var rev0004SeedData = Revision{
	ID:           "0004",
	DownRevision: "0003",
	Label:        "seed templates and keywords",
	Up: func(ctx context.Context, ex Executor) error {
		const insertTemplate = `
			INSERT INTO email_templates (name, email_type, subject_template, body_template, language)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (name, language) DO NOTHING
		`

		templates := []struct {
			name      string
			emailType string
			subject   string
			body      string
		}{
			{
				name:      "daily_digest_ko",
				emailType: "daily_digest",
				subject:   "[뉴스한입] {digest_date} 오늘의 뉴스 {article_count}건",
				body:      "{user_name}님, {digest_date} 주요 기사 {article_count}건입니다.\n\n{news_content}",
			},
			{
				name:      "weekly_digest_ko",
				emailType: "weekly_digest",
				subject:   "[뉴스한입] 주간 뉴스 요약 ({digest_date})",
				body:      "{user_name}님, {digest_date}까지 한 주간 주요 기사 {article_count}건입니다.\n\n{news_content}",
			},
			{
				name:      "welcome_ko",
				emailType: "welcome",
				subject:   "[뉴스한입] {user_name}님, 가입을 환영합니다",
				body:      "환영합니다, {user_name}님! 관심 카테고리를 설정하면 매일 맞춤 뉴스를 받아볼 수 있습니다.",
			},
			{
				name:      "verification_ko",
				emailType: "verification",
				subject:   "[뉴스한입] 이메일 인증을 완료해 주세요",
				body:      "{user_name}님, 다음 링크로 이메일 인증을 완료해 주세요: {verification_link}",
			},
		}
		for _, t := range templates {
			if _, err := ex.Exec(ctx, insertTemplate, t.name, t.emailType, t.subject, t.body, "ko"); err != nil {
				return err
			}
		}

		const insertKeyword = `
			INSERT INTO news_keywords (keyword, frequency, trend_score)
			VALUES ($1, 0, 0.0)
			ON CONFLICT (keyword) DO NOTHING
		`
		keywords := []string{
			"경제", "정치", "부동산", "금리", "주식",
			"인공지능", "반도체", "기후변화", "선거", "환율",
		}
		for _, kw := range keywords {
			if _, err := ex.Exec(ctx, insertKeyword, kw); err != nil {
				return err
			}
		}
		return nil
	},
	Down: func(ctx context.Context, ex Executor) error {
		if _, err := ex.Exec(ctx, `
			DELETE FROM email_templates
			WHERE name IN ('daily_digest_ko', 'weekly_digest_ko', 'welcome_ko', 'verification_ko')
			  AND language = 'ko'
		`); err != nil {
			return err
		}
		_, err := ex.Exec(ctx, `
			DELETE FROM news_keywords
			WHERE keyword IN ('경제', '정치', '부동산', '금리', '주식',
				'인공지능', '반도체', '기후변화', '선거', '환율')
			  AND frequency = 0
		`)
		return err
	},
}
