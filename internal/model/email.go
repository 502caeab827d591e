package model

import "time"

type EmailType string

const (
	EmailTypeDailyDigest   EmailType = "daily_digest"
	EmailTypeWeeklyDigest  EmailType = "weekly_digest"
	EmailTypeBreakingNews  EmailType = "breaking_news"
	EmailTypeWelcome       EmailType = "welcome"
	EmailTypeVerification  EmailType = "verification"
	EmailTypePasswordReset EmailType = "password_reset"
	EmailTypeNotification  EmailType = "notification"
)

func (t EmailType) Valid() bool {
	switch t {
	case EmailTypeDailyDigest, EmailTypeWeeklyDigest, EmailTypeBreakingNews,
		EmailTypeWelcome, EmailTypeVerification, EmailTypePasswordReset,
		EmailTypeNotification:
		return true
	}
	return false
}

// EmailStatus is the delivery state reported by the mail transport.
type EmailStatus string

const (
	EmailStatusQueued  EmailStatus = "queued"
	EmailStatusSent    EmailStatus = "sent"
	EmailStatusFailed  EmailStatus = "failed"
	EmailStatusBounced EmailStatus = "bounced"
)

func (s EmailStatus) Valid() bool {
	switch s {
	case EmailStatusQueued, EmailStatusSent, EmailStatusFailed, EmailStatusBounced:
		return true
	}
	return false
}

type DigestType string

const (
	DigestDaily  DigestType = "daily"
	DigestWeekly DigestType = "weekly"
)

func (t DigestType) Valid() bool {
	switch t {
	case DigestDaily, DigestWeekly:
		return true
	}
	return false
}

// EmailType maps a digest type onto the email_templates type domain.
func (t DigestType) EmailType() EmailType {
	if t == DigestWeekly {
		return EmailTypeWeeklyDigest
	}
	return EmailTypeDailyDigest
}

type EmailTemplate struct {
	ID              string
	Name            string
	EmailType       EmailType
	SubjectTemplate string
	BodyTemplate    string
	Language        string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EmailLog is an append-only delivery record. Only status, sent_at and
// bounce_reason change after creation, and only via the delivery-report path.
type EmailLog struct {
	ID             string
	UserID         *string
	RecipientEmail string
	EmailType      EmailType
	Subject        string
	Status         EmailStatus
	SentAt         *time.Time
	BounceReason   *string
	RetryCount     int
	LastError      *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type EmailDigest struct {
	ID            string
	UserID        string
	DigestDate    time.Time
	DigestType    DigestType
	Subject       string
	Body          string
	ArticleIDs    []string
	TotalArticles int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
