package model

import "time"

type EmailFrequency string

const (
	FrequencyDaily    EmailFrequency = "daily"
	FrequencyWeekly   EmailFrequency = "weekly"
	FrequencyMonthly  EmailFrequency = "monthly"
	FrequencyDisabled EmailFrequency = "disabled"
)

func (f EmailFrequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyDisabled:
		return true
	}
	return false
}

type SummaryLength string

const (
	SummaryShort  SummaryLength = "short"
	SummaryMedium SummaryLength = "medium"
	SummaryLong   SummaryLength = "long"
)

func (l SummaryLength) Valid() bool {
	switch l {
	case SummaryShort, SummaryMedium, SummaryLong:
		return true
	}
	return false
}

type User struct {
	ID             string
	Email          string
	PasswordHash   *string // null for social-login accounts
	FullName       string
	IsActive       bool
	IsVerified     bool
	GoogleID       *string
	EmailFrequency EmailFrequency
	EmailTimeHour  int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UserPreference is the per-user digest profile consumed by digest assembly.
type UserPreference struct {
	ID                  string
	UserID              string
	PreferredCategories []NewsCategory
	SummaryLength       SummaryLength
	Language            string
	EmailNotification   bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
