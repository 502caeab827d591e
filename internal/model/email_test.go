package model

import "testing"

func TestDigestTypeEmailType(t *testing.T) {
	if got := DigestDaily.EmailType(); got != EmailTypeDailyDigest {
		t.Errorf("daily digest maps to %q", got)
	}
	if got := DigestWeekly.EmailType(); got != EmailTypeWeeklyDigest {
		t.Errorf("weekly digest maps to %q", got)
	}
}

func TestEmailStatusValid(t *testing.T) {
	for _, s := range []EmailStatus{EmailStatusQueued, EmailStatusSent, EmailStatusFailed, EmailStatusBounced} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if EmailStatus("delivered").Valid() {
		t.Error("'delivered' is not in the status domain")
	}
}

func TestEmailTypeValid(t *testing.T) {
	if !EmailTypeBreakingNews.Valid() {
		t.Error("breaking_news should be valid")
	}
	if EmailType("marketing").Valid() {
		t.Error("'marketing' must be invalid")
	}
}
