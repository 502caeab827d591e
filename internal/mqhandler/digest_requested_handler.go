package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"newsbite/internal/model"
	"newsbite/internal/repository"
	"newsbite/internal/service/digest"
	"newsbite/pkg/mq"
	"newsbite/pkg/trace"
)

// DigestRequestedPayload is published by the scheduler collaborator on
// email.digest.requested.
type DigestRequestedPayload struct {
	UserID     string `json:"user_id"`
	Date       string `json:"date"` // YYYY-MM-DD
	DigestType string `json:"digest_type"`
	TraceID    string `json:"trace_id,omitempty"`
}

// SendRequestedPayload hands a rendered digest to the mail transport on
// email.send.requested. The transport reports the outcome back on
// email.delivery.reported using the email_log_id.
type SendRequestedPayload struct {
	EmailLogID string `json:"email_log_id"`
	UserID     string `json:"user_id"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	Language   string `json:"language"`
	TraceID    string `json:"trace_id,omitempty"`
}

type DigestRequestedHandler struct {
	digestService *digest.Service
	publisher     *mq.Publisher
	logger        *zap.Logger
}

func NewDigestRequestedHandler(digestService *digest.Service, publisher *mq.Publisher, logger *zap.Logger) *DigestRequestedHandler {
	return &DigestRequestedHandler{
		digestService: digestService,
		publisher:     publisher,
		logger:        logger,
	}
}

// Handle builds one user's digest. A digest that already exists for the
// (user, date, type) key means an earlier dispatch won; the trigger is
// acked without side effects. A render failure is logged and acked: it is
// fatal to this digest but must not block other users' triggers behind it.
func (h *DigestRequestedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p DigestRequestedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal digest request payload",
			zap.Error(err),
		)
		return fmt.Errorf("json_unmarshal_error: %w", err)
	}
	ctx = withPayloadTrace(ctx, p.TraceID)

	date, err := time.Parse("2006-01-02", p.Date)
	if err != nil {
		h.logger.Error("Invalid digest date, skipping",
			zap.String("date", p.Date),
			zap.Error(err),
		)
		return nil
	}

	result, err := h.digestService.Build(ctx, digest.BuildRequest{
		UserID: p.UserID,
		Date:   date,
		Type:   model.DigestType(p.DigestType),
	})
	if err != nil {
		if errors.Is(err, repository.ErrConstraintViolation) {
			h.logger.Info("Digest already dispatched, skipping",
				zap.String("user_id", p.UserID),
				zap.String("date", p.Date),
				zap.String("digest_type", p.DigestType),
			)
			return nil
		}
		if errors.Is(err, repository.ErrTemplateRender) {
			h.logger.Error("Digest render failed",
				zap.String("user_id", p.UserID),
				zap.String("date", p.Date),
				zap.Error(err),
			)
			return nil
		}
		return err
	}

	if h.publisher != nil {
		err := h.publisher.Publish("email.send.requested", SendRequestedPayload{
			EmailLogID: result.EmailLogID,
			UserID:     p.UserID,
			Subject:    result.Subject,
			Body:       result.Body,
			Language:   result.Language,
			TraceID:    trace.FromContext(ctx),
		})
		if err != nil {
			// Digest 已落库，重新入队会触发重复约束；运维可从 queued 状态的
			// email_logs 重放
			h.logger.Error("Failed to publish send request",
				zap.String("email_log_id", result.EmailLogID),
				zap.Error(err),
			)
		}
	}
	return nil
}
