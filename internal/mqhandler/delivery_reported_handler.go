package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"newsbite/internal/model"
	"newsbite/internal/repository"
)

// DeliveryReportedPayload is published by the mail transport on
// email.delivery.reported once a send attempt resolves.
type DeliveryReportedPayload struct {
	EmailLogID   string  `json:"email_log_id"`
	Status       string  `json:"status"`
	BounceReason *string `json:"bounce_reason,omitempty"`
	LastError    *string `json:"last_error,omitempty"`
	TraceID      string  `json:"trace_id,omitempty"`
}

type DeliveryReportedHandler struct {
	emailLogRepo *repository.EmailLogRepository
	logger       *zap.Logger
}

func NewDeliveryReportedHandler(emailLogRepo *repository.EmailLogRepository, logger *zap.Logger) *DeliveryReportedHandler {
	return &DeliveryReportedHandler{
		emailLogRepo: emailLogRepo,
		logger:       logger,
	}
}

func (h *DeliveryReportedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p DeliveryReportedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal delivery report payload",
			zap.Error(err),
		)
		return fmt.Errorf("json_unmarshal_error: %w", err)
	}
	ctx = withPayloadTrace(ctx, p.TraceID)

	err := h.emailLogRepo.ReportDelivery(ctx, p.EmailLogID, model.EmailStatus(p.Status), p.BounceReason, p.LastError)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			h.logger.Warn("Delivery report for unknown email log, skipping",
				zap.String("email_log_id", p.EmailLogID),
			)
			return nil
		}
		if errors.Is(err, repository.ErrConstraintViolation) {
			h.logger.Warn("Delivery report rejected by schema constraints, skipping",
				zap.String("email_log_id", p.EmailLogID),
				zap.String("status", p.Status),
			)
			return nil
		}
		return err
	}

	h.logger.Info("Delivery outcome recorded",
		zap.String("email_log_id", p.EmailLogID),
		zap.String("status", p.Status),
	)
	return nil
}
