package workflow

import (
	"context"
	"time"

	"github.com/clearpathtax/case_backend/config"
	"github.com/clearpathtax/case_backend/models"
	"gorm.io/gorm"
)

const caseEventHandlerName = "CaseEventConsumer"

// ProcessCaseEvent is the Pub/Sub consumer behind the outbox: it reacts to one
// case event by promoting pending bronze documents and, when the event calls
// for it, rebuilding the case's derived rows. Delivery is at-least-once, so
// the durable idempotency key makes redelivery a no-op; returning an error
// asks Pub/Sub to redeliver.
func ProcessCaseEvent(ctx context.Context, msg config.CaseEventMessage, pubsubMessageID string) error {
	db := config.GetDB().WithContext(ctx)
	logger := config.GetLogger()

	skip, err := BeginIdempotency(db, msg.CaseNumber, caseEventHandlerName, pubsubMessageID)
	if err != nil {
		return err
	}
	if skip {
		return markCaseEventProcessed(db, msg.ID)
	}

	workErr := handleCaseEvent(ctx, msg)
	if workErr != nil {
		config.LogError(logger, "workflow", "ProcessCaseEvent",
			"case event handling failed", map[string]any{
				"case_number": msg.CaseNumber,
				"action":      msg.Action,
				"event_id":    msg.ID,
			}, workErr)
		if err := MarkIdempotencyFailed(db, msg.CaseNumber, caseEventHandlerName, pubsubMessageID, workErr); err != nil {
			return err
		}
		if err := markCaseEventFailed(db, msg.ID, workErr); err != nil {
			return err
		}
		return workErr
	}

	if err := MarkIdempotencySucceeded(db, msg.CaseNumber, caseEventHandlerName, pubsubMessageID); err != nil {
		return err
	}
	return markCaseEventProcessed(db, msg.ID)
}

func handleCaseEvent(ctx context.Context, msg config.CaseEventMessage) error {
	switch models.CaseEventAction(msg.Action) {
	case models.CaseEventActionDocumentIngested:
		if config.RecomputeOnIngest() {
			return RecomputeCase(ctx, msg.CaseNumber)
		}
		caseRecord, err := models.GetCaseByNumber(ctx, msg.CaseNumber)
		if err != nil {
			return err
		}
		_, err = ExtractPendingDocuments(ctx, caseRecord)
		return err

	case models.CaseEventActionRecomputeRequested, models.CaseEventActionExclusionChanged:
		return RecomputeCase(ctx, msg.CaseNumber)
	}

	// Unknown actions are acked, not retried forever.
	return nil
}

func markCaseEventProcessed(db *gorm.DB, eventID int) error {
	if eventID == 0 {
		return nil
	}
	now := time.Now().UTC()
	return db.Model(&models.CaseEventRecord{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"is_processed":       true,
			"processing_status":  models.OutboxProcessStatusSucceeded,
			"processed_at":       &now,
			"last_process_error": nil,
		}).Error
}

func markCaseEventFailed(db *gorm.DB, eventID int, workErr error) error {
	if eventID == 0 {
		return nil
	}
	msg := workErr.Error()
	return db.Model(&models.CaseEventRecord{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"processing_status":  models.OutboxProcessStatusFailed,
			"process_attempts":   gorm.Expr("process_attempts + 1"),
			"last_process_error": &msg,
		}).Error
}
