package models

import (
	"context"
	"errors"
	"time"

	"github.com/clearpathtax/case_backend/config"
	"gorm.io/gorm"
)

// ReprocessCaseEvents resets every unprocessed outbox row of a case back to
// PENDING so the dispatcher and worker pick them up again. Used by operators
// after a DEAD or stuck event.
func ReprocessCaseEvents(ctx context.Context, caseNumber string) (*OutboxStatus, error) {
	if caseNumber == "" {
		return nil, errors.New("case number is required")
	}

	now := time.Now().UTC()
	db := config.GetDB()

	res := db.WithContext(ctx).
		Model(&CaseEventRecord{}).
		Where("case_number = ? AND is_processed = 0", caseNumber).
		Updates(map[string]interface{}{
			"locked_at":               nil,
			"locked_by":               nil,
			"publish_status":          OutboxPublishStatusPending,
			"next_attempt_at":         nil,
			"processing_status":       OutboxProcessStatusPending,
			"next_process_attempt_at": &now,
			"last_process_error":      nil,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return GetCaseEventStatus(ctx, caseNumber, 0)
}
