package models

import (
	"context"
	"errors"

	"github.com/clearpathtax/case_backend/config"
)

// GetCaseEventStatus returns the latest outbox row for a case, or for one
// specific event when eventId > 0.
func GetCaseEventStatus(ctx context.Context, caseNumber string, eventId int) (*OutboxStatus, error) {
	if caseNumber == "" {
		return nil, errors.New("case number is required")
	}

	db := config.GetDB()
	var rec CaseEventRecord
	dbCtx := db.WithContext(ctx).Where("case_number = ?", caseNumber)
	if eventId > 0 {
		dbCtx = dbCtx.Where("id = ?", eventId)
	}
	if err := dbCtx.Order("id DESC").First(&rec).Error; err != nil {
		return nil, err
	}

	processing := rec.ProcessingStatus
	if processing == "" {
		if rec.IsProcessed {
			processing = OutboxProcessStatusSucceeded
		} else {
			processing = OutboxProcessStatusPending
		}
	}

	var postingStatus OutboxPostingStatus
	switch processing {
	case OutboxProcessStatusProcessing:
		postingStatus = OutboxPostingStatusProcessing
	case OutboxProcessStatusFailed:
		postingStatus = OutboxPostingStatusFailed
	case OutboxProcessStatusDead:
		postingStatus = OutboxPostingStatusDead
	case OutboxProcessStatusSucceeded:
		postingStatus = OutboxPostingStatusSucceeded
	default:
		// If the row is already processed, always show SUCCEEDED (even if older rows have legacy values).
		if rec.IsProcessed {
			postingStatus = OutboxPostingStatusSucceeded
		} else {
			postingStatus = OutboxPostingStatusPending
		}
	}

	return &OutboxStatus{
		RecordId:             rec.ID,
		CaseNumber:           rec.CaseNumber,
		DocumentId:           rec.DocumentId,
		Action:               rec.Action,
		PublishStatus:        rec.PublishStatus,
		ProcessingStatus:     postingStatus,
		IsProcessed:          rec.IsProcessed,
		PublishAttempts:      rec.PublishAttempts,
		ProcessAttempts:      rec.ProcessAttempts,
		NextAttemptAt:        rec.NextAttemptAt,
		NextProcessAttemptAt: rec.NextProcessAttemptAt,
		LastPublishError:     rec.LastPublishError,
		LastProcessError:     rec.LastProcessError,
		CreatedAt:            rec.CreatedAt,
		PublishedAt:          rec.PublishedAt,
		ProcessedAt:          rec.ProcessedAt,
	}, nil
}
