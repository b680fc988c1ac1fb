package models

import (
	"time"

	"github.com/clearpathtax/case_backend/config"
)

// CaseEventRecord is the transactional-outbox row behind every workflow
// trigger: document ingested, recompute requested, exclusion toggled. Rows are
// written inside the same transaction as the change they describe; the
// dispatcher publishes them to Pub/Sub after commit and the workflow consumer
// marks them processed once the recompute lands.
type CaseEventRecord struct {
	ID            int             `gorm:"primary_key;index:idx_case_event_dispatch,priority:3;index:idx_case_event_reconcile,priority:3" json:"id"`
	CaseId        int             `gorm:"not null;index" json:"case_id"`
	CaseNumber    string          `gorm:"size:64;not null;index;index:idx_case_event_reconcile,priority:1" json:"case_number"`
	EventDateTime time.Time       `gorm:"index;not null" json:"event_date_time"`
	DocumentId    int             `json:"document_id"`
	DocumentKind  DocumentKind    `gorm:"size:32" json:"document_kind"`
	Action        CaseEventAction `gorm:"size:32;not null" json:"action"`
	IsProcessed   bool            `gorm:"index;not null;index:idx_case_event_reconcile,priority:2" json:"is_processed"`
	// Outbox metadata (publish happens after commit via the dispatcher).
	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_case_event_dispatch,priority:1" json:"publish_status"` // PENDING|PROCESSING|SENT|FAILED|DEAD
	PublishedAt      *time.Time `gorm:"index" json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_case_event_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `gorm:"index" json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	// Processing metadata (consumer/worker side).
	ProcessingStatus     string     `gorm:"size:20;index;not null;default:'PENDING'" json:"processing_status"` // PENDING|PROCESSING|SUCCEEDED|FAILED|DEAD
	ProcessAttempts      int        `gorm:"not null;default:0" json:"process_attempts"`
	NextProcessAttemptAt *time.Time `gorm:"index" json:"next_process_attempt_at"`
	LastProcessError     *string    `gorm:"type:text" json:"last_process_error"`
	ProcessedAt          *time.Time `gorm:"index" json:"processed_at"`
	CorrelationId        string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func ConvertToCaseEventMessage(record CaseEventRecord) config.CaseEventMessage {
	return config.CaseEventMessage{
		ID:            record.ID,
		CaseNumber:    record.CaseNumber,
		EventDateTime: record.EventDateTime,
		DocumentId:    record.DocumentId,
		DocumentKind:  string(record.DocumentKind),
		Action:        string(record.Action),
		CorrelationId: record.CorrelationId,
	}
}
