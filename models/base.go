package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/clearpathtax/case_backend/config"
	"github.com/clearpathtax/case_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PublishCaseEvent implements the transactional outbox: it writes the event
// record inside the caller's DB transaction but does NOT publish to Pub/Sub.
// Publishing is performed asynchronously by the outbox dispatcher after commit.
// The record carries no payload; the workflow consumer recomputes from the
// current silver rows, so the event only has to say which case and why.
func PublishCaseEvent(ctx context.Context, db *gorm.DB, caseId int, caseNumber string, eventDateTime time.Time, documentId int, documentKind DocumentKind, action CaseEventAction) (*CaseEventRecord, error) {

	record := CaseEventRecord{
		CaseId:        caseId,
		CaseNumber:    caseNumber,
		EventDateTime: eventDateTime,
		DocumentId:    documentId,
		DocumentKind:  documentKind,
		Action:        action,
		IsProcessed:   false,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	if err := db.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

// ToJSONWithoutField converts an object to JSON after temporarily removing a specified field
func ToJSONWithoutField(obj interface{}, fieldName string) ([]byte, error) {
	// Get the value of the object
	val := reflect.ValueOf(obj)

	// If the value is an interface, get the concrete value it holds
	if val.Kind() == reflect.Interface {
		val = val.Elem()
	}

	// If the value is not a pointer, create a pointer to it
	if val.Kind() != reflect.Ptr {
		valPtr := reflect.New(val.Type())
		valPtr.Elem().Set(val)
		val = valPtr
	}

	// Dereference the pointer
	val = val.Elem()

	// Ensure the value is a struct
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected a struct, got %v", val.Kind())
	}

	// Find the field by name
	field := val.FieldByName(fieldName)
	var err error
	var jsonData []byte
	if field.IsValid() {
		// Check if the field is a slice
		if field.Kind() == reflect.Slice {
			// Iterate over the slice elements
			for i := 0; i < field.Len(); i++ {
				elem := field.Index(i)
				if elem.Kind() == reflect.Struct {
					elemPtr := reflect.New(elem.Type())
					elemPtr.Elem().Set(elem)
					field.Index(i).Set(elemPtr.Elem())
				}
			}
		}

		// Store the original value of the field
		originalValue := reflect.New(field.Type()).Elem()
		originalValue.Set(field)

		// Clear the field value
		field.Set(reflect.Zero(field.Type()))

		// Convert the object to JSON
		jsonData, err = json.Marshal(val.Interface())

		// Restore the original value
		field.Set(originalValue)
	} else {
		// Convert the object to JSON
		jsonData, err = json.Marshal(val.Interface())
	}
	if err != nil {
		return nil, err
	}
	return jsonData, nil
}

// RecomputeLock is the per-case lock type used by the workflow while it
// rebuilds gold rows. utils.ObtainCaseLock builds the same key from it.
const RecomputeLock = "RecomputeLock"

// checkRecomputeLock refuses silver edits for a case whose gold rows are being
// rebuilt right now. The probe only reads the lock key; it never takes it.
func checkRecomputeLock(caseNumber string) error {
	_, held, err := config.GetRedisValue(CaseLockKey(caseNumber))
	if err != nil {
		return err
	}
	if held {
		return errors.New("case is being recomputed, retry shortly")
	}
	return nil
}

// validateCaseExists may return RecordNotFound error
func validateCaseExists(ctx context.Context, caseId int) error {
	if caseId == 0 {
		return nil
	}
	if err := utils.ValidateResourceId[Case](ctx, 0, caseId); err != nil {
		return errors.New("case not found")
	}
	return nil
}
