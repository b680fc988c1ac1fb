package utils

import (
	"context"
	"errors"
	"reflect"

	"github.com/clearpathtax/case_backend/config"
)

// check if id exists within the case, return RecordNotFound Error
func ValidateResourceId[T any](ctx context.Context, caseId int, id interface{}) error {

	count, err := ResourceCountWhere[T](ctx, caseId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}

func ValidateUnique[T any](ctx context.Context, caseId int, column string, value interface{}, exceptId interface{}) error {
	var count int64
	var err error
	if reflect.ValueOf(exceptId).IsZero() {
		count, err = ResourceCountWhere[T](ctx, caseId, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](ctx, caseId, column+" = ? AND NOT id = ?", value, exceptId)
	}

	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("duplicate " + column)
	}
	return nil
}

// count records, using WHERE case_id = ? AND $condition
// caseId can be 0 for cross-case queries
func ResourceCountWhere[T any](ctx context.Context, caseId int, condition string, value ...interface{}) (int64, error) {
	var model T

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&model)
	var count int64
	if caseId > 0 {
		dbCtx.Where("case_id = ?", caseId)
	}
	dbCtx.Where(condition, value...)
	if err := dbCtx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
