package utils

import (
	"context"

	"github.com/clearpathtax/case_backend/config"
	"gorm.io/gorm"
)

type ModelChangeLocker interface {
	CheckRecomputeLock(context.Context) error
}

/* DB fetching */

// fetch model from db
// (may return RecordNotFound)
func FetchSingleModel[T any](ctx context.Context, id int, associations ...string) (*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	// preloading
	for _, field := range associations {
		dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		return nil, ErrorRecordNotFound
	}
	return &result, nil
}

// fetch model scoped to one case
// (may return RecordNotFound)
func FetchModel[T any](ctx context.Context, caseId int, id int, associations ...string) (*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("case_id = ?", caseId)
	// preloading
	for _, field := range associations {
		dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		return nil, ErrorRecordNotFound
	}
	return &result, nil
}

// fetch model and refuse the edit while the case is being recomputed;
// caseId zero fetches by id alone (callers that only know the row id)
func FetchModelForChange[T ModelChangeLocker](ctx context.Context, caseId int, id int, associations ...string) (*T, error) {
	var result *T
	var err error
	if caseId > 0 {
		result, err = FetchModel[T](ctx, caseId, id, associations...)
	} else {
		result, err = FetchSingleModel[T](ctx, id, associations...)
	}
	if err != nil {
		return nil, err
	}
	if err := (*result).CheckRecomputeLock(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

// fetch all models belonging to one case
func FetchAllModels[T any](ctx context.Context, caseId int, associations ...string) ([]*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("case_id = ?", caseId)
	// preloading
	for _, field := range associations {
		dbCtx.Preload(field)
	}
	var results []*T
	err := dbCtx.Find(&results).Error
	if err != nil {
		return nil, ErrorRecordNotFound
	}
	return results, nil
}

func GetPolymorphicId[T any](ctx context.Context, referenceType string, referenceId int) (int, error) {
	db := config.GetDB()
	var v T
	var id int
	err := db.WithContext(ctx).Model(&v).Where("reference_type = ? AND reference_id = ?", referenceType, referenceId).Select("id").Scan(&id).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	return id, err
}
