package models

import (
	"context"
	"errors"

	"github.com/clearpathtax/case_backend/config"
	"github.com/clearpathtax/case_backend/utils"
)

type Resource interface {
	GetCaseId() int
}

// first find in redis, then in db, scoped to the case, cache result
// (may return RecordNotFound error)
func GetResource[T Resource](ctx context.Context, caseId int, id int, associations ...string) (*T, error) {

	if caseId <= 0 {
		return nil, errors.New("case id is required")
	}
	// find in redis
	result, err := utils.RetrieveRedis[T](id)
	if err != nil {
		return nil, err
	}
	// if not found in redis
	if result == nil {
		// fetch from db
		result, err = utils.FetchModel[T](ctx, caseId, id, associations...)
		if err != nil {
			return nil, err
		}

		// store in redis
		if err := utils.StoreRedis[T](result, id); err != nil {
			return nil, err
		}
	} else {
		// if found in redis
		// check if case ids match
		if (*result).GetCaseId() != caseId {
			return nil, errors.New("cannot access resource owned by another case")
		}
	}

	return result, nil
}

// list all resources of a case, redis or db, cache result
func ListAllResource[ModelT any, AllModelT any](ctx context.Context, caseId int, caseNumber string, orders ...string) ([]*AllModelT, error) {

	if caseId <= 0 || caseNumber == "" {
		return nil, errors.New("case id is required")
	}

	// first try redis cache
	results, err := utils.RetrieveRedisList[AllModelT](caseNumber)
	if err != nil {
		return nil, err
	}
	// if not exists in redis
	if results == nil {
		// fetch from db
		db := config.GetDB()
		var model ModelT
		dbCtx := db.WithContext(ctx).Where("case_id = ?", caseId)
		for _, order := range orders {
			dbCtx = dbCtx.Order(order)
		}
		// db query
		if err = dbCtx.Model(&model).Find(&results).Error; err != nil {
			return nil, err
		}

		// caching the result
		if err := utils.StoreRedisList[AllModelT](results, caseNumber); err != nil {
			return nil, err
		}
	}

	return results, nil
}

func ToggleActiveModel[T RedisCleaner](ctx context.Context, id int, isActive bool) (*T, error) {

	var result *T
	var err error
	db := config.GetDB()

	// fetch model before updating
	err = db.WithContext(ctx).First(&result, id).Error
	if err != nil {
		return nil, err
	}

	// update db
	tx := db.Begin()
	Tx := tx.WithContext(ctx).Model(&result).
		UpdateColumn("IsActive", isActive)
	if Tx.Error != nil {
		tx.Rollback()
		return nil, Tx.Error
	}

	referenceType := Tx.Statement.Table
	var actionType string
	if isActive {
		actionType = "*ACTIVE*"
	} else {
		actionType = "*INACTIVE*"
	}

	// create history without hook
	if err := createHistory(tx.WithContext(ctx), actionType, id, referenceType, nil, nil, "toggled "+utils.GetTypeName[T]()); err != nil {
		tx.Rollback()
		return nil, err
	}

	// clear cache
	if err := RemoveRedisBoth(*result); err != nil {
		return nil, err
	}

	return result, tx.Commit().Error
}

// list all rows of a global table, redis or db, cache result
func ListAllAdmin[ModelT any, AllModelT any](ctx context.Context, fields ...string) ([]*AllModelT, error) {

	// first try redis cache
	results, err := utils.RetrieveRedisList[AllModelT]("")
	if err != nil {
		return nil, err
	}
	// if not exists in redis
	if results == nil {
		// fetch from db
		db := config.GetDB()
		var model ModelT
		dbCtx := db.WithContext(ctx).Model(&model)
		if len(fields) > 0 {
			dbCtx = dbCtx.Select(fields)
		}
		// db query
		if err = dbCtx.Scan(&results).Error; err != nil {
			return nil, err
		}

		// caching the result
		if err := utils.StoreRedisList[AllModelT](results, ""); err != nil {
			return nil, err
		}
	}

	return results, nil
}
