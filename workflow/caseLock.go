package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireCaseRecomputeLock serializes recomputes per case across instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same *gorm.DB that will do the recompute transaction.
func AcquireCaseRecomputeLock(tx *gorm.DB, caseNumber string) error {
	lockName := fmt.Sprintf("recompute:%s", caseNumber)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire recompute lock for case_number=%s", caseNumber)
	}
	return nil
}

func ReleaseCaseRecomputeLock(tx *gorm.DB, caseNumber string) {
	lockName := fmt.Sprintf("recompute:%s", caseNumber)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
