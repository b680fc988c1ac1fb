package models

import (
	"github.com/clearpathtax/case_backend/utils"
)

type RedisCleaner interface {
	RemoveInstanceRedis() error // remove one
	RemoveAllRedis() error      // remove list & map if exists
}

// remove both item & list + map
func RemoveRedisBoth[T RedisCleaner](obj T) error {
	if err := obj.RemoveInstanceRedis(); err != nil {
		return err
	}
	if err := obj.RemoveAllRedis(); err != nil {
		return err
	}
	return nil
}

/* reference tables share one cache entry, the loaded ruleset */

func (obj TransactionCodeRule) RemoveInstanceRedis() error {
	return nil
}

func (obj TransactionCodeRule) RemoveAllRedis() error {
	return utils.ClearRulesetCache()
}

func (obj IncomeDocumentTypeRule) RemoveInstanceRedis() error {
	return nil
}

func (obj IncomeDocumentTypeRule) RemoveAllRedis() error {
	return utils.ClearRulesetCache()
}

func (obj TaxBracket) RemoveInstanceRedis() error {
	return nil
}

func (obj TaxBracket) RemoveAllRedis() error {
	return utils.ClearRulesetCache()
}

func (obj StandardDeduction) RemoveInstanceRedis() error {
	return nil
}

func (obj StandardDeduction) RemoveAllRedis() error {
	return utils.ClearRulesetCache()
}

func (obj ExpenseStandard) RemoveInstanceRedis() error {
	return nil
}

func (obj ExpenseStandard) RemoveAllRedis() error {
	return utils.ClearRulesetCache()
}

