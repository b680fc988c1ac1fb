package models

import (
	"fmt"

	"github.com/clearpathtax/case_backend/utils"
	"gorm.io/gorm"
)

// Hooks cover operator-driven writes only. Extraction and recompute rewrite
// silver and gold rows wholesale, so those models stay hook-free and the
// history table records intents, not derived rows.

func (c *Case) AfterCreate(tx *gorm.DB) (err error) {
	if err := SaveHistoryCreate(tx, c.ID, c, fmt.Sprintf("Created case %s", c.CaseNumber)); err != nil {
		return err
	}
	if err := c.RemoveAllRedis(); err != nil {
		return err
	}

	return nil
}

func (c *Case) BeforeUpdate(tx *gorm.DB) (err error) {
	if err := SaveHistoryUpdate(tx, c.ID, c, "Updated Case"); err != nil {
		return err
	}

	return nil
}

func (c *Case) AfterDelete(tx *gorm.DB) (err error) {
	if err := SaveHistoryDelete(tx, c.ID, c, "Deleted Case"); err != nil {
		return err
	}
	if err := RemoveRedisBoth(*c); err != nil {
		return err
	}

	return nil
}

func (r *RawDocument) AfterCreate(tx *gorm.DB) (err error) {
	description := fmt.Sprintf("Ingested %s document (sequence %d)", r.Kind, r.SequenceNo)

	if _, ok := utils.GetUserIdFromContext(tx.Statement.Context); ok {
		return SaveHistoryCreate(tx, r.ID, r, description)
	}

	// the sync worker ingests without an acting user
	var history History
	history.CaseId = r.CaseId
	history.ActionType = "CREATE"
	history.ReferenceID = r.ID
	history.ReferenceType = "raw_documents"
	history.Description = description
	history.UserName = "system"

	if err := tx.Create(&history).Error; err != nil {
		return err
	}

	return nil
}

func (a *ApiClient) AfterCreate(tx *gorm.DB) (err error) {
	description := fmt.Sprintf("Created API client %s", a.ClientId)

	if _, ok := utils.GetUserIdFromContext(tx.Statement.Context); ok {
		if err := SaveHistoryCreate(tx, a.ID, a, description); err != nil {
			return err
		}
		return a.RemoveAllRedis()
	}

	// bootstrap seeding runs before any client can authenticate
	var history History
	history.ActionType = "REGISTER"
	history.ReferenceID = a.ID
	history.ReferenceType = "api_clients"
	history.Description = description
	history.UserName = "system"

	if err := tx.Create(&history).Error; err != nil {
		return err
	}

	if err := utils.ClearRedisAdmin[ApiClient](); err != nil {
		return err
	}

	return nil
}
