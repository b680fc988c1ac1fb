package models

import (
	"context"
	"os"

	"github.com/clearpathtax/case_backend/utils"
	"gorm.io/gorm"
)

// CreateDefaultAdminClient seeds the first admin API client when the table is
// empty, so a fresh install can authenticate and load reference data. The
// ADMIN_CLIENT_SECRET default exists for local development only.
func CreateDefaultAdminClient(tx *gorm.DB, ctx context.Context) (*ApiClient, error) {

	var count int64
	if err := tx.WithContext(ctx).Model(&ApiClient{}).Count(&count).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if count > 0 {
		return nil, nil
	}

	clientId := os.Getenv("ADMIN_CLIENT_ID")
	if clientId == "" {
		clientId = "admin"
	}
	secret := os.Getenv("ADMIN_CLIENT_SECRET")
	if secret == "" {
		secret = "default123"
	}

	hashedSecret, err := utils.HashPassword(secret)
	if err != nil {
		return nil, err
	}

	client := ApiClient{
		ClientId:   clientId,
		Name:       "Default Admin",
		SecretHash: string(hashedSecret),
		IsAdmin:    utils.NewTrue(),
		IsActive:   utils.NewTrue(),
	}
	if err := tx.WithContext(ctx).Create(&client).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	return &client, nil
}
