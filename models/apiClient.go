package models

import (
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/clearpathtax/case_backend/config"
	"github.com/clearpathtax/case_backend/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ApiClient is a machine credential for the case API. Admin clients may seed
// reference data, manage other clients and force recomputes.
type ApiClient struct {
	ID                  int        `gorm:"primary_key" json:"id"`
	ClientId            string     `gorm:"size:100;not null;unique" json:"client_id" binding:"required"`
	Name                string     `gorm:"size:100;not null" json:"name" binding:"required"`
	SecretHash          string     `gorm:"size:255;not null" json:"-"`
	IsAdmin             *bool      `gorm:"not null;default:false" json:"is_admin"`
	IsActive            *bool      `gorm:"not null" json:"is_active"`
	LastAuthenticatedAt *time.Time `json:"last_authenticated_at"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewApiClient struct {
	ClientId string `json:"client_id" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Secret   string `json:"secret" binding:"required"`
	IsAdmin  *bool  `json:"is_admin"`
	IsActive *bool  `json:"is_active" binding:"required"`
}

/*
caches:
	ApiClient:$clientId
	Token:$token -> clientId
	Tokens:$clientId -> token set
*/

func (client ApiClient) RemoveInstanceRedis() error {
	if err := config.RemoveRedisKey("ApiClient:" + client.ClientId); err != nil {
		return err
	}
	return nil
}

func (client ApiClient) RemoveAllRedis() error {
	return utils.ClearRedisAdmin[ApiClient]()
}

func (result *ApiClient) PrepareGive() {
	result.SecretHash = ""
}

type TokenInfo struct {
	Token     string `json:"token"`
	Name      string `json:"name"`
	IsAdmin   bool   `json:"is_admin"`
	ExpiresIn int    `json:"expires_in"`
}

// Authenticate checks a client credential and mints an opaque session token
// backed by redis, one entry per token plus a per-client token set so every
// session can be revoked at once.
func Authenticate(ctx context.Context, clientId string, secret string) (*TokenInfo, error) {

	db := config.GetDB()
	var err error
	var result TokenInfo

	client := ApiClient{}

	exists, err := config.GetRedisObject("ApiClient:"+clientId, &client)
	if err != nil {
		return &result, err
	}
	if !exists {
		err = db.WithContext(ctx).Model(&ApiClient{}).Where("client_id = ?", clientId).Take(&client).Error
		if err != nil {
			return &result, errors.New("invalid client id or secret")
		}
	}

	err = utils.ComparePassword(client.SecretHash, secret)
	if err != nil && err == bcrypt.ErrMismatchedHashAndPassword {
		return &result, errors.New("invalid client id or secret")
	}

	isActive := *client.IsActive
	if !isActive {
		return &result, errors.New("client is disabled")
	}

	token := uuid.New()
	result.Token = token.String()
	result.Name = client.Name
	result.IsAdmin = client.IsAdmin != nil && *client.IsAdmin

	tokenLifespan, err := strconv.Atoi(os.Getenv("TOKEN_HOUR_LIFESPAN"))
	if err != nil {
		return &result, err
	}
	result.ExpiresIn = tokenLifespan * 3600

	// add new token to the client's token set
	if err := config.AddRedisSet("Tokens:"+client.ClientId, token.String()); err != nil {
		return nil, err
	}
	if err := config.SetRedisValue("Token:"+token.String(), client.ClientId, time.Duration(tokenLifespan)*time.Hour); err != nil {
		return &result, err
	}

	now := time.Now().UTC()
	if err := db.WithContext(ctx).Model(&ApiClient{}).Where("id = ?", client.ID).
		UpdateColumn("last_authenticated_at", &now).Error; err != nil {
		return &result, err
	}

	return &result, nil
}

// destroy current session
func Logout(ctx context.Context) (bool, error) {
	token, ok := utils.GetTokenFromContext(ctx)
	if !ok || token == "" {
		return false, errors.New("token is required")
	}
	err := config.RemoveRedisKey("Token:" + fmt.Sprint(token))
	if err != nil {
		return false, nil
	}
	// remove current token from the token set
	clientId, ok := utils.GetUsernameFromContext(ctx)
	if !ok || clientId == "" {
		return false, errors.New("client not found")
	}
	if err := config.RemoveRedisSetMember("Tokens:"+clientId, token); err != nil {
		return false, err
	}
	return true, nil
}

func ClearRedis(ctx context.Context) (string, error) {
	err := config.ClearRedis(ctx)
	if err != nil {
		return "Failed to clear redis", nil
	}
	return "OK", nil
}

func CreateApiClient(ctx context.Context, input *NewApiClient) (*ApiClient, error) {

	db := config.GetDB()
	var count int64

	err := db.WithContext(ctx).Model(&ApiClient{}).Where("client_id = ?", input.ClientId).Count(&count).Error
	if err != nil {
		return &ApiClient{}, err
	}
	if count > 0 {
		return &ApiClient{}, errors.New("duplicate client id")
	}

	hashedSecret, err := utils.HashPassword(input.Secret)
	if err != nil {
		return &ApiClient{}, err
	}

	isAdmin := input.IsAdmin
	if isAdmin == nil {
		isAdmin = utils.NewFalse()
	}

	client := ApiClient{
		ClientId:   html.EscapeString(strings.TrimSpace(input.ClientId)),
		Name:       input.Name,
		SecretHash: string(hashedSecret),
		IsAdmin:    isAdmin,
		IsActive:   input.IsActive,
	}

	err = db.WithContext(ctx).Create(&client).Error
	if err != nil {
		return &ApiClient{}, err
	}
	client.PrepareGive()
	return &client, nil
}

func GetApiClient(ctx context.Context, id int) (*ApiClient, error) {

	db := config.GetDB()
	var result ApiClient

	err := db.WithContext(ctx).First(&result, id).Error
	if err != nil {
		return &result, utils.ErrorRecordNotFound
	}

	result.PrepareGive()

	return &result, nil
}

func GetAllApiClients(ctx context.Context) ([]*ApiClient, error) {

	db := config.GetDB()
	var results []*ApiClient

	if err := db.WithContext(ctx).Order("client_id").Find(&results).Error; err != nil {
		return results, err
	}

	for i, c := range results {
		c.SecretHash = ""
		results[i] = c
	}

	return results, nil
}

func ToggleActiveApiClient(ctx context.Context, id int, isActive bool) (*ApiClient, error) {
	return ToggleActiveModel[ApiClient](ctx, id, isActive)
}

func (client *ApiClient) DestroyAllSessions(ctx context.Context) error {
	allTokens, err := config.GetRedisSetMembers("Tokens:" + client.ClientId)
	if err != nil {
		return err
	}
	for _, token := range allTokens {
		if err := config.RemoveRedisKey("Token:" + token); err != nil {
			return err
		}
	}
	if err := config.RemoveRedisKey("Tokens:" + client.ClientId); err != nil {
		return err
	}

	return nil
}

// RotateApiClientSecret replaces the credential and revokes every live
// session of the client.
func RotateApiClientSecret(ctx context.Context, id int, newSecret string) (*ApiClient, error) {

	var client ApiClient
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&client, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	hashedSecret, err := utils.HashPassword(newSecret)
	if err != nil {
		return nil, err
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(&client).UpdateColumn("secret_hash", string(hashedSecret)).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := config.RemoveRedisKey("ApiClient:" + client.ClientId); err != nil {
		tx.Rollback()
		return nil, err
	}

	// destroying all session tokens
	if err := client.DestroyAllSessions(ctx); err != nil {
		tx.Rollback()
		return nil, err
	}

	client.PrepareGive()
	return &client, tx.Commit().Error
}
