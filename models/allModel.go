package models

import (
	"context"
	"time"
)

// embedding struct will receive ID field, satisfy Identifier interface
type HasId struct {
	ID int `json:"id"`
}

func (h HasId) GetId() int {
	return h.ID
}

// AllCase is the lightweight picker view of a case.
type AllCase struct {
	HasId
	CaseNumber   string `json:"case_number"`
	TaxpayerName string `json:"taxpayer_name"`
	IsActive     bool   `json:"is_active"`
}

// AllTaxYear is the per-case year picker. Recompute drops the cached list so
// statuses here never lag the gold tables.
type AllTaxYear struct {
	HasId
	Year        int        `json:"year"`
	ReturnFiled bool       `json:"return_filed"`
	CsedStatus  CsedStatus `json:"csed_status"`
	CsedDate    *time.Time `json:"csed_date"`
}

type AllApiClient struct {
	HasId
	ClientId string `json:"client_id"`
	Name     string `json:"name"`
	IsAdmin  bool   `json:"is_admin"`
	IsActive bool   `json:"is_active"`
}

func ListAllCase(ctx context.Context) ([]*AllCase, error) {
	return ListAllAdmin[Case, AllCase](ctx, "id", "case_number", "taxpayer_name", "is_active")
}

func ListAllTaxYear(ctx context.Context, caseId int, caseNumber string) ([]*AllTaxYear, error) {
	return ListAllResource[TaxYear, AllTaxYear](ctx, caseId, caseNumber, "year")
}

func ListAllApiClient(ctx context.Context) ([]*AllApiClient, error) {
	return ListAllAdmin[ApiClient, AllApiClient](ctx, "id", "client_id", "name", "is_admin", "is_active")
}
