package models

import (
	"log"

	"github.com/clearpathtax/case_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Case{},
		&RawDocument{}, &ExtractionFailure{},
		&TaxYear{}, &AccountActivityEvent{}, &IncomeDocument{}, &InterviewProfile{},
		&TollingEvent{}, &TaxProjection{}, &ResolutionOption{},
		&TransactionCodeRule{}, &IncomeDocumentTypeRule{}, &TaxBracket{}, &StandardDeduction{}, &ExpenseStandard{},
		&CaseEventRecord{}, &IdempotencyKey{},
		&History{},
		&ApiClient{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
