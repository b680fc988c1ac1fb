package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clearpathtax/case_backend/config"
	"github.com/clearpathtax/case_backend/models"
	"github.com/clearpathtax/case_backend/utils"
	"github.com/shopspring/decimal"
)

// AccountActivityResponse is one transcript transaction joined with the rule
// that classified it. Rows with no matching rule come back with a null
// transaction type, which is how unclassified codes surface to operators.
type AccountActivityResponse struct {
	EventId         int              `json:"event_id"`
	Year            int              `json:"year"`
	Code            string           `json:"code"`
	ActivityDate    *time.Time       `json:"activity_date"`
	Amount          *decimal.Decimal `json:"amount"`
	Explanation     *string          `json:"explanation"`
	TransactionType *string          `json:"transaction_type"`
	AffectsBalance  bool             `json:"affects_balance"`
	AffectsCsed     bool             `json:"affects_csed"`
	TollingCategory *string          `json:"tolling_category"`
	IntervalRole    *string          `json:"interval_role"`
}

func GetAccountActivityReport(ctx context.Context, caseId int, year *int) ([]*AccountActivityResponse, error) {
	start := time.Now()
	defer logSlowReport(ctx, "account_activity_report", start, map[string]any{
		"case_id": caseId,
		"year":    fmt.Sprintf("%v", utils.DereferencePtr(year)),
	})

	if caseId <= 0 {
		return nil, errors.New("case id is required")
	}

	ruleset, err := models.LoadActiveRuleset(ctx)
	if err != nil {
		return nil, err
	}

	sqlT := `
SELECT
    events.id AS event_id,
    tax_years.year,
    events.code,
    events.activity_date,
    events.amount,
    events.explanation,
    rules.transaction_type,
    COALESCE(rules.affects_balance, FALSE) AS affects_balance,
    COALESCE(rules.affects_csed, FALSE) AS affects_csed,
    rules.tolling_category,
    rules.interval_role
FROM
    account_activity_events AS events
        JOIN
    tax_years ON tax_years.id = events.tax_year_id
        LEFT JOIN
    transaction_code_rules AS rules ON rules.code = events.code
        AND rules.rule_version = @ruleVersion
WHERE
    events.case_id = @caseId
    {{- if .year }} AND tax_years.year = @year {{- end }}
ORDER BY tax_years.year, events.activity_date, events.code, events.id;
`

	// generating sql from template
	sql, err := utils.ExecTemplate(sqlT, map[string]interface{}{
		"year": utils.DereferencePtr(year),
	})
	if err != nil {
		return nil, err
	}

	var records []*AccountActivityResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"caseId":      caseId,
		"year":        year,
		"ruleVersion": ruleset.RuleVersion,
	}).Scan(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

func (r AccountActivityResponse) GetCellValues() []interface{} {
	return []interface{}{
		r.Year,
		r.Code,
		formatReportDate(r.ActivityDate),
		formatReportDecimal(r.Amount),
		utils.DereferencePtr(r.Explanation, ""),
		utils.DereferencePtr(r.TransactionType, ""),
	}
}
