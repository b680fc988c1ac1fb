package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/clearpathtax/case_backend/config"
	"github.com/clearpathtax/case_backend/models"
	"github.com/clearpathtax/case_backend/models/reports"
	"github.com/clearpathtax/case_backend/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// RecomputeCase rebuilds every derived row of one case from its current
// silver record set: tolling events, CSED dates, computed balances, tax
// projections and the resolution verdict. The whole gold layer is
// deleted-and-rebuilt inside one transaction, so readers never see a half
// recomputed case. Serialized per case with the redis lock; extraction of any
// still-pending bronze documents runs first so the recompute always sees the
// newest silver rows.
func RecomputeCase(ctx context.Context, caseNumber string) error {
	ctx, span := otel.Tracer("workflow").Start(ctx, "RecomputeCase")
	span.SetAttributes(attribute.String("case_number", caseNumber))
	defer span.End()

	caseRecord, err := models.GetCaseByNumber(ctx, caseNumber)
	if err != nil {
		return err
	}

	lock, err := utils.ObtainCaseLock(ctx, caseNumber, models.RecomputeLock, "workflow", "RecomputeCase")
	if err != nil {
		return err
	}
	defer lock.Release(context.Background())

	if _, err := ExtractPendingDocuments(ctx, caseRecord); err != nil {
		return err
	}

	ruleset, err := models.LoadActiveRuleset(ctx)
	if err != nil {
		return err
	}

	asOf := time.Now().UTC()
	db := config.GetDB()

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The redis lock is best effort; the advisory lock on the recompute
		// connection is what actually guarantees one rebuild at a time.
		if err := AcquireCaseRecomputeLock(tx, caseNumber); err != nil {
			return err
		}
		defer ReleaseCaseRecomputeLock(tx, caseNumber)

		years, err := models.GetTaxYearsForRecompute(tx, caseRecord.ID)
		if err != nil {
			return err
		}

		totalDebt := decimal.Zero
		var earliestCsed *time.Time

		for _, year := range years {
			events := buildTollingEvents(year, ruleset)
			result := computeCsed(year, events)
			balance := computeBalance(year)

			if err := models.ReplaceTollingEvents(tx, year.ID, result.Events); err != nil {
				return err
			}
			if err := models.UpdateTaxYearComputed(tx, year.ID,
				result.BaseCsed, result.AdjustedCsed, result.Status, balance); err != nil {
				return err
			}

			if projection := buildProjection(year, ruleset, asOf); projection != nil {
				if err := models.ReplaceTaxProjection(tx, projection); err != nil {
					return err
				}
			} else if err := models.DeleteTaxProjection(tx, year.ID); err != nil {
				return err
			}

			// Only still-owing years drive the resolution math: credits never
			// offset collectible debt, and the statute clock that matters is
			// the one that runs out first.
			if balance.IsPositive() {
				totalDebt = totalDebt.Add(balance)
				if result.AdjustedCsed != nil &&
					(earliestCsed == nil || result.AdjustedCsed.Before(*earliestCsed)) {
					earliestCsed = result.AdjustedCsed
				}
			}
		}

		var profile *models.InterviewProfile
		var stored models.InterviewProfile
		err = tx.Where("case_id = ?", caseRecord.ID).First(&stored).Error
		if err == nil {
			profile = &stored
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		option := buildResolutionOption(caseRecord.ID, profile, totalDebt, earliestCsed, ruleset, asOf)
		if err := models.ReplaceResolutionOption(tx, option); err != nil {
			return err
		}

		return models.MarkCaseRecomputed(tx, caseRecord.ID, asOf)
	})
	if err != nil {
		return err
	}

	// Readers cache the summary and the year picker; a recompute invalidates
	// both.
	if err := utils.RemoveRedisList[models.AllTaxYear](caseRecord.CaseNumber); err != nil {
		return err
	}
	return utils.RemoveRedisItem[reports.CaseSummary](caseRecord.ID)
}
