package workflow

import (
	"time"

	"github.com/clearpathtax/case_backend/models"
	"github.com/clearpathtax/case_backend/utils"
	"github.com/shopspring/decimal"
)

// collectionStatuteYears is the statutory collection window measured from the
// assessment of a filed return.
const collectionStatuteYears = 10

// csedResult is the per-year verdict of the statute calculation, written back
// onto the TaxYear and materialized as tolling_events by the recompute.
type csedResult struct {
	BaseCsed     *time.Time
	AdjustedCsed *time.Time
	Status       models.CsedStatus
	Events       []models.TollingEvent
}

// effectiveFiledDate picks the assessment date the statute runs from: the
// transcript's explicit filed date, else the earliest code-150 event date.
// Nil when the return was never filed, or filed with no locatable date.
func effectiveFiledDate(year *models.TaxYear) *time.Time {
	if !utils.DereferencePtr(year.ReturnFiled) {
		return nil
	}
	if year.ReturnFiledDate != nil {
		return year.ReturnFiledDate
	}
	for i := range year.ActivityEvents {
		event := &year.ActivityEvents[i]
		if event.Code == "150" && event.ActivityDate != nil {
			return event.ActivityDate
		}
	}
	return nil
}

// buildTollingEvents materializes the suspension record of one year from its
// enriched activity events. Interval categories pair each open-role event with
// the next later close-role event of the same category (FIFO); the extension
// is the whole days between them plus the category's fixed days. An unclosed
// open is recorded with status Open and contributes zero until its close
// posts. Flat categories contribute their fixed days per occurrence.
func buildTollingEvents(year *models.TaxYear, ruleset *models.Ruleset) []models.TollingEvent {
	var results []models.TollingEvent
	openByCategory := map[models.TollingCategory][]int{}

	for i := range year.ActivityEvents {
		event := &year.ActivityEvents[i]
		if !utils.DereferencePtr(event.AffectsCsed) || event.ActivityDate == nil {
			continue
		}
		rule, ok := ruleset.TransactionCode(event.Code)
		if !ok || rule.TollingCategory == models.TollingCategoryNone {
			continue
		}

		switch rule.IntervalRole {
		case models.IntervalRoleOpen:
			results = append(results, models.TollingEvent{
				CaseId:    year.CaseId,
				TaxYearId: year.ID,
				Category:  rule.TollingCategory,
				Code:      event.Code,
				StartDate: *event.ActivityDate,
				Status:    models.TollingEventStatusOpen,
				FixedDays: rule.ExtensionDays,
			})
			openByCategory[rule.TollingCategory] = append(openByCategory[rule.TollingCategory], len(results)-1)

		case models.IntervalRoleClose:
			queue := openByCategory[rule.TollingCategory]
			if len(queue) == 0 {
				// A close with no matching open suspends nothing.
				continue
			}
			openIndex := queue[0]
			openByCategory[rule.TollingCategory] = queue[1:]

			open := &results[openIndex]
			end := *event.ActivityDate
			intervalDays := int(end.Sub(open.StartDate).Hours() / 24)
			if intervalDays < 0 {
				intervalDays = 0
			}
			open.EndDate = &end
			open.Status = models.TollingEventStatusClosed
			open.IntervalDays = intervalDays
			open.ExtensionDays = intervalDays + open.FixedDays

		default:
			if rule.ExtensionDays > 0 {
				results = append(results, models.TollingEvent{
					CaseId:        year.CaseId,
					TaxYearId:     year.ID,
					Category:      rule.TollingCategory,
					Code:          event.Code,
					StartDate:     *event.ActivityDate,
					Status:        models.TollingEventStatusApplied,
					FixedDays:     rule.ExtensionDays,
					ExtensionDays: rule.ExtensionDays,
				})
			}
		}
	}

	return results
}

// computeCsed folds the tolling record into the statute dates. The state
// machine: no filed return → NotFiled; filed with no qualifying events →
// BaseSet; at least one still-open suspension → Tolled; all suspensions
// resolved → Final.
func computeCsed(year *models.TaxYear, events []models.TollingEvent) csedResult {
	filedDate := effectiveFiledDate(year)
	if filedDate == nil {
		return csedResult{Status: models.CsedStatusNotFiled, Events: events}
	}

	base := filedDate.AddDate(collectionStatuteYears, 0, 0)

	totalExtension := 0
	anyOpen := false
	for i := range events {
		if events[i].Contributes() {
			totalExtension += events[i].ExtensionDays
		} else {
			anyOpen = true
		}
	}

	adjusted := base.AddDate(0, 0, totalExtension)

	status := models.CsedStatusBaseSet
	if anyOpen {
		status = models.CsedStatusTolled
	} else if len(events) > 0 {
		status = models.CsedStatusFinal
	}

	return csedResult{
		BaseCsed:     &base,
		AdjustedCsed: &adjusted,
		Status:       status,
		Events:       events,
	}
}

// computeBalance prefers the balance the transcript reported; absent that it
// sums the amounts of balance-affecting events.
func computeBalance(year *models.TaxYear) decimal.Decimal {
	if year.CurrentBalance != nil {
		return *year.CurrentBalance
	}
	total := decimal.Zero
	for i := range year.ActivityEvents {
		event := &year.ActivityEvents[i]
		if utils.DereferencePtr(event.AffectsBalance) && event.Amount != nil {
			total = total.Add(*event.Amount)
		}
	}
	return total
}
