package reports

import (
	"context"
	"time"

	"github.com/clearpathtax/case_backend/models"
	"github.com/clearpathtax/case_backend/utils"
	"github.com/shopspring/decimal"
)

// CaseSummaryYear is one tax year's line in the case summary.
type CaseSummaryYear struct {
	TaxYearId        int                 `json:"tax_year_id"`
	Year             int                 `json:"year"`
	FilerRole        models.FilerRole    `json:"filer_role"`
	FilingStatus     models.FilingStatus `json:"filing_status"`
	ReturnFiled      bool                `json:"return_filed"`
	ReturnFiledDate  *time.Time          `json:"return_filed_date"`
	IsSFR            bool                `json:"is_sfr"`
	UnderExamination bool                `json:"under_examination"`

	ReportedBalance *decimal.Decimal `json:"reported_balance"`
	ComputedBalance decimal.Decimal  `json:"computed_balance"`

	CsedStatus       models.CsedStatus `json:"csed_status"`
	BaseCsedDate     *time.Time        `json:"base_csed_date"`
	AdjustedCsedDate *time.Time        `json:"adjusted_csed_date"`
	TolledDays       int               `json:"tolled_days"`
	OpenTollingCount int               `json:"open_tolling_count"`

	ProjectionStatus  *models.ProjectionStatus `json:"projection_status"`
	ProjectedBalance  *decimal.Decimal         `json:"projected_balance"`
	ProjectionReason  *string                  `json:"projection_reason"`
	IncomeDocuments   int                      `json:"income_documents"`
	ExcludedDocuments int                      `json:"excluded_documents"`
}

// CaseSummaryDocument reports the freshest processed document of one kind.
type CaseSummaryDocument struct {
	Kind        models.DocumentKind `json:"kind"`
	SequenceNo  int64               `json:"sequence_no"`
	FetchedAt   *time.Time          `json:"fetched_at"`
	ProcessedAt *time.Time          `json:"processed_at"`
}

// CaseSummary is the operator-facing rollup of a case. It is a pure read over
// silver and gold rows; the recompute drops the cached copy after every
// rebuild, and the cache entry also ages out on its own.
type CaseSummary struct {
	CaseId           int        `json:"case_id"`
	CaseNumber       string     `json:"case_number"`
	TaxpayerName     string     `json:"taxpayer_name"`
	LastRecomputedAt *time.Time `json:"last_recomputed_at"`

	TotalBalance     decimal.Decimal `json:"total_balance"`
	EarliestCsedDate *time.Time      `json:"earliest_csed_date"`

	Years      []CaseSummaryYear        `json:"years"`
	Resolution *models.ResolutionOption `json:"resolution"`
	Documents  []CaseSummaryDocument    `json:"documents"`

	ExtractionFailures int       `json:"extraction_failures"`
	GeneratedAt        time.Time `json:"generated_at"`
}

func GetCaseSummaryReport(ctx context.Context, caseId int) (*CaseSummary, error) {
	start := time.Now()
	defer logSlowReport(ctx, "case_summary_report", start, map[string]any{"case_id": caseId})

	cached, err := utils.RetrieveRedis[CaseSummary](caseId)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	caseRecord, err := models.GetCase(ctx, caseId)
	if err != nil {
		return nil, err
	}
	years, err := models.GetTaxYears(ctx, caseId)
	if err != nil {
		return nil, err
	}
	tollingEvents, err := models.GetTollingEvents(ctx, caseId, nil)
	if err != nil {
		return nil, err
	}
	projections, err := models.GetTaxProjections(ctx, caseId, nil)
	if err != nil {
		return nil, err
	}
	incomeDocs, err := models.GetIncomeDocuments(ctx, caseId, nil)
	if err != nil {
		return nil, err
	}
	resolution, err := models.GetResolutionOption(ctx, caseId)
	if err != nil {
		return nil, err
	}
	failures, err := models.GetExtractionFailures(ctx, caseId, nil)
	if err != nil {
		return nil, err
	}
	latestDocs, err := models.GetLatestDocumentPerKind(ctx, caseId)
	if err != nil {
		return nil, err
	}

	tolledDays := make(map[int]int)
	openTolling := make(map[int]int)
	for _, event := range tollingEvents {
		if event.Contributes() {
			tolledDays[event.TaxYearId] += event.ExtensionDays
		} else {
			openTolling[event.TaxYearId]++
		}
	}

	projectionByYear := make(map[int]*models.TaxProjection)
	for i := range projections {
		projectionByYear[projections[i].TaxYearId] = &projections[i]
	}

	docCounts := make(map[int]int)
	excludedCounts := make(map[int]int)
	for _, doc := range incomeDocs {
		docCounts[doc.TaxYearId]++
		if utils.DereferencePtr(doc.IsExcluded) {
			excludedCounts[doc.TaxYearId]++
		}
	}

	summary := CaseSummary{
		CaseId:             caseRecord.ID,
		CaseNumber:         caseRecord.CaseNumber,
		TaxpayerName:       caseRecord.TaxpayerName,
		LastRecomputedAt:   caseRecord.LastRecomputedAt,
		Resolution:         resolution,
		ExtractionFailures: len(failures),
		GeneratedAt:        time.Now().UTC(),
	}

	for _, year := range years {
		line := CaseSummaryYear{
			TaxYearId:         year.ID,
			Year:              year.Year,
			FilerRole:         year.FilerRole,
			FilingStatus:      year.FilingStatus,
			ReturnFiled:       utils.DereferencePtr(year.ReturnFiled),
			ReturnFiledDate:   year.ReturnFiledDate,
			IsSFR:             utils.DereferencePtr(year.IsSFR),
			UnderExamination:  utils.DereferencePtr(year.UnderExamination),
			ReportedBalance:   year.CurrentBalance,
			ComputedBalance:   year.ComputedBalance,
			CsedStatus:        year.CsedStatus,
			BaseCsedDate:      year.BaseCsedDate,
			AdjustedCsedDate:  year.AdjustedCsedDate,
			TolledDays:        tolledDays[year.ID],
			OpenTollingCount:  openTolling[year.ID],
			IncomeDocuments:   docCounts[year.ID],
			ExcludedDocuments: excludedCounts[year.ID],
		}
		if projection := projectionByYear[year.ID]; projection != nil {
			line.ProjectionStatus = &projection.Status
			line.ProjectedBalance = projection.ProjectedBalance
			line.ProjectionReason = projection.UnavailableReason
		}
		summary.Years = append(summary.Years, line)

		summary.TotalBalance = summary.TotalBalance.Add(year.ComputedBalance)
		if year.ComputedBalance.IsPositive() && year.AdjustedCsedDate != nil {
			if summary.EarliestCsedDate == nil || year.AdjustedCsedDate.Before(*summary.EarliestCsedDate) {
				earliest := *year.AdjustedCsedDate
				summary.EarliestCsedDate = &earliest
			}
		}
	}

	for _, kind := range []models.DocumentKind{
		models.DocumentKindAccountTranscript,
		models.DocumentKindWageIncome,
		models.DocumentKindInterview,
		models.DocumentKindTaxReturnTranscript,
	} {
		doc, ok := latestDocs[kind]
		if !ok {
			continue
		}
		summary.Documents = append(summary.Documents, CaseSummaryDocument{
			Kind:        kind,
			SequenceNo:  doc.SequenceNo,
			FetchedAt:   doc.FetchedAt,
			ProcessedAt: doc.ProcessedAt,
		})
	}

	if err := utils.StoreRedis[CaseSummary](&summary, caseId); err != nil {
		return nil, err
	}

	return &summary, nil
}
