package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type ExcelExporter interface {
	GetCellValues() []interface{}
}

func formatReportDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatReportDecimal(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}

func writeSheet(f *excelize.File, sheetName string, rows []ExcelExporter, headings ...string) error {
	col := 'A'
	for _, h := range headings {
		if err := f.SetCellValue(sheetName, string(col)+"1", h); err != nil {
			return err
		}
		col++
	}

	rowNo := 2
	for _, row := range rows {
		col := 'A'
		for _, value := range row.GetCellValues() {
			if err := f.SetCellValue(sheetName, string(col)+fmt.Sprint(rowNo), value); err != nil {
				return err
			}
			col++
		}
		rowNo++
	}
	return nil
}

func (y CaseSummaryYear) GetCellValues() []interface{} {
	return []interface{}{
		y.Year,
		string(y.FilerRole),
		string(y.FilingStatus),
		y.ReturnFiled,
		formatReportDate(y.ReturnFiledDate),
		formatReportDecimal(y.ReportedBalance),
		y.ComputedBalance.StringFixed(2),
		string(y.CsedStatus),
		formatReportDate(y.BaseCsedDate),
		formatReportDate(y.AdjustedCsedDate),
		y.TolledDays,
	}
}

func (d CaseSummaryDocument) GetCellValues() []interface{} {
	return []interface{}{
		string(d.Kind),
		d.SequenceNo,
		formatReportDate(d.FetchedAt),
		formatReportDate(d.ProcessedAt),
	}
}

// ExportCaseSummaryExcel renders the case summary as a workbook with one
// sheet per section. The caller streams the file and owns its lifetime.
func ExportCaseSummaryExcel(ctx context.Context, caseId int) (*excelize.File, error) {
	summary, err := GetCaseSummaryReport(ctx, caseId)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", "Years"); err != nil {
		return nil, err
	}

	yearRows := make([]ExcelExporter, 0, len(summary.Years))
	for _, year := range summary.Years {
		yearRows = append(yearRows, year)
	}
	if err := writeSheet(f, "Years", yearRows,
		"Year", "Filer", "Filing Status", "Filed", "Filed Date",
		"Reported Balance", "Computed Balance", "CSED Status", "Base CSED", "Adjusted CSED", "Tolled Days",
	); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet("Documents"); err != nil {
		return nil, err
	}
	docRows := make([]ExcelExporter, 0, len(summary.Documents))
	for _, doc := range summary.Documents {
		docRows = append(docRows, doc)
	}
	if err := writeSheet(f, "Documents", docRows,
		"Kind", "Sequence", "Fetched", "Processed",
	); err != nil {
		return nil, err
	}

	if summary.Resolution != nil {
		if _, err := f.NewSheet("Resolution"); err != nil {
			return nil, err
		}
		resolution := summary.Resolution
		rows := [][]interface{}{
			{"Status", string(resolution.Status)},
			{"Monthly Income", formatReportDecimal(resolution.MonthlyIncome)},
			{"Allowable Expenses", formatReportDecimal(resolution.AllowableExpenses)},
			{"Disposable Income", formatReportDecimal(resolution.DisposableIncome)},
			{"Total Debt", formatReportDecimal(resolution.TotalDebt)},
			{"IA Eligible", resolution.IAEligible != nil && *resolution.IAEligible},
			{"IA Payoff Months", intOrBlank(resolution.IAPayoffMonths)},
			{"OIC Eligible", resolution.OICEligible != nil && *resolution.OICEligible},
			{"OIC Recommended Offer", formatReportDecimal(resolution.OICRecommendedOffer)},
			{"CNC Eligible", resolution.CNCEligible != nil && *resolution.CNCEligible},
		}
		for i, row := range rows {
			if err := f.SetCellValue("Resolution", "A"+fmt.Sprint(i+1), row[0]); err != nil {
				return nil, err
			}
			if err := f.SetCellValue("Resolution", "B"+fmt.Sprint(i+1), row[1]); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}

// ExportAccountActivityExcel renders the joined activity feed as a workbook.
func ExportAccountActivityExcel(ctx context.Context, caseId int, year *int) (*excelize.File, error) {
	records, err := GetAccountActivityReport(ctx, caseId, year)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", "Activity"); err != nil {
		return nil, err
	}

	rows := make([]ExcelExporter, 0, len(records))
	for _, record := range records {
		rows = append(rows, *record)
	}
	if err := writeSheet(f, "Activity", rows,
		"Year", "Code", "Date", "Amount", "Explanation", "Type",
	); err != nil {
		return nil, err
	}

	return f, nil
}

func intOrBlank(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
