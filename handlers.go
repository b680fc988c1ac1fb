package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/clearpathtax/case_backend/config"
	"github.com/clearpathtax/case_backend/models"
	"github.com/clearpathtax/case_backend/models/reports"
	"github.com/clearpathtax/case_backend/utils"
	"github.com/clearpathtax/case_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// requireClient gates a route on a resolved session token.
func requireClient(c *gin.Context) (string, bool) {
	clientId, ok := utils.GetUsernameFromContext(c.Request.Context())
	if !ok || clientId == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return clientId, true
}

func requireAdmin(c *gin.Context) bool {
	clientId, ok := requireClient(c)
	if !ok {
		return false
	}
	if isAdmin, set := utils.GetIsAdminFromContext(c.Request.Context()); set {
		if !isAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin client required"})
		}
		return isAdmin
	}

	var client models.ApiClient
	db := config.GetDB()
	if err := db.WithContext(c.Request.Context()).
		Where("client_id = ?", clientId).Take(&client).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return false
	}
	if client.IsAdmin == nil || !*client.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin client required"})
		return false
	}
	return true
}

// resolveCase loads the case behind the :caseNumber segment or writes the
// error response itself.
func resolveCase(c *gin.Context) (*models.Case, bool) {
	caseNumber := strings.TrimSpace(c.Param("caseNumber"))
	caseRecord, err := models.GetCaseByNumber(c.Request.Context(), caseNumber)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return nil, false
	}
	return caseRecord, true
}

// bindingError renders a ShouldBindJSON failure, mapping validator errors to
// a per-field tag map.
func bindingError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func yearQuery(c *gin.Context) *int {
	v := strings.TrimSpace(c.Query("year"))
	if v == "" {
		return nil
	}
	year, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &year
}

type tokenRequest struct {
	ClientId string `json:"client_id" binding:"required"`
	Secret   string `json:"secret" binding:"required"`
}

func authTokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req tokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "client_id and secret are required"})
			return
		}

		info, err := models.Authenticate(c.Request.Context(), req.ClientId, req.Secret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

func authLogoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		ok, err := models.Logout(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": ok})
	}
}

func createCaseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		var input models.NewCase
		if err := c.ShouldBindJSON(&input); err != nil {
			bindingError(c, err)
			return
		}
		caseRecord, err := models.CreateCase(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, caseRecord)
	}
}

func listCasesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		var caseNumber *string
		if v := strings.TrimSpace(c.Query("case_number")); v != "" {
			caseNumber = &v
		}
		var isActive *bool
		if v := strings.TrimSpace(c.Query("is_active")); v != "" {
			parsed := strings.EqualFold(v, "true") || v == "1"
			isActive = &parsed
		}
		cases, err := models.GetCases(c.Request.Context(), caseNumber, isActive)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": cases})
	}
}

// casePickerHandler serves the cached lightweight case list for dropdowns.
func casePickerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		cases, err := models.ListAllCase(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": cases})
	}
}

func taxYearPickerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		caseRecord, ok := resolveCase(c)
		if !ok {
			return
		}
		years, err := models.ListAllTaxYear(c.Request.Context(), caseRecord.ID, caseRecord.CaseNumber)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": years})
	}
}

func apiClientPickerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		clients, err := models.ListAllApiClient(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": clients})
	}
}

func getCaseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		caseRecord, ok := resolveCase(c)
		if !ok {
			return
		}
		years, err := models.GetTaxYears(c.Request.Context(), caseRecord.ID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"case": caseRecord, "tax_years": years})
	}
}

// updateCaseHandler edits the operator-entered case fields; derived rows are
// untouched.
func updateCaseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		caseRecord, ok := resolveCase(c)
		if !ok {
			return
		}
		var input models.NewCase
		if err := c.ShouldBindJSON(&input); err != nil {
			bindingError(c, err)
			return
		}
		updated, err := models.UpdateCase(c.Request.Context(), caseRecord.ID, &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

func getTaxYearHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		caseRecord, ok := resolveCase(c)
		if !ok {
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tax year id"})
			return
		}
		year, err := models.GetTaxYear(c.Request.Context(), caseRecord.ID, id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "tax year not found"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, year)
	}
}

type ingestDocumentRequest struct {
	Kind        string          `json:"kind" binding:"required"`
	Payload     json.RawMessage `json:"payload" binding:"required"`
	Source      string          `json:"source"`
	ExternalRef *string         `json:"external_ref"`
}

// ingestDocumentHandler lands a bronze row and extracts it synchronously so
// the caller sees per-record failures in the response. The outbox event still
// goes out for downstream recompute.
func ingestDocumentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		caseRecord, ok := resolveCase(c)
		if !ok {
			return
		}

		var req ingestDocumentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingError(c, err)
			return
		}

		document, event, err := models.CreateRawDocument(c.Request.Context(), models.NewRawDocument{
			CaseId:      caseRecord.ID,
			Kind:        req.Kind,
			Payload:     req.Payload,
			Source:      req.Source,
			ExternalRef: req.ExternalRef,
		})
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, utils.ErrorUnknownDocumentKind) || errors.Is(err, utils.ErrorMalformedDocument) {
				status = http.StatusUnprocessableEntity
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		if _, err := workflow.ExtractPendingDocuments(c.Request.Context(), caseRecord); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		document, err = models.GetRawDocument(c.Request.Context(), caseRecord.ID, document.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		failures, err := models.GetExtractionFailures(c.Request.Context(), caseRecord.ID, &document.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"document": document,
			"event_id": event.ID,
			"failures": failures,
		})
	}
}

func recomputeCaseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		caseRecord, ok := resolveCase(c)
		if !ok {
			return
		}

		if err := workflow.RecomputeCase(c.Request.Context(), caseRecord.CaseNumber); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"case_number":   caseRecord.CaseNumber,
			"recomputed_at": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func activityHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		caseRecord, ok := resolveCase(c)
		if !ok {
			return
		}
		events, err := models.GetActivityEvents(c.Request.Context(), caseRecord.ID, yearQuery(c))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": events})
	}
}

// activityReportHandler returns the classified activity view: each transcript
// transaction joined with the rule that classified it.
func activityReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		caseRecord, ok := resolveCase(c)
		if !ok {
			return
		}
		rows, err := reports.GetAccountActivityReport(c.Request.Context(), caseRecord.ID, yearQuery(c))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": rows})
	}
}

func activityExcelHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		caseRecord, ok := resolveCase(c)
		if !ok {
			return
		}
		workbook, err := reports.ExportAccountActivityExcel(c.Request.Context(), caseRecord.ID, yearQuery(c))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		filename := fmt.Sprintf("account-activity-%s.xlsx", caseRecord.CaseNumber)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := workbook.Write(c.Writer); err != nil {
			c.Status(http.StatusInternalServerError)
		}
	}
}

func incomeDocumentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		caseRecord, ok := resolveCase(c)
		if !ok {
			return
		}
		documents, err := models.GetIncomeDocuments(c.Request.Context(), caseRecord.ID, yearQuery(c))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": documents})
	}
}

func getIncomeDocumentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		caseRecord, ok := resolveCase(c)
		if !ok {
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid income document id"})
			return
		}
		document, err := models.GetIncomeDocument(c.Request.Context(), caseRecord.ID, id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "income document not found"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, document)
	}
}

func interviewHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		caseRecord, ok := resolveCase(c)
		if !ok {
			return
		}
		profile, err := models.GetInterviewProfile(c.Request.Context(), caseRecord.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "no interview on file"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, profile)
	}
}

func projectionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		caseRecord, ok := resolveCase(c)
		if !ok {
			return
		}
		projections, err := models.GetTaxProjections(c.Request.Context(), caseRecord.ID, yearQuery(c))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": projections})
	}
}

func resolutionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		caseRecord, ok := resolveCase(c)
		if !ok {
			return
		}
		option, err := models.GetResolutionOption(c.Request.Context(), caseRecord.ID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if option == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no resolution computed yet"})
			return
		}
		c.JSON(http.StatusOK, option)
	}
}

func tollingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		caseRecord, ok := resolveCase(c)
		if !ok {
			return
		}
		events, err := models.GetTollingEvents(c.Request.Context(), caseRecord.ID, yearQuery(c))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": events})
	}
}

func summaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		caseRecord, ok := resolveCase(c)
		if !ok {
			return
		}
		summary, err := reports.GetCaseSummaryReport(c.Request.Context(), caseRecord.ID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func summaryExcelHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		caseRecord, ok := resolveCase(c)
		if !ok {
			return
		}
		workbook, err := reports.ExportCaseSummaryExcel(c.Request.Context(), caseRecord.ID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		filename := fmt.Sprintf("case-summary-%s.xlsx", caseRecord.CaseNumber)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := workbook.Write(c.Writer); err != nil {
			c.Status(http.StatusInternalServerError)
		}
	}
}

func rawDocumentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		caseRecord, ok := resolveCase(c)
		if !ok {
			return
		}
		var kind, status *string
		if v := strings.TrimSpace(c.Query("kind")); v != "" {
			kind = &v
		}
		if v := strings.TrimSpace(c.Query("status")); v != "" {
			status = &v
		}
		documents, err := models.GetRawDocuments(c.Request.Context(), caseRecord.ID, kind, status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": documents})
	}
}

type uploadURLRequest struct {
	ContentType string `json:"content_type"`
}

// documentUploadURLHandler hands out a V4 signed PUT URL so oversized raw
// payloads can go straight to the archive bucket instead of through the API.
func documentUploadURLHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		caseRecord, ok := resolveCase(c)
		if !ok {
			return
		}

		var req uploadURLRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		contentType := strings.TrimSpace(req.ContentType)
		if contentType == "" {
			contentType = "application/json"
		}

		objectKey := fmt.Sprintf("raw/%s/uploads/%s.json", caseRecord.CaseNumber, uuid.NewString())
		signed, err := utils.SignUpload(c.Request.Context(), objectKey, contentType, 15*time.Minute)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, signed)
	}
}

// rawDocumentArchiveHandler replays the archived copy of a bronze payload.
func rawDocumentArchiveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		caseRecord, ok := resolveCase(c)
		if !ok {
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid raw document id"})
			return
		}

		document, err := models.GetRawDocument(c.Request.Context(), caseRecord.ID, id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "raw document not found"})
			return
		}
		if document.ArchiveObject == nil || *document.ArchiveObject == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "raw document has no archived copy"})
			return
		}

		payload, err := utils.ReadObjectFromGCS(c.Request.Context(), *document.ArchiveObject)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json", payload)
	}
}

func extractionFailuresHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		caseRecord, ok := resolveCase(c)
		if !ok {
			return
		}
		var documentId *int
		if v := strings.TrimSpace(c.Query("document_id")); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				documentId = &id
			}
		}
		failures, err := models.GetExtractionFailures(c.Request.Context(), caseRecord.ID, documentId)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": failures})
	}
}

type exclusionRequest struct {
	IsExcluded *bool `json:"is_excluded" binding:"required"`
}

func incomeDocumentExclusionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid income document id"})
			return
		}
		var req exclusionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "is_excluded is required"})
			return
		}

		document, err := models.SetIncomeDocumentExclusion(c.Request.Context(), id, *req.IsExcluded)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "income document not found"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, document)
	}
}

func historyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		caseRecord, ok := resolveCase(c)
		if !ok {
			return
		}

		limit := 50
		if v := strings.TrimSpace(c.Query("limit")); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 200 {
				limit = parsed
			}
		}
		var after *string
		if v := strings.TrimSpace(c.Query("after")); v != "" {
			after = &v
		}
		var referenceType, actionType *string
		if v := strings.TrimSpace(c.Query("reference_type")); v != "" {
			referenceType = &v
		}
		if v := strings.TrimSpace(c.Query("action_type")); v != "" {
			actionType = &v
		}

		connection, err := models.PaginateHistory(c.Request.Context(),
			caseRecord.ID, &limit, after, referenceType, nil, nil, actionType)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, connection)
	}
}

func outboxStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireClient(c); !ok {
			return
		}
		caseRecord, ok := resolveCase(c)
		if !ok {
			return
		}
		eventId := 0
		if v := strings.TrimSpace(c.Query("event_id")); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				eventId = id
			}
		}
		status, err := models.GetCaseEventStatus(c.Request.Context(), caseRecord.CaseNumber, eventId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "no events for case"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

func outboxReprocessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		caseRecord, ok := resolveCase(c)
		if !ok {
			return
		}
		status, err := models.ReprocessCaseEvents(c.Request.Context(), caseRecord.CaseNumber)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "no unprocessed events for case"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

func toggleCaseActiveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		caseRecord, ok := resolveCase(c)
		if !ok {
			return
		}
		isActive := strings.EqualFold(strings.TrimSpace(c.Query("is_active")), "true")
		updated, err := models.ToggleActiveCase(c.Request.Context(), caseRecord.ID, isActive)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

func createApiClientHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		var input models.NewApiClient
		if err := c.ShouldBindJSON(&input); err != nil {
			bindingError(c, err)
			return
		}
		client, err := models.CreateApiClient(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, client)
	}
}

func listApiClientsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		clients, err := models.GetAllApiClients(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": clients})
	}
}

func getApiClientHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client id"})
			return
		}
		client, err := models.GetApiClient(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "api client not found"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, client)
	}
}

func toggleApiClientActiveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client id"})
			return
		}
		isActive := strings.EqualFold(strings.TrimSpace(c.Query("is_active")), "true")
		client, err := models.ToggleActiveApiClient(c.Request.Context(), id, isActive)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, client)
	}
}

type rotateSecretRequest struct {
	Secret string `json:"secret" binding:"required"`
}

func rotateApiClientSecretHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client id"})
			return
		}
		var req rotateSecretRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "secret is required"})
			return
		}
		client, err := models.RotateApiClientSecret(c.Request.Context(), id, req.Secret)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, client)
	}
}

type pubSubPushEnvelope struct {
	Message struct {
		Data []byte `json:"data,omitempty"`
		ID   string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// caseEventPushHandler receives Pub/Sub push deliveries of outbox events.
// Malformed envelopes are acked so they never loop; handler failures return
// 500 so Pub/Sub retries (and eventually dead-letters).
func caseEventPushHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			config.LogError(logger, "server.go", "caseEventPushHandler", "io.ReadAll", nil, err)
			c.Status(http.StatusNoContent)
			return
		}

		var envelope pubSubPushEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			config.LogError(logger, "server.go", "caseEventPushHandler", "Unmarshal envelope", body, err)
			c.Status(http.StatusNoContent)
			return
		}

		var msg config.CaseEventMessage
		if err := json.Unmarshal(envelope.Message.Data, &msg); err != nil {
			config.LogError(logger, "server.go", "caseEventPushHandler", "Unmarshal case event", envelope.Message.Data, err)
			c.Status(http.StatusNoContent)
			return
		}
		if msg.CaseNumber == "" {
			config.LogError(logger, "server.go", "caseEventPushHandler",
				"case event missing case_number", msg, errors.New("case_number required"))
			c.Status(http.StatusNoContent)
			return
		}

		correlationID := msg.CorrelationId
		if correlationID == "" {
			correlationID = envelope.Message.ID
		}
		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), correlationID)

		if err := workflow.ProcessCaseEvent(ctx, msg, envelope.Message.ID); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}
