package tiparser

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/clearpathtax/case_backend/config"
	"github.com/clearpathtax/case_backend/models"
	"github.com/clearpathtax/case_backend/utils"
)

// syncedKinds is the set of parsed documents the upstream exposes per case.
// The path segment of each fetch is the document kind's wire value.
var syncedKinds = []models.DocumentKind{
	models.DocumentKindAccountTranscript,
	models.DocumentKindWageIncome,
	models.DocumentKindTaxReturnTranscript,
	models.DocumentKindInterview,
}

// RunSyncWorker polls the upstream for every active case until ctx is done.
// Ingesting a bronze row publishes the document event through the outbox, so
// extraction and recompute follow through the normal consumer path; the
// worker itself only fetches and dedupes.
func RunSyncWorker(ctx context.Context) {
	logger := config.GetLogger()
	if !config.TiparserSyncEnabled() {
		logger.Info("tiparser sync worker disabled")
		return
	}

	interval := syncInterval()
	logger.WithField("interval", interval.String()).Info("tiparser sync worker started")

	for {
		stats, err := SyncAllCases(ctx)
		if err != nil {
			config.LogError(logger, "tiparser", "RunSyncWorker", "sync pass failed", nil, err)
		} else {
			logger.WithFields(map[string]interface{}{
				"cases_scanned":  stats.CasesScanned,
				"documents_new":  stats.DocumentsNew,
				"documents_seen": stats.DocumentsSeen,
				"error_count":    stats.ErrorCount,
			}).Info("tiparser sync pass finished")
		}

		select {
		case <-ctx.Done():
			logger.Info("tiparser sync worker stopped")
			return
		case <-time.After(interval):
		}
	}
}

func syncInterval() time.Duration {
	minutes := int64(30)
	if v := strings.TrimSpace(os.Getenv("TIPARSER_SYNC_INTERVAL_MIN")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			minutes = n
		}
	}
	return time.Duration(minutes) * time.Minute
}

// SyncAllCases runs one fetch pass across every active case. Per-case errors
// are counted and logged, never fatal to the pass.
func SyncAllCases(ctx context.Context) (SyncStats, error) {
	logger := config.GetLogger()

	client, err := newTiparserClient()
	if err != nil {
		return SyncStats{}, err
	}

	cases, err := models.GetActiveCases(ctx)
	if err != nil {
		return SyncStats{}, err
	}

	stats := SyncStats{}
	for _, caseRecord := range cases {
		caseStats := syncCase(ctx, client, caseRecord)
		stats.add(caseStats)
		stats.CasesScanned++
		if caseStats.ErrorCount > 0 {
			config.LogError(logger, "tiparser", "SyncAllCases",
				"case sync finished with errors", caseRecord.CaseNumber, nil)
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// SyncCaseByNumber backs the manual trigger endpoint.
func SyncCaseByNumber(ctx context.Context, caseNumber string) (SyncStats, error) {
	client, err := newTiparserClient()
	if err != nil {
		return SyncStats{}, err
	}

	caseRecord, err := models.GetCaseByNumber(ctx, caseNumber)
	if err != nil {
		return SyncStats{}, err
	}

	stats := syncCase(ctx, client, caseRecord)
	stats.CasesScanned = 1
	return stats, nil
}

func syncCase(ctx context.Context, client *tiparserClient, caseRecord *models.Case) SyncStats {
	logger := config.GetLogger()
	stats := SyncStats{}

	for _, kind := range syncedKinds {
		envelope, err := client.fetchCaseDocument(ctx, caseRecord.CaseNumber, string(kind))
		if err != nil {
			stats.ErrorCount++
			config.LogError(logger, "tiparser", "syncCase", "fetch failed",
				map[string]string{"case_number": caseRecord.CaseNumber, "kind": string(kind)}, err)
			continue
		}
		if envelope == nil || len(envelope.Payload) == 0 {
			continue
		}

		ref := externalRef(envelope)
		seen, err := hasRawDocument(ctx, caseRecord.ID, kind, ref)
		if err != nil {
			stats.ErrorCount++
			config.LogError(logger, "tiparser", "syncCase", "dedup lookup failed",
				map[string]string{"case_number": caseRecord.CaseNumber, "kind": string(kind)}, err)
			continue
		}
		if seen {
			stats.DocumentsSeen++
			continue
		}

		fetchedAt := parseGeneratedAt(envelope.GeneratedAt)
		document, _, err := models.CreateRawDocument(ctx, models.NewRawDocument{
			CaseId:      caseRecord.ID,
			Kind:        string(kind),
			Payload:     envelope.Payload,
			Source:      "tiparser",
			ExternalRef: &ref,
			FetchedAt:   &fetchedAt,
		})
		if err != nil {
			stats.ErrorCount++
			config.LogError(logger, "tiparser", "syncCase", "ingest failed",
				map[string]string{"case_number": caseRecord.CaseNumber, "kind": string(kind)}, err)
			continue
		}
		stats.DocumentsNew++

		archiveRawPayload(ctx, caseRecord.CaseNumber, document)
	}
	return stats
}

// externalRef dedupes fetches across passes: the upstream document id when it
// gives one, a payload digest when it does not.
func externalRef(envelope *documentEnvelope) string {
	if id := strings.TrimSpace(envelope.DocumentID); id != "" {
		return id
	}
	digest := sha256.Sum256(envelope.Payload)
	return "sha256:" + hex.EncodeToString(digest[:])
}

func hasRawDocument(ctx context.Context, caseId int, kind models.DocumentKind, externalRef string) (bool, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&models.RawDocument{}).
		Where("case_id = ? AND kind = ? AND external_ref = ?", caseId, kind, externalRef).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func parseGeneratedAt(value string) time.Time {
	value = strings.TrimSpace(value)
	if value != "" {
		if t, err := time.Parse(time.RFC3339, value); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}

// archiveRawPayload keeps extraction replayable after the upstream expires
// the document. Archival is best effort: a failure is logged, never blocks
// the ingest.
func archiveRawPayload(ctx context.Context, caseNumber string, document *models.RawDocument) {
	if strings.TrimSpace(os.Getenv("RAW_ARCHIVE_BUCKET")) == "" &&
		strings.TrimSpace(os.Getenv("GCS_BUCKET")) == "" {
		return
	}

	logger := config.GetLogger()
	objectName := fmt.Sprintf("raw/%s/%s/%d.json", caseNumber, document.Kind, document.ID)
	if err := utils.ArchiveJSONToGCS(ctx, objectName, document.Payload); err != nil {
		config.LogError(logger, "tiparser", "archiveRawPayload", objectName, nil, err)
		return
	}
	if err := models.SetRawDocumentArchive(ctx, document.ID, objectName); err != nil {
		config.LogError(logger, "tiparser", "archiveRawPayload", objectName, nil, err)
	}
}
