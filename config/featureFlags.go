package config

import (
	"os"
	"strings"
)

// RecomputeOnIngest triggers a full case recompute as soon as a raw document
// is extracted, instead of waiting for an explicit recompute request.
//
// Set via env:
// - RECOMPUTE_ON_INGEST=true
func RecomputeOnIngest() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("RECOMPUTE_ON_INGEST")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// TiparserSyncEnabled turns on the background worker that pulls parsed
// documents from the tiparser service.
//
// Set via env:
// - TIPARSER_SYNC_ENABLED=true
func TiparserSyncEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("TIPARSER_SYNC_ENABLED")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// ExtractionDisabledFor lets ops park a misbehaving extractor without a deploy.
// Disabled kinds still land in the bronze store; they are simply not promoted
// to silver until re-enabled and recomputed.
//
// Set via env:
// - EXTRACTION_DISABLED_KINDS="TRT,WI"
//
// Kind keys are case-insensitive.
func ExtractionDisabledFor(kind string) bool {
	kind = strings.ToUpper(strings.TrimSpace(kind))
	if kind == "" {
		return false
	}
	raw := os.Getenv("EXTRACTION_DISABLED_KINDS")
	if strings.TrimSpace(raw) == "" {
		return false
	}
	for _, part := range strings.Split(raw, ",") {
		if strings.ToUpper(strings.TrimSpace(part)) == kind {
			return true
		}
	}
	return false
}
