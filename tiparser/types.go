package tiparser

import "encoding/json"

// documentEnvelope is the upstream fetch shape. Some deployments wrap the
// parsed document in metadata, others return the payload bare; the client
// normalizes both into this struct.
type documentEnvelope struct {
	DocumentID  string          `json:"document_id"`
	GeneratedAt string          `json:"generated_at"`
	Payload     json.RawMessage `json:"payload"`
}

type TriggerSyncRequest struct {
	CaseNumber string `json:"caseNumber"`
}

type SyncStats struct {
	CasesScanned  int `json:"casesScanned"`
	DocumentsNew  int `json:"documentsNew"`
	DocumentsSeen int `json:"documentsSeen"`
	ErrorCount    int `json:"errorCount"`
}

func (s *SyncStats) add(other SyncStats) {
	s.CasesScanned += other.CasesScanned
	s.DocumentsNew += other.DocumentsNew
	s.DocumentsSeen += other.DocumentsSeen
	s.ErrorCount += other.ErrorCount
}
