package workflow

import (
	"testing"

	"github.com/clearpathtax/case_backend/models"
	"github.com/clearpathtax/case_backend/utils"
)

func transcriptRuleset() *models.Ruleset {
	return &models.Ruleset{
		RuleVersion: "test",
		TransactionCodes: map[string]models.TransactionCodeRule{
			"150": {
				Code:            "150",
				TransactionType: "Return filed",
				AffectsCsed:     utils.NewTrue(),
				TollingCategory: models.TollingCategoryNone,
			},
			"420": {
				Code:                 "420",
				TransactionType:      "Examination",
				IndicatesExamination: utils.NewTrue(),
				TollingCategory:      models.TollingCategoryNone,
			},
		},
	}
}

func TestParseTranscriptTransactions_FailureNamesLinePosition(t *testing.T) {
	transactions := []any{
		map[string]any{"code": "150", "date": "2020-04-15"},
		"not an object",
		map[string]any{"amount": "125.00"},
	}

	parsed := parseTranscriptTransactions(transcriptRuleset(), 1, transactions)

	if len(parsed.Events) != 1 {
		t.Fatalf("expected the one well-formed line to survive, got %d events", len(parsed.Events))
	}
	if len(parsed.Failures) != 2 {
		t.Fatalf("expected two per-line failures, got %d", len(parsed.Failures))
	}
	if parsed.Failures[0].Reason != "transaction 1 is not an object" {
		t.Fatalf("failure must carry the line position, got %q", parsed.Failures[0].Reason)
	}
	if parsed.Failures[1].Reason != "transaction 2 has no code" {
		t.Fatalf("failure must carry the line position, got %q", parsed.Failures[1].Reason)
	}
	if parsed.Failures[1].Field != "code" {
		t.Fatalf("missing-code failure must name the field, got %q", parsed.Failures[1].Field)
	}
}

func TestParseTranscriptTransactions_SupplementFlags(t *testing.T) {
	parsed := parseTranscriptTransactions(transcriptRuleset(), 1, []any{
		map[string]any{"code": "150", "description": "SUBSTITUTE FOR RETURN"},
		map[string]any{"code": "420"},
	})
	if !parsed.IsSFR {
		t.Fatalf("150 with a substitute-return explanation must flag SFR")
	}
	if !parsed.UnderExamination {
		t.Fatalf("examination-rule code must flag the year under examination")
	}

	// A later, corrected transcript without those lines computes both false;
	// the upsert writes them unconditionally so the stale true never sticks.
	parsed = parseTranscriptTransactions(transcriptRuleset(), 1, []any{
		map[string]any{"code": "150", "description": "Tax return filed"},
	})
	if parsed.IsSFR || parsed.UnderExamination {
		t.Fatalf("plain filing must leave both supplement flags false, got sfr=%v exam=%v",
			parsed.IsSFR, parsed.UnderExamination)
	}
}
