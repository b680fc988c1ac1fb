package models

import (
	"strings"
)

type FilingStatus string

const (
	FilingStatusSingle                    FilingStatus = "Single"
	FilingStatusMarriedFilingJointly      FilingStatus = "MarriedFilingJointly"
	FilingStatusMarriedFilingSeparately   FilingStatus = "MarriedFilingSeparately"
	FilingStatusHeadOfHousehold           FilingStatus = "HeadOfHousehold"
	FilingStatusQualifyingSurvivingSpouse FilingStatus = "QualifyingSurvivingSpouse"
	FilingStatusUnknown                   FilingStatus = "Unknown"
)

// ParseFilingStatus maps the free-form status text found on transcripts
// ("Married Filing Joint", "MFJ", "single") onto the canonical value.
// Unrecognized text becomes Unknown, never an error.
func ParseFilingStatus(s string) FilingStatus {
	cleaned := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.TrimSpace(s))
	switch strings.ToUpper(cleaned) {
	case "S", "SINGLE":
		return FilingStatusSingle
	case "MFJ", "MARRIEDFILINGJOINT", "MARRIEDFILINGJOINTLY", "MARRIEDJOINT":
		return FilingStatusMarriedFilingJointly
	case "MFS", "MARRIEDFILINGSEPARATE", "MARRIEDFILINGSEPARATELY", "MARRIEDSEPARATE":
		return FilingStatusMarriedFilingSeparately
	case "HOH", "HEADOFHOUSEHOLD":
		return FilingStatusHeadOfHousehold
	case "QSS", "QW", "QUALIFYINGSURVIVINGSPOUSE", "QUALIFYINGWIDOW", "QUALIFYINGWIDOWER":
		return FilingStatusQualifyingSurvivingSpouse
	}
	return FilingStatusUnknown
}

type FilerRole string

const (
	FilerRoleTaxpayer FilerRole = "Taxpayer"
	FilerRoleSpouse   FilerRole = "Spouse"
	FilerRoleJoint    FilerRole = "Joint"
)

// DocumentKind values are the wire values of the upstream document API.
type DocumentKind string

const (
	DocumentKindAccountTranscript   DocumentKind = "account-transcript"
	DocumentKindWageIncome          DocumentKind = "wage-income"
	DocumentKindInterview           DocumentKind = "interview"
	DocumentKindTaxReturnTranscript DocumentKind = "tax-return-transcript"
)

func ParseDocumentKind(s string) (DocumentKind, bool) {
	switch DocumentKind(strings.ToLower(strings.TrimSpace(s))) {
	case DocumentKindAccountTranscript:
		return DocumentKindAccountTranscript, true
	case DocumentKindWageIncome:
		return DocumentKindWageIncome, true
	case DocumentKindInterview:
		return DocumentKindInterview, true
	case DocumentKindTaxReturnTranscript:
		return DocumentKindTaxReturnTranscript, true
	}
	return "", false
}

type RawDocumentStatus string

const (
	RawDocumentStatusPending   RawDocumentStatus = "Pending"
	RawDocumentStatusProcessed RawDocumentStatus = "Processed"
	RawDocumentStatusFailed    RawDocumentStatus = "Failed"
	// Skipped marks documents of a kind listed in EXTRACTION_DISABLED_KINDS;
	// they stay in the bronze store until re-enabled and reprocessed.
	RawDocumentStatusSkipped RawDocumentStatus = "Skipped"
)

type CsedStatus string

const (
	CsedStatusNotFiled CsedStatus = "NotFiled"
	CsedStatusBaseSet  CsedStatus = "BaseSet"
	CsedStatusTolled   CsedStatus = "Tolled"
	CsedStatusFinal    CsedStatus = "Final"
)

type TollingCategory string

const (
	TollingCategoryNone       TollingCategory = "None"
	TollingCategoryBankruptcy TollingCategory = "Bankruptcy"
	TollingCategoryOIC        TollingCategory = "OIC"
	TollingCategoryCDP        TollingCategory = "CDP"
	TollingCategoryPenalty    TollingCategory = "Penalty"
)

// IntervalRole tells the tolling pairer whether a transaction code opens a
// suspension interval, closes one, or carries no interval at all.
type IntervalRole string

const (
	IntervalRoleNone  IntervalRole = "None"
	IntervalRoleOpen  IntervalRole = "Open"
	IntervalRoleClose IntervalRole = "Close"
)

type TollingEventStatus string

const (
	// Open intervals have a start but no matching close event yet; they
	// contribute zero extension days until closed.
	TollingEventStatusOpen   TollingEventStatus = "Open"
	TollingEventStatusClosed TollingEventStatus = "Closed"
	// Applied marks flat-extension occurrences that carry no interval.
	TollingEventStatusApplied TollingEventStatus = "Applied"
)

type ProjectionStatus string

const (
	ProjectionStatusComputed    ProjectionStatus = "Computed"
	ProjectionStatusUnavailable ProjectionStatus = "Unavailable"
)

// CaseEventAction identifies what a case event asks the workflow consumer to do.
type CaseEventAction string

const (
	CaseEventActionDocumentIngested   CaseEventAction = "DocumentIngested"
	CaseEventActionRecomputeRequested CaseEventAction = "RecomputeRequested"
	CaseEventActionExclusionChanged   CaseEventAction = "ExclusionChanged"
)
