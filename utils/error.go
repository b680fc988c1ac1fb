package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrorMalformedDocument is the only extraction error surfaced to callers.
// A document whose payload cannot be decoded at all is rejected with it;
// anything recoverable inside the payload degrades to nulls or "Unknown".
var ErrorMalformedDocument = errors.New("malformed document payload")

// ErrorUnknownDocumentKind marks a raw document whose kind has no extractor.
var ErrorUnknownDocumentKind = errors.New("unknown document kind")

// ErrorReferenceDataMissing marks a lookup against brackets, deductions or
// expense standards that has no row for the requested key. Calculations treat
// it as "unavailable", never as zero.
var ErrorReferenceDataMissing = errors.New("reference data missing")
