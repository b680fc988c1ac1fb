package models

import "context"

// GetIncomeDocument must stay the single cached, case-scoped fetch; the
// exclusion toggle relies on dropping its per-item cache entry.
var _ func(context.Context, int, int) (*IncomeDocument, error) = GetIncomeDocument
