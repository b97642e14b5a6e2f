package pagedex

import "github.com/pagedex-io/pagedex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrModelLoad         = domain.ErrModelLoad
	ErrEncoding          = domain.ErrEncoding
	ErrVectorDimMismatch = domain.ErrVectorDimMismatch
)
