package domain

import "errors"

var (
	// ErrModelLoad signals that the embedding model is unavailable.
	ErrModelLoad = errors.New("model load error")
	// ErrEncoding signals a failed embedding call.
	ErrEncoding = errors.New("encoding error")
	// ErrVectorDimMismatch signals an embedding whose dimension does not
	// match the configured index dimension.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)
