package app

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrBusy         = errors.New("another operation is in progress")
	ErrNoDocument   = errors.New("no embedded document available")
	ErrExtraction   = errors.New("document extraction failed")
	ErrEmbedding    = errors.New("embedding failed")
	ErrGeneration   = errors.New("generation failed")
)
