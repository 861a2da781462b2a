package services

import "errors"

var (
	// ErrNotFound means a token does not resolve to any batch or file.
	ErrNotFound = errors.New("link invalid or expired")
	// ErrNoActiveBatch means an append was attempted before a batch existed.
	ErrNoActiveBatch = errors.New("no active batch")
	// ErrEmptyBatch rejects sealing a batch with zero entries.
	ErrEmptyBatch = errors.New("batch has no files")
	// ErrAccessDenied means the membership gate rejected the requester.
	ErrAccessDenied = errors.New("join the channel to continue")
)
