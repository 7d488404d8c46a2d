package service

import "errors"

var (
	ErrJobNotFound            = errors.New("import job not found")
	ErrNoRecords              = errors.New("records are required")
	ErrEntityTypeRequired     = errors.New("entity type is required")
	ErrCompanyRequired        = errors.New("company id is required")
	ErrUserRequired           = errors.New("user id is required")
	ErrTooManyRecords         = errors.New("record count exceeds the per-import limit")
	ErrInvalidDuplicatePolicy = errors.New("unknown duplicate handling strategy")
	ErrQueueUnavailable       = errors.New("background job queue is not available")
	ErrJobNotTerminal         = errors.New("import job has not finished")
	ErrRollbackWindowExpired  = errors.New("rollback window has expired")
	ErrNothingToRollback      = errors.New("import has nothing to roll back")
)
