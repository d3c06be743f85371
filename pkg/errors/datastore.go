package errors

import "errors"

var (
	ErrRecordNotUpdated  = errors.New("record not updated: missing or no longer active")
	ErrDBOperationFailed = errors.New("database operation failed")
	ErrInvalidRecord     = errors.New("invalid record")
)
