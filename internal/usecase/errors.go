package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrStoreBusy             = errors.New("stats store busy")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrRefreshInProgress     = errors.New("refresh already in progress")
)
