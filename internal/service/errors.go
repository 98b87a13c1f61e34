package service

import (
	"errors"

	"github.com/nurpe/eforms/internal/report"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrNoData           = report.ErrNoData
)
