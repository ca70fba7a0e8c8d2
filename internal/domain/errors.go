package domain

import "errors"

var (
	ErrInvalidID            = errors.New("invalid id")
	ErrInvalidDisplayNumber = errors.New("invalid display number")
	ErrInvalidSecondaryID   = errors.New("invalid secondary id")
)
