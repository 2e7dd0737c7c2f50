package domain

import "errors"

var (
	ErrInstanceNotFound    = errors.New("instance not found")
	ErrNoMatch             = errors.New("no instance matches")
	ErrAmbiguousSelection  = errors.New("instance prefix is ambiguous")
	ErrInvalidMode         = errors.New("invalid mode")
	ErrProjectConfigAbsent = errors.New("project voice config not found")
	ErrSlotEmpty           = errors.New("staging slot is empty")
)
