package stream

import (
	"errors"
)

var (
	ErrMalformedValue = errors.New("malformed value")
	ErrRecordTooLong  = errors.New("record too long")
	errUnknownFormat  = errors.New("unknown input format")
)
