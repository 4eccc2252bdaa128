package domain

import "errors"

var (
	ErrRateNotFound      = errors.New("rate not found")
	ErrRateExists        = errors.New("rate with this code already exists")
	ErrSourceUnavailable = errors.New("rate source unavailable")
	ErrMalformedFeed     = errors.New("malformed rate feed")
	ErrStoreUnavailable  = errors.New("rate store unavailable")
)
