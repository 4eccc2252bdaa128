package domain

import (
	"time"
)

// RemoteRate is a single record of the upstream feed. It lives only for the
// duration of one synchronization run.
type RemoteRate struct {
	Code string
	Name string
	Rate float64
}

// RateFields are the writable fields of a stored rate.
type RateFields struct {
	Code string
	Name string
	Rate float64
}

type StoredRate struct {
	ID        int64
	Code      string
	Name      string
	Rate      float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r StoredRate) Fields() RateFields {
	return RateFields{
		Code: r.Code,
		Name: r.Name,
		Rate: r.Rate,
	}
}
