package rate

import (
	"cbrates/internal/domain"

	"github.com/samber/lo"
)

// ToFields converts a feed record into the writable fields of a stored rate.
// Timestamps are left to the store.
func ToFields(r domain.RemoteRate) domain.RateFields {
	return domain.RateFields{
		Code: r.Code,
		Name: r.Name,
		Rate: r.Rate,
	}
}

// ToView drops the identifier and timestamps of a stored rate.
func ToView(r domain.StoredRate) View {
	return View{
		Code: r.Code,
		Name: r.Name,
		Rate: r.Rate,
	}
}

func ToViews(rates []domain.StoredRate) []View {
	return lo.Map(rates, func(r domain.StoredRate, _ int) View {
		return ToView(r)
	})
}
