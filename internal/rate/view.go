package rate

// View is the externally exposed shape of a stored rate.
type View struct {
	Code string  `json:"code" example:"USD"`
	Name string  `json:"name" example:"US Dollar"`
	Rate float64 `json:"rate" example:"97.132"`
}
