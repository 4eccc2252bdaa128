package handler

import (
	"net/http"

	"cbrates/internal/rate"

	"github.com/sirupsen/logrus"
)

type ListResponse struct {
	Rates []rate.View `json:"rates"`
}

// List godoc
// @Summary List stored rates
// @Description Retrieve every stored rate sorted by currency code
// @Tags Rates
// @Produce json
// @Success 200 {object} ListResponse
// @Failure 500 {object} errorResponse
// @Router /v1/rates [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.List(r.Context())
	if err != nil {
		msg := "ups, couldn't list rates this time"
		logrus.WithError(err).WithField("handler", "List").Error(msg)
		writeError(w, http.StatusInternalServerError, msg)
		return
	}
	if views == nil {
		views = []rate.View{}
	}
	writeJSON(w, http.StatusOK, ListResponse{Rates: views})
}
