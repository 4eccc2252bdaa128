package handler

import (
	"errors"
	"net/http"

	"cbrates/internal/domain"

	"github.com/sirupsen/logrus"
)

// Refresh godoc
// @Summary Refresh rates now
// @Description Run a refresh against the rate source synchronously and return its summary
// @Tags Admin
// @Produce json
// @Success 200 {object} rate.SyncResult
// @Failure 502 {object} errorResponse "rate source unavailable or malformed"
// @Failure 500 {object} errorResponse
// @Router /v1/rates/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Refresh(r.Context())
	if err != nil {
		log := logrus.WithError(err).WithField("handler", "Refresh")
		if errors.Is(err, domain.ErrSourceUnavailable) || errors.Is(err, domain.ErrMalformedFeed) {
			log.Warn("refresh rejected by rate source")
			writeError(w, http.StatusBadGateway, "rate source unavailable, last known rates are kept")
			return
		}
		msg := "ups, couldn't refresh rates this time"
		log.Error(msg)
		writeError(w, http.StatusInternalServerError, msg)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
