package handler

import (
	"errors"
	"net/http"
	"strings"

	"cbrates/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const msgNotKnown = "currency not known"

// GetByCode godoc
// @Summary Get rate by currency code
// @Description Look up the stored rate of a currency. The code is case-insensitive.
// @Tags Rates
// @Produce json
// @Param code path string true "Currency code" example(USD)
// @Success 200 {object} rate.View
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /v1/rates/{code} [get]
func (h *Handler) GetByCode(w http.ResponseWriter, r *http.Request) {
	h.lookup(w, r, chi.URLParam(r, "code"), "GetByCode")
}

// GetData godoc
// @Summary Get rate by currency code (query form)
// @Description Same lookup as /v1/rates/{code} with the code passed as a query parameter
// @Tags Rates
// @Produce json
// @Param code query string true "Currency code" example(USD)
// @Success 200 {object} rate.View
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /getData [get]
func (h *Handler) GetData(w http.ResponseWriter, r *http.Request) {
	h.lookup(w, r, r.URL.Query().Get("code"), "GetData")
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request, rawCode, handlerName string) {
	code := strings.ToUpper(strings.TrimSpace(rawCode))

	if err := h.validator.ValidateCode(code); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.service.Lookup(r.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrRateNotFound) {
			writeError(w, http.StatusNotFound, msgNotKnown)
			return
		}
		msg := "ups, couldn't get rate this time"
		logrus.WithError(err).WithFields(logrus.Fields{"handler": handlerName, "code": code}).Error(msg)
		writeError(w, http.StatusInternalServerError, msg)
		return
	}

	writeJSON(w, http.StatusOK, view)
}
