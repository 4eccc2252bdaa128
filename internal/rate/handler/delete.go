package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// Delete godoc
// @Summary Delete stored rate
// @Description Remove a stored rate by its ID. Deleting a missing ID succeeds.
// @Tags Admin
// @Param id path int true "Rate ID"
// @Success 204
// @Failure 400 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /v1/rates/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid rate ID format")
		return
	}

	if err = h.service.Delete(r.Context(), id); err != nil {
		msg := "ups, couldn't delete rate this time"
		logrus.WithError(err).WithFields(logrus.Fields{"handler": "Delete", "id": id}).Error(msg)
		writeError(w, http.StatusInternalServerError, msg)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
