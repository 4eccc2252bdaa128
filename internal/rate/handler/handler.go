package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"cbrates/internal/rate"
)

type codeValidator interface {
	ValidateCode(code string) error
}

type rateService interface {
	Lookup(ctx context.Context, code string) (rate.View, error)
	List(ctx context.Context) ([]rate.View, error)
	Refresh(ctx context.Context) (rate.SyncResult, error)
	Delete(ctx context.Context, id int64) error
}

type Handler struct {
	validator codeValidator
	service   rateService
}

func NewRateHandler(validator codeValidator, service rateService) *Handler {
	return &Handler{validator: validator, service: service}
}

type errorResponse struct {
	Error string `json:"error" example:"currency not known"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, statusCode int, errorMsg string) {
	writeJSON(w, statusCode, errorResponse{
		Error: errorMsg,
	})
}
