package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wanderblog/apiserver/internal/apperr"
	"github.com/wanderblog/apiserver/types"
)

type contextKey string

const contextUserKey contextKey = "user"

// APIResponse is the success envelope shared by all endpoints.
type APIResponse struct {
	Status  int    `json:"status"`
	Data    any    `json:"data"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// APIErrorResponse is the error envelope shared by all endpoints.
type APIErrorResponse struct {
	Status  int      `json:"status"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
	Success bool     `json:"success"`
}

func userFromContext(ctx context.Context) (types.User, error) {
	user, ok := ctx.Value(contextUserKey).(types.User)
	if !ok {
		return types.User{}, errors.New("no authenticated user")
	}
	return user, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeData(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, APIResponse{
		Status:  status,
		Data:    data,
		Message: message,
		Success: true,
	})
}

func writeError(w http.ResponseWriter, err error) {
	appErr := apperr.FromError(err)
	details := appErr.Details
	if details == nil {
		details = []string{}
	}
	writeJSON(w, appErr.Status, APIErrorResponse{
		Status:  appErr.Status,
		Message: appErr.Message,
		Errors:  details,
		Success: false,
	})
}

// Healthz reports service liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "ok", "healthy")
}
