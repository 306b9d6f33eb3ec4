package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"excelbot-backend-go/internal/services"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
	})
}

// WriteServiceError maps the error taxonomy onto the response body. Anything
// outside the taxonomy is an unexpected failure: logged with full detail and
// surfaced as a generic 500, with the detail suppressed on the hardened
// profile.
func (s *Server) WriteServiceError(w http.ResponseWriter, err error) {
	var svcErr services.ServiceError
	if errors.As(err, &svcErr) {
		WriteError(w, svcErr.Status, svcErr.Code, svcErr.Message)
		return
	}
	log.Printf("internal error: %v", err)
	message := "Internal server error"
	if !s.Config.Hardened() {
		message = err.Error()
	}
	WriteError(w, http.StatusInternalServerError, services.CodeInternal, message)
}
