package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type meta struct {
	RequestID string `json:"request_id,omitempty"`
}

type envelope struct {
	OK    bool          `json:"ok"`
	Data  interface{}   `json:"data,omitempty"`
	Error *errorPayload `json:"error,omitempty"`
	Meta  meta          `json:"meta"`
}

func writeOK(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeEnvelope(w, r, status, envelope{OK: true, Data: data})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if msg == "" {
		msg = http.StatusText(status)
	}
	writeEnvelope(w, r, status, envelope{Error: &errorPayload{Code: codeFromStatus(status), Message: msg}})
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, res envelope) {
	res.Meta.RequestID = middleware.GetReqID(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(res)
}

func codeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return "error"
	}
}
