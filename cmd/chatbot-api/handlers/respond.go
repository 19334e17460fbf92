// Package handlers provides HTTP handlers for the chatbot API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/toktokhan/chatbot-engine/internal/observability"
)

// internalErrorMessage is returned for every unexpected failure.
const internalErrorMessage = "일시적인 오류가 발생했습니다. 잠시 후 다시 시도해주세요."

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{"error": message}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}

func writeInternal(w http.ResponseWriter, r *http.Request, logger *observability.Logger, err error, msg string) {
	logger.WithContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(msg)
	writeError(w, http.StatusInternalServerError, internalErrorMessage, "")
}
