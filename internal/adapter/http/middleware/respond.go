package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/iho/bankledger/internal/adapter/http/dto"
)

func writeError(w http.ResponseWriter, err error) {
	status, body := dto.ErrorFromDomain(err)
	writeBody(w, status, body)
}

func writeBody(w http.ResponseWriter, status int, body *dto.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
