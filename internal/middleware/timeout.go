package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"gn-registry/internal/model"
)

// Timeout cuts off handlers that outlive the request budget with a 503 and
// the standard error envelope.
func Timeout(budget time.Duration) func(http.Handler) http.Handler {
	if budget <= 0 {
		budget = 30 * time.Second
	}

	body, _ := json.Marshal(model.APIResponse{
		Success: false,
		Error:   &model.APIError{Code: "REQUEST_TIMEOUT", Message: "request timed out"},
	})

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, budget, string(body))
	}
}
