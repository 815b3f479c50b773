package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"fleets-server/internal/shared/response"
)

// RequestID tags every request with an id, reusing a well-formed one sent by
// the client. The id is echoed in the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(response.RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
			r.Header.Set(response.RequestIDHeader, id)
		}
		w.Header().Set(response.RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}
