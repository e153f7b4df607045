package httpx

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID on both the request and the
// response.
const RequestIDHeader = "X-Request-Id"

// RequestIDMiddleware tags every request with an ID for log correlation. A
// well-formed inbound X-Request-Id is kept so IDs survive proxy hops;
// anything else is replaced with a fresh UUID. The ID is echoed on the
// response and put into the request context.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ContextWithRequestID(r.Context(), id)))
	})
}
