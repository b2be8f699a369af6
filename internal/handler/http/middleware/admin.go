package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/shiftline-hq/attendance-backend-go/internal/handler/http/response"
)

// ManagerOnly restricts a route group to admin and manager tokens.
func ManagerOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, "Missing or invalid token")
			return
		}

		role, ok := claims["role"].(string)
		if !ok || (role != "admin" && role != "manager") {
			response.Forbidden(w, "Manager privilege required")
			return
		}

		next.ServeHTTP(w, r)
	})
}
