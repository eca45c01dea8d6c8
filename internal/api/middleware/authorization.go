package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"support-chat-backend/internal/identity"
	internaljwt "support-chat-backend/internal/jwt"
)

type unauthorizedBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(unauthorizedBody{Code: "UNAUTHORIZED", Message: message})
}

// ValidateJWTMiddleware rejects requests without a valid bearer token for role and
// attaches the operator identity carried by the token to the request context.
func ValidateJWTMiddleware(role internaljwt.Role) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, err := internaljwt.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				unauthorized(w, "Unauthorized")
				return
			}

			// ParseToken enforces exp through the jwt claims validation.
			claims, err := internaljwt.ParseToken(token, role)
			if err != nil {
				slog.DebugContext(r.Context(), "rejected access token", "error", err)
				unauthorized(w, "Unauthorized")
				return
			}

			op, err := internaljwt.OperatorFromClaims(claims)
			if err != nil {
				unauthorized(w, "Identity not found")
				return
			}

			next(w, r.WithContext(identity.WithOperator(r.Context(), op)))
		}
	}
}

var ValidateUserJWT = ValidateJWTMiddleware(internaljwt.RoleUser)
