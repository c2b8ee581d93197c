package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mpopescu/autochecks/internal/common"
)

type contextKey string

const accountIDKey contextKey = "accountID"

// accountIDFrom returns the authenticated account id stored by authMiddleware.
func accountIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(accountIDKey).(string)
	return id
}

// authMiddleware verifies the bearer access token and stores the account id
// on the request context. An expired token gets a distinct error code so the
// client refreshes instead of signing the user out.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, common.CodeUnauthorized, "missing bearer token")
			return
		}

		accountID, err := s.users.VerifyAccessToken(token)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, common.CodeTokenExpired, "access token expired")
				return
			}
			writeError(w, http.StatusUnauthorized, common.CodeUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountIDKey, accountID)))
	})
}
