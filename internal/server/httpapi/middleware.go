package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/hassankhurram/chatbot-gemini/internal/common"
	"github.com/hassankhurram/chatbot-gemini/internal/server/models"
)

type ctxKey string

const userKey ctxKey = "user"

// withAuth guards a handler behind bearer-token authentication. A missing or
// malformed Authorization header, or a token that does not verify to a user,
// aborts the request with 401 before the handler runs. The verified user is
// placed in the request context.
func (s *HTTPServer) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		header := r.Header.Get(common.AuthorizationHeaderName)
		if header == "" || !strings.HasPrefix(header, common.BearerPrefix) {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		token := strings.TrimPrefix(header, common.BearerPrefix)

		user, err := s.auth.VerifyToken(r.Context(), token)
		if err != nil {
			s.logger.Error(r.Context(), err.Error())
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if user == nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next(w, r.WithContext(ctx))
	}
}

// userFromContext returns the authenticated user stored by withAuth.
func userFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok
}
