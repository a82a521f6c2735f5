package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/keepsake/keepsake/pkg/user"
	log "github.com/sirupsen/logrus"
)

const userIdHeader = "X-User-Id"

// UserLookup resolves the uid forwarded by the authenticating proxy.
type UserLookup interface {
	GetUserByUid(ctx context.Context, uid string) (user.User, error)
}

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, users UserLookup) {
	r.Use(userMiddleware(users))
}

// userMiddleware puts the user named by the X-User-Id header into the request
// context. Requests without the header pass through without a user.
func userMiddleware(users UserLookup) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			uid := req.Header.Get(userIdHeader)
			ctx := req.Context()

			if uid != "" {
				u, err := users.GetUserByUid(ctx, uid)
				if errors.Is(err, user.ErrUserNotFound) {
					log.Debugf("user not found: %s", uid)
					http.Error(w, "user not found", http.StatusForbidden)
					return
				} else if err != nil {
					log.Errorf("failed to get user: %v", err)
					http.Error(w, "failed to resolve user", http.StatusInternalServerError)
					return
				}
				log.Tracef("user found: %s", u.Uid)
				ctx = user.WithUser(ctx, u)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}
