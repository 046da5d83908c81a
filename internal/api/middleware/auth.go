package middleware

import (
	"context"
	"errors"
	"net/http"

	"citylog/internal/common"
	"citylog/internal/common/security"
	"citylog/internal/domain/model"
	"citylog/internal/domain/repository"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const userCtxKey contextKey = "currentUser"

// Authenticator runs the per-request access-control pipeline on top of
// jwtauth.Verifier: classify the verification result, resolve the subject to
// a live user record, reject sessions issued before the last password change
// and attach the resolved identity to the request context.
func Authenticator(users repository.UserRepository, rp *common.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				rp.Error(w, classifyTokenError(err))
				return
			}

			userID, err := security.UserIDFromClaims(claims)
			if err != nil {
				rp.Error(w, common.ErrInvalidToken)
				return
			}
			issuedAt, err := security.IssuedAtFromClaims(claims)
			if err != nil {
				rp.Error(w, common.ErrInvalidToken)
				return
			}

			user, err := users.FindByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					// Deleted accounts can hold a still-valid token.
					rp.Error(w, common.NewError(common.ErrNotAuthenticated,
						"The user belonging to this token does no longer exist"))
					return
				}
				rp.Error(w, err)
				return
			}

			if user.ChangedPasswordAfter(issuedAt) {
				rp.Error(w, common.NewError(common.ErrNotAuthenticated,
					"User recently changed password! Please login again"))
				return
			}

			ctx := context.WithValue(r.Context(), userCtxKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route on role membership. It runs after Authenticator
// and rejects independently of authentication validity.
func RequireRole(rp *common.Responder, roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := CurrentUser(r.Context())
			if !ok {
				rp.Error(w, common.ErrNotAuthenticated)
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			rp.Error(w, common.ErrForbidden)
		})
	}
}

// CurrentUser returns the identity attached by Authenticator.
func CurrentUser(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userCtxKey).(*model.User)
	return user, ok
}

func classifyTokenError(err error) error {
	switch {
	case err == nil, errors.Is(err, jwtauth.ErrNoTokenFound):
		return common.ErrNotAuthenticated
	case errors.Is(err, jwtauth.ErrExpired):
		return common.ErrTokenExpired
	default:
		return common.ErrInvalidToken
	}
}
