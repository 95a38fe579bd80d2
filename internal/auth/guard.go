package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/odyssey-todo/internal/shared"
)

// lookupTimeout bounds a shared user lookup once it is detached from the
// request that started it.
const lookupTimeout = 5 * time.Second

// UserLookup loads the user a session is bound to.
type UserLookup interface {
	Lookup(ctx context.Context, id int64) (*User, error)
}

// Guard resolves the session user of each request into a shared.Identity.
type Guard struct {
	users  UserLookup
	logger *slog.Logger
	group  singleflight.Group
}

// NewGuard constructs a Guard.
func NewGuard(logger *slog.Logger, users UserLookup) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{users: users, logger: logger}
}

// Resolve stores the caller identity in the request context. Sessions
// bound to a user that no longer exists are unbound and the request
// continues anonymously.
func (g *Guard) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil {
			next.ServeHTTP(w, r)
			return
		}
		userID, ok := sess.UserID()
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		user, err := g.lookup(r.Context(), userID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				g.logger.Warn("session bound to unknown user", slog.Int64("user_id", userID))
				sess.ClearUser()
				next.ServeHTTP(w, r)
				return
			}
			g.logger.Error("resolve identity", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		ctx := shared.ContextWithIdentity(r.Context(), user.Identity())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CurrentIdentity returns the identity resolved for r.
func (g *Guard) CurrentIdentity(r *http.Request) shared.Identity {
	return shared.IdentityFromContext(r.Context())
}

// RequireIdentity rejects anonymous requests with 401.
func (g *Guard) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.CurrentIdentity(r).IsResolved() {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Guard) lookup(ctx context.Context, id int64) (*User, error) {
	ch := g.group.DoChan(strconv.FormatInt(id, 10), func() (interface{}, error) {
		// Other requests may be waiting on this call.
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		return g.users.Lookup(lookupCtx, id)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*User), nil
	}
}
