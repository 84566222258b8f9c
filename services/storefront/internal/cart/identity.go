package cart

import (
	"context"
	"fmt"

	"github.com/sakashimaa/storefront/services/storefront/internal/domain"
)

type identityKey struct{}

// WithIdentity pins the auth state a request was made under. Mutations called
// with the returned context fail with domain.ErrSessionChanged once the core has
// moved to another identity.
func WithIdentity(ctx context.Context, s domain.Session) context.Context {
	return context.WithValue(ctx, identityKey{}, s)
}

func identityFrom(ctx context.Context) (domain.Session, bool) {
	s, ok := ctx.Value(identityKey{}).(domain.Session)
	return s, ok
}

func (c *Core) checkIdentityLocked(ctx context.Context) error {
	want, ok := identityFrom(ctx)
	if !ok || c.session.SameIdentity(want) {
		return nil
	}

	return fmt.Errorf("%w: request made as %q, session is %q", domain.ErrSessionChanged, describe(want), describe(c.session))
}

func describe(s domain.Session) string {
	if !s.IsAuthenticated {
		return "anonymous"
	}
	return "user " + s.UserID
}
