package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	"github.com/sakashimaa/storefront/services/storefront/internal/auth"
	"github.com/sakashimaa/storefront/services/storefront/internal/cart"
	"github.com/sakashimaa/storefront/services/storefront/internal/session"
	"go.uber.org/zap"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "sid"

	coreKey = "cartCore"
)

// NewSessionMiddleware binds the request to its session's cart core. The session
// id comes from the X-Session-ID header or the sid cookie and is minted when absent.
func NewSessionMiddleware(manager *session.Manager, tokens *auth.TokenValidator, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Get(SessionHeader)
		if sid == "" {
			sid = c.Cookies(SessionCookie)
		}
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
		}

		ctx := mylogger.WithSession(c.UserContext(), sid)
		c.SetUserContext(ctx)

		c.Set(SessionHeader, sid)
		c.Cookie(&fiber.Cookie{
			Name:     SessionCookie,
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})

		authState, err := tokens.SessionFromHeader(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			mylogger.Warn(ctx, logger, "Rejected authorization header", zap.Error(err))

			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized: Invalid token",
			})
		}

		core := manager.Acquire(ctx, sid, authState)

		// Handlers mutate as the identity of this request, not whatever the session holds later.
		c.SetUserContext(cart.WithIdentity(ctx, authState))
		c.Locals(coreKey, core)
		return c.Next()
	}
}

func CoreFrom(c *fiber.Ctx) (*cart.Core, bool) {
	core, ok := c.Locals(coreKey).(*cart.Core)
	return core, ok && core != nil
}
