package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ctxsearch/backend/internal/pkg/session"
	"github.com/ctxsearch/backend/internal/pkg/usercontext"
)

// UserContextMiddleware resolves the session user once per request and
// exposes it through Locals for handlers and gates downstream.
func UserContextMiddleware(c *fiber.Ctx) error {
	// Avoid interfering with Goth/Fiber session handling on the OAuth
	// roundtrip. Goth uses its own fiber session store and relies on
	// per-request locals; touching our app session there causes
	// cross-store collisions.
	if p := c.Path(); strings.HasPrefix(p, "/v1/auth/") &&
		(strings.HasSuffix(p, "/login") || strings.HasSuffix(p, "/callback")) {
		return c.Next()
	}

	store := session.GetSessionStore()
	if store == nil {
		return anonymous(c)
	}

	sess, err := store.Get(c)
	if err != nil {
		// On error: treat as anonymous user
		return anonymous(c)
	}

	authed, _ := sess.Get(usercontext.AuthKey).(bool)
	if !authed {
		return anonymous(c)
	}

	email, _ := sess.Get(usercontext.KeyUserEmail).(string)
	name, _ := sess.Get(usercontext.KeyUserName).(string)
	picture, _ := sess.Get(usercontext.KeyUserPicture).(string)

	c.Locals("USER_CONTEXT", usercontext.UserContext{
		Email:      email,
		Name:       name,
		Picture:    picture,
		IsLoggedIn: true,
	})
	c.Locals(usercontext.KeyFromProtected, true)

	return c.Next()
}

func anonymous(c *fiber.Ctx) error {
	c.Locals("USER_CONTEXT", usercontext.UserContext{IsLoggedIn: false})
	c.Locals(usercontext.KeyFromProtected, false)
	return c.Next()
}
