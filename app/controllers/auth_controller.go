package controllers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/ctxsearch/backend/app/models"
	"github.com/ctxsearch/backend/internal/pkg/session"
	"github.com/ctxsearch/backend/internal/pkg/usercontext"
	"github.com/ctxsearch/backend/internal/pkg/utils"
)

// HandleAuthLogin redirects to the provider's consent screen.
func HandleAuthLogin(c *fiber.Ctx) error {
	return gothfiber.BeginAuthHandler(c)
}

// HandleAuthCallback completes the provider flow and logs the user in.
// The identity lives in the session only, there is no local user table.
func HandleAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "oauth_failed", fmt.Sprintf("OAuth failed: %v", err))
	}

	record := models.UserRecord{
		Email:   u.Email,
		Name:    firstNonEmpty(u.Name, u.NickName, u.Email, "User"),
		Picture: firstNonEmpty(u.AvatarURL, utils.GravatarURL(u.Email, 0)),
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "session_init_failed", "session init failed")
	}
	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserEmail, record.Email)
	sess.Set(usercontext.KeyUserName, record.Name)
	sess.Set(usercontext.KeyUserPicture, record.Picture)
	if err := sess.Save(); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "session_save_failed", "session save failed")
	}

	return c.JSON(record)
}

// HandleAuthMe returns the identity stored in the session. The auth gate
// runs in front of this handler, so the context user is always logged in.
func HandleAuthMe(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)
	return c.JSON(models.UserRecord{
		Email:   user.Email,
		Name:    user.Name,
		Picture: user.Picture,
	})
}

// HandleAuthLogout destroys the session. Logging out an anonymous caller
// is a no-op and answers the same way.
func HandleAuthLogout(c *fiber.Ctx) error {
	if store := session.GetSessionStore(); store != nil {
		sess, err := store.Get(c)
		if err == nil {
			if err := sess.Destroy(); err != nil {
				return jsonError(c, fiber.StatusInternalServerError, "logout_failed", "session destroy failed")
			}
		}
	}
	return c.JSON(fiber.Map{"ok": true})
}
