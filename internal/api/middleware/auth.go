package middleware

import (
	"github.com/ChitterSync/SynisterChat/internal/auth"
	"github.com/ChitterSync/SynisterChat/session"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const ownerKey = "owner"

// OwnerVerifier extracts the owner identity from a token.
type OwnerVerifier interface {
	Owner(token string) (string, error)
}

// AuthConfig holds the auth middleware configuration
type AuthConfig struct {
	Verifier OwnerVerifier
	// Accounts is consulted only when AutoProvision is set.
	Accounts      session.Accounts
	AutoProvision bool
	// CookieName is checked when no bearer token is sent (web clients).
	CookieName string
	Log        logrus.FieldLogger
}

// AuthRequired resolves the request owner from a bearer token or cookie and
// rejects unauthenticated requests. With AutoProvision, an owner seen for
// the first time is provisioned so its sessions can be stored.
func AuthRequired(config AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := auth.ExtractTokenFromBearer(c.Get(fiber.HeaderAuthorization))
		if token == "" && config.CookieName != "" {
			token = c.Cookies(config.CookieName)
		}

		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		owner, err := config.Verifier.Owner(token)
		if err != nil {
			if config.Log != nil {
				config.Log.WithError(err).Debug("rejected token")
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		if config.AutoProvision && config.Accounts != nil {
			ok, err := config.Accounts.Exists(c.UserContext(), owner)
			if err != nil {
				return err
			}
			if !ok {
				if err := config.Accounts.Provision(c.UserContext(), owner); err != nil {
					return err
				}
				if config.Log != nil {
					config.Log.WithField("owner", owner).Info("provisioned owner")
				}
			}
		}

		c.Locals(ownerKey, owner)
		return c.Next()
	}
}

// GetOwner returns the authenticated owner, or "" outside AuthRequired.
func GetOwner(c *fiber.Ctx) string {
	if owner, ok := c.Locals(ownerKey).(string); ok {
		return owner
	}
	return ""
}
