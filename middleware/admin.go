package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"os"
	"strings"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"

	"github.com/kidtube-labs/kidtube_api/shared"
)

// AdminMiddleware gates the parent-facing mutation routes behind a PIN.
// The PIN is stored hashed as "sha256$<hexdigest>"; the raw PIN travels in
// the X-Admin-Pin header. With no hash configured every admin call is
// rejected.
type AdminMiddleware struct {
	context.DefaultService

	pinHash string
}

const ADMIN_MIDDLEWARE_SVC = "admin"

const adminPinHeader = "X-Admin-Pin"

func (svc AdminMiddleware) Id() string {
	return ADMIN_MIDDLEWARE_SVC
}

func (svc *AdminMiddleware) Configure(ctx *context.Context) error {
	svc.pinHash = os.Getenv("ADMIN_PIN_HASH")
	return svc.DefaultService.Configure(ctx)
}

func (svc *AdminMiddleware) Start() error {
	return nil
}

func (svc *AdminMiddleware) RequireAdminPin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		pin := c.Get(adminPinHeader)
		if pin == "" || !svc.verifyPin(pin) {
			return shared.ResponseUnauthorized(c)
		}
		return c.Next()
	}
}

func (svc *AdminMiddleware) verifyPin(pin string) bool {
	digest, ok := strings.CutPrefix(svc.pinHash, "sha256$")
	if !ok || digest == "" {
		return false
	}

	sum := sha256.Sum256([]byte(pin))
	return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(strings.ToLower(digest))) == 1
}
