package cache

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cache"
)

const defaultExpiration = time.Second

// WithExpiration caches GET responses keyed by method, path and raw query string
func WithExpiration(expiration time.Duration) fiber.Handler {
	if expiration <= 0 {
		expiration = defaultExpiration
	}

	return cache.New(cache.Config{
		Expiration: expiration,
		// ?a=1&b=2 and ?b=2&a=1 are cached separately
		KeyGenerator: func(c *fiber.Ctx) string {
			key := c.Method() + ":" + c.Path()
			if qs := string(c.Request().URI().QueryString()); qs != "" {
				key += "?" + qs
			}
			return key
		},
	})
}
