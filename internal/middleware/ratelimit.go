package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"time"

	"devhabit/internal/models"
	"devhabit/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "devhabit:throttle:"

var errNoStore = errors.New("throttle store not configured")

// KeyFunc names the subject a Limit counts against. An empty subject skips the limit.
type KeyFunc func(c *fiber.Ctx) string

// ByIP counts attempts per client address.
func ByIP(c *fiber.Ctx) string {
	return "ip:" + c.IP()
}

// ByEmail counts attempts per account, whatever address they come from. The
// email is read from the JSON body, normalized the way users are stored and
// hashed so addresses never appear in Redis keys.
func ByEmail(c *fiber.Ctx) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return ""
	}
	email := validation.NormalizeEmail(body.Email)
	if email == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(email))
	return "email:" + hex.EncodeToString(sum[:12])
}

// Limit is one fixed window: at most Max attempts per subject per Window.
type Limit struct {
	Name   string
	Max    int
	Window time.Duration
	Key    KeyFunc
	// FailClosed answers 503 instead of letting requests through when Redis is down.
	FailClosed bool
}

// Throttle enforces Limits on the auth endpoints with counters in Redis.
type Throttle struct {
	rdb    *redis.Client
	bypass bool
}

// NewThrottle returns a Throttle over rdb. Development and test environments
// are never throttled.
func NewThrottle(rdb *redis.Client, env string) *Throttle {
	return &Throttle{
		rdb:    rdb,
		bypass: env == "" || env == "development" || env == "test",
	}
}

// Hit counts one attempt by subject against l and reports how long the caller
// must wait when the window is already full.
func (t *Throttle) Hit(ctx context.Context, l Limit, subject string) (allowed bool, retryAfter time.Duration, err error) {
	if t.rdb == nil {
		return false, 0, errNoStore
	}

	key := keyPrefix + l.Name + ":" + subject
	n, err := t.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if n == 1 {
		if err := t.rdb.Expire(ctx, key, l.Window).Err(); err != nil {
			return false, 0, err
		}
	}
	if n <= int64(l.Max) {
		return true, 0, nil
	}

	ttl, err := t.rdb.PTTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = l.Window
	}
	return false, ttl, nil
}

// Middleware applies limits in order. The first full window answers 429 with
// Retry-After in whole seconds.
func (t *Throttle) Middleware(limits ...Limit) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if t.bypass {
			return c.Next()
		}

		for _, l := range limits {
			subject := l.Key(c)
			if subject == "" {
				continue
			}

			allowed, retryAfter, err := t.Hit(c.UserContext(), l, subject)
			if err != nil {
				Logger.WarnContext(c.UserContext(), "throttle check failed",
					slog.String("limit", l.Name),
					slog.Bool("fail_closed", l.FailClosed),
					slog.String("error", err.Error()),
				)
				if l.FailClosed {
					return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
						Error: "Service temporarily unavailable",
						Code:  models.CodeInternal,
					})
				}
				continue
			}
			if !allowed {
				RateLimitRejections.WithLabelValues(l.Name).Inc()
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
					Error: "Too many attempts, please try again later.",
					Code:  models.CodeRateLimited,
				})
			}
		}
		return c.Next()
	}
}
