// Package middleware holds the HTTP plumbing shared by every route: request
// logging, tracing, Prometheus collectors and the auth throttles.
package middleware

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logger is the process-wide structured logger.
var Logger = NewLogger(os.Stdout, os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))

// requestInfo identifies the request a log record was emitted for.
type requestInfo struct {
	requestID string
	traceID   string
	userID    uint
}

type requestInfoKey struct{}

func infoFrom(ctx context.Context) requestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(requestInfo)
	return info
}

// requestHandler stamps records logged with a request context with the
// request, trace and user ids.
type requestHandler struct {
	slog.Handler
}

func (h requestHandler) Handle(ctx context.Context, r slog.Record) error {
	info := infoFrom(ctx)
	if info.requestID != "" {
		r.AddAttrs(slog.String("request_id", info.requestID))
	}
	if info.traceID != "" {
		r.AddAttrs(slog.String("trace_id", info.traceID))
	}
	if info.userID != 0 {
		r.AddAttrs(slog.Uint64("user_id", uint64(info.userID)))
	}
	return h.Handler.Handle(ctx, r)
}

func (h requestHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return requestHandler{h.Handler.WithAttrs(attrs)}
}

func (h requestHandler) WithGroup(name string) slog.Handler {
	return requestHandler{h.Handler.WithGroup(name)}
}

// NewLogger writes JSON in production and logfmt text elsewhere.
// LOG_LEVEL accepts debug, info, warn or error.
func NewLogger(w io.Writer, env, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler = slog.NewTextHandler(w, opts)
	if env == "production" || env == "prod" {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(requestHandler{h})
}

// WithUserID returns a copy of ctx whose log records carry the authenticated user.
func WithUserID(ctx context.Context, userID uint) context.Context {
	info := infoFrom(ctx)
	info.userID = userID
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// ContextMiddleware copies the request and trace ids from fiber locals into the
// user context so service code logging with that context is correlated.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		info := infoFrom(c.UserContext())
		info.requestID, _ = c.Locals("requestid").(string)
		info.traceID, _ = c.Locals("traceID").(string)
		c.SetUserContext(context.WithValue(c.UserContext(), requestInfoKey{}, info))
		return c.Next()
	}
}

// quietRoutes are polled by orchestrators and scrapers; successful hits log at debug.
var quietRoutes = map[string]bool{
	"/health/live":  true,
	"/health/ready": true,
	"/metrics":      true,
}

// StructuredLogger logs one record per request at a level following the status:
// server errors at error, client errors at warn.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		lvl := slog.LevelInfo
		switch {
		case status >= fiber.StatusInternalServerError:
			lvl = slog.LevelError
		case status >= fiber.StatusBadRequest:
			lvl = slog.LevelWarn
		case quietRoutes[c.Path()]:
			lvl = slog.LevelDebug
		}

		attrs := []slog.Attr{
			slog.String("method", c.Method()),
			slog.String("route", c.Route().Path),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes", len(c.Response().Body())),
			slog.String("ip", c.IP()),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		Logger.LogAttrs(c.UserContext(), lvl, "request", attrs...)
		return err
	}
}
