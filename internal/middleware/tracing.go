package middleware

import (
	"errors"
	"fmt"
	"strconv"

	"devhabit/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// routeIDs maps path parameters onto the span attributes naming the record a
// request touched. goalId and userId are numeric, resource ids are UUIDs.
var routeIDs = []struct {
	param   string
	key     attribute.Key
	numeric bool
}{
	{"goalId", observability.AttrGoalID, true},
	{"resourceId", observability.AttrResourceID, false},
	{"userId", observability.AttrTargetUserID, true},
}

// headerCarrier lets the W3C propagator read the inbound fiber headers.
type headerCarrier struct{ c *fiber.Ctx }

func (h headerCarrier) Get(key string) string { return h.c.Get(key) }

func (h headerCarrier) Set(key, value string) { h.c.Request().Header.Set(key, value) }

func (h headerCarrier) Keys() []string {
	headers := h.c.GetReqHeaders()
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	return keys
}

// TracingMiddleware opens one server span per request. The span is renamed to
// the matched route pattern once routing is done, and tagged with the goal,
// resource and authenticated user the request resolved to.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), headerCarrier{c})
		ctx, span := observability.StartRequestSpan(ctx, c.Method()+" "+c.Path(),
			attribute.String("http.request.method", c.Method()),
			attribute.String("url.path", c.Path()),
			attribute.String("client.address", c.IP()),
			attribute.String("user_agent.original", c.Get(fiber.HeaderUserAgent)),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		c.Set("X-Trace-ID", traceID)
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			span.SetAttributes(attribute.String("http.request.id", rid))
		}
		c.SetUserContext(ctx)

		err := c.Next()

		route := c.Route().Path
		span.SetName(c.Method() + " " + route)
		span.SetAttributes(attribute.String("http.route", route))
		for _, id := range routeIDs {
			raw := c.Params(id.param)
			if raw == "" {
				continue
			}
			if !id.numeric {
				span.SetAttributes(id.key.String(raw))
			} else if n, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
				span.SetAttributes(id.key.Int64(n))
			}
		}
		if uid, ok := c.Locals("userID").(uint); ok {
			span.SetAttributes(observability.AttrUserID.Int64(int64(uid)))
		}

		// Errors are rendered by the app ErrorHandler after this returns.
		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		switch {
		case err != nil && status >= fiber.StatusInternalServerError:
			observability.FailSpan(span, err)
		case status >= fiber.StatusInternalServerError:
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}
		return err
	}
}
