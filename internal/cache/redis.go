// Package cache connects the optional Redis instance behind the auth throttles
// and the readiness check.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"devhabit/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// ErrDisabled is returned by Connect when no Redis address is configured.
var ErrDisabled = errors.New("redis disabled")

const pingTimeout = 5 * time.Second

// errorCounter feeds failed commands into the redis error counter. A miss
// (redis.Nil) is a normal answer and not counted.
type errorCounter struct{}

func (errorCounter) DialHook(next redis.DialHook) redis.DialHook { return next }

func (errorCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		countFailure(cmd.Name(), err)
		return err
	}
}

func (errorCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		countFailure("pipeline", err)
		return err
	}
}

func countFailure(command string, err error) {
	if err == nil || errors.Is(err, redis.Nil) {
		return
	}
	middleware.RedisErrors.WithLabelValues(command).Inc()
}

// options accepts a redis:// URL or a bare host:port.
func options(addr string) (*redis.Options, error) {
	if !strings.Contains(addr, "://") {
		return &redis.Options{Addr: addr}, nil
	}
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return opts, nil
}

// NewClient builds an instrumented client without contacting the server.
func NewClient(addr string) (*redis.Client, error) {
	opts, err := options(addr)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opts)
	c.AddHook(errorCounter{})
	return c, nil
}

// Connect builds a client and checks that the server answers.
// An empty address yields ErrDisabled.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, ErrDisabled
	}

	c, err := NewClient(addr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return c, nil
}
