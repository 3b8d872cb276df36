// Package ratelimit throttles statements sent through a core.Conn.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/coregx/sqlforge/internal/core"
)

// Conn waits on a token bucket before every statement.
type Conn struct {
	next    core.Conn
	limiter *rate.Limiter
}

// New wraps next with a limiter allowing qps statements per second and bursts of
// up to burst. A qps of 0 or less disables limiting; a burst below 1 becomes 1.
func New(next core.Conn, qps float64, burst int) *Conn {
	limit := rate.Inf
	if qps > 0 {
		limit = rate.Limit(qps)
	}
	if burst < 1 {
		burst = 1
	}
	return &Conn{next: next, limiter: rate.NewLimiter(limit, burst)}
}

// Driver returns the wrapped Conn's driver.
func (c *Conn) Driver() string {
	return c.next.Driver()
}

// Query waits for a token, then delegates. If ctx ends first, its error is
// returned and the wrapped Conn is not called.
func (c *Conn) Query(ctx context.Context, sql string, args []interface{}) (*core.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		// Wait fails early when the deadline is too close to get a token.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, context.DeadlineExceeded
	}
	return c.next.Query(ctx, sql, args)
}
