// Package ratelimit caps the throughput of file copies with a token bucket
// shared by every reader of a pass.
package ratelimit

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"
)

// minBurst keeps reads at a useful size under very low limits
const minBurst = 64 * 1024

// Limiter controls the rate of data transfer across multiple readers
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a limiter for bytesPerSecond. The burst is one second
// worth of data, at least 64KB. A non-positive rate means no limit (nil).
func NewLimiter(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}

	burst := bytesPerSecond
	if burst < minBurst {
		burst = minBurst
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(bytesPerSecond), int(burst))}
}

// BytesPerSecond returns the configured rate
func (l *Limiter) BytesPerSecond() int64 {
	return int64(l.limiter.Limit())
}

// Burst returns the largest single read the limiter admits
func (l *Limiter) Burst() int {
	return l.limiter.Burst()
}

// Reader wraps an io.Reader with bandwidth limiting
type Reader struct {
	ctx     context.Context
	reader  io.Reader
	limiter *Limiter
}

// NewReader wraps reader; a nil limiter returns reader unchanged
func NewReader(ctx context.Context, reader io.Reader, limiter *Limiter) io.Reader {
	if limiter == nil {
		return reader
	}
	return &Reader{ctx: ctx, reader: reader, limiter: limiter}
}

// Read waits for enough tokens before reading, so cancellation of ctx
// interrupts a throttled copy.
func (r *Reader) Read(p []byte) (int, error) {
	if burst := r.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}
	if err := r.limiter.limiter.WaitN(r.ctx, len(p)); err != nil {
		if ctxErr := r.ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, err
	}
	return r.reader.Read(p)
}

// ParseRate parses a bandwidth such as "10M", "512KiB" or "1GB" into bytes
// per second. The empty string and "0" mean unlimited.
func ParseRate(s string) (int64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "/s")
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid bandwidth %q: %w", s, err)
	}
	return int64(n), nil
}

// FormatRate renders bytes per second for logs and summaries
func FormatRate(bytesPerSecond int64) string {
	if bytesPerSecond <= 0 {
		return "unlimited"
	}
	return humanize.IBytes(uint64(bytesPerSecond)) + "/s"
}
