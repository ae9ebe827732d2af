package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// CleanupInterval is how often idle limiters are swept
	CleanupInterval = 5 * time.Minute
	// LimiterTTL is how long a workspace's limiter survives without requests
	LimiterTTL = 10 * time.Minute
)

// RateLimiter keeps one token bucket per workspace
type RateLimiter struct {
	limiters          map[int32]*limiterEntry
	mu                sync.Mutex
	requestsPerMinute int
	perSecond         rate.Limit
	burstSize         int
	stopCh            chan struct{}
	stopOnce          sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiterWithConfig creates a RateLimiter refilling requestsPerMinute
// tokens a minute, holding at most burstSize. Call Stop when done.
func NewRateLimiterWithConfig(requestsPerMinute int, burstSize int) *RateLimiter {
	rl := &RateLimiter{
		limiters:          make(map[int32]*limiterEntry),
		requestsPerMinute: requestsPerMinute,
		perSecond:         rate.Limit(float64(requestsPerMinute) / 60.0),
		burstSize:         burstSize,
		stopCh:            make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

func (r *RateLimiter) entry(workspaceID int32, now time.Time) *limiterEntry {
	e, ok := r.limiters[workspaceID]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(r.perSecond, r.burstSize)}
		r.limiters[workspaceID] = e
	}
	e.lastSeen = now
	return e
}

// Allow takes a token for workspaceID if one is available
func (r *RateLimiter) Allow(workspaceID int32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	return r.entry(workspaceID, now).limiter.AllowN(now, 1)
}

// GetState reports the whole tokens left for workspaceID and how long until
// the next token is available. Unknown workspaces have a full bucket.
func (r *RateLimiter) GetState(workspaceID int32) (remaining int, retryAfter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.limiters[workspaceID]
	if !ok {
		return r.burstSize, 0
	}

	tokens := e.limiter.TokensAt(time.Now())
	if tokens >= 1 {
		return int(tokens), 0
	}
	if r.perSecond <= 0 {
		return 0, time.Minute
	}
	wait := (1 - tokens) / float64(r.perSecond)
	return 0, time.Duration(wait * float64(time.Second))
}

func (r *RateLimiter) cleanup() {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.removeStale(time.Now())
		case <-r.stopCh:
			return
		}
	}
}

func (r *RateLimiter) removeStale(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for workspaceID, e := range r.limiters {
		if now.Sub(e.lastSeen) > LimiterTTL {
			delete(r.limiters, workspaceID)
			log.Debug().Int32("workspace_id", workspaceID).Msg("Cleaned up stale rate limiter")
		}
	}
}

// Stop ends the cleanup goroutine
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// RateLimitMiddleware limits requests per workspace.
// It must run after Authenticate; requests without a workspace pass through.
func RateLimitMiddleware(rl *RateLimiter) echo.MiddlewareFunc {
	limit := strconv.Itoa(rl.requestsPerMinute)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			workspaceID := GetWorkspaceID(c)
			if workspaceID == 0 {
				return next(c)
			}

			header := c.Response().Header()
			header.Set("X-RateLimit-Limit", limit)

			if !rl.Allow(workspaceID) {
				_, wait := rl.GetState(workspaceID)
				retryAfter := int(math.Ceil(wait.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}

				header.Set("X-RateLimit-Remaining", "0")
				header.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(wait).Unix(), 10))
				header.Set("Retry-After", strconv.Itoa(retryAfter))

				log.Warn().
					Int32("workspace_id", workspaceID).
					Int("retry_after", retryAfter).
					Msg("Rate limit exceeded")

				return rateLimitError(c, "Too many requests. Please retry after "+strconv.Itoa(retryAfter)+" seconds.")
			}

			remaining, wait := rl.GetState(workspaceID)
			header.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			header.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(wait).Unix(), 10))

			return next(c)
		}
	}
}
