package scraper

import (
	"context"
	"time"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryPolicy 是有界的重试策略，只作用于抓取阶段。
// 解析是确定性的，重试一个已经成功获取的响应体没有意义。
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
	Sleep      SleepFunc // nil 时使用 ContextSleep
}

// Delay returns the wait before the given retry attempt (1-based).
// The policy uses a fixed backoff.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return p.Backoff
}

// Attempts returns the maximum number of calls Do will make.
func (p RetryPolicy) Attempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// Do calls fn until it succeeds, the attempts are exhausted or ctx is done.
// It returns the number of calls made and the last error.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) (int, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = ContextSleep
	}

	var err error
	calls := 0
	for attempt := 0; attempt < p.Attempts(); attempt++ {
		if attempt > 0 {
			if serr := sleep(ctx, p.Delay(attempt)); serr != nil {
				return calls, err
			}
		}
		calls++
		if err = fn(ctx, attempt); err == nil {
			return calls, nil
		}
		if ctx.Err() != nil {
			return calls, err
		}
	}
	return calls, err
}

// ContextSleep blocks for d, returning early with ctx.Err() if ctx is done.
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
