// Package poll is the bounded retry primitive shared by the feed navigator
// and the convergence engine. Budgets are counted in attempts, never in
// wall-clock time.
package poll

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Predicate reports whether the awaited condition holds. An error does not
// stop polling; it only consumes the attempt.
type Predicate func(ctx context.Context, attempt int) (bool, error)

// Sleeper waits between attempts. Tests swap it for a recorder.
type Sleeper func(d time.Duration)

type Result struct {
	Done     bool
	Attempts int
	Errors   int
	LastErr  error
}

type Poller struct {
	Sleep Sleeper
	// OnError is called for every failed attempt.
	OnError func(attempt int, err error)
}

func New() *Poller {
	return &Poller{Sleep: time.Sleep}
}

var errNotYet = errors.New("condition not met")

// Until evaluates pred up to budget times, sleeping delay between attempts
// (not after the last one). It stops early on the first true result. Once
// ctx is cancelled the remaining attempts still run, back to back.
func (p *Poller) Until(ctx context.Context, pred Predicate, budget int, delay time.Duration) Result {
	var res Result
	if budget <= 0 {
		return res
	}
	op := func() error {
		res.Attempts++
		ok, err := pred(ctx, res.Attempts)
		if err != nil {
			res.Errors++
			res.LastErr = err
			if p.OnError != nil {
				p.OnError(res.Attempts, err)
			}
			return err
		}
		if !ok {
			return errNotYet
		}
		res.Done = true
		return nil
	}
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(budget-1))
	_ = backoff.RetryNotifyWithTimer(op, b, nil, p.timer(ctx))
	return res
}

// Wait applies a fixed-duration pause through the poller's sleeper. It
// returns at once when ctx is already cancelled.
func (p *Poller) Wait(ctx context.Context, d time.Duration) {
	p.timer(ctx).Start(d)
}

func (p *Poller) timer(ctx context.Context) *sleepTimer {
	return &sleepTimer{ctx: ctx, sleep: p.Sleep, c: make(chan time.Time, 1)}
}

// sleepTimer is a backoff.Timer that blocks in Start through the Sleeper
// and then fires immediately, so injected sleepers see every wait.
type sleepTimer struct {
	ctx   context.Context
	sleep Sleeper
	c     chan time.Time
}

var _ backoff.Timer = (*sleepTimer)(nil)

func (t *sleepTimer) Start(d time.Duration) {
	if d > 0 && t.sleep != nil && t.ctx.Err() == nil {
		t.sleep(d)
	}
	select {
	case t.c <- time.Time{}:
	default:
	}
}

func (t *sleepTimer) Stop() {}

func (t *sleepTimer) C() <-chan time.Time { return t.c }
