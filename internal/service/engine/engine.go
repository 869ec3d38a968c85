// Package engine drives an infinite-scroll feed until enough items have been
// discovered, the feed stops producing new items, or the scroll budget runs
// out. Every budget is counted in attempts; the engine never looks at the
// wall clock.
package engine

import (
	"context"

	"github.com/LouYuanbo1/feedharvest/internal/config"
	"github.com/LouYuanbo1/feedharvest/internal/domain/model"
	"github.com/LouYuanbo1/feedharvest/internal/infra/browser"
	"github.com/LouYuanbo1/feedharvest/internal/service/locator"
	"github.com/LouYuanbo1/feedharvest/internal/service/poll"
	"github.com/rs/zerolog"
)

type Result struct {
	State model.FeedState
	// Containers in discovery order, at most one per index.
	Containers []model.Container
}

type Engine struct {
	cfg     config.Harvest
	locator *locator.Locator
	poller  *poll.Poller
	log     zerolog.Logger
}

func New(cfg config.Harvest, loc *locator.Locator, poller *poll.Poller, log zerolog.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		locator: loc,
		poller:  poller,
		log:     log.With().Str("component", "engine").Logger(),
	}
}

// run 单次运行的可变状态
type run struct {
	state      model.FeedState
	seen       map[model.ItemIndex]struct{}
	containers []model.Container
	last       *locator.Marker
}

// Run converges on session, which must already show a loaded feed. It
// always returns with exactly one stop reason set. A cancelled ctx is not
// an exit path of its own: failing queries keep consuming the budgets.
func (e *Engine) Run(ctx context.Context, session browser.Session) Result {
	r := &run{seen: make(map[model.ItemIndex]struct{})}
	p := *e.poller
	p.OnError = func(attempt int, err error) {
		e.log.Debug().Err(err).Int("round", r.state.ScrollRound).Int("attempt", attempt).Msg("observe failed")
	}

	for {
		productive := e.scan(ctx, &p, session, r)
		if r.state.StopReason != model.StopNone {
			break
		}
		// the scan before the first scroll is not a scroll round
		if !productive && r.state.ScrollRound > 0 {
			r.state.StaleStreak++
		}
		if r.state.StaleStreak >= e.cfg.StaleRounds {
			r.state.StopReason = model.StopStaleExhausted
			break
		}
		if r.state.ScrollRound == e.cfg.MaxScrollRounds {
			r.state.StopReason = model.StopScrollBudgetExhausted
			break
		}

		dy := e.scrollDistance(r, productive)
		if err := session.ScrollBy(ctx, dy); err != nil {
			e.log.Warn().Err(err).Int("round", r.state.ScrollRound).Msg("scroll failed")
		}
		r.state.ScrollRound++
		e.log.Debug().Float64("dy", dy).Stringer("state", r.state).Msg("scrolled")
		p.Wait(ctx, e.cfg.ScrollSettle)
	}

	e.log.Info().
		Str("stop", r.state.StopReason.String()).
		Int("highest", int(r.state.HighestIndexSeen)).
		Int("rounds", r.state.ScrollRound).
		Int("containers", len(r.containers)).
		Msg("feed converged")
	return Result{State: r.state, Containers: r.containers}
}

// scan polls the current scroll position. Each new maximum resets the stale
// streak and restarts the poll with a fresh budget; the phase ends when a
// poll exhausts its budget or the target is reached. It reports whether any
// new maximum was seen.
func (e *Engine) scan(ctx context.Context, p *poll.Poller, session browser.Session, r *run) bool {
	productive := false
	observe := func(ctx context.Context, attempt int) (bool, error) {
		markers, err := e.locator.VisibleMarkers(ctx, session)
		if err != nil {
			return false, err
		}
		return e.observe(ctx, r, markers), nil
	}
	for {
		res := p.Until(ctx, observe, e.cfg.ScanChecks, e.cfg.ScanDelay)
		if r.state.StopReason != model.StopNone {
			return true
		}
		if !res.Done {
			return productive
		}
		productive = true
		r.state.StaleStreak = 0
	}
}

// observe records one marker set and reports whether it raised the
// watermark. Reaching the target sets the stop reason and also reports true
// so that the poll ends at once.
func (e *Engine) observe(ctx context.Context, r *run, markers []locator.Marker) bool {
	r.last = nil
	if len(markers) > 0 {
		r.last = &markers[len(markers)-1]
	}
	raised := false
	for _, m := range markers {
		if m.Index <= 0 {
			continue
		}
		if _, ok := r.seen[m.Index]; !ok {
			if c, ok := e.locator.ResolveContainer(ctx, m); ok {
				r.seen[m.Index] = struct{}{}
				r.containers = append(r.containers, c)
			}
		}
		if m.Index > r.state.HighestIndexSeen {
			r.state.HighestIndexSeen = m.Index
			raised = true
		}
	}
	if raised {
		e.log.Debug().Int("highest", int(r.state.HighestIndexSeen)).Int("round", r.state.ScrollRound).Msg("new maximum")
	}
	if int(r.state.HighestIndexSeen) >= e.cfg.Target {
		r.state.StopReason = model.StopTargetReached
		return true
	}
	return raised
}

// scrollDistance jumps just past the last visible marker after a productive
// phase; after a stale one it falls back to a step that grows each round.
func (e *Engine) scrollDistance(r *run, productive bool) float64 {
	if (productive || r.state.ScrollRound == 0) && r.last != nil && r.last.Box != nil {
		return r.last.Box.Bottom() + e.cfg.ScrollMargin
	}
	return e.cfg.ScrollBase + float64(r.state.ScrollRound)*e.cfg.ScrollIncrement
}
