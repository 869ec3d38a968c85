package navigator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LouYuanbo1/feedharvest/internal/config"
	"github.com/LouYuanbo1/feedharvest/internal/domain/model"
	"github.com/LouYuanbo1/feedharvest/internal/infra/browser"
	"github.com/LouYuanbo1/feedharvest/internal/service/locator"
	"github.com/LouYuanbo1/feedharvest/internal/service/poll"
	"github.com/rs/zerolog"
)

// Ready 页面加载完成后的状态
type Ready struct {
	// HasItems is false when the feed rendered its empty state.
	HasItems bool
}

type Navigator struct {
	locator       *locator.Locator
	poller        *poll.Poller
	retries       int
	delay         time.Duration
	emptySelector string
	log           zerolog.Logger
}

func New(cfg config.Harvest, loc *locator.Locator, poller *poll.Poller, log zerolog.Logger) *Navigator {
	return &Navigator{
		locator:       loc,
		poller:        poller,
		retries:       cfg.NavRetries,
		delay:         cfg.NavDelay,
		emptySelector: cfg.EmptyFeedSelector,
		log:           log.With().Str("component", "navigator").Logger(),
	}
}

// Load opens url and waits until the feed shows either a visible marker or
// the empty-feed sentinel. Visible markers win when both are present.
func (n *Navigator) Load(ctx context.Context, session browser.Session, url string) (Ready, error) {
	log := n.log.With().Str("url", url).Logger()
	if err := session.Navigate(ctx, url); err != nil {
		return Ready{}, fmt.Errorf("%w: %s: %w", model.ErrNavigationFailure, url, err)
	}

	var ready Ready
	loaded := func(ctx context.Context, attempt int) (bool, error) {
		markers, markerErr := n.locator.VisibleMarkers(ctx, session)
		if markerErr == nil && len(markers) > 0 {
			ready.HasItems = true
			return true, nil
		}
		if n.emptySelector != "" {
			empty, err := session.Has(ctx, n.emptySelector)
			if err != nil {
				return false, errors.Join(markerErr, err)
			}
			if empty {
				return true, nil
			}
		}
		return false, markerErr
	}

	p := *n.poller
	p.OnError = func(attempt int, err error) {
		log.Debug().Err(err).Int("attempt", attempt).Msg("feed check failed")
	}
	res := p.Until(ctx, loaded, n.retries, n.delay)
	if !res.Done {
		log.Warn().Int("attempts", res.Attempts).Int("errors", res.Errors).Msg("feed did not load")
		return Ready{}, fmt.Errorf("%w: %s after %d attempts", model.ErrLoadTimeout, url, res.Attempts)
	}
	log.Info().Bool("has_items", ready.HasItems).Int("attempts", res.Attempts).Msg("feed ready")
	return ready, nil
}
