package locator

import (
	"context"
	"fmt"

	"github.com/LouYuanbo1/feedharvest/internal/config"
	"github.com/LouYuanbo1/feedharvest/internal/domain/model"
	"github.com/LouYuanbo1/feedharvest/internal/infra/browser"
	"github.com/rs/zerolog"
)

// Marker 一个条目的序号标记节点
type Marker struct {
	// Index is zero when the text does not carry a valid ordinal.
	Index   model.ItemIndex
	Text    string
	Box     *model.Rect
	Element browser.Element
}

// VisibilityFunc decides whether a marker is rendered. Virtualized feeds can
// attach a marker before its content mounts, so only markers with geometry
// are tracked or extracted.
type VisibilityFunc func(ctx context.Context, el browser.Element) (*model.Rect, bool)

// HasGeometry is the default VisibilityFunc: the element must have a box
// with non-zero area.
func HasGeometry(ctx context.Context, el browser.Element) (*model.Rect, bool) {
	box, err := el.Box(ctx)
	if err != nil || box == nil || box.Empty() {
		return nil, false
	}
	return box, true
}

type Option func(*Locator)

func WithVisibility(v VisibilityFunc) Option {
	return func(l *Locator) { l.visible = v }
}

type Locator struct {
	markerSelector string
	strategies     []config.Strategy
	visible        VisibilityFunc
	log            zerolog.Logger
}

func New(cfg config.Harvest, log zerolog.Logger, opts ...Option) *Locator {
	l := &Locator{
		markerSelector: cfg.MarkerSelector,
		strategies:     cfg.Strategies,
		visible:        HasGeometry,
		log:            log.With().Str("component", "locator").Logger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// VisibleMarkers returns the rendered markers in DOM order (not index order).
func (l *Locator) VisibleMarkers(ctx context.Context, session browser.Session) ([]Marker, error) {
	els, err := session.Elements(ctx, l.markerSelector)
	if err != nil {
		return nil, fmt.Errorf("query markers: %w", err)
	}
	markers := make([]Marker, 0, len(els))
	for _, el := range els {
		box, ok := l.visible(ctx, el)
		if !ok {
			continue
		}
		m := Marker{Box: box, Element: el}
		text, err := el.Text(ctx)
		if err != nil {
			l.log.Debug().Err(err).Msg("read marker text")
		} else {
			m.Text = text
			m.Index, _ = model.ParseOrdinal(text)
		}
		markers = append(markers, m)
	}
	return markers, nil
}

// ResolveContainer tries the strategies in priority order and returns the
// first match. Once a strategy matches, later strategies are not consulted,
// even when reading the matched container fails.
func (l *Locator) ResolveContainer(ctx context.Context, m Marker) (model.Container, bool) {
	for _, s := range l.strategies {
		el, err := m.Element.Closest(ctx, s.Selector)
		if err != nil {
			l.log.Debug().Err(err).Str("strategy", s.Name).Msg("strategy failed")
			continue
		}
		if el == nil {
			continue
		}
		html, err := el.OuterHTML(ctx)
		if err != nil {
			l.log.Warn().Err(err).Str("strategy", s.Name).Int("index", int(m.Index)).Msg("read container")
			return model.Container{}, false
		}
		return model.Container{Index: m.Index, Strategy: s.Name, HTML: html}, true
	}
	l.log.Debug().Int("index", int(m.Index)).Msg("locator miss, item dropped")
	return model.Container{}, false
}
