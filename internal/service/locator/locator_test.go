package locator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/LouYuanbo1/feedharvest/internal/config"
	"github.com/LouYuanbo1/feedharvest/internal/domain/model"
	"github.com/LouYuanbo1/feedharvest/internal/infra/browser"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feed = `<html><body>
<div class="feed-shared-update-v2" id="u1"><h2 class="visually-hidden">Feed post number 1</h2></div>
<div class="artdeco-card" id="card2"><div role="article" id="art2"><h2 class="visually-hidden">Feed post number 2</h2></div></div>
<div role="article" id="art3"><div class="artdeco-card" id="card3"><h2 class="visually-hidden">Feed post number 3</h2></div></div>
<div class="feed-shared-update-v2" id="u4" hidden><h2 class="visually-hidden">Feed post number 4</h2></div>
<div class="artdeco-card" id="card5"><h2 class="visually-hidden">Feed post number 5</h2></div>
<section><h2 class="visually-hidden">Feed post number 6</h2></section>
<div class="feed-shared-update-v2" id="u7"><h2 class="visually-hidden">Sponsored</h2></div>
<div class="feed-shared-update-v2" id="u8"><h2 class="visually-hidden" data-box="0,900,0,0">Feed post number 8</h2></div>
<div class="feed-shared-update-v2" id="u9"><h2 class="visually-hidden" data-box="0,1000,300,0">Feed post number 9</h2></div>
</body></html>`

func newLocator(opts ...Option) *Locator {
	return New(config.Default().Harvest, zerolog.Nop(), opts...)
}

func staticSession(t *testing.T) *browser.StaticSession {
	t.Helper()
	ss, err := browser.NewStaticSessionFromString(feed)
	require.NoError(t, err)
	return ss
}

func indices(markers []Marker) []model.ItemIndex {
	out := make([]model.ItemIndex, 0, len(markers))
	for _, m := range markers {
		out = append(out, m.Index)
	}
	return out
}

func TestVisibleMarkers(t *testing.T) {
	l := newLocator()

	markers, err := l.VisibleMarkers(context.Background(), staticSession(t))
	require.NoError(t, err)

	// 4 is hidden, 8 and 9 have no area; the sponsored marker is visible
	// but carries no ordinal
	assert.Equal(t, []model.ItemIndex{1, 2, 3, 5, 6, 0}, indices(markers))
	assert.Equal(t, "Sponsored", markers[5].Text)
	for _, m := range markers {
		assert.NotNil(t, m.Box)
	}
}

func TestVisibleMarkersInjectedVisibility(t *testing.T) {
	// simulate virtualization: only odd items have mounted
	l := newLocator(WithVisibility(func(ctx context.Context, el browser.Element) (*model.Rect, bool) {
		text, _ := el.Text(ctx)
		idx, ok := model.ParseOrdinal(text)
		if !ok || idx%2 == 0 {
			return nil, false
		}
		return &model.Rect{Height: 10}, true
	}))

	markers, err := l.VisibleMarkers(context.Background(), staticSession(t))
	require.NoError(t, err)
	assert.Equal(t, []model.ItemIndex{1, 3, 5}, indices(markers))
}

func TestResolveContainerPriority(t *testing.T) {
	ctx := context.Background()
	l := newLocator()
	markers, err := l.VisibleMarkers(ctx, staticSession(t))
	require.NoError(t, err)
	byIndex := map[model.ItemIndex]Marker{}
	for _, m := range markers {
		byIndex[m.Index] = m
	}

	tests := []struct {
		index    model.ItemIndex
		strategy string
		id       string
	}{
		{1, "update", `id="u1"`},
		// matched only by the second strategy; the card would also match
		{2, "article", `id="art2"`},
		// the card is the nearer ancestor, but article has priority
		{3, "article", `id="art3"`},
		{5, "card", `id="card5"`},
	}
	for _, tt := range tests {
		c, ok := l.ResolveContainer(ctx, byIndex[tt.index])
		require.True(t, ok, "index %d", tt.index)
		assert.Equal(t, tt.strategy, c.Strategy, "index %d", tt.index)
		assert.True(t, strings.HasPrefix(c.HTML, "<div"), c.HTML)
		assert.Contains(t, c.HTML, tt.id)
		assert.Equal(t, tt.index, c.Index)
	}

	_, ok := l.ResolveContainer(ctx, byIndex[6])
	assert.False(t, ok, "no strategy matches a bare section")
}

func TestResolveVisibleMarkersDropsMisses(t *testing.T) {
	ctx := context.Background()
	l := newLocator()
	markers, err := l.VisibleMarkers(ctx, staticSession(t))
	require.NoError(t, err)

	var got []model.ItemIndex
	for _, m := range markers {
		if c, ok := l.ResolveContainer(ctx, m); ok {
			got = append(got, c.Index)
		}
	}
	assert.Equal(t, []model.ItemIndex{1, 2, 3, 5, 0}, got)
}

func TestHasGeometry(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		box  *model.Rect
		err  error
		want bool
	}{
		{"rendered", &model.Rect{Y: 40, Width: 300, Height: 20}, nil, true},
		{"no box", nil, nil, false},
		{"box error", nil, errors.New("node detached"), false},
		{"zero size", &model.Rect{}, nil, false},
		{"zero height", &model.Rect{Width: 300}, nil, false},
		{"zero width", &model.Rect{Height: 20}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box, ok := HasGeometry(ctx, &fakeElement{box: tt.box, boxErr: tt.err})
			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.Equal(t, tt.box, box)
			}
		})
	}
}

type fakeElement struct {
	box     *model.Rect
	boxErr  error
	closest map[string]browser.Element
	errs    map[string]error
	html    string
	htmlErr error
}

func (f *fakeElement) Text(context.Context) (string, error)      { return "", nil }
func (f *fakeElement) Box(context.Context) (*model.Rect, error)  { return f.box, f.boxErr }
func (f *fakeElement) OuterHTML(context.Context) (string, error) { return f.html, f.htmlErr }
func (f *fakeElement) Closest(_ context.Context, sel string) (browser.Element, error) {
	if err := f.errs[sel]; err != nil {
		return nil, err
	}
	if el, ok := f.closest[sel]; ok {
		return el, nil
	}
	return nil, nil
}

func TestResolveContainerStrategyErrorFallsThrough(t *testing.T) {
	strategies := config.DefaultStrategies()
	marker := &fakeElement{
		errs:    map[string]error{strategies[0].Selector: errors.New("stale node")},
		closest: map[string]browser.Element{strategies[2].Selector: &fakeElement{html: "<div>card</div>"}},
	}
	l := newLocator()

	c, ok := l.ResolveContainer(context.Background(), Marker{Index: 9, Element: marker})
	require.True(t, ok)
	assert.Equal(t, "card", c.Strategy)
	assert.Equal(t, "<div>card</div>", c.HTML)
}

func TestResolveContainerMatchedButUnreadable(t *testing.T) {
	strategies := config.DefaultStrategies()
	marker := &fakeElement{
		closest: map[string]browser.Element{
			strategies[1].Selector: &fakeElement{htmlErr: errors.New("detached")},
			strategies[2].Selector: &fakeElement{html: "<div>card</div>"},
		},
	}
	l := newLocator()

	_, ok := l.ResolveContainer(context.Background(), Marker{Index: 4, Element: marker})
	assert.False(t, ok, "later strategies are never tried after a match")
}
