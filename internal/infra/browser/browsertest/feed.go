// Package browsertest provides a scripted in-memory browser.Session for
// exercising the harvest pipeline without a browser.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/LouYuanbo1/feedharvest/internal/domain/model"
	"github.com/LouYuanbo1/feedharvest/internal/infra/browser"
)

// Feed serves one marker set per scroll position: after n scrolls the
// visible markers are Rounds[min(n, len(Rounds)-1)]. Every marker resolves
// to a container whose HTML is ContainerHTML(index), unless Unresolved
// holds it back.
type Feed struct {
	mu sync.Mutex

	Rounds [][]int
	// Pending is the number of marker queries that come back empty before
	// the feed renders.
	Pending int
	// Empty makes the empty-feed sentinel appear once the feed renders.
	Empty bool
	// Unresolved maps an index to the number of scrolls before its
	// container mounts. Until then the marker has no container.
	Unresolved map[int]int

	NavigateErr error
	QueryErr    error
	ScrollErr   error
	Page        string

	Navigated   []string
	Scrolls     []float64
	MarkerCalls int
	HasCalls    int
}

var _ browser.Session = (*Feed)(nil)

func ContainerHTML(index int) string {
	return fmt.Sprintf(`<div class="feed-shared-update-v2" data-index="%d"><h2 class="visually-hidden">Feed post number %d</h2><p>post %d</p></div>`, index, index, index)
}

func (f *Feed) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Navigated = append(f.Navigated, url)
	return f.NavigateErr
}

func (f *Feed) Elements(ctx context.Context, selector string) ([]browser.Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MarkerCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.QueryErr != nil {
		return nil, f.QueryErr
	}
	if f.Pending > 0 {
		f.Pending--
		return nil, nil
	}
	if f.Empty || len(f.Rounds) == 0 {
		return nil, nil
	}
	round := f.Rounds[min(len(f.Scrolls), len(f.Rounds)-1)]
	out := make([]browser.Element, 0, len(round))
	for pos, idx := range round {
		out = append(out, &marker{
			index:    idx,
			box:      model.Rect{Y: float64(pos) * 100, Width: 1, Height: 1},
			detached: len(f.Scrolls) < f.Unresolved[idx],
		})
	}
	return out, nil
}

func (f *Feed) Has(ctx context.Context, selector string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.HasCalls++
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if f.QueryErr != nil {
		return false, f.QueryErr
	}
	return f.Empty && f.Pending == 0, nil
}

func (f *Feed) ScrollBy(ctx context.Context, dy float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Scrolls = append(f.Scrolls, dy)
	return f.ScrollErr
}

func (f *Feed) HTML(ctx context.Context) (string, error) {
	if f.Page == "" {
		return "", fmt.Errorf("no page")
	}
	return f.Page, nil
}

func (f *Feed) Close() error { return nil }

type marker struct {
	index    int
	box      model.Rect
	detached bool
}

func (m *marker) Text(ctx context.Context) (string, error) {
	return fmt.Sprintf("Feed post number %d", m.index), nil
}

func (m *marker) Box(ctx context.Context) (*model.Rect, error) {
	box := m.box
	return &box, nil
}

func (m *marker) Closest(ctx context.Context, selector string) (browser.Element, error) {
	if m.detached || !strings.Contains(selector, "feed-shared-update-v2") {
		return nil, nil
	}
	return &container{html: ContainerHTML(m.index)}, nil
}

func (m *marker) OuterHTML(ctx context.Context) (string, error) {
	return fmt.Sprintf(`<h2 class="visually-hidden">Feed post number %d</h2>`, m.index), nil
}

type container struct {
	html string
}

func (c *container) Text(ctx context.Context) (string, error)      { return "", nil }
func (c *container) Box(ctx context.Context) (*model.Rect, error)  { return &model.Rect{}, nil }
func (c *container) OuterHTML(ctx context.Context) (string, error) { return c.html, nil }
func (c *container) Closest(ctx context.Context, selector string) (browser.Element, error) {
	return nil, nil
}
