package browser

import (
	"context"

	"github.com/LouYuanbo1/feedharvest/internal/domain/model"
)

// Session 已认证、可导航的浏览器会话,由一次采集独占使用,不可共享
type Session interface {
	Navigate(ctx context.Context, url string) error
	// Elements returns the current matches of selector in DOM order.
	Elements(ctx context.Context, selector string) ([]Element, error)
	Has(ctx context.Context, selector string) (bool, error)
	ScrollBy(ctx context.Context, dy float64) error
	// HTML returns the whole rendered document.
	HTML(ctx context.Context) (string, error)
	Close() error
}

// Element is an ephemeral handle on a DOM node. It can go stale as soon as
// the feed virtualizes the node away.
type Element interface {
	Text(ctx context.Context) (string, error)
	// Box returns nil when the node has no rendered geometry (detached or
	// not laid out).
	Box(ctx context.Context) (*model.Rect, error)
	// Closest returns the nearest ancestor-or-self matching selector, or nil.
	Closest(ctx context.Context, selector string) (Element, error)
	OuterHTML(ctx context.Context) (string, error)
}
