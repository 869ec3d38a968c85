package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/LouYuanbo1/feedharvest/internal/config"
	"github.com/LouYuanbo1/feedharvest/internal/domain/model"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

const boxJS = `() => {
	if (!this.isConnected || this.getClientRects().length === 0) return null;
	const r = this.getBoundingClientRect();
	return {x: r.x, y: r.y, width: r.width, height: r.height};
}`

type rodSession struct {
	browser     *rod.Browser
	page        *rod.Page
	ownsBrowser bool
}

// InitRodSession connects to cfg.Rod.ControlURL (or launches a browser with
// cfg.Rod.UserDataDir, which carries the logged-in profile) and opens a page.
func InitRodSession(cfg *config.Config) (Session, error) {
	browser, err := Connect(cfg)
	if err != nil {
		return nil, err
	}
	s, err := newRodSession(browser, cfg.Rod.Stealth)
	if err != nil {
		_ = browser.Close()
		return nil, err
	}
	s.ownsBrowser = true
	return s, nil
}

// NewRodSession opens a page on a browser owned by the caller.
func NewRodSession(browser *rod.Browser, useStealth bool) (Session, error) {
	return newRodSession(browser, useStealth)
}

func newRodSession(browser *rod.Browser, useStealth bool) (*rodSession, error) {
	var (
		page *rod.Page
		err  error
	)
	if useStealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	return &rodSession{browser: browser, page: page}, nil
}

func (rs *rodSession) Navigate(ctx context.Context, url string) error {
	page := rs.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return err
	}
	return page.WaitLoad()
}

func (rs *rodSession) Elements(ctx context.Context, selector string) ([]Element, error) {
	els, err := rs.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

func (rs *rodSession) Has(ctx context.Context, selector string) (bool, error) {
	has, _, err := rs.page.Context(ctx).Has(selector)
	return has, err
}

func (rs *rodSession) ScrollBy(ctx context.Context, dy float64) error {
	_, err := rs.page.Context(ctx).Eval(`(dy) => window.scrollBy(0, dy)`, dy)
	return err
}

func (rs *rodSession) HTML(ctx context.Context) (string, error) {
	return rs.page.Context(ctx).HTML()
}

func (rs *rodSession) Close() error {
	err := rs.page.Close()
	if rs.ownsBrowser {
		err = errors.Join(err, rs.browser.Close())
	}
	return err
}

type rodElement struct {
	el *rod.Element
}

func (re *rodElement) Text(ctx context.Context) (string, error) {
	res, err := re.el.Context(ctx).Eval(`() => this.textContent || ""`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (re *rodElement) Box(ctx context.Context) (*model.Rect, error) {
	res, err := re.el.Context(ctx).Eval(boxJS)
	if err != nil {
		return nil, err
	}
	if res.Value.Nil() {
		return nil, nil
	}
	return &model.Rect{
		X:      res.Value.Get("x").Num(),
		Y:      res.Value.Get("y").Num(),
		Width:  res.Value.Get("width").Num(),
		Height: res.Value.Get("height").Num(),
	}, nil
}

func (re *rodElement) Closest(ctx context.Context, selector string) (Element, error) {
	el, err := re.el.Context(ctx).ElementByJS(rod.Eval(`(sel) => this.closest(sel)`, selector))
	if err != nil {
		var notFound *rod.ElementNotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rodElement{el: el}, nil
}

func (re *rodElement) OuterHTML(ctx context.Context) (string, error) {
	return re.el.Context(ctx).HTML()
}
