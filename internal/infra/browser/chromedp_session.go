package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LouYuanbo1/feedharvest/internal/config"
	"github.com/LouYuanbo1/feedharvest/internal/domain/model"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// 页面内的元素注册表,Go 侧只持有下标;导航后注册表随 window 一起重置
const registry = "window.__feedharvest"

type chromedpSession struct {
	cfg           *config.Config
	allocCtxFuc   context.CancelFunc
	pageCtx       context.Context
	pageCtxFuc    context.CancelFunc
	timeoutCtxFuc context.CancelFunc
}

func InitChromedpSession(ctx context.Context, cfg *config.Config) Session {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Chromedp.Headless),
		chromedp.Flag("disable-blink-features", cfg.Chromedp.DisableBlinkFeatures),
		chromedp.Flag("incognito", cfg.Chromedp.Incognito),
		chromedp.Flag("disable-dev-shm-usage", cfg.Chromedp.DisableDevShmUsage),
		chromedp.Flag("no-sandbox", cfg.Chromedp.NoSandbox),
	)
	if cfg.Chromedp.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.Chromedp.UserDataDir))
	}
	if cfg.Chromedp.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.Chromedp.UserAgent))
	}
	timeoutCtx, cancelTimeout := context.WithTimeout(ctx, time.Duration(cfg.Chromedp.LifeTime)*time.Second)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(timeoutCtx, opts...)
	pageCtx, cancelPage := chromedp.NewContext(allocCtx)

	return &chromedpSession{
		cfg:           cfg,
		allocCtxFuc:   cancelAlloc,
		pageCtx:       pageCtx,
		pageCtxFuc:    cancelPage,
		timeoutCtxFuc: cancelTimeout,
	}
}

// run executes actions on the page context; ctx only gates the call since
// chromedp binds its target to pageCtx.
func (cs *chromedpSession) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(cs.pageCtx, actions...)
}

func (cs *chromedpSession) eval(ctx context.Context, expr string, res any) error {
	return cs.run(ctx, chromedp.Evaluate(expr, res))
}

func (cs *chromedpSession) Navigate(ctx context.Context, url string) error {
	return cs.run(ctx,
		network.Enable(),
		emulation.SetDeviceMetricsOverride(int64(cs.cfg.Chromedp.WindowWidth), int64(cs.cfg.Chromedp.WindowHeight), 1, false),
		chromedp.Navigate(url),
	)
}

func (cs *chromedpSession) Elements(ctx context.Context, selector string) ([]Element, error) {
	expr := fmt.Sprintf(`(() => {
		const reg = %s || (%s = []);
		return Array.from(document.querySelectorAll(%s)).map(el => reg.push(el) - 1);
	})()`, registry, registry, jsString(selector))
	var ids []int
	if err := cs.eval(ctx, expr, &ids); err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(ids))
	for _, id := range ids {
		out = append(out, &chromedpElement{session: cs, id: id})
	}
	return out, nil
}

func (cs *chromedpSession) Has(ctx context.Context, selector string) (bool, error) {
	var has bool
	err := cs.eval(ctx, fmt.Sprintf(`document.querySelector(%s) !== null`, jsString(selector)), &has)
	return has, err
}

func (cs *chromedpSession) ScrollBy(ctx context.Context, dy float64) error {
	var ok bool
	return cs.eval(ctx, fmt.Sprintf(`(window.scrollBy(0, %f), true)`, dy), &ok)
}

func (cs *chromedpSession) HTML(ctx context.Context) (string, error) {
	var html string
	err := cs.eval(ctx, `document.documentElement.outerHTML`, &html)
	return html, err
}

func (cs *chromedpSession) Close() error {
	cs.pageCtxFuc()
	cs.allocCtxFuc()
	cs.timeoutCtxFuc()
	return nil
}

type chromedpElement struct {
	session *chromedpSession
	id      int
}

func (ce *chromedpElement) ref() string {
	return fmt.Sprintf("%s[%d]", registry, ce.id)
}

func (ce *chromedpElement) Text(ctx context.Context) (string, error) {
	var text string
	err := ce.session.eval(ctx, fmt.Sprintf(`%s.textContent || ""`, ce.ref()), &text)
	return text, err
}

func (ce *chromedpElement) Box(ctx context.Context) (*model.Rect, error) {
	var res struct {
		OK bool `json:"ok"`
		model.Rect
	}
	expr := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el.isConnected || el.getClientRects().length === 0) return {ok: false};
		const r = el.getBoundingClientRect();
		return {ok: true, x: r.x, y: r.y, width: r.width, height: r.height};
	})()`, ce.ref())
	if err := ce.session.eval(ctx, expr, &res); err != nil {
		return nil, err
	}
	if !res.OK {
		return nil, nil
	}
	rect := res.Rect
	return &rect, nil
}

func (ce *chromedpElement) Closest(ctx context.Context, selector string) (Element, error) {
	expr := fmt.Sprintf(`(() => {
		const c = %s.closest(%s);
		return c ? %s.push(c) - 1 : -1;
	})()`, ce.ref(), jsString(selector), registry)
	var id int
	if err := ce.session.eval(ctx, expr, &id); err != nil {
		return nil, err
	}
	if id < 0 {
		return nil, nil
	}
	return &chromedpElement{session: ce.session, id: id}, nil
}

func (ce *chromedpElement) OuterHTML(ctx context.Context) (string, error) {
	var html string
	err := ce.session.eval(ctx, fmt.Sprintf(`%s.outerHTML`, ce.ref()), &html)
	return html, err
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
