package browser

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/LouYuanbo1/feedharvest/internal/domain/model"
	"github.com/PuerkitoBio/goquery"
)

// StaticSession serves a saved document through the Session interface. It
// has no layout engine: an element is considered laid out unless it or an
// ancestor carries the hidden attribute or an inline display:none. A
// data-box="x,y,w,h" attribute overrides the default 1x1 geometry.
type StaticSession struct {
	doc     *goquery.Document
	ScrollY float64
}

func NewStaticSession(r io.Reader) (*StaticSession, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &StaticSession{doc: doc}, nil
}

func NewStaticSessionFromString(html string) (*StaticSession, error) {
	return NewStaticSession(strings.NewReader(html))
}

// Navigate is a no-op: the document is fixed at construction.
func (ss *StaticSession) Navigate(ctx context.Context, url string) error {
	return ctx.Err()
}

func (ss *StaticSession) Elements(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []Element
	ss.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, &staticElement{sel: s})
	})
	return out, nil
}

func (ss *StaticSession) Has(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return ss.doc.Find(selector).Length() > 0, nil
}

func (ss *StaticSession) ScrollBy(ctx context.Context, dy float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ss.ScrollY += dy
	return nil
}

func (ss *StaticSession) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return ss.doc.Html()
}

func (ss *StaticSession) Close() error {
	return nil
}

type staticElement struct {
	sel *goquery.Selection
}

func (se *staticElement) Text(ctx context.Context) (string, error) {
	return se.sel.Text(), nil
}

func (se *staticElement) Box(ctx context.Context) (*model.Rect, error) {
	for s := se.sel; s.Length() > 0; s = s.Parent() {
		if _, hidden := s.Attr("hidden"); hidden {
			return nil, nil
		}
		style, _ := s.Attr("style")
		if strings.Contains(strings.ReplaceAll(strings.ToLower(style), " ", ""), "display:none") {
			return nil, nil
		}
	}
	box, ok := se.sel.Attr("data-box")
	if !ok {
		return &model.Rect{Width: 1, Height: 1}, nil
	}
	return parseBox(box)
}

func (se *staticElement) Closest(ctx context.Context, selector string) (Element, error) {
	c := se.sel.Closest(selector)
	if c.Length() == 0 {
		return nil, nil
	}
	return &staticElement{sel: c}, nil
}

func (se *staticElement) OuterHTML(ctx context.Context) (string, error) {
	return goquery.OuterHtml(se.sel)
}

func parseBox(v string) (*model.Rect, error) {
	parts := strings.Split(v, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("data-box %q: want x,y,w,h", v)
	}
	var n [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("data-box %q: %w", v, err)
		}
		n[i] = f
	}
	return &model.Rect{X: n[0], Y: n[1], Width: n[2], Height: n[3]}, nil
}
