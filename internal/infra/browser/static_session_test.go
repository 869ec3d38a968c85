package browser

import (
	"context"
	"testing"

	"github.com/LouYuanbo1/feedharvest/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<!DOCTYPE html>
<html><head><title>feed</title></head><body>
<div class="feed">
  <div class="feed-shared-update-v2" id="a"><h2 class="visually-hidden">Feed post number 1</h2><p>one</p></div>
  <div class="feed-shared-update-v2" id="b" style="display: none"><h2 class="visually-hidden">Feed post number 2</h2></div>
  <div hidden><div id="c"><h2 class="visually-hidden">Feed post number 3</h2></div></div>
  <h2 class="visually-hidden" data-box="0,120,1,1">Feed post number 4</h2>
</div>
</body></html>`

func TestStaticSessionElements(t *testing.T) {
	ctx := context.Background()
	ss, err := NewStaticSessionFromString(page)
	require.NoError(t, err)

	els, err := ss.Elements(ctx, "h2.visually-hidden")
	require.NoError(t, err)
	require.Len(t, els, 4)

	text, err := els[0].Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Feed post number 1", text)

	box, err := els[0].Box(ctx)
	require.NoError(t, err)
	assert.Equal(t, &model.Rect{Width: 1, Height: 1}, box)

	box, err = els[1].Box(ctx)
	require.NoError(t, err)
	assert.Nil(t, box, "display:none ancestor")

	box, err = els[2].Box(ctx)
	require.NoError(t, err)
	assert.Nil(t, box, "hidden ancestor")

	box, err = els[3].Box(ctx)
	require.NoError(t, err)
	assert.Equal(t, 121.0, box.Bottom())
}

func TestStaticSessionClosest(t *testing.T) {
	ctx := context.Background()
	ss, err := NewStaticSessionFromString(page)
	require.NoError(t, err)

	els, err := ss.Elements(ctx, "h2.visually-hidden")
	require.NoError(t, err)

	c, err := els[0].Closest(ctx, "div.feed-shared-update-v2")
	require.NoError(t, err)
	require.NotNil(t, c)
	html, err := c.OuterHTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, `id="a"`)
	assert.Contains(t, html, "<p>one</p>")

	c, err = els[3].Closest(ctx, "div.feed-shared-update-v2")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestStaticSessionDocument(t *testing.T) {
	ctx := context.Background()
	ss, err := NewStaticSessionFromString(page)
	require.NoError(t, err)

	has, err := ss.Has(ctx, "div.feed")
	require.NoError(t, err)
	assert.True(t, has)
	has, err = ss.Has(ctx, ".artdeco-empty-state")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, ss.ScrollBy(ctx, 300))
	require.NoError(t, ss.ScrollBy(ctx, 200))
	assert.Equal(t, 500.0, ss.ScrollY)

	html, err := ss.HTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, "Feed post number 4")
}

func TestParseBox(t *testing.T) {
	r, err := parseBox("1, 2, 3, 4")
	require.NoError(t, err)
	assert.Equal(t, &model.Rect{X: 1, Y: 2, Width: 3, Height: 4}, r)

	_, err = parseBox("1,2,3")
	assert.Error(t, err)
	_, err = parseBox("1,2,x,4")
	assert.Error(t, err)
}
