package rodwrapper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-e2e/internal/domain/entity"
)

const fixtureHTML = `<!DOCTYPE html>
<html>
<head><title>Fixture</title></head>
<body>
	<header>
		<button data-testid="connect" onclick="document.getElementById('modal').style.display='block'">Connect Wallet</button>
		<a href="/marketplace">Marketplace</a>
	</header>
	<div id="modal" role="dialog" style="display:none">
		<button aria-label="Close">x</button>
		<button>MetaMask</button>
	</div>
	<ul>
		<li>first</li>
		<li>second</li>
		<li>last</li>
	</ul>
	<input placeholder="Search collections" id="search">
	<span id="echo"></span>
	<script>
		document.getElementById('search').addEventListener('input', (e) => {
			document.getElementById('echo').textContent = e.target.value;
		});
	</script>
</body>
</html>`

func newTestPage(t *testing.T) *Page {
	t.Helper()

	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("no chromium available")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(fixtureHTML))
	}))
	t.Cleanup(srv.Close)

	l := launcher.New().Bin(bin).Headless(true).NoSandbox(true)
	u, err := l.Launch()
	require.NoError(t, err)
	browser := rod.New().ControlURL(u)
	require.NoError(t, browser.Connect())
	t.Cleanup(func() {
		_ = browser.Close()
		l.Kill()
		l.Cleanup()
	})

	rp, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	require.NoError(t, err)
	page := NewPage(rp)
	require.NoError(t, page.Navigate(context.Background(), srv.URL))
	return page
}

func TestPage_Locators(t *testing.T) {
	page := newTestPage(t)
	ctx := context.Background()
	short := 2 * time.Second

	assert.True(t, page.IsVisible(ctx, entity.TestID("connect"), short))
	assert.True(t, page.IsVisible(ctx, entity.Role("button", "connect wallet"), short))
	assert.True(t, page.IsVisible(ctx, entity.ExactRole("link", "Marketplace"), short))
	assert.False(t, page.IsVisible(ctx, entity.ExactRole("link", "Market"), 300*time.Millisecond))

	dialog := entity.Role("dialog", "")
	assert.False(t, page.IsVisible(ctx, dialog, 300*time.Millisecond))
	assert.True(t, page.Exists(ctx, entity.CSS("#modal"), short))

	require.NoError(t, page.Click(ctx, entity.Text("connect wallet"), short))
	require.NoError(t, page.WaitVisible(ctx, dialog, short))
	assert.True(t, page.IsVisible(ctx, entity.Role("button", "MetaMask").Within(dialog), short))

	require.NoError(t, page.Click(ctx, entity.Role("button", "Close").Within(dialog), short))

	last, err := page.Text(ctx, entity.CSS("li").Last(), short)
	require.NoError(t, err)
	assert.Equal(t, "last", last)

	second, err := page.Text(ctx, entity.CSS("li").Nth(1), short)
	require.NoError(t, err)
	assert.Equal(t, "second", second)

	require.NoError(t, page.Fill(ctx, entity.Placeholder("search"), "punks", short))
	echo, err := page.Text(ctx, entity.CSS("#echo"), short)
	require.NoError(t, err)
	assert.Equal(t, "punks", echo)
}

func TestPage_WaitTimeout(t *testing.T) {
	page := newTestPage(t)

	err := page.WaitVisible(context.Background(), entity.TestID("missing"), 300*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), `testid="missing"`)

	require.NoError(t, page.WaitHidden(context.Background(), entity.TestID("missing"), time.Second))
}

func TestPage_Content(t *testing.T) {
	page := newTestPage(t)

	content, err := page.Content(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Fixture", content.Title)
	assert.NotContains(t, content.HTML, "<script")

	var selectors []string
	for _, el := range content.UIElements {
		selectors = append(selectors, el.Selector)
	}
	assert.Contains(t, selectors, `[data-testid="connect"]`)
	assert.Contains(t, selectors, "#search")

	shot, err := page.Screenshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "jpeg", shot.Format)
	assert.LessOrEqual(t, shot.Width, maxScreenshotWidth)
}

func TestValidateURL(t *testing.T) {
	for _, bad := range []string{"", "  ", "ftp://example.com", "javascript:alert(1)"} {
		assert.ErrorIs(t, validateURL(bad), ErrInvalidURL, bad)
	}
	for _, good := range []string{"https://spaace.io", "chrome-extension://abc/home.html", "about:blank"} {
		assert.NoError(t, validateURL(good), good)
	}
}
