package browser

import (
	"context"
	"fmt"
	"regexp"

	"github.com/playwright-community/playwright-go"
)

// Playwright drives Chromium through playwright-go.
type Playwright struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
}

// OpenPlaywright launches (or, with RemoteURL, attaches to) Chromium and
// opens a fresh page.
func OpenPlaywright(ctx context.Context, opts Options) (*Playwright, error) {
	opts.defaults()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("playwright: start driver: %w", err)
	}

	var b playwright.Browser
	if opts.RemoteURL != "" {
		b, err = pw.Chromium.ConnectOverCDP(opts.RemoteURL)
	} else {
		b, err = pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(opts.Headless),
			SlowMo:   playwright.Float(float64(opts.SlowMo.Milliseconds())),
		})
	}
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("playwright: launch chromium: %w", err)
	}

	bctx, err := b.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(opts.UserAgent),
		Locale:    playwright.String("en-GB"),
	})
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("playwright: new context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("playwright: new page: %w", err)
	}
	page.SetDefaultTimeout(float64(opts.Timeout.Milliseconds()))

	return &Playwright{pw: pw, browser: b, page: page}, nil
}

// Goto navigates and waits for the load event.
func (p *Playwright) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	}); err != nil {
		return fmt.Errorf("goto %s: %w", url, err)
	}
	return nil
}

// WaitIdle waits for network idle.
func (p *Playwright) WaitIdle(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateNetworkidle,
	})
}

// URL returns the current page URL.
func (p *Playwright) URL() string { return p.page.URL() }

// Title returns the document title.
func (p *Playwright) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.page.Title()
}

// Count returns the number of elements matching css.
func (p *Playwright) Count(ctx context.Context, css string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return p.page.Locator(css).Count()
}

// Visible reports whether the target is visible.
func (p *Playwright) Visible(ctx context.Context, t Target) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return p.locate(t).IsVisible()
}

// Enabled reports whether the target exists and is enabled.
func (p *Playwright) Enabled(ctx context.Context, t Target) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	loc := p.locate(t)
	n, err := loc.Count()
	if err != nil || n == 0 {
		return false, err
	}
	return loc.IsEnabled()
}

// Click clicks the target.
func (p *Playwright) Click(ctx context.Context, t Target) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.locate(t).Click(); err != nil {
		return fmt.Errorf("click %s: %w", t, err)
	}
	return nil
}

// Fill types value into the target input.
func (p *Playwright) Fill(ctx context.Context, t Target, value string, submit bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	loc := p.locate(t)
	if err := loc.Fill(value); err != nil {
		return fmt.Errorf("fill %s: %w", t, err)
	}
	if submit {
		if err := loc.Press("Enter"); err != nil {
			return fmt.Errorf("submit %s: %w", t, err)
		}
	}
	return nil
}

// WaitVisible waits until the target is visible.
func (p *Playwright) WaitVisible(ctx context.Context, t Target) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.locate(t).WaitFor(playwright.LocatorWaitForOptions{
		State: playwright.WaitForSelectorStateVisible,
	})
}

// WaitHidden waits until the first element matching css is hidden or gone.
func (p *Playwright) WaitHidden(ctx context.Context, css string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.Locator(css).First().WaitFor(playwright.LocatorWaitForOptions{
		State: playwright.WaitForSelectorStateHidden,
	})
}

// Text returns the trimmed text content of the target.
func (p *Playwright) Text(ctx context.Context, t Target) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, err := p.locate(t).Evaluate(`el => (el.textContent || "").trim()`, nil)
	if err != nil {
		return "", fmt.Errorf("text %s: %w", t, err)
	}
	s, _ := v.(string)
	return s, nil
}

// Attribute returns an attribute of the target.
func (p *Playwright) Attribute(ctx context.Context, t Target, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	v, err := p.locate(t).Evaluate(`(el, name) => el.getAttribute(name)`, name)
	if err != nil {
		return "", false, fmt.Errorf("attribute %s of %s: %w", name, t, err)
	}
	s, ok := v.(string)
	return s, ok, nil
}

// Attributes returns the named attribute of every element matching css.
func (p *Playwright) Attributes(ctx context.Context, css, name string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err := p.page.Locator(css).EvaluateAll(
		`(els, name) => els.map(e => e.getAttribute(name)).filter(v => v !== null)`, name)
	if err != nil {
		return nil, fmt.Errorf("attributes %s of %s: %w", name, css, err)
	}
	return toStrings(v), nil
}

// Rows reads the requested cells of every row in one round trip.
func (p *Playwright) Rows(ctx context.Context, rowCSS string, cellCSS ...string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err := p.page.Locator(rowCSS).EvaluateAll(
		`(rows, cells) => rows.map(r => cells.map(c => ((r.querySelector(c) || {}).textContent || "").trim()))`,
		cellCSS)
	if err != nil {
		return nil, fmt.Errorf("rows %s: %w", rowCSS, err)
	}

	raw, _ := v.([]interface{})
	rows := make([][]string, 0, len(raw))
	for _, r := range raw {
		cells := toStrings(r)
		for len(cells) < len(cellCSS) {
			cells = append(cells, "")
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// Close shuts down the browser and the playwright driver.
func (p *Playwright) Close() error {
	var firstErr error
	if err := p.browser.Close(); err != nil {
		firstErr = err
	}
	if err := p.pw.Stop(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (p *Playwright) locate(t Target) playwright.Locator {
	loc := p.page.Locator(t.CSS)
	if t.Text != "" {
		loc = loc.Filter(playwright.LocatorFilterOptions{
			HasText: regexp.MustCompile(t.pattern()),
		})
	}
	return loc.First()
}

// toStrings converts a JSON array decoded by the driver into strings.
func toStrings(v interface{}) []string {
	raw, _ := v.([]interface{})
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, _ := item.(string)
		out = append(out, s)
	}
	return out
}
