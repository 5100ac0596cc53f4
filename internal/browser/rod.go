package browser

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// stableWindow is how long the DOM must stay unchanged for WaitIdle.
const stableWindow = 500 * time.Millisecond

// Rod drives Chrome over the DevTools protocol with go-rod.
type Rod struct {
	browser *rod.Browser
	page    *rod.Page
	lnch    *launcher.Launcher // nil when attached to a remote browser
	timeout time.Duration
}

// OpenRod launches a local Chrome (or connects to RemoteURL) and opens a
// blank page.
func OpenRod(ctx context.Context, opts Options) (*Rod, error) {
	opts.defaults()

	var (
		wsURL string
		lnch  *launcher.Launcher
	)
	if opts.RemoteURL != "" {
		wsURL = opts.RemoteURL
	} else {
		lnch = launcher.New().Context(ctx).Headless(opts.Headless).
			Set("disable-blink-features", "AutomationControlled")
		u, err := lnch.Launch()
		if err != nil {
			return nil, fmt.Errorf("rod: launch: %w", err)
		}
		wsURL = u
	}

	b := rod.New().ControlURL(wsURL).SlowMotion(opts.SlowMo)
	if err := b.Connect(); err != nil {
		if lnch != nil {
			lnch.Kill()
		}
		return nil, fmt.Errorf("rod: connect: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		if lnch != nil {
			lnch.Kill()
		}
		return nil, fmt.Errorf("rod: new page: %w", err)
	}
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      opts.UserAgent,
		AcceptLanguage: "en-GB,en;q=0.9",
	}); err != nil {
		_ = b.Close()
		if lnch != nil {
			lnch.Kill()
		}
		return nil, fmt.Errorf("rod: set user agent: %w", err)
	}

	return &Rod{browser: b, page: page, lnch: lnch, timeout: opts.Timeout}, nil
}

// op returns the page bound to ctx with the per-operation timeout.
func (r *Rod) op(ctx context.Context) *rod.Page {
	return r.page.Context(ctx).Timeout(r.timeout)
}

// Goto navigates and waits for the load event.
func (r *Rod) Goto(ctx context.Context, url string) error {
	pg := r.op(ctx)
	defer pg.CancelTimeout()

	if err := pg.Navigate(url); err != nil {
		return fmt.Errorf("goto %s: %w", url, err)
	}
	return pg.WaitLoad()
}

// WaitIdle waits until requests settle and the DOM stops changing.
func (r *Rod) WaitIdle(ctx context.Context) error {
	pg := r.op(ctx)
	defer pg.CancelTimeout()
	return pg.WaitStable(stableWindow)
}

// URL returns the current page URL.
func (r *Rod) URL() string {
	info, err := r.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Title returns the document title.
func (r *Rod) Title(ctx context.Context) (string, error) {
	info, err := r.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

// Count returns the number of elements matching css.
func (r *Rod) Count(ctx context.Context, css string) (int, error) {
	els, err := r.page.Context(ctx).Elements(css)
	if err != nil {
		return 0, err
	}
	return len(els), nil
}

// Visible reports whether the target is visible, without waiting for it.
func (r *Rod) Visible(ctx context.Context, t Target) (bool, error) {
	el, err := r.lookup(ctx, t)
	if err != nil || el == nil {
		return false, err
	}
	return el.Visible()
}

// Enabled reports whether the target exists and is enabled.
func (r *Rod) Enabled(ctx context.Context, t Target) (bool, error) {
	el, err := r.lookup(ctx, t)
	if err != nil || el == nil {
		return false, err
	}
	disabled, err := el.Disabled()
	if err != nil {
		return false, err
	}
	if disabled {
		return false, nil
	}
	cls, err := el.Attribute("class")
	if err != nil {
		return false, err
	}
	return cls == nil || !hasClass(*cls, "disabled"), nil
}

// Click waits for the target and clicks it.
func (r *Rod) Click(ctx context.Context, t Target) error {
	pg := r.op(ctx)
	defer pg.CancelTimeout()

	el, err := r.wait(pg, t)
	if err != nil {
		return fmt.Errorf("click %s: %w", t, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %s: %w", t, err)
	}
	return nil
}

// Fill replaces the input's value and optionally presses Enter.
func (r *Rod) Fill(ctx context.Context, t Target, value string, submit bool) error {
	pg := r.op(ctx)
	defer pg.CancelTimeout()

	el, err := r.wait(pg, t)
	if err != nil {
		return fmt.Errorf("fill %s: %w", t, err)
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("fill %s: %w", t, err)
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("fill %s: %w", t, err)
	}
	if submit {
		if err := el.Type(input.Enter); err != nil {
			return fmt.Errorf("submit %s: %w", t, err)
		}
	}
	return nil
}

// WaitVisible waits until the target is visible.
func (r *Rod) WaitVisible(ctx context.Context, t Target) error {
	pg := r.op(ctx)
	defer pg.CancelTimeout()

	el, err := r.wait(pg, t)
	if err != nil {
		return err
	}
	return el.WaitVisible()
}

// WaitHidden waits until every element matching css is invisible.
func (r *Rod) WaitHidden(ctx context.Context, css string) error {
	pg := r.op(ctx)
	defer pg.CancelTimeout()

	els, err := pg.Elements(css)
	if err != nil {
		return err
	}
	for _, el := range els {
		if err := el.WaitInvisible(); err != nil {
			return err
		}
	}
	return nil
}

// Text returns the trimmed text of the target.
func (r *Rod) Text(ctx context.Context, t Target) (string, error) {
	el, err := r.lookup(ctx, t)
	if err != nil {
		return "", err
	}
	if el == nil {
		return "", fmt.Errorf("%s: %w", t, ErrNotFound)
	}
	s, err := el.Text()
	return strings.TrimSpace(s), err
}

// Attribute returns an attribute of the target.
func (r *Rod) Attribute(ctx context.Context, t Target, name string) (string, bool, error) {
	el, err := r.lookup(ctx, t)
	if err != nil {
		return "", false, err
	}
	if el == nil {
		return "", false, fmt.Errorf("%s: %w", t, ErrNotFound)
	}
	v, err := el.Attribute(name)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

// Attributes returns the named attribute of every element matching css.
func (r *Rod) Attributes(ctx context.Context, css, name string) ([]string, error) {
	els, err := r.page.Context(ctx).Elements(css)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(els))
	for _, el := range els {
		v, err := el.Attribute(name)
		if err != nil {
			return nil, err
		}
		if v != nil {
			out = append(out, *v)
		}
	}
	return out, nil
}

// Rows reads the requested cells of every row.
func (r *Rod) Rows(ctx context.Context, rowCSS string, cellCSS ...string) ([][]string, error) {
	rowEls, err := r.page.Context(ctx).Elements(rowCSS)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(rowEls))
	for _, row := range rowEls {
		cells := make([]string, len(cellCSS))
		for i, css := range cellCSS {
			els, err := row.Elements(css)
			if err != nil {
				return nil, err
			}
			if len(els) == 0 {
				continue
			}
			txt, err := els.First().Text()
			if err != nil {
				return nil, err
			}
			cells[i] = strings.TrimSpace(txt)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// Close closes the page and, when it was launched here, the browser.
func (r *Rod) Close() error {
	err := r.page.Close()
	if r.lnch != nil {
		if cerr := r.browser.Close(); cerr != nil && err == nil {
			err = cerr
		}
		r.lnch.Kill()
	}
	return err
}

// lookup finds the target without waiting. It returns nil, nil when nothing
// matches.
func (r *Rod) lookup(ctx context.Context, t Target) (*rod.Element, error) {
	els, err := r.page.Context(ctx).Elements(t.CSS)
	if err != nil {
		return nil, err
	}
	for _, el := range els {
		if t.Text == "" {
			return el, nil
		}
		txt, err := el.Text()
		if err != nil {
			return nil, err
		}
		if t.Matches(txt) {
			return el, nil
		}
	}
	return nil, nil
}

// wait finds the target, retrying until the page's timeout.
func (r *Rod) wait(pg *rod.Page, t Target) (*rod.Element, error) {
	if t.Text == "" {
		return pg.Element(t.CSS)
	}
	return pg.ElementR(t.CSS, t.pattern())
}

var classSep = regexp.MustCompile(`\s+`)

func hasClass(classAttr, name string) bool {
	for _, c := range classSep.Split(strings.TrimSpace(classAttr), -1) {
		if c == name {
			return true
		}
	}
	return false
}
