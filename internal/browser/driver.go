// Package browser abstracts the automation backend the page objects drive.
//
// A Driver is one browser tab (or, for the http engine, one fetched
// document). Elements are addressed by Target: a CSS selector optionally
// narrowed to the first element whose text matches. Three engines are
// available: playwright, rod (Chrome DevTools) and http (static HTML parsed
// with goquery, following links on Click).
package browser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Engine names.
const (
	EnginePlaywright = "playwright"
	EngineRod        = "rod"
	EngineHTTP       = "http"
)

// Engines lists the supported engine names.
var Engines = []string{EnginePlaywright, EngineRod, EngineHTTP}

var (
	// ErrNotSupported is returned when an engine cannot perform an operation.
	ErrNotSupported = errors.New("operation not supported by this browser engine")

	// ErrNotFound is returned when a Target matches no element.
	ErrNotFound = errors.New("element not found")
)

// Target addresses the first element matching CSS whose text content
// contains Text (or, when Exact is set, equals it after trimming). An empty
// Text matches any element.
type Target struct {
	CSS   string
	Text  string
	Exact bool
}

// CSSTarget is shorthand for a Target without a text filter.
func CSSTarget(css string) Target { return Target{CSS: css} }

// String implements fmt.Stringer for logs and errors.
func (t Target) String() string {
	switch {
	case t.Text == "":
		return t.CSS
	case t.Exact:
		return fmt.Sprintf("%s[text=%q]", t.CSS, t.Text)
	default:
		return fmt.Sprintf("%s[text~=%q]", t.CSS, t.Text)
	}
}

// Matches reports whether an element's text content satisfies the filter.
func (t Target) Matches(text string) bool {
	if t.Text == "" {
		return true
	}
	text = strings.TrimSpace(text)
	if t.Exact {
		return text == t.Text
	}
	return strings.Contains(text, t.Text)
}

// pattern returns a regular expression equivalent to the text filter, for
// engines that filter by regex.
func (t Target) pattern() string {
	if t.Exact {
		return `^\s*` + regexp.QuoteMeta(t.Text) + `\s*$`
	}
	return regexp.QuoteMeta(t.Text)
}

// Driver is a single page under automation. Implementations are not safe for
// concurrent use; open one Driver per concurrent workflow.
type Driver interface {
	// Goto navigates to url and waits for the load event.
	Goto(ctx context.Context, url string) error
	// WaitIdle waits until the page stops loading resources.
	WaitIdle(ctx context.Context) error
	// URL returns the current page URL.
	URL() string
	// Title returns the document title.
	Title(ctx context.Context) (string, error)

	// Count returns the number of elements matching css.
	Count(ctx context.Context, css string) (int, error)
	// Visible reports whether the target exists and is visible.
	Visible(ctx context.Context, t Target) (bool, error)
	// Enabled reports whether the target exists and is not disabled.
	Enabled(ctx context.Context, t Target) (bool, error)
	// Click clicks the target.
	Click(ctx context.Context, t Target) error
	// Fill replaces the target input's value, pressing Enter when submit is set.
	Fill(ctx context.Context, t Target, value string, submit bool) error
	// WaitVisible waits until the target is visible.
	WaitVisible(ctx context.Context, t Target) error
	// WaitHidden waits until no element matching css is visible.
	WaitHidden(ctx context.Context, css string) error

	// Text returns the trimmed text content of the target.
	Text(ctx context.Context, t Target) (string, error)
	// Attribute returns an attribute of the target; ok is false if absent.
	Attribute(ctx context.Context, t Target, name string) (value string, ok bool, err error)
	// Attributes returns the named attribute of every element matching css,
	// skipping elements that lack it.
	Attributes(ctx context.Context, css, name string) ([]string, error)
	// Rows returns, for each element matching rowCSS, the trimmed text of the
	// first descendant matching each of cellCSS ("" when absent).
	Rows(ctx context.Context, rowCSS string, cellCSS ...string) ([][]string, error)

	// Close releases the page and any browser it owns.
	Close() error
}

// Options configures Open.
type Options struct {
	Engine    string
	Headless  bool
	Timeout   time.Duration // per-operation timeout
	RemoteURL string        // rod: existing DevTools endpoint; playwright: CDP endpoint
	SlowMo    time.Duration
	UserAgent string

	// RequestsPerSecond throttles the http engine. Zero means 2.
	RequestsPerSecond int
}

func (o *Options) defaults() {
	if o.Engine == "" {
		o.Engine = EnginePlaywright
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.RequestsPerSecond <= 0 {
		o.RequestsPerSecond = 2
	}
}

// DefaultUserAgent is the user agent presented by every engine.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Open starts a Driver for the configured engine.
func Open(ctx context.Context, opts Options) (Driver, error) {
	opts.defaults()
	switch opts.Engine {
	case EnginePlaywright:
		return OpenPlaywright(ctx, opts)
	case EngineRod:
		return OpenRod(ctx, opts)
	case EngineHTTP:
		return NewStatic(opts), nil
	default:
		return nil, fmt.Errorf("browser: unknown engine %q (want one of %s)", opts.Engine, strings.Join(Engines, ", "))
	}
}

// Factory opens a fresh Driver per workflow.
type Factory func(ctx context.Context) (Driver, error)

// NewFactory returns a Factory bound to opts.
func NewFactory(opts Options) Factory {
	return func(ctx context.Context) (Driver, error) {
		return Open(ctx, opts)
	}
}
