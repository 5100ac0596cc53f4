package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/lsewatch/internal/infra"
)

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

var errNoDocument = errors.New("browser: no document loaded")

// Static is the http engine: it fetches server-rendered HTML and queries it
// with goquery. Scripts never run, so Click only follows links and Fill is
// not supported. It suits server-rendered pages, saved snapshots and test
// fixtures.
type Static struct {
	client    *http.Client
	limiter   *infra.RateLimiter
	userAgent string

	url *url.URL
	doc *goquery.Document
}

// NewStatic creates a static HTML driver.
func NewStatic(opts Options) *Static {
	opts.defaults()
	return &Static{
		client:    &http.Client{Timeout: opts.Timeout},
		limiter:   infra.NewRateLimiter(opts.RequestsPerSecond, time.Second),
		userAgent: opts.UserAgent,
	}
}

// Goto fetches and parses url.
func (s *Static) Goto(ctx context.Context, rawURL string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	body, final, err := s.doGet(ctx, rawURL)
	if err != nil {
		return err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return fmt.Errorf("parse HTML %s: %w", rawURL, err)
	}
	s.doc = doc
	s.url = final
	return nil
}

// WaitIdle returns immediately; a parsed document never changes.
func (s *Static) WaitIdle(context.Context) error { return nil }

// URL returns the URL of the loaded document after redirects.
func (s *Static) URL() string {
	if s.url == nil {
		return ""
	}
	return s.url.String()
}

// Title returns the document title.
func (s *Static) Title(context.Context) (string, error) {
	if s.doc == nil {
		return "", errNoDocument
	}
	return strings.TrimSpace(s.doc.Find("title").First().Text()), nil
}

// Count returns the number of elements matching css.
func (s *Static) Count(_ context.Context, css string) (int, error) {
	if s.doc == nil {
		return 0, errNoDocument
	}
	return s.doc.Find(css).Length(), nil
}

// Visible reports whether the target exists and neither it nor an ancestor
// is hidden by attribute or inline style.
func (s *Static) Visible(_ context.Context, t Target) (bool, error) {
	sel, err := s.find(t)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !hidden(sel), nil
}

// Enabled reports whether the target exists and is not disabled.
func (s *Static) Enabled(_ context.Context, t Target) (bool, error) {
	sel, err := s.find(t)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, ok := sel.Attr("disabled"); ok {
		return false, nil
	}
	if v, _ := sel.Attr("aria-disabled"); v == "true" {
		return false, nil
	}
	return !sel.HasClass("disabled"), nil
}

// Click follows the target's href (or data-href). Other clicks need a
// scripting engine.
func (s *Static) Click(ctx context.Context, t Target) error {
	sel, err := s.find(t)
	if err != nil {
		return err
	}
	href, ok := sel.Attr("href")
	if !ok {
		href, ok = sel.Attr("data-href")
	}
	if !ok || href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return fmt.Errorf("click %s: %w", t, ErrNotSupported)
	}

	next, err := s.url.Parse(href)
	if err != nil {
		return fmt.Errorf("click %s: resolve %q: %w", t, href, err)
	}
	return s.Goto(ctx, next.String())
}

// Fill is not supported without a scripting engine.
func (s *Static) Fill(_ context.Context, t Target, _ string, _ bool) error {
	return fmt.Errorf("fill %s: %w", t, ErrNotSupported)
}

// WaitVisible succeeds if the target is visible in the loaded document.
func (s *Static) WaitVisible(ctx context.Context, t Target) error {
	ok, err := s.Visible(ctx, t)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("wait visible %s: %w", t, ErrNotFound)
	}
	return nil
}

// WaitHidden returns immediately; loaders in a static document never resolve.
func (s *Static) WaitHidden(context.Context, string) error { return nil }

// Text returns the trimmed text of the target.
func (s *Static) Text(_ context.Context, t Target) (string, error) {
	sel, err := s.find(t)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(sel.Text()), nil
}

// Attribute returns an attribute of the target.
func (s *Static) Attribute(_ context.Context, t Target, name string) (string, bool, error) {
	sel, err := s.find(t)
	if err != nil {
		return "", false, err
	}
	v, ok := sel.Attr(name)
	return v, ok, nil
}

// Attributes returns the named attribute of every element matching css.
func (s *Static) Attributes(_ context.Context, css, name string) ([]string, error) {
	if s.doc == nil {
		return nil, errNoDocument
	}
	var out []string
	s.doc.Find(css).Each(func(_ int, sel *goquery.Selection) {
		if v, ok := sel.Attr(name); ok {
			out = append(out, v)
		}
	})
	return out, nil
}

// Rows returns the text of each requested cell for every row.
func (s *Static) Rows(_ context.Context, rowCSS string, cellCSS ...string) ([][]string, error) {
	if s.doc == nil {
		return nil, errNoDocument
	}
	var rows [][]string
	s.doc.Find(rowCSS).Each(func(_ int, row *goquery.Selection) {
		cells := make([]string, len(cellCSS))
		for i, css := range cellCSS {
			cells[i] = strings.TrimSpace(row.Find(css).First().Text())
		}
		rows = append(rows, cells)
	})
	return rows, nil
}

// Close is a no-op.
func (s *Static) Close() error { return nil }

func (s *Static) find(t Target) (*goquery.Selection, error) {
	if s.doc == nil {
		return nil, errNoDocument
	}
	sel := s.doc.Find(t.CSS).FilterFunction(func(_ int, el *goquery.Selection) bool {
		return t.Matches(el.Text())
	}).First()
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%s: %w", t, ErrNotFound)
	}
	return sel, nil
}

// hidden reports whether sel or an ancestor is hidden.
func hidden(sel *goquery.Selection) bool {
	for n := sel; n.Length() > 0; n = n.Parent() {
		if _, ok := n.Attr("hidden"); ok {
			return true
		}
		if v, _ := n.Attr("aria-hidden"); v == "true" {
			return true
		}
		style, _ := n.Attr("style")
		style = strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return true
		}
	}
	return false
}

// doGet performs a GET request and returns the response body and the final
// URL. The caller is responsible for closing the returned ReadCloser.
func (s *Static) doGet(ctx context.Context, rawURL string) (io.ReadCloser, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("HTTP GET %s: %w", rawURL, err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, nil, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return resp.Body, resp.Request.URL, nil
}
