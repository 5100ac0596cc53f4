package datasource

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/seenimoa/lsewatch/internal/infra"
	"github.com/seenimoa/lsewatch/pkg/models"
)

// NewsSource is one RSS feed.
type NewsSource struct {
	Name   string
	RSSURL string
}

// DefaultNewsSources lists UK market news feeds.
var DefaultNewsSources = []NewsSource{
	{Name: "BBC Business", RSSURL: "https://feeds.bbci.co.uk/news/business/rss.xml"},
	{Name: "Guardian Stock Markets", RSSURL: "https://www.theguardian.com/business/stock-markets/rss"},
	{Name: "Proactive Investors UK", RSSURL: "https://www.proactiveinvestors.co.uk/rss/all_news"},
}

// ErrNoFeeds is returned when every configured feed failed.
var ErrNoFeeds = errors.New("no news feed could be read")

// News reads market headlines from RSS feeds.
type News struct {
	sources []NewsSource
	cache   *infra.Cache[[]models.NewsArticle]
	limiter *infra.RateLimiter
	parser  *gofeed.Parser
	logger  *zerolog.Logger
}

// NewNews creates a news source over the default feeds.
func NewNews() *News {
	return NewNewsWithSources(DefaultNewsSources)
}

// NewNewsWithSources creates a news source over custom feeds.
func NewNewsWithSources(sources []NewsSource) *News {
	return &News{
		sources: sources,
		cache:   infra.NewCache[[]models.NewsArticle](10 * time.Minute),
		limiter: infra.NewRateLimiter(2, time.Second),
		parser:  gofeed.NewParser(),
		logger:  &log.Logger,
	}
}

// SourcesFromURLs names feeds by their host.
func SourcesFromURLs(urls []string) []NewsSource {
	out := make([]NewsSource, 0, len(urls))
	for _, u := range urls {
		name := strings.TrimPrefix(strings.TrimPrefix(u, "https://"), "http://")
		if i := strings.IndexByte(name, '/'); i > 0 {
			name = name[:i]
		}
		out = append(out, NewsSource{Name: name, RSSURL: u})
	}
	return out
}

// WithLogger sets the logger used for feed failures.
func (n *News) WithLogger(l *zerolog.Logger) *News {
	n.logger = l
	return n
}

// MarketNews returns recent headlines from all feeds, newest first. Feeds
// that fail are skipped; ErrNoFeeds is returned only when all fail.
func (n *News) MarketNews(ctx context.Context, limit int) ([]models.NewsArticle, error) {
	all, err := n.cache.GetOrLoad(ctx, "news:market", n.fetchAll)
	if err != nil {
		return nil, err
	}
	return head(all, limit), nil
}

// ForConstituents returns the headlines that mention any of the given
// constituent names, tagging each article with the names it mentions.
func (n *News) ForConstituents(ctx context.Context, names []string, limit int) ([]models.NewsArticle, error) {
	all, err := n.MarketNews(ctx, 0)
	if err != nil {
		return nil, err
	}

	var filtered []models.NewsArticle
	for _, a := range all {
		content := strings.ToLower(a.Title + " " + a.Summary)
		var hits []string
		for _, name := range names {
			if kw := constituentKeyword(name); kw != "" && strings.Contains(content, kw) {
				hits = append(hits, name)
			}
		}
		if len(hits) > 0 {
			a.Constituents = hits
			filtered = append(filtered, a)
		}
	}
	return head(filtered, limit), nil
}

func (n *News) fetchAll(ctx context.Context) ([]models.NewsArticle, error) {
	var (
		all    []models.NewsArticle
		failed int
	)
	for _, src := range n.sources {
		articles, err := n.fetchRSS(ctx, src)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			n.logger.Warn().Err(err).Str("source", src.Name).Msg("skipping news feed")
			failed++
			continue
		}
		all = append(all, articles...)
	}
	if len(n.sources) > 0 && failed == len(n.sources) {
		return nil, ErrNoFeeds
	}

	slices.SortStableFunc(all, func(a, b models.NewsArticle) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})
	return all, nil
}

// fetchRSS parses an RSS feed and returns articles.
func (n *News) fetchRSS(ctx context.Context, src NewsSource) ([]models.NewsArticle, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := n.parser.ParseURLWithContext(src.RSSURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", src.Name, err)
	}

	articles := make([]models.NewsArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		a := models.NewsArticle{
			Title:   strings.TrimSpace(item.Title),
			URL:     item.Link,
			Source:  src.Name,
			Summary: cleanHTML(item.Description),
		}
		if item.PublishedParsed != nil {
			a.PublishedAt = *item.PublishedParsed
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// constituentKeyword lowercases a listed name and drops the corporate suffix,
// so "Rolls-Royce Holdings plc" matches "Rolls-Royce".
func constituentKeyword(name string) string {
	kw := strings.ToLower(strings.TrimSpace(name))
	for _, suffix := range []string{" plc", " holdings", " group", " ltd", " limited"} {
		kw = strings.TrimSuffix(kw, suffix)
	}
	return strings.TrimSpace(kw)
}

func head(articles []models.NewsArticle, limit int) []models.NewsArticle {
	if limit > 0 && len(articles) > limit {
		return articles[:limit]
	}
	return articles
}
