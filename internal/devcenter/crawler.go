// Package devcenter crawls Heroku Dev Center article summaries into a local
// cache file and serves that file as an MCP resource.
package devcenter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/heroku/heroku-mcp-server/internal/logging"
)

const (
	// DefaultMaxArticles bounds how many homepage links are followed.
	DefaultMaxArticles = 20

	// DefaultDelay is the pause between article fetches.
	DefaultDelay = 100 * time.Millisecond

	// UserAgent identifies crawler requests.
	UserAgent = "Heroku-MCP-DevCenterCrawler/1.0"

	// NoArticlesMessage is cached when the homepage yields no article links.
	NoArticlesMessage = "[No articles found on Dev Center homepage. The site structure may have changed.]"

	summarySeparator = "\n---\n"
	maxPageBytes     = 5 << 20
	fetchTimeout     = 30 * time.Second
)

var (
	articleLinks = cascadia.MustCompile(`a[href^="/articles/"]`)
	headings     = cascadia.MustCompile("h1")
	paragraphs   = cascadia.MustCompile("p")

	// contentSelectors are tried in order; the first match holds the article.
	contentSelectors = []cascadia.Selector{
		cascadia.MustCompile(".col-md-8.content"),
		cascadia.MustCompile("div.container"),
		cascadia.MustCompile(".content"),
		cascadia.MustCompile(".article-content"),
		cascadia.MustCompile("main"),
		cascadia.MustCompile("article"),
	}
)

// Config configures a Crawler.
type Config struct {
	Logger      *slog.Logger
	Client      *http.Client
	RootURL     string
	CacheFile   string
	MaxArticles int
	Delay       time.Duration
}

// Crawler summarizes the articles linked from the Dev Center homepage.
type Crawler struct {
	log         *slog.Logger
	client      *http.Client
	root        *url.URL
	cacheFile   string
	maxArticles int
	delay       time.Duration
}

type article struct {
	title string
	url   string
}

// NewCrawler validates cfg and returns a Crawler.
func NewCrawler(cfg *Config) (*Crawler, error) {
	root, err := url.Parse(cfg.RootURL)
	if err != nil || root.Scheme == "" || root.Host == "" {
		return nil, fmt.Errorf("dev center root must be an absolute URL: %q", cfg.RootURL)
	}

	c := &Crawler{
		log:         logging.OrNop(cfg.Logger).With("component", "devcenter_crawler"),
		client:      cfg.Client,
		root:        root,
		cacheFile:   cfg.CacheFile,
		maxArticles: cfg.MaxArticles,
		delay:       cfg.Delay,
	}

	if c.client == nil {
		c.client = &http.Client{Timeout: fetchTimeout}
	}

	if c.maxArticles <= 0 {
		c.maxArticles = DefaultMaxArticles
	}

	if c.delay < 0 {
		c.delay = 0
	} else if c.delay == 0 {
		c.delay = DefaultDelay
	}

	return c, nil
}

// Run crawls and writes the cache file. Failures are logged, never returned,
// so it is safe to launch in the background.
func (c *Crawler) Run(ctx context.Context) {
	start := time.Now()

	summary, err := c.Crawl(ctx)
	if err != nil {
		c.log.Warn("Dev Center crawl failed", "error", err)

		return
	}

	if err := c.SaveCache(summary); err != nil {
		c.log.Warn("Failed to save Dev Center cache", "file", c.cacheFile, "error", err)

		return
	}

	c.log.Info("Dev Center crawl completed",
		"file", c.cacheFile,
		"bytes", len(summary),
		"duration", time.Since(start),
	)
}

// Crawl fetches the homepage and summarizes each linked article.
// Individual article failures are skipped.
func (c *Crawler) Crawl(ctx context.Context) (string, error) {
	doc, err := c.fetch(ctx, c.root.String())
	if err != nil {
		return "", err
	}

	articles := c.articles(doc)
	if len(articles) == 0 {
		return NoArticlesMessage, nil
	}

	summaries := make([]string, 0, len(articles))

	for i, a := range articles {
		if i > 0 {
			if err := sleep(ctx, c.delay); err != nil {
				return "", err
			}
		}

		summary, err := c.summarize(ctx, a)
		if err != nil {
			c.log.Debug("Skipping Dev Center article", "url", a.url, "error", err)

			continue
		}

		summaries = append(summaries, summary)
	}

	c.log.Debug("Dev Center articles summarized", "found", len(articles), "summarized", len(summaries))

	return strings.Join(summaries, summarySeparator), nil
}

// SaveCache writes summary to the cache file.
func (c *Crawler) SaveCache(summary string) error {
	return os.WriteFile(c.cacheFile, []byte(summary), 0o644) //nolint:gosec // world-readable cache of public docs
}

func (c *Crawler) articles(doc *html.Node) []article {
	var found []article

	for _, n := range articleLinks.MatchAll(doc) {
		if len(found) == c.maxArticles {
			break
		}

		title := strings.TrimSpace(textOf(n))
		href := attr(n, "href")

		if title == "" || href == "" {
			continue
		}

		ref, err := url.Parse(href)
		if err != nil {
			continue
		}

		found = append(found, article{title: title, url: c.root.ResolveReference(ref).String()})
	}

	return found
}

func (c *Crawler) summarize(ctx context.Context, a article) (string, error) {
	doc, err := c.fetch(ctx, a.url)
	if err != nil {
		return "", err
	}

	heading := a.title
	if h := headings.MatchFirst(doc); h != nil {
		if text := strings.TrimSpace(textOf(h)); text != "" {
			heading = text
		}
	}

	body := paragraphText(contentRoot(doc))
	if body == "" {
		body = c.extract(doc, a.url)
	}

	if body == "" {
		return "", fmt.Errorf("article has no content")
	}

	return "# " + heading + "\n" + body + "\nURL: " + a.url + "\n", nil
}

// extract falls back to readability for pages whose markup matches none of
// the known content containers.
func (c *Crawler) extract(doc *html.Node, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	art, err := readability.FromDocument(doc, parsed)
	if err != nil {
		c.log.Debug("Readability extraction failed", "url", pageURL, "error", err)

		return ""
	}

	return strings.TrimSpace(art.TextContent)
}

func (c *Crawler) fetch(ctx context.Context, target string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: %s", target, resp.Status)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", target, err)
	}

	return doc, nil
}

func contentRoot(doc *html.Node) *html.Node {
	for _, sel := range contentSelectors {
		if n := sel.MatchFirst(doc); n != nil {
			return n
		}
	}

	return doc
}

func paragraphText(root *html.Node) string {
	var parts []string

	for _, p := range paragraphs.MatchAll(root) {
		if text := strings.TrimSpace(textOf(p)); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n\n")
}

func textOf(n *html.Node) string {
	var sb strings.Builder

	var walk func(*html.Node)

	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}

	walk(n)

	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}

	return ""
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
