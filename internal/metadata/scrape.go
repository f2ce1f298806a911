package metadata

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"reelpipe/internal/services"
)

const (
	scrapeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	scrapeTimeout   = 15 * time.Second
	maxPageBytes    = 8 << 20
)

// Page is what the watch-page scrape recovers.
type Page struct {
	Title       string
	Channel     string
	Description string
	Tags        []string
}

var (
	ownerTextPattern   = regexp.MustCompile(`"ownerText":\{"runs":\[\{"text":"((?:[^"\\]|\\.)*)"`)
	authorPattern      = regexp.MustCompile(`"author":"((?:[^"\\]|\\.)*)"`)
	descriptionPattern = regexp.MustCompile(`"shortDescription":"((?:[^"\\]|\\.)*)"`)
)

// Scraper reads public watch pages when the Data API has nothing.
type Scraper struct {
	client *http.Client
}

// NewScraper returns a scraper using client, or a 15s-timeout client when nil.
func NewScraper(client *http.Client) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: scrapeTimeout}
	}
	return &Scraper{client: client}
}

// Scrape downloads pageURL and extracts title, channel, description and
// keyword tags.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Page{}, services.Wrap(services.ErrValidation, "scrape", "build request", pageURL, err)
	}
	req.Header.Set("User-Agent", scrapeUserAgent)
	resp, err := s.client.Do(req)
	if err != nil {
		return Page{}, services.Wrap(services.ErrTransient, "scrape", "get", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		marker := services.ErrTransient
		if resp.StatusCode == http.StatusNotFound {
			marker = services.ErrNotFound
		}
		return Page{}, services.Wrap(marker, "scrape", "get", fmt.Sprintf("%s: http %d", pageURL, resp.StatusCode), nil)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return Page{}, services.Wrap(services.ErrTransient, "scrape", "read", pageURL, err)
	}
	return ParsePage(body)
}

// ParsePage extracts metadata from a watch page body.
func ParsePage(body []byte) (Page, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return Page{}, services.Wrap(services.ErrValidation, "scrape", "parse html", "", err)
	}

	var title, metaDescription, itempropName string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Title:
				if title == "" && n.FirstChild != nil {
					title = n.FirstChild.Data
				}
			case atom.Meta:
				if attr(n, "name") == "description" && metaDescription == "" {
					metaDescription = attr(n, "content")
				}
			case atom.Link:
				if attr(n, "itemprop") == "name" && itempropName == "" {
					itempropName = attr(n, "content")
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	page := Page{Title: strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(title), " - YouTube"))}
	if page.Title == "" {
		return Page{}, services.Wrap(services.ErrValidation, "scrape", "parse html", "page has no title", nil)
	}

	switch {
	case ownerTextPattern.Match(body):
		page.Channel = unescapeJSONString(ownerTextPattern.FindSubmatch(body)[1])
	case authorPattern.Match(body):
		page.Channel = unescapeJSONString(authorPattern.FindSubmatch(body)[1])
	default:
		page.Channel = strings.TrimSpace(itempropName)
	}

	if m := descriptionPattern.FindSubmatch(body); m != nil {
		page.Description = unescapeJSONString(m[1])
	} else {
		page.Description = strings.TrimSpace(metaDescription)
	}
	page.Tags = KeywordTags(page.Title)
	return page, nil
}

// KeywordTags derives the fixed keyword tags present in title.
func KeywordTags(title string) []string {
	lower := strings.ToLower(title)
	tags := []string{}
	if strings.Contains(lower, "oficial") {
		tags = append(tags, "oficial")
	}
	if strings.Contains(lower, "trailer") || strings.Contains(lower, "tráiler") {
		tags = append(tags, "trailer")
	}
	if strings.Contains(lower, "netflix") {
		tags = append(tags, "netflix")
	}
	return tags
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func unescapeJSONString(raw []byte) string {
	var out string
	if err := json.Unmarshal(append(append([]byte{'"'}, raw...), '"'), &out); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return strings.TrimSpace(out)
}
