package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stock-movement-predictor/internal/entity"
	"stock-movement-predictor/internal/predictor/config"
	"stock-movement-predictor/pkg/logger"

	"github.com/PuerkitoBio/goquery"
	"github.com/mauidude/go-readability"
	"github.com/mmcdole/gofeed"
	"github.com/patrickmn/go-cache"
)

// rssNewsRepository fetches symbol news from a Google News RSS search
// feed and extracts article bodies with readability. Fetched article
// content is cached briefly so overlapping refresh windows do not
// re-download the same links.
type rssNewsRepository struct {
	cfg           *config.Config
	log           *logger.Logger
	httpClient    *http.Client
	feedParser    *gofeed.Parser
	inmemoryCache *cache.Cache
}

// NewRSSNewsRepository creates an RSS-backed NewsRepository.
func NewRSSNewsRepository(cfg *config.Config, log *logger.Logger) NewsRepository {
	return &rssNewsRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		feedParser:    gofeed.NewParser(),
		inmemoryCache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

func (r *rssNewsRepository) FetchRange(ctx context.Context, symbol string, start, end entity.Date) ([]entity.NewsArticle, error) {
	feedURL := fmt.Sprintf("%s/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en",
		r.cfg.News.RSSBaseURL, url.QueryEscape(symbol+" stock"))

	feed, err := r.feedParser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse news feed: %w", err)
	}

	maxArticles := r.cfg.News.MaxArticles
	if maxArticles <= 0 {
		maxArticles = 50
	}

	var articles []entity.NewsArticle
	for _, item := range feed.Items {
		if len(articles) >= maxArticles {
			break
		}
		if item.PublishedParsed == nil || item.Title == "" {
			continue
		}
		published := entity.DateOf(*item.PublishedParsed)
		if published.Before(start) || published.After(end) {
			continue
		}

		summary := item.Description
		if content, err := r.extractContent(ctx, item.Link); err != nil {
			r.log.Debug("Falling back to feed description",
				logger.StringField("link", item.Link),
				logger.ErrorField(err),
			)
		} else if content != "" {
			summary = content
		}

		articles = append(articles, entity.NewsArticle{
			Symbol:    symbol,
			Headline:  item.Title,
			Summary:   summary,
			Source:    feedSource(item),
			URL:       item.Link,
			Published: published,
		})
	}

	r.log.Info("Fetched RSS news",
		logger.StringField("symbol", symbol),
		logger.IntField("articles", len(articles)),
	)
	return articles, nil
}

func (r *rssNewsRepository) extractContent(ctx context.Context, link string) (string, error) {
	if link == "" {
		return "", nil
	}
	if cached, ok := r.inmemoryCache.Get(link); ok {
		return cached.(string), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("article fetch returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read article body: %w", err)
	}

	doc, err := readability.NewDocument(string(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse article content: %w", err)
	}
	docHTML, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(doc.Content())))
	if err != nil {
		return "", fmt.Errorf("failed to strip article markup: %w", err)
	}

	content := strings.Join(strings.Fields(docHTML.Text()), " ")
	r.inmemoryCache.SetDefault(link, content)
	return content, nil
}

func feedSource(item *gofeed.Item) string {
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		return item.Authors[0].Name
	}
	return ""
}
