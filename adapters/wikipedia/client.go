package wikipedia

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/marcus/domain/repositories"
	"github.com/satriahrh/marcus/internal/jq"
)

var (
	extractQuery = jq.MustCompile(`.extract`)
	typeQuery    = jq.MustCompile(`.type`)
)

var (
	// ErrPageNotFound means no article exists for the topic
	ErrPageNotFound = errors.New("page not found")
	// ErrAmbiguousTopic means the topic names a disambiguation page
	ErrAmbiguousTopic = errors.New("topic may refer to several pages")
)

// Client reads page summaries from the Wikipedia REST API
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
	logger    *zap.Logger
}

var _ repositories.Encyclopedia = (*Client)(nil)

// NewClient creates a client. An empty baseURL selects the wiki for lang.
func NewClient(baseURL, lang, userAgent string, client *http.Client, logger *zap.Logger) *Client {
	if baseURL == "" {
		if lang == "" {
			lang = "en"
		}
		baseURL = fmt.Sprintf("https://%s.wikipedia.org", lang)
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    client,
		logger:    logger,
	}
}

// Summary implements repositories.Encyclopedia
func (c *Client) Summary(ctx context.Context, topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", ErrPageNotFound
	}

	title := url.PathEscape(strings.ReplaceAll(topic, " ", "_"))
	endpoint := fmt.Sprintf("%s/api/rest_v1/page/summary/%s?redirect=true", c.baseURL, title)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("Fetching Wikipedia summary", zap.String("topic", topic))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrPageNotFound
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read summary response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wikipedia API returned status %d", resp.StatusCode)
	}

	if kind, err := typeQuery.String(body); err == nil && kind == "disambiguation" {
		c.logger.Debug("Wikipedia topic is ambiguous", zap.String("topic", topic))
		return "", fmt.Errorf("%w: %s", ErrAmbiguousTopic, strings.TrimSpace(topic))
	}

	extract, err := extractQuery.String(body)
	if err != nil || strings.TrimSpace(extract) == "" {
		return "", ErrPageNotFound
	}
	return extract, nil
}
