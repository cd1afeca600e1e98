package translate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/marcus/domain/repositories"
	"github.com/satriahrh/marcus/internal/jq"
)

// the response is [[[translated, source, ...], ...], null, detectedLang, ...]
var segmentsQuery = jq.MustCompile(`[.[0][]?[0] | strings] | join("")`)

// GoogleTranslator calls the public Google Translate endpoint with auto
// source detection
type GoogleTranslator struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

var _ repositories.Translator = (*GoogleTranslator)(nil)

// NewGoogleTranslator creates a translator against baseURL
func NewGoogleTranslator(baseURL string, client *http.Client, logger *zap.Logger) *GoogleTranslator {
	return &GoogleTranslator{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

// Translate implements repositories.Translator
func (g *GoogleTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("text cannot be empty")
	}
	code, err := ResolveLanguage(target)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", "auto")
	params.Set("tl", code)
	params.Set("dt", "t")
	params.Set("q", text)

	endpoint := g.baseURL + "/translate_a/single?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}

	g.logger.Debug("Translating text", zap.String("target", code), zap.Int("length", len(text)))

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read translation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translation API returned status %d", resp.StatusCode)
	}

	translated, err := segmentsQuery.String(body)
	if err != nil {
		return "", fmt.Errorf("failed to parse translation response: %w", err)
	}
	if translated == "" {
		return "", fmt.Errorf("translation API returned no text")
	}
	return translated, nil
}
