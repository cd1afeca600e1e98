package finance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/satriahrh/marcus/domain/repositories"
	"github.com/satriahrh/marcus/internal/jq"
)

var (
	longNameQuery = jq.MustCompile(`.chart.result[0].meta | .longName // .shortName // .symbol`)
	priceQuery    = jq.MustCompile(`.chart.result[0].meta.regularMarketPrice`)
	currencyQuery = jq.MustCompile(`.chart.result[0].meta.currency`)
	symbolQuery   = jq.MustCompile(`.chart.result[0].meta.symbol`)
	chartErrQuery = jq.MustCompile(`.chart.error.description`)
)

// ErrUnknownTicker means the quote service has no data for the symbol
var ErrUnknownTicker = errors.New("no data found for ticker")

// YahooQuoter reads prices from the Yahoo Finance chart endpoint
type YahooQuoter struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

var _ repositories.StockQuoter = (*YahooQuoter)(nil)

// NewYahooQuoter creates a quoter against baseURL
func NewYahooQuoter(baseURL string, client *http.Client, logger *zap.Logger) *YahooQuoter {
	return &YahooQuoter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

// Quote implements repositories.StockQuoter
func (y *YahooQuoter) Quote(ctx context.Context, ticker string) (*repositories.Quote, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("ticker cannot be empty")
	}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d", y.baseURL, url.PathEscape(ticker))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	y.logger.Debug("Fetching stock quote", zap.String("ticker", ticker))

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read quote response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if desc, err := chartErrQuery.String(body); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTicker, desc)
		}
		return nil, fmt.Errorf("quote API returned status %d", resp.StatusCode)
	}

	price, err := priceQuery.Float(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTicker, ticker)
	}

	quote := &repositories.Quote{
		Symbol: ticker,
		Price:  decimal.NewFromFloat(price),
	}
	if s, err := symbolQuery.String(body); err == nil {
		quote.Symbol = s
	}
	if name, err := longNameQuery.String(body); err == nil {
		quote.LongName = name
	}
	if currency, err := currencyQuery.String(body); err == nil {
		quote.Currency = currency
	}

	y.logger.Info("Stock quote fetched",
		zap.String("ticker", quote.Symbol),
		zap.String("price", quote.Price.String()))
	return quote, nil
}
