package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wonny/momentum/internal/metrics"
	"github.com/wonny/momentum/pkg/httputil"
	"github.com/wonny/momentum/pkg/logger"
)

// DefaultBaseURL is the public chart API host
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// ErrNoData is returned when the chart API has no usable closes
var ErrNoData = errors.New("no chart data")

// Circuit breaker defaults: 연속 실패 시 cooldown 동안 호출 차단
const (
	breakerFailures = 5
	breakerTimeout  = 60 * time.Second
)

// Client handles communication with the Yahoo Finance chart API
// ⭐ SSOT: Yahoo Finance API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	metrics    *metrics.Registry
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a new Yahoo Finance client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "yahoo",
		Timeout: breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.WithFields(map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
	return c
}

// WithMetrics records per-symbol fetch results
func (c *Client) WithMetrics(m *metrics.Registry) *Client {
	c.metrics = m
	return c
}

// FetchETF fetches one year of daily closes and derives period changes
func (c *Client) FetchETF(ctx context.Context, symbol string, now time.Time) (*ETF, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", "1y")
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	var resp chartResponse
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.httpClient.GetJSON(ctx, fullURL, &resp)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("fetch %s: %s: %s", symbol, resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("fetch %s: %w", symbol, ErrNoData)
	}

	result := resp.Chart.Result[0]
	points := closes(result)
	if len(points) == 0 {
		return nil, fmt.Errorf("fetch %s: %w", symbol, ErrNoData)
	}

	name, ok := ETFNames[symbol]
	if !ok {
		name = symbol
	}

	etf := &ETF{
		Symbol: symbol,
		Name:   name,
		Price:  result.Meta.RegularMarketPrice,
		AsOf:   points[len(points)-1].ts,
	}
	if etf.Price <= 0 {
		etf.Price = points[len(points)-1].close
	}
	if result.Meta.RegularMarketTime > 0 {
		etf.AsOf = time.Unix(result.Meta.RegularMarketTime, 0).UTC()
	}

	etf.Change1D = changeBack(points, etf.Price, 1)
	etf.Change1W = changeBack(points, etf.Price, lookback1W)
	etf.Change1M = changeBack(points, etf.Price, lookback1M)
	etf.Change3M = changeBack(points, etf.Price, lookback3M)
	etf.Change6M = changeBack(points, etf.Price, lookback6M)
	etf.Change1Y = pctChange(points[0].close, etf.Price)
	etf.ChangeYTD = changeYTD(points, etf.Price, now)

	return etf, nil
}

// Overview fetches every symbol. Failed symbols are logged and skipped.
func (c *Client) Overview(ctx context.Context, symbols []string, now time.Time) *Overview {
	overview := &Overview{
		Items:     make([]ETF, 0, len(symbols)),
		UpdatedAt: now.UTC(),
	}

	for _, symbol := range symbols {
		etf, err := c.FetchETF(ctx, symbol, now)
		if c.metrics != nil {
			c.metrics.RecordMarketFetch(symbol, err)
		}
		if err != nil {
			c.logger.WithFields(map[string]interface{}{
				"symbol": symbol,
			}).WithError(err).Warn("Could not fetch market data")
			continue
		}
		overview.Items = append(overview.Items, *etf)

		c.logger.WithFields(map[string]interface{}{
			"symbol":     symbol,
			"price":      etf.Price,
			"change_1d":  etf.Change1D.Or(0),
			"change_ytd": etf.ChangeYTD.Or(0),
		}).Debug("Market data fetched")
	}

	return overview
}
