package yahoo

import (
	"time"

	"github.com/wonny/momentum/internal/contracts"
)

// DefaultSymbols are the tracked market ETFs
var DefaultSymbols = []string{"SPY", "QQQ", "IWM"}

// ETFNames maps tracked symbols to the index they follow
var ETFNames = map[string]string{
	"SPY": "S&P 500",
	"QQQ": "NASDAQ 100",
	"IWM": "Russell 2000",
	"DIA": "Dow Jones Industrial Average",
}

// Trading-day lookbacks
const (
	lookback1W = 5
	lookback1M = 21
	lookback3M = 63
	lookback6M = 126
)

// ETF is one market overview row. Changes are percentage points.
type ETF struct {
	Symbol    string             `json:"symbol"`
	Name      string             `json:"name"`
	Price     float64            `json:"price"`
	Change1D  contracts.OptFloat `json:"change_1d"`
	Change1W  contracts.OptFloat `json:"change_1w"`
	Change1M  contracts.OptFloat `json:"change_1m"`
	Change3M  contracts.OptFloat `json:"change_3m"`
	Change6M  contracts.OptFloat `json:"change_6m"`
	ChangeYTD contracts.OptFloat `json:"change_ytd"`
	Change1Y  contracts.OptFloat `json:"change_1y"`
	AsOf      time.Time          `json:"as_of"`
}

// Overview is a market snapshot
type Overview struct {
	Items     []ETF     `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

// chartResponse is the subset of the v8 chart API we read
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
		RegularMarketTime  int64   `json:"regularMarketTime"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// point is one daily close
type point struct {
	ts    time.Time
	close float64
}
