package yahoo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/pkg/config"
	"github.com/wonny/momentum/pkg/httputil"
	"github.com/wonny/momentum/pkg/redis"
)

var now = time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)

// series: 130 daily closes 100..229, first three in December 2024
func chartJSON(t *testing.T) []byte {
	t.Helper()
	start := time.Date(2024, 12, 29, 14, 30, 0, 0, time.UTC)

	var body chartResponse
	var res chartResult
	res.Meta.Symbol = "SPY"
	res.Meta.RegularMarketPrice = 229
	closeValues := make([]*float64, 0, 130)
	for i := 0; i < 130; i++ {
		v := float64(100 + i)
		closeValues = append(closeValues, &v)
		res.Timestamp = append(res.Timestamp, start.AddDate(0, 0, i).Unix())
	}
	res.Indicators.Quote = append(res.Indicators.Quote, struct {
		Close []*float64 `json:"close"`
	}{Close: closeValues})
	body.Chart.Result = []chartResult{res}

	data, err := json.Marshal(body)
	require.NoError(t, err)
	return data
}

func newTestServer(t *testing.T) *httptest.Server {
	spy := chartJSON(t)
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1y", r.URL.Query().Get("range"))
		switch strings.TrimPrefix(r.URL.Path, "/v8/finance/chart/") {
		case "SPY":
			w.Write(spy)
		case "QQQ":
			w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
		case "DIA":
			w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func newTestClient(serverURL string) *Client {
	return NewClient(httputil.New(nil).DisableRetry(), nil, serverURL)
}

func pct(base, cur float64) float64 { return (cur - base) / base * 100 }

func TestFetchETF(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	etf, err := newTestClient(server.URL).FetchETF(context.Background(), "SPY", now)
	require.NoError(t, err)

	assert.Equal(t, "S&P 500", etf.Name)
	assert.Equal(t, 229.0, etf.Price)
	assert.InDelta(t, pct(228, 229), etf.Change1D.Value, 1e-9)
	assert.InDelta(t, pct(224, 229), etf.Change1W.Value, 1e-9)
	assert.InDelta(t, pct(208, 229), etf.Change1M.Value, 1e-9)
	assert.InDelta(t, pct(166, 229), etf.Change3M.Value, 1e-9)
	assert.InDelta(t, pct(103, 229), etf.Change6M.Value, 1e-9)
	assert.InDelta(t, pct(100, 229), etf.Change1Y.Value, 1e-9)
	// 전년도 마지막 종가(12/31 = 102) 기준
	assert.InDelta(t, pct(102, 229), etf.ChangeYTD.Value, 1e-9)
}

func TestFetchETF_Errors(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()
	client := newTestClient(server.URL)

	_, err := client.FetchETF(context.Background(), "QQQ", now)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = client.FetchETF(context.Background(), "DIA", now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")

	_, err = client.FetchETF(context.Background(), "XXX", now)
	assert.ErrorIs(t, err, httputil.ErrStatus)
}

func TestOverview_SkipsFailures(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	overview := newTestClient(server.URL).Overview(context.Background(), []string{"SPY", "XXX", "QQQ"}, now)

	require.Len(t, overview.Items, 1)
	assert.Equal(t, "SPY", overview.Items[0].Symbol)
	assert.Equal(t, now, overview.UpdatedAt)
}

func TestFetchETF_BreakerOpens(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()
	client := newTestClient(server.URL)

	for i := 0; i < breakerFailures; i++ {
		_, err := client.FetchETF(context.Background(), "SPY", now)
		assert.ErrorIs(t, err, httputil.ErrStatus)
	}

	_, err := client.FetchETF(context.Background(), "SPY", now)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(breakerFailures), atomic.LoadInt32(&hits))
}

func TestChanges_ShortSeries(t *testing.T) {
	one, two := 50.0, 55.0
	var res chartResult
	res.Timestamp = []int64{now.AddDate(0, 0, -2).Unix(), now.AddDate(0, 0, -1).Unix(), now.Unix()}
	res.Indicators.Quote = append(res.Indicators.Quote, struct {
		Close []*float64 `json:"close"`
	}{Close: []*float64{&one, nil, &two}})

	points := closes(res)
	require.Len(t, points, 2)

	assert.InDelta(t, 10.0, changeBack(points, 55, 1).Value, 1e-9)
	assert.False(t, changeBack(points, 55, lookback1W).Valid)
	assert.True(t, changeYTD(points, 55, now).Valid)
	assert.False(t, changeYTD(points, 55, now.AddDate(1, 0, 0)).Valid)
	assert.False(t, pctChange(0, 10).Valid)
}

func TestOverviewStore(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	rc, err := redis.New(&config.Config{})
	require.NoError(t, err)
	cache := redis.NewCache(rc, "test")

	store := NewOverviewStore(newTestClient(server.URL), []string{"SPY"}, cache, nil)
	_, ok := store.Get(context.Background())
	assert.False(t, ok)

	overview, err := store.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, overview.Items, 1)

	got, ok := store.Get(context.Background())
	require.True(t, ok)
	assert.Same(t, overview, got)
}

func TestOverviewStore_AllFailedKeepsPrevious(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()
	client := newTestClient(server.URL)

	store := NewOverviewStore(client, []string{"SPY"}, nil, nil)
	first, err := store.Refresh(context.Background())
	require.NoError(t, err)

	store.symbols = []string{"XXX"}
	_, err = store.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNoData)

	got, ok := store.Get(context.Background())
	require.True(t, ok)
	assert.Same(t, first, got)
}

func TestNewOverviewStore_DefaultSymbols(t *testing.T) {
	store := NewOverviewStore(NewClient(httputil.New(nil), nil, ""), nil, nil, nil)
	assert.Equal(t, DefaultSymbols, store.symbols)
	assert.Equal(t, DefaultBaseURL, store.client.baseURL)
}
