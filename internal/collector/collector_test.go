package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketLens/internal/model"
)

// Timestamps are 2020-01-03 and 2020-01-02 14:30 UTC, deliberately out of order.
const chartResponse = `{"chart":{"result":[{
	"timestamp":[1578061800,1577975400,1578321000],
	"indicators":{
		"quote":[{
			"open":[3226.36,3244.67,null],
			"high":[3246.15,3258.14,null],
			"low":[3222.34,3235.53,null],
			"close":[3234.85,3257.85,null],
			"volume":[3461290000,3458250000,null]
		}],
		"adjclose":[{"adjclose":[3234.85,3257.85,null]}]
	}
}],"error":null}}`

func TestYahooFetcher_FetchDaily(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotQuery = r.URL.RawQuery
		w.Write([]byte(chartResponse))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	from := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2020, 1, 10, 0, 0, 0, 0, time.UTC)
	rows, err := f.FetchDaily(context.Background(), "^GSPC", from, to)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/%5EGSPC", gotPath)
	assert.Contains(t, gotQuery, "interval=1d")
	assert.Contains(t, gotQuery, "period1=1577836800")

	require.Len(t, rows, 2, "null bar skipped")
	assert.Equal(t, model.RawRow{
		Date: "2020-01-02", Ticker: "^GSPC",
		Open: 3244.67, High: 3258.14, Low: 3235.53, Close: 3257.85, AdjClose: 3257.85, Volume: 3458250000,
	}, rows[0])
	assert.Equal(t, "2020-01-03", rows[1].Date)
}

func TestYahooFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	_, err := f.FetchDaily(context.Background(), "^FOO", time.Now().AddDate(0, -1, 0), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delisted")
}

func TestYahooFetcher_HTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	_, err := f.FetchDaily(context.Background(), "^DJI", time.Now().AddDate(0, -1, 0), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestCollector_Collect(t *testing.T) {
	mock := &MockFetcher{Rows: map[string][]model.RawRow{
		"^DJI":  {{Date: "2020-01-02", Ticker: "^DJI"}, {Date: "2020-01-03", Ticker: "^DJI"}},
		"^GSPC": {{Date: "2020-01-02", Ticker: "^GSPC"}},
	}}
	c := NewCollector(mock, []string{"^GSPC", "^DJI", "^NYA"}, zerolog.Nop())
	rows, err := c.Collect(context.Background(), time.Time{}, time.Now())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "^GSPC", rows[0].Ticker)
	assert.Equal(t, "^DJI", rows[1].Ticker)
}

func TestCollector_CollectError(t *testing.T) {
	c := NewCollector(&MockFetcher{Err: errors.New("boom")}, []string{"^DJI"}, zerolog.Nop())
	_, err := c.Collect(context.Background(), time.Time{}, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch ^DJI")
}
