package preparer

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketLens/internal/model"
)

func raw(date, ticker string, open, close, adj float64) model.RawRow {
	return model.RawRow{
		Date: date, Ticker: ticker,
		Open: open, High: math.Max(open, close), Low: math.Min(open, close),
		Close: close, AdjClose: adj, Volume: 1000,
	}
}

func TestPrepare_WorkedExample(t *testing.T) {
	rows := []model.RawRow{
		raw("2020-01-02", "^GSPC", 100, 110, 110),
		raw("2020-01-03", "^GSPC", 200, 190, 190),
		raw("2020-01-06", "^GSPC", 50, 50, 50),
	}
	out, err := Prepare(rows, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, []int{1, 0, 0}, []int{
		out[0].PriceChangeDirection, out[1].PriceChangeDirection, out[2].PriceChangeDirection,
	})
	assert.Equal(t, 10.0, out[0].PricePercentageChange)
	assert.Equal(t, -5.0, out[1].PricePercentageChange)
	assert.Equal(t, 0.0, out[2].PricePercentageChange)
	assert.Equal(t, []int{1, 0, 0}, []int{
		out[0].PricePercentageChangeDirection, out[1].PricePercentageChangeDirection, out[2].PricePercentageChangeDirection,
	})
	assert.Equal(t, "S&P 500", out[0].TickerName)
}

func TestPrepare_DirectionFollowsAdjClose(t *testing.T) {
	// Close above Open but Adj Close below: price change direction follows Adj Close.
	rows := []model.RawRow{raw("2020-01-02", "^DJI", 100, 110, 99)}
	out, err := Prepare(rows, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, -1.0, out[0].PriceChange)
	assert.Equal(t, 0, out[0].PriceChangeDirection)
	assert.Equal(t, 1, out[0].PricePercentageChangeDirection)
}

func TestPrepare_Properties(t *testing.T) {
	rows := sampleRows()
	out, err := Prepare(rows, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, out, len(rows))

	for i, r := range rows {
		e := out[i]
		assert.Equal(t, r.Ticker, e.Ticker, "row %d keeps identity", i)
		assert.Equal(t, r.AdjClose > r.Open, e.PriceChangeDirection == 1, "row %d", i)
		assert.Equal(t, (r.Close-r.Open)/r.Open*100, e.PricePercentageChange, "row %d", i)
	}
}

func TestPrepare_Idempotent(t *testing.T) {
	rows := sampleRows()
	a, err := Prepare(rows, DefaultOptions())
	require.NoError(t, err)
	b, err := Prepare(rows, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPrepare_CalendarFields(t *testing.T) {
	out, err := Prepare([]model.RawRow{raw("2019-11-29", "^NYA", 1, 1, 1)}, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2019, out[0].Year)
	assert.Equal(t, 11, out[0].Month)
	assert.Equal(t, "November", out[0].MonthName)
	assert.Equal(t, time.Date(2019, 11, 29, 0, 0, 0, 0, time.UTC), out[0].Date)
}

func TestPrepare_UnknownTickerKeepsSymbol(t *testing.T) {
	out, err := Prepare([]model.RawRow{raw("2020-01-02", "^FOO", 1, 2, 2)}, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "^FOO", out[0].TickerName)
}

func TestPrepare_Empty(t *testing.T) {
	out, err := Prepare(nil, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, GroupByYearAndDirection(out, 2020))
	assert.Empty(t, MonthlyVolumeByTicker(out, 2020))
	assert.Empty(t, Years(out))
	assert.Empty(t, SeriesByTicker(out))
}

func TestPrepare_BadDate(t *testing.T) {
	rows := []model.RawRow{
		raw("2020-01-02", "^DJI", 1, 1, 1),
		raw("not-a-date", "^DJI", 1, 1, 1),
	}
	_, err := Prepare(rows, DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadDate)
	assert.Contains(t, err.Error(), "row 1")
}

func TestPrepare_NaNAdjCloseLeavesLaterWindows(t *testing.T) {
	rows := make([]model.RawRow, 12)
	for i := range rows {
		rows[i] = raw(fmt.Sprintf("2020-01-%02d", i+1), "^GSPC", 10, 10, 10)
	}
	rows[0].AdjClose = math.NaN()

	out, err := Prepare(rows, DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, out[4].MovingAverage)
	assert.True(t, math.IsNaN(*out[4].MovingAverage))
	for i := 5; i < len(out); i++ {
		require.NotNil(t, out[i].MovingAverage, "row %d", i)
		assert.Equal(t, 10.0, *out[i].MovingAverage, "row %d", i)
	}
}

func TestPrepare_ZeroOpenPropagates(t *testing.T) {
	rows := []model.RawRow{
		raw("2020-01-02", "^DJI", 0, 5, 5),
		raw("2020-01-03", "^DJI", 0, 0, 0),
	}
	out, err := Prepare(rows, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, math.IsInf(out[0].PricePercentageChange, 1))
	assert.Equal(t, 1, out[0].PricePercentageChangeDirection)
	assert.True(t, math.IsNaN(out[1].PricePercentageChange))
	assert.Equal(t, 0, out[1].PricePercentageChangeDirection)
}

func TestPrepare_ZeroOpenErrorPolicy(t *testing.T) {
	opts := DefaultOptions()
	opts.ZeroOpen = ZeroOpenError
	_, err := Prepare([]model.RawRow{raw("2020-01-02", "^DJI", 0, 5, 5)}, opts)
	assert.ErrorIs(t, err, ErrZeroOpen)
}

func TestPrepare_InvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Window = 0
	_, err := Prepare(nil, opts)
	assert.Error(t, err)

	opts = DefaultOptions()
	opts.Scope = "weekly"
	_, err = Prepare(nil, opts)
	assert.Error(t, err)

	opts = DefaultOptions()
	opts.ZeroOpen = "ignore"
	_, err = Prepare(nil, opts)
	assert.Error(t, err)
}

func TestPrepare_MovingAverageTableScopeMixesTickers(t *testing.T) {
	// Two tickers interleaved; the table-scope window spans both.
	rows := []model.RawRow{
		raw("2020-01-02", "^DJI", 1, 1, 10),
		raw("2020-01-02", "^GSPC", 1, 1, 1000),
		raw("2020-01-03", "^DJI", 1, 1, 20),
		raw("2020-01-03", "^GSPC", 1, 1, 2000),
		raw("2020-01-06", "^DJI", 1, 1, 30),
		raw("2020-01-06", "^GSPC", 1, 1, 3000),
	}
	out, err := Prepare(rows, DefaultOptions())
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		assert.Nil(t, out[i].MovingAverage, "row %d", i)
	}
	require.NotNil(t, out[4].MovingAverage)
	assert.InDelta(t, (10+1000+20+2000+30)/5.0, *out[4].MovingAverage, 1e-9)
	assert.InDelta(t, (1000+20+2000+30+3000)/5.0, *out[5].MovingAverage, 1e-9)
}

func TestPrepare_MovingAverageTickerScope(t *testing.T) {
	var rows []model.RawRow
	start := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	for d := 0; d < 6; d++ {
		date := start.AddDate(0, 0, d).Format("2006-01-02")
		rows = append(rows,
			raw(date, "^DJI", 1, 1, float64(10*(d+1))),
			raw(date, "^IXIC", 1, 1, float64(1000*(d+1))),
		)
	}
	// Shuffle one ticker's rows out of date order; ticker scope sorts them.
	rows[0], rows[10] = rows[10], rows[0]

	opts := DefaultOptions()
	opts.Scope = ScopeTicker
	out, err := Prepare(rows, opts)
	require.NoError(t, err)
	require.Len(t, out, 12)

	for i, e := range out {
		assert.Equal(t, rows[i].Ticker, e.Ticker, "output order unchanged")
	}
	// ^IXIC rows are at odd indices; the 5th and 6th days carry a value.
	assert.Nil(t, out[7].MovingAverage)
	require.NotNil(t, out[9].MovingAverage)
	assert.InDelta(t, 3000.0, *out[9].MovingAverage, 1e-9)
	assert.InDelta(t, 4000.0, *out[11].MovingAverage, 1e-9)

	// ^DJI day 6 (value 60) now sits at index 0, day 1 (value 10) at index 10.
	require.NotNil(t, out[0].MovingAverage)
	assert.InDelta(t, 40.0, *out[0].MovingAverage, 1e-9)
	assert.Nil(t, out[10].MovingAverage)
}

func TestParseDate_Layouts(t *testing.T) {
	want := time.Date(2020, 3, 4, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2020-03-04", "2020-03-04 15:30:00", "2020-03-04T09:00:00Z", "2020/03/04", "03/04/2020"} {
		got, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}
	_, err := ParseDate("04.03.2020")
	assert.ErrorIs(t, err, ErrBadDate)
}

func sampleRows() []model.RawRow {
	return []model.RawRow{
		raw("2019-12-30", "^DJI", 100, 101, 101),
		raw("2019-12-31", "^DJI", 101, 100, 100.5),
		raw("2020-01-02", "^DJI", 100, 105, 105),
		raw("2020-01-03", "^DJI", 105, 103, 103),
		raw("2020-01-02", "^IXIC", 50, 49, 49),
		raw("2020-01-03", "^IXIC", 49, 52, 52),
		raw("2020-02-03", "^IXIC", 52, 52, 52),
		raw("2021-06-01", "^NYA", 10, 11, 11),
	}
}
