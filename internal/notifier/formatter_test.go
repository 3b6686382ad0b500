package notifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"MarketLens/internal/model"
)

func TestFormatDirectionReport(t *testing.T) {
	counts := map[string]model.DirectionCount{
		"^GSPC": {Loss: 100, Profit: 153},
		"^DJI":  {Loss: 2, Profit: 0},
	}
	out := FormatDirectionReport(Plain, 2020, counts, model.DefaultTickerNames())
	assert.Contains(t, out, "(2020)")
	assert.Contains(t, out, "Dow Jones  loss    2 | profit    0")
	assert.Contains(t, out, "S&P 500    loss  100 | profit  153")
	assert.Less(t, indexOf(out, "Dow Jones"), indexOf(out, "S&P 500"), "tickers sorted by symbol")
}

func TestFormatDirectionReport_HTMLEscapesNames(t *testing.T) {
	counts := map[string]model.DirectionCount{"^GSPC": {Loss: 1, Profit: 1}}
	out := FormatDirectionReport(HTML, 2020, counts, model.DefaultTickerNames())
	assert.Contains(t, out, "<b>")
	assert.Contains(t, out, "S&amp;P 500")
	assert.NotContains(t, out, "S&P")
}

func TestFormatDirectionReport_Empty(t *testing.T) {
	out := FormatDirectionReport(Plain, 1999, nil, nil)
	assert.Contains(t, out, "No trading days recorded for 1999")
}

func TestFormatVolumeReport(t *testing.T) {
	vol := map[model.MonthTicker]float64{
		{Month: 2, Ticker: "^IXIC"}: 2.5e9,
		{Month: 1, Ticker: "^IXIC"}: 1.25e9,
	}
	out := FormatVolumeReport(Plain, 2021, vol, model.DefaultTickerNames())
	assert.Contains(t, out, "NASDAQ")
	assert.Contains(t, out, "Jan 1.25 G")
	assert.Contains(t, out, "Feb 2.5 G")
	assert.Less(t, indexOf(out, "Jan"), indexOf(out, "Feb"))
}

func TestFormatSummaryReport(t *testing.T) {
	out := FormatSummaryReport(Plain, 2020, []model.YearSummary{
		{Ticker: "^DJI", Name: "Dow Jones", TradingDays: 253, ProfitDays: 140, MeanPct: 0.0421, StdDevPct: 2.1},
	})
	assert.Contains(t, out, "Dow Jones  days 253 | up 140 | mean +0.042% | sd 2.100%")
}

func TestFormatYears(t *testing.T) {
	assert.Contains(t, FormatYears(Plain, []int{2019, 2020}), "2019, 2020")
	assert.Equal(t, "No data loaded.\n", FormatYears(Plain, nil))
}

func TestFormatRefresh(t *testing.T) {
	span := model.Span{
		First: time.Date(2000, 1, 3, 0, 0, 0, 0, time.UTC),
		Last:  time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC),
		Low:   1000.5, High: 36799.65,
	}
	out := FormatRefresh(Plain, 23456, span)
	assert.Contains(t, out, "Rows: 23,456")
	assert.Contains(t, out, "2000-01-03 to 2023-06-30")
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
