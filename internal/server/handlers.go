package server

import (
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"MarketLens/internal/dashboard"
	"MarketLens/internal/model"
)

const dateLayout = "2006-01-02"

// Handlers serves the chart endpoints
type Handlers struct {
	service *dashboard.Service
	log     zerolog.Logger
}

// NewHandlers creates chart handlers over service
func NewHandlers(service *dashboard.Service, log zerolog.Logger) *Handlers {
	return &Handlers{
		service: service,
		log:     log.With().Str("handler", "charts").Logger(),
	}
}

// JSON cannot carry Inf or NaN, so those become null.
func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

func finitePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return finite(*v)
}

type rowResponse struct {
	Date                           string   `json:"date"`
	Ticker                         string   `json:"ticker"`
	TickerName                     string   `json:"ticker_name"`
	Open                           *float64 `json:"open"`
	High                           *float64 `json:"high"`
	Low                            *float64 `json:"low"`
	Close                          *float64 `json:"close"`
	AdjClose                       *float64 `json:"adj_close"`
	Volume                         *float64 `json:"volume"`
	PriceChange                    *float64 `json:"price_change"`
	PriceChangeDirection           int      `json:"price_change_direction"`
	PricePercentageChange          *float64 `json:"price_percentage_change"`
	PricePercentageChangeDirection int      `json:"price_percentage_change_direction"`
	MovingAverage                  *float64 `json:"moving_average"`
	Year                           int      `json:"year"`
	Month                          int      `json:"month"`
	MonthName                      string   `json:"month_name"`
}

func toRowResponse(r model.EnrichedRow) rowResponse {
	return rowResponse{
		Date:                           r.Date.Format(dateLayout),
		Ticker:                         r.Ticker,
		TickerName:                     r.TickerName,
		Open:                           finite(r.Open),
		High:                           finite(r.High),
		Low:                            finite(r.Low),
		Close:                          finite(r.Close),
		AdjClose:                       finite(r.AdjClose),
		Volume:                         finite(r.Volume),
		PriceChange:                    finite(r.PriceChange),
		PriceChangeDirection:           r.PriceChangeDirection,
		PricePercentageChange:          finite(r.PricePercentageChange),
		PricePercentageChangeDirection: r.PricePercentageChangeDirection,
		MovingAverage:                  finitePtr(r.MovingAverage),
		Year:                           r.Year,
		Month:                          r.Month,
		MonthName:                      r.MonthName,
	}
}

type directionEntry struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	Loss   int    `json:"loss"`
	Profit int    `json:"profit"`
}

type volumeEntry struct {
	Month     int      `json:"month"`
	MonthName string   `json:"month_name"`
	Ticker    string   `json:"ticker"`
	Name      string   `json:"name"`
	Volume    *float64 `json:"volume"`
}

type seriesPoint struct {
	Date     string   `json:"date"`
	AdjClose *float64 `json:"adj_close"`
}

type seriesEntry struct {
	Ticker string        `json:"ticker"`
	Name   string        `json:"name"`
	Points []seriesPoint `json:"points"`
}

type spanResponse struct {
	First string   `json:"first"`
	Last  string   `json:"last"`
	Low   *float64 `json:"low"`
	High  *float64 `json:"high"`
}

type summaryEntry struct {
	Ticker      string   `json:"ticker"`
	Name        string   `json:"name"`
	TradingDays int      `json:"trading_days"`
	ProfitDays  int      `json:"profit_days"`
	MeanPct     *float64 `json:"mean_pct"`
	StdDevPct   *float64 `json:"std_dev_pct"`
}

// HandleHealth handles GET /health
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleYears handles GET /api/years
func (h *Handlers) HandleYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.service.Years()
	if err != nil {
		h.loadFailed(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string][]int{"years": years})
}

// HandleTickers handles GET /api/tickers
func (h *Handlers) HandleTickers(w http.ResponseWriter, r *http.Request) {
	tickers, err := h.service.Tickers()
	if err != nil {
		h.loadFailed(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string][]dashboard.TickerInfo{"tickers": tickers})
}

// HandleRows handles GET /api/rows?year=&ticker=
func (h *Handlers) HandleRows(w http.ResponseWriter, r *http.Request) {
	year := 0
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid year", http.StatusBadRequest)
			return
		}
		year = y
	}
	rows, err := h.service.Rows(year, r.URL.Query().Get("ticker"))
	if err != nil {
		h.loadFailed(w, err)
		return
	}
	out := make([]rowResponse, len(rows))
	for i, row := range rows {
		out[i] = toRowResponse(row)
	}
	h.writeJSON(w, http.StatusOK, map[string][]rowResponse{"rows": out})
}

// HandleDirection handles GET /api/direction/{year}
func (h *Handlers) HandleDirection(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	counts, err := h.service.Direction(year)
	if err != nil {
		h.loadFailed(w, err)
		return
	}
	names := h.service.Names()
	out := make([]directionEntry, 0, len(counts))
	for t, c := range counts {
		out = append(out, directionEntry{Ticker: t, Name: names.Lookup(t), Loss: c.Loss, Profit: c.Profit})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	h.writeJSON(w, http.StatusOK, map[string]any{"year": year, "tickers": out})
}

// HandleVolume handles GET /api/volume/{year}
func (h *Handlers) HandleVolume(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	vol, err := h.service.MonthlyVolume(year)
	if err != nil {
		h.loadFailed(w, err)
		return
	}
	names := h.service.Names()
	out := make([]volumeEntry, 0, len(vol))
	for k, v := range vol {
		out = append(out, volumeEntry{
			Month:     k.Month,
			MonthName: time.Month(k.Month).String(),
			Ticker:    k.Ticker,
			Name:      names.Lookup(k.Ticker),
			Volume:    finite(v),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].Ticker < out[j].Ticker
	})
	h.writeJSON(w, http.StatusOK, map[string]any{"year": year, "volume": out})
}

// HandleSummary handles GET /api/summary/{year}
func (h *Handlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Summary(year)
	if err != nil {
		h.loadFailed(w, err)
		return
	}
	out := make([]summaryEntry, len(summary))
	for i, s := range summary {
		out[i] = summaryEntry{
			Ticker:      s.Ticker,
			Name:        s.Name,
			TradingDays: s.TradingDays,
			ProfitDays:  s.ProfitDays,
			MeanPct:     finite(s.MeanPct),
			StdDevPct:   finite(s.StdDevPct),
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"year": year, "tickers": out})
}

// HandleSeries handles GET /api/series
func (h *Handlers) HandleSeries(w http.ResponseWriter, r *http.Request) {
	series, span, err := h.service.Series()
	if err != nil {
		h.loadFailed(w, err)
		return
	}
	out := make([]seriesEntry, len(series))
	for i, s := range series {
		points := make([]seriesPoint, len(s.Points))
		for j, p := range s.Points {
			points[j] = seriesPoint{Date: p.Date.Format(dateLayout), AdjClose: finite(p.AdjClose)}
		}
		out[i] = seriesEntry{Ticker: s.Ticker, Name: s.Name, Points: points}
	}

	resp := map[string]any{"series": out, "span": nil}
	if !span.First.IsZero() {
		resp["span"] = spanResponse{
			First: span.First.Format(dateLayout),
			Last:  span.Last.Format(dateLayout),
			Low:   finite(span.Low),
			High:  finite(span.High),
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleReload handles POST /api/reload
func (h *Handlers) HandleReload(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Reload()
	if err != nil {
		h.loadFailed(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"rows":        len(snap.Rows),
		"fingerprint": snap.Fingerprint,
		"loaded_at":   snap.LoadedAt.Format(time.RFC3339),
	})
}

func yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		http.Error(w, "Invalid year", http.StatusBadRequest)
		return 0, false
	}
	return year, true
}

func (h *Handlers) loadFailed(w http.ResponseWriter, err error) {
	h.log.Error().Err(err).Msg("Failed to load market data")
	http.Error(w, "Failed to load market data", http.StatusInternalServerError)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
