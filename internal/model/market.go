package model

import "time"

// RawRow is one line of the source price table. Date is kept as text and
// parsed during preparation so that a bad value surfaces as an error there.
type RawRow struct {
	Date     string
	Ticker   string
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   float64
}

// EnrichedRow is a RawRow plus every derived column.
type EnrichedRow struct {
	Date     time.Time
	Ticker   string
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   float64

	PriceChange                    float64
	PriceChangeDirection           int
	PricePercentageChange          float64 // may be non-finite when Open == 0
	PricePercentageChangeDirection int
	MovingAverage                  *float64 // nil for the leading rows of a window

	Year       int
	Month      int
	MonthName  string
	TickerName string
}

// DirectionCount holds loss and profit day counts for one ticker.
type DirectionCount struct {
	Loss   int `json:"loss"`
	Profit int `json:"profit"`
}

// MonthTicker keys the monthly volume grouping.
type MonthTicker struct {
	Month  int
	Ticker string
}

// SeriesPoint is a single (date, adjusted close) observation.
type SeriesPoint struct {
	Date     time.Time
	AdjClose float64
}

// TickerSeries is the adjusted close history of one ticker in date order.
type TickerSeries struct {
	Ticker string
	Name   string
	Points []SeriesPoint
}

// YearSummary describes one ticker's percentage changes within a year.
type YearSummary struct {
	Ticker      string
	Name        string
	TradingDays int
	ProfitDays  int
	MeanPct     float64
	StdDevPct   float64
}

// Span is the date and price extent of a table.
type Span struct {
	First time.Time
	Last  time.Time
	Low   float64
	High  float64
}
