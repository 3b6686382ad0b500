package model

// TickerNames maps a ticker symbol to its display name.
type TickerNames map[string]string

// DefaultTickerNames returns the display names of the four tracked indices.
func DefaultTickerNames() TickerNames {
	return TickerNames{
		"^NYA":  "NYSE",
		"^IXIC": "NASDAQ",
		"^DJI":  "Dow Jones",
		"^GSPC": "S&P 500",
	}
}

// Lookup returns the display name for ticker, or ticker itself when unmapped.
func (n TickerNames) Lookup(ticker string) string {
	if name, ok := n[ticker]; ok {
		return name
	}
	return ticker
}
