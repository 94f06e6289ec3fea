package models

// Quote represents a single index reading ready for display: a
// locale-formatted value and a signed percent change. Quotes are built once
// by the fetchers and never mutated afterwards.
type Quote struct {
	DisplayValue  string `json:"display_value"`  // e.g. "25,012.50"
	ChangePercent string `json:"change_percent"` // e.g. "-0.80%"
}

// SnapshotLabels is the fixed presentation order for the global market
// snapshot. Rendering and captioning both iterate this slice, so the order
// here is the order the public post shows.
var SnapshotLabels = []string{
	"GIFTNIFTY",
	"Nikkei 225",
	"Dow Jones Futures",
	"S&P 500",
	"Nasdaq",
	"Hang Seng",
}

// SnapshotEntry pairs an index label with its quote.
type SnapshotEntry struct {
	Label string `json:"label"`
	Quote Quote  `json:"quote"`
}

// MarketSnapshot is a point-in-time aggregate of index quotes keyed by label.
// It is created fresh on every aggregation run and is read-only afterwards.
// An absent label means that source was unavailable, never a zero value.
type MarketSnapshot struct {
	quotes map[string]Quote
}

// NewMarketSnapshot builds a snapshot from a label-to-quote map. The map is
// copied so later mutation by the caller cannot leak into the snapshot.
func NewMarketSnapshot(quotes map[string]Quote) *MarketSnapshot {
	copied := make(map[string]Quote, len(quotes))
	for label, quote := range quotes {
		copied[label] = quote
	}
	return &MarketSnapshot{quotes: copied}
}

// Get returns the quote for a label and whether it is present.
func (s *MarketSnapshot) Get(label string) (Quote, bool) {
	quote, ok := s.quotes[label]
	return quote, ok
}

// Len returns the number of populated labels.
func (s *MarketSnapshot) Len() int {
	return len(s.quotes)
}

// Entries returns the populated entries in the fixed presentation order,
// skipping absent labels. Completion order of the underlying fetches never
// affects this ordering.
func (s *MarketSnapshot) Entries() []SnapshotEntry {
	entries := make([]SnapshotEntry, 0, len(s.quotes))
	for _, label := range SnapshotLabels {
		if quote, ok := s.quotes[label]; ok {
			entries = append(entries, SnapshotEntry{Label: label, Quote: quote})
		}
	}
	return entries
}
