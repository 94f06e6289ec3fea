package models

// MTFField is one labeled currency figure from the MTF insight report. The
// value is already formatted with the currency symbol and unit suffix
// (e.g. "₹6,614.35 Cr", "-₹6,085.26 Cr").
type MTFField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// MTFInsight is the margin-trading-facility report for one day. Fields keep
// the report's order; the net-book label is carried from the page as either
// "Net Book Added" or "Net Book Liquidated" depending on market direction.
// An insight is only ever built complete: if any required figure is missing
// the whole record is discarded upstream.
type MTFInsight struct {
	Date   string     `json:"date"` // e.g. "Jul 18, 2025"
	Fields []MTFField `json:"fields"`
}

// Get returns the value for a field label and whether it is present.
func (m *MTFInsight) Get(label string) (string, bool) {
	for _, field := range m.Fields {
		if field.Label == label {
			return field.Value, true
		}
	}
	return "", false
}
