package scoring

// ModuleBands holds the per-module bands of one attempt; nil means the module
// has no band yet.
type ModuleBands struct {
	Listening *float64 `json:"listening,omitempty"`
	Reading   *float64 `json:"reading,omitempty"`
	Writing   *float64 `json:"writing,omitempty"`
	Speaking  *float64 `json:"speaking,omitempty"`
}

// Present returns the bands that are set, in L/R/W/S order.
func (m ModuleBands) Present() []float64 {
	var out []float64
	for _, b := range []*float64{m.Listening, m.Reading, m.Writing, m.Speaking} {
		if b != nil {
			out = append(out, *b)
		}
	}
	return out
}

// OverallBand averages the present module bands and rounds the mean. Missing
// modules are excluded rather than counted as zero; with none present the
// result is 0.
func OverallBand(m ModuleBands) float64 {
	present := m.Present()
	if len(present) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range present {
		sum += b
	}
	return IELTSRound(sum / float64(len(present)))
}
