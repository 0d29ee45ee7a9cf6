package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

const (
	MinBand = 0.0
	MaxBand = 9.0

	roundingTolerance = 1e-9
)

var (
	ErrNonMonotonicTable = errors.New("band table is not monotonic")
	ErrInvalidBand       = errors.New("band must be a multiple of 0.5 within [0, 9]")
	ErrCriteriaCount     = errors.New("exactly four criteria are required")
	ErrNoTaskBands       = errors.New("no task band supplied")
)

// IELTSRound rounds x to the nearest half band, midpoints going up
// (6.25 -> 6.5, 6.75 -> 7.0), and clamps the result to [0, 9].
func IELTSRound(x float64) float64 {
	if math.IsNaN(x) {
		return MinBand
	}
	r := math.Floor(x*2+0.5+roundingTolerance) / 2
	return math.Max(MinBand, math.Min(MaxBand, r))
}

// ValidBand reports whether b is a half-point multiple in [0, 9].
func ValidBand(b float64) bool {
	if b < MinBand || b > MaxBand {
		return false
	}
	return math.Abs(b*2-math.Round(b*2)) < roundingTolerance
}

// Threshold is one row of a band table.
type Threshold struct {
	MinScore int     `json:"minScore"`
	Band     float64 `json:"band"`
}

// ThresholdTable converts a raw 0-40 score into a band. Rows are ordered by
// MinScore descending and the first row the score reaches wins.
type ThresholdTable []Threshold

// NewThresholdTable copies rows, orders them descending by MinScore and checks
// that bands never increase as MinScore decreases.
func NewThresholdTable(rows []Threshold) (ThresholdTable, error) {
	t := make(ThresholdTable, len(rows))
	copy(t, rows)
	sort.SliceStable(t, func(i, j int) bool { return t[i].MinScore > t[j].MinScore })
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t ThresholdTable) Validate() error {
	for i, row := range t {
		if !ValidBand(row.Band) {
			return fmt.Errorf("row %d (minScore %d): %w", i, row.MinScore, ErrInvalidBand)
		}
		if i == 0 {
			continue
		}
		prev := t[i-1]
		if row.MinScore > prev.MinScore || row.Band > prev.Band {
			return fmt.Errorf("row %d (minScore %d, band %.1f): %w", i, row.MinScore, row.Band, ErrNonMonotonicTable)
		}
	}
	return nil
}

// Lookup returns the band of the first row with raw >= MinScore. A score below
// every threshold gets the table's lowest band; an empty table gives 0.
func (t ThresholdTable) Lookup(raw int) float64 {
	for _, row := range t {
		if raw >= row.MinScore {
			return row.Band
		}
	}
	if len(t) == 0 {
		return MinBand
	}
	lowest := t[0].Band
	for _, row := range t[1:] {
		lowest = math.Min(lowest, row.Band)
	}
	return lowest
}

// percentageTable is the staircase used for tests without a band table:
// 5% steps, half a band per step from 10% upwards.
var percentageTable = ThresholdTable{
	{MinScore: 95, Band: 9.0},
	{MinScore: 90, Band: 8.5},
	{MinScore: 85, Band: 8.0},
	{MinScore: 80, Band: 7.5},
	{MinScore: 75, Band: 7.0},
	{MinScore: 70, Band: 6.5},
	{MinScore: 65, Band: 6.0},
	{MinScore: 60, Band: 5.5},
	{MinScore: 55, Band: 5.0},
	{MinScore: 50, Band: 4.5},
	{MinScore: 45, Band: 4.0},
	{MinScore: 40, Band: 3.5},
	{MinScore: 35, Band: 3.0},
	{MinScore: 30, Band: 2.5},
	{MinScore: 25, Band: 2.0},
	{MinScore: 20, Band: 1.5},
	{MinScore: 15, Band: 1.0},
	{MinScore: 10, Band: 0.5},
	{MinScore: 5, Band: 0.0},
	{MinScore: 0, Band: 0.0},
}

// PercentageBand converts a 0-100 percentage into a band. Percentages are
// floored to whole points before the lookup so 94.9% never reads as 95%.
func PercentageBand(pct float64) float64 {
	if math.IsNaN(pct) || pct < 0 {
		pct = 0
	}
	return percentageTable.Lookup(int(math.Floor(pct + roundingTolerance)))
}

// CriteriaBand averages the four assessment criteria of a Writing or Speaking
// response and rounds the mean to a band.
func CriteriaBand(criteria []float64) (float64, error) {
	if len(criteria) != 4 {
		return 0, ErrCriteriaCount
	}
	sum := 0.0
	for i, c := range criteria {
		if !ValidBand(c) {
			return 0, fmt.Errorf("criterion %d (%.2f): %w", i+1, c, ErrInvalidBand)
		}
		sum += c
	}
	return IELTSRound(sum / 4), nil
}

// TaskWeightedBand combines Writing task bands, Task 2 counting double. With
// only one task present that band is used as is.
func TaskWeightedBand(task1, task2 *float64) (float64, error) {
	for _, b := range []*float64{task1, task2} {
		if b != nil && !ValidBand(*b) {
			return 0, fmt.Errorf("task band %.2f: %w", *b, ErrInvalidBand)
		}
	}
	switch {
	case task1 != nil && task2 != nil:
		return IELTSRound((*task1 + *task2*2) / 3), nil
	case task1 != nil:
		return *task1, nil
	case task2 != nil:
		return *task2, nil
	}
	return 0, ErrNoTaskBands
}
