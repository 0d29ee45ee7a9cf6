package scoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fortyItems builds 40 one-point fill-in-blank questions answered "ans<i>".
func fortyItems() []Question {
	qs := make([]Question, 0, 40)
	for i := 0; i < 40; i++ {
		qs = append(qs, Question{ID: fmt.Sprintf("q%d", i), Type: FillInBlank, Points: 1, Correct: Text(fmt.Sprintf("ans%d", i))})
	}
	return qs
}

func TestScoreModule_ReadingScenario(t *testing.T) {
	qs := fortyItems()
	answers := make(map[string]Answer)
	for i := 0; i < 32; i++ {
		answers[qs[i].ID] = Text(fmt.Sprintf("ANS%d", i))
	}

	ms := ScoreModule(qs, answers)
	assert.Equal(t, 32, ms.CorrectCount)
	assert.Equal(t, 40, ms.TotalQuestions)
	assert.Equal(t, 32.0, ms.RawScore)
	assert.Equal(t, 32, ms.Scaled(40))

	table, err := NewThresholdTable(academicReading)
	require.NoError(t, err)
	assert.Equal(t, 7.0, table.Lookup(ms.Scaled(DefaultTotalItems)))
}

func TestScoreModule_PointWeighted(t *testing.T) {
	qs := []Question{
		{ID: "a", Type: MultipleChoice, Points: 1, Correct: Text("A")},
		{ID: "b", Type: MatchingHeadings, Points: 10, Correct: Parts{"1": Text("i"), "2": Text("ii"), "3": Text("iii"), "4": Text("iv"), "5": Text("v")}},
		{ID: "c", Type: FillInBlank, Points: 2},
	}
	answers := map[string]Answer{
		"a": Text("a) first"),
		"b": Parts{"1": Text("i"), "2": Text("ii"), "3": Text("iii"), "4": Text("x"), "5": Text("y")},
		"c": Text("whatever"),
	}

	ms := ScoreModule(qs, answers)
	assert.Equal(t, 13, ms.TotalQuestions)
	assert.Equal(t, 7.0, ms.RawScore)
	assert.Equal(t, 1, ms.CorrectCount)
	assert.Equal(t, []string{"c"}, ms.Unscorable)
	// round(7/13*40) = round(21.54) = 22
	assert.Equal(t, 22, ms.Scaled(40))
}

func TestScoreModule_Deterministic(t *testing.T) {
	qs := fortyItems()
	answers := map[string]Answer{"q1": Text("ans1"), "q2": Text("nope"), "q7": Text(" ans7 ")}

	first := ScoreModule(qs, answers)
	second := ScoreModule(qs, answers)
	assert.Equal(t, first, second)
}

func TestScoreModule_Empty(t *testing.T) {
	ms := ScoreModule(nil, nil)
	assert.Equal(t, 0, ms.TotalQuestions)
	assert.Equal(t, 0.0, ms.Fraction())
	assert.Equal(t, 0, ms.Scaled(40))
}

func TestModuleScoreScaled(t *testing.T) {
	tests := []struct {
		raw   float64
		total int
		items int
		want  int
	}{
		{raw: 16, total: 20, items: 40, want: 32},
		{raw: 13, total: 26, items: 40, want: 20},
		// 0.5 of an item rounds up
		{raw: 1, total: 80, items: 40, want: 1},
		{raw: 5, total: 10, items: 0, want: 20},
	}
	for _, tc := range tests {
		ms := ModuleScore{RawScore: tc.raw, TotalQuestions: tc.total}
		assert.Equal(t, tc.want, ms.Scaled(tc.items), "raw=%v total=%d items=%d", tc.raw, tc.total, tc.items)
	}
}
